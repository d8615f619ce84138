package main

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/d60-Lab/fitsocial/internal/model"
	"github.com/d60-Lab/fitsocial/internal/service"
	"github.com/d60-Lab/fitsocial/pkg/logger"
	"github.com/d60-Lab/fitsocial/pkg/pagination"
)

func benchCommand() *cli.Command {
	return &cli.Command{
		Name:  "bench",
		Usage: "Load scenarios against the configured database (creates throwaway users)",
		Commands: []*cli.Command{
			{
				Name:  "follow",
				Usage: "Many users follow one celebrity concurrently",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "n", Value: 10000, Usage: "number of followers"},
					&cli.IntFlag{Name: "conc", Value: 8, Usage: "concurrent callers"},
					&cli.IntFlag{Name: "page", Value: 50, Usage: "listing page size"},
				},
				Action: runFollowBench,
			},
			{
				Name:  "fanout",
				Usage: "Publish workouts from an author with many fans and wait for fan-out",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "n", Value: 20000, Usage: "number of fans"},
					&cli.IntFlag{Name: "posts", Value: 100, Usage: "workouts to publish"},
					&cli.IntFlag{Name: "workers", Value: 8, Usage: "fan-out workers"},
					&cli.IntFlag{Name: "batch", Value: 1000, Usage: "notifications per insert"},
				},
				Action: runFanoutBench,
			},
			{
				Name:  "feed",
				Usage: "Read feed pages for a viewer following many active users",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "followees", Value: 200, Usage: "users the viewer follows"},
					&cli.IntFlag{Name: "events", Value: 20, Usage: "workouts per followee"},
					&cli.IntFlag{Name: "repeat", Value: 50, Usage: "reads per page"},
				},
				Action: runFeedBench,
			},
		},
	}
}

// pct 返回第 p 分位（最近秩）
func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	k = max(0, min(k, len(xs)-1))
	return xs[k]
}

func summary(vs []time.Duration) string {
	if len(vs) == 0 {
		return "samples=0"
	}
	var sum time.Duration
	for _, d := range vs {
		sum += d
	}
	return fmt.Sprintf("samples=%d avg=%v p50=%v p95=%v p99=%v",
		len(vs), sum/time.Duration(len(vs)), pct(vs, 0.50), pct(vs, 0.95), pct(vs, 0.99))
}

func seedUsers(ctx context.Context, d *deps, prefix string, n int) ([]string, error) {
	users := make([]model.User, n)
	ids := make([]string, n)
	for i := range users {
		id := uuid.Must(uuid.NewV7()).String()
		ids[i] = id
		users[i] = model.User{ID: id, Username: fmt.Sprintf("%s-%s", prefix, id), DisplayName: prefix}
	}
	if err := d.db.WithContext(ctx).CreateInBatches(&users, 1000).Error; err != nil {
		return nil, fmt.Errorf("seed users: %w", err)
	}
	return ids, nil
}

// collect 持续读取延迟采样直到 stop 关闭
func collect(ch <-chan time.Duration, stop <-chan struct{}) <-chan []time.Duration {
	out := make(chan []time.Duration, 1)
	go func() {
		var recs []time.Duration
		for {
			select {
			case d := <-ch:
				recs = append(recs, d)
			case <-stop:
				for {
					select {
					case d := <-ch:
						recs = append(recs, d)
					default:
						out <- recs
						return
					}
				}
			}
		}
	}()
	return out
}

func runFollowBench(ctx context.Context, c *cli.Command) error {
	d, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()
	n, conc, pageSize := int(c.Int("n")), int(c.Int("conc")), int(c.Int("page"))

	celeb, err := seedUsers(ctx, d, "celeb", 1)
	if err != nil {
		return err
	}
	followers, err := seedUsers(ctx, d, "fan", n)
	if err != nil {
		return err
	}

	notifier := service.NewNotifier(d.store, n, logger.Named("notifier"))
	stopNotifier := notifier.Start(d.cfg.Notifier.Workers)
	graph := service.NewFollowGraph(d.store, service.NewPublisher(), nil, notifier, max(pageSize, d.cfg.Pagination.MaxSize), logger.Named("follow_graph"))

	stopCollect := make(chan struct{})
	landed := collect(notifier.Metrics(), stopCollect)

	var maxQueue atomic.Int64
	sampling, stopSampling := context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if q := int64(notifier.QueueLen()); q > maxQueue.Load() {
					maxQueue.Store(q)
				}
			case <-sampling.Done():
				return
			}
		}
	}()

	latencies := make([]time.Duration, n)
	var failed atomic.Int64
	start := time.Now()
	p := pool.New().WithMaxGoroutines(conc)
	for i, id := range followers {
		p.Go(func() {
			st := time.Now()
			if err := graph.Follow(ctx, id, celeb[0]); err != nil {
				failed.Add(1)
				d.log.Debug("follow failed", zap.Error(err))
			}
			latencies[i] = time.Since(st)
		})
	}
	p.Wait()
	total := time.Since(start)
	stopSampling()

	drainStart := time.Now()
	if err := stopNotifier(ctx); err != nil {
		return err
	}
	drain := time.Since(drainStart)
	close(stopCollect)

	q0 := time.Now()
	if _, err := graph.ListFollowers(ctx, celeb[0], pagination.New(0, pageSize)); err != nil {
		return err
	}
	followersRead := time.Since(q0)

	fmt.Printf("N=%d CONC=%d PAGE=%d failed=%d\n", n, conc, pageSize, failed.Load())
	fmt.Printf("Follow tx: total=%v %s\n", total, summary(latencies))
	fmt.Printf("Notification landing: %s maxQueue=%d drain=%v\n", summary(<-landed), maxQueue.Load(), drain)
	fmt.Printf("Followers page (%d): %v\n", pageSize, followersRead)
	return nil
}

func runFanoutBench(ctx context.Context, c *cli.Command) error {
	d, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()
	n, posts := int(c.Int("n")), int(c.Int("posts"))

	author, err := seedUsers(ctx, d, "author", 1)
	if err != nil {
		return err
	}
	fans, err := seedUsers(ctx, d, "fan", n)
	if err != nil {
		return err
	}
	graph := service.NewFollowGraph(d.store, service.NewPublisher(), nil, nil, d.cfg.Pagination.MaxSize, logger.Named("follow_graph"))
	for _, fan := range fans {
		if err := graph.Follow(ctx, fan, author[0]); err != nil {
			return err
		}
	}

	fanoutCfg := d.cfg.Fanout
	fanoutCfg.Workers = int(c.Int("workers"))
	fanoutCfg.BatchSize = int(c.Int("batch"))
	fanoutCfg.PollInterval = 20 * time.Millisecond
	worker := service.NewFanoutWorker(d.store, fanoutCfg, logger.Named("fanout"))
	stop := worker.Start()
	defer func() { _ = stop(context.Background()) }()

	workouts := service.NewWorkoutLog(d.store, service.NewPublisher(), d.cfg.Pagination.MaxSize)
	publish := make([]time.Duration, 0, posts)
	for i := 0; i < posts; i++ {
		st := time.Now()
		if _, err := workouts.Create(ctx, author[0], service.WorkoutInput{Title: fmt.Sprintf("bench %d", i)}); err != nil {
			return err
		}
		publish = append(publish, time.Since(st))
	}

	land := make([]time.Duration, 0, posts)
	timeout := time.After(2 * time.Minute)
wait:
	for len(land) < posts {
		select {
		case lat := <-worker.Metrics():
			land = append(land, lat)
		case <-timeout:
			fmt.Printf("timeout waiting for fan-out: got=%d want=%d\n", len(land), posts)
			break wait
		}
	}

	fmt.Printf("N=%d POSTS=%d WORKERS=%d BATCH=%d\n", n, posts, fanoutCfg.Workers, fanoutCfg.BatchSize)
	fmt.Printf("Create workout tx: %s\n", summary(publish))
	fmt.Printf("Fan-out landing (outbox->done): %s\n", summary(land))

	inbox := service.NewNotificationService(d.store, d.cfg.Pagination.MaxSize)
	st := time.Now()
	page, err := inbox.ListUnread(ctx, fans[0], pagination.New(0, d.cfg.Pagination.DefaultSize))
	if err != nil {
		return err
	}
	fmt.Printf("Inbox read (fan0, size=%d): %v, total=%d\n", d.cfg.Pagination.DefaultSize, time.Since(st), page.TotalElements)
	return nil
}

func runFeedBench(ctx context.Context, c *cli.Command) error {
	d, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()
	followees, events, repeat := int(c.Int("followees")), int(c.Int("events")), int(c.Int("repeat"))

	viewer, err := seedUsers(ctx, d, "viewer", 1)
	if err != nil {
		return err
	}
	authors, err := seedUsers(ctx, d, "author", followees)
	if err != nil {
		return err
	}

	publisher := service.NewPublisher()
	graph := service.NewFollowGraph(d.store, publisher, nil, nil, d.cfg.Pagination.MaxSize, logger.Named("follow_graph"))
	workouts := service.NewWorkoutLog(d.store, publisher, d.cfg.Pagination.MaxSize)
	for i, a := range authors {
		if err := graph.Follow(ctx, viewer[0], a); err != nil {
			return err
		}
		for j := 0; j < events; j++ {
			// 每隔几条混入私密记录，验证过滤开销
			in := service.WorkoutInput{Title: fmt.Sprintf("w%d-%d", i, j), IsPrivate: j%5 == 4}
			if _, err := workouts.Create(ctx, a, in); err != nil {
				return err
			}
		}
	}

	feed := service.NewActivityFeed(d.store, graph, publisher, d.cfg.Pagination.MaxSize)
	size := d.cfg.Pagination.DefaultSize
	for _, index := range []int{0, 10} {
		recs := make([]time.Duration, 0, repeat)
		var items int
		for r := 0; r < repeat; r++ {
			st := time.Now()
			s, err := feed.GetFeed(ctx, viewer[0], pagination.New(index, size))
			if err != nil {
				return err
			}
			recs = append(recs, time.Since(st))
			items = len(s.Items)
		}
		fmt.Printf("Feed page=%d size=%d items=%d: %s\n", index, size, items, summary(recs))
	}
	fmt.Printf("FOLLOWEES=%d EVENTS=%d REPEAT=%d\n", followees, events, repeat)
	return nil
}
