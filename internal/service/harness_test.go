package service

import (
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"github.com/d60-Lab/fitsocial/internal/cache"
	"github.com/d60-Lab/fitsocial/internal/model"
	"github.com/d60-Lab/fitsocial/internal/repository"
	"github.com/d60-Lab/fitsocial/internal/testutil"
)

const testMaxPage = 50

type sent struct {
	recipient string
	parent    *model.ParentRef
	actor     string
	typ       model.NotificationType
}

type recordingSink struct {
	mu   sync.Mutex
	sent []sent
}

func (r *recordingSink) NotifyUser(recipientID, actorID string, typ model.NotificationType, _ map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sent{recipient: recipientID, actor: actorID, typ: typ})
}

func (r *recordingSink) NotifyParentOwner(parent model.ParentRef, actorID string, typ model.NotificationType, _ map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sent{parent: &parent, actor: actorID, typ: typ})
}

func (r *recordingSink) all() []sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sent(nil), r.sent...)
}

type harness struct {
	db        *gorm.DB
	store     *repository.Store
	sink      *recordingSink
	publisher *Publisher
	graph     FollowGraph
	feed      ActivityFeed
	reactions Reactions
	comments  CommentThread
	workouts  WorkoutLog
	routines  RoutineBook
	users     UserDirectory
	inbox     NotificationService
}

type harnessOption func(*harnessConfig)

type harnessConfig struct {
	relCache *cache.RelationCache
	clock    func() time.Time
}

func withRedis(t *testing.T) harnessOption {
	return func(c *harnessConfig) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		c.relCache = cache.NewRelationCache(client, time.Minute, zaptest.NewLogger(t))
	}
}

func withClock(clock func() time.Time) harnessOption {
	return func(c *harnessConfig) { c.clock = clock }
}

// tickingClock returns a clock advancing one second per call.
func tickingClock() func() time.Time {
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	var cfg harnessConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	db := testutil.NewDB(t)
	store := repository.NewStore(db)
	log := zaptest.NewLogger(t)
	sink := &recordingSink{}

	publisher := NewPublisher()
	if cfg.clock != nil {
		publisher = publisher.WithClock(cfg.clock)
	}
	graph := NewFollowGraph(store, publisher, cfg.relCache, sink, testMaxPage, log)

	return &harness{
		db:        db,
		store:     store,
		sink:      sink,
		publisher: publisher,
		graph:     graph,
		feed:      NewActivityFeed(store, graph, publisher, testMaxPage),
		reactions: NewReactions(store, sink),
		comments:  NewCommentThread(store, sink, testMaxPage),
		workouts:  NewWorkoutLog(store, publisher, testMaxPage),
		routines:  NewRoutineBook(store, publisher),
		users:     NewUserDirectory(store, log),
		inbox:     NewNotificationService(store, testMaxPage),
	}
}

func (h *harness) seed(t *testing.T, ids ...string) {
	t.Helper()
	testutil.SeedUsers(t, h.db, ids...)
}

func (h *harness) user(t *testing.T, id string) *model.User {
	t.Helper()
	var u model.User
	if err := h.db.Where("id = ?", id).First(&u).Error; err != nil {
		t.Fatalf("load user %s: %v", id, err)
	}
	return &u
}

func eventIDs(items []*model.ActivityEvent) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}
