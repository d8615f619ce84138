package repository_test

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/d60-Lab/fitsocial/internal/model"
	"github.com/d60-Lab/fitsocial/internal/repository"
	"github.com/d60-Lab/fitsocial/internal/testutil"
	"github.com/d60-Lab/fitsocial/pkg/pagination"
)

func BenchmarkFollowWrite_WithFanAndCounters(b *testing.B) {
	db := testutil.NewDB(b)
	store := repository.NewStore(db)
	ctx := context.Background()

	// 预创建部分用户
	users := make([]model.User, 1000)
	for i := range users {
		users[i] = model.User{ID: fmt.Sprintf("u%04d", i), Username: fmt.Sprintf("u%04d", i)}
	}
	if err := db.CreateInBatches(&users, 200).Error; err != nil {
		b.Fatalf("seed users: %v", err)
	}

	rng := rand.New(rand.NewSource(1))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		from := users[rng.Intn(len(users))].ID
		to := users[rng.Intn(len(users))].ID
		if from == to {
			continue
		}
		_ = store.Transaction(ctx, func(tx *repository.Store) error {
			created, err := tx.Follows.Create(ctx, from, to)
			if err != nil || !created {
				return err
			}
			if err := tx.Fans.Create(ctx, to, from); err != nil {
				return err
			}
			return tx.Users.IncrementFollowCounts(ctx, from, to)
		})
	}
}

func BenchmarkQueryFansAndFollowing(b *testing.B) {
	db := testutil.NewDB(b)
	store := repository.NewStore(db)
	ctx := context.Background()

	// 构造：一个用户 U0 有 N 个粉丝，同时 U0 也关注 N 个用户
	const N = 5000
	testutil.SeedUsers(b, db, "u0")
	for i := 1; i <= N; i++ {
		uid := fmt.Sprintf("u%v", i)
		testutil.SeedUsers(b, db, uid)
		_, _ = store.Follows.Create(ctx, uid, "u0") // 关注 u0
		_ = store.Fans.Create(ctx, "u0", uid)       // 冗余到 fans
		_, _ = store.Follows.Create(ctx, "u0", uid) // u0 关注别人
		_ = store.Fans.Create(ctx, uid, "u0")
	}

	page := pagination.New(0, 50)
	b.ResetTimer()
	b.Run("ListFans", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = store.Fans.ListFans(ctx, "u0", page)
		}
	})

	b.Run("ListFollowing", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = store.Follows.ListFollowings(ctx, "u0", page)
		}
	})

	b.Run("FolloweeIDs", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = store.Follows.FolloweeIDs(ctx, "u0")
		}
	})
}
