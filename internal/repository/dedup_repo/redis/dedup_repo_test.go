package redis

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"dropwatch/internal/domain"
)

func newTestRepo(t *testing.T) (*DedupRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewDedupRepository(client, "test:seen", time.Second), mr
}

func TestInsertUsesPrefixedKey(t *testing.T) {
	repo, mr := newTestRepo(t)
	ctx := context.Background()

	inserted, err := repo.Insert(ctx, "42")
	if err != nil || !inserted {
		t.Fatalf("Insert = %v, %v", inserted, err)
	}
	if !mr.Exists("test:seen:42") {
		t.Fatal("expected key test:seen:42")
	}

	inserted, err = repo.Insert(ctx, "42")
	if err != nil || inserted {
		t.Fatalf("second Insert = %v, %v; want false", inserted, err)
	}
}

func TestAdmitReleasesClaimOnForwardError(t *testing.T) {
	repo, mr := newTestRepo(t)
	forwardErr := errors.New("queue down")

	admitted, err := repo.Admit(context.Background(), "42", func(context.Context) error { return forwardErr })
	if !errors.Is(err, forwardErr) || admitted {
		t.Fatalf("Admit = %v, %v", admitted, err)
	}
	if mr.Exists("test:seen:42") {
		t.Fatal("claim should have been released")
	}
}

func TestAdmitConcurrentSameID(t *testing.T) {
	repo, _ := newTestRepo(t)

	var wg sync.WaitGroup
	var admits atomic.Int32
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			admitted, err := repo.Admit(context.Background(), "42", func(context.Context) error { return nil })
			if err != nil {
				t.Errorf("Admit: %v", err)
			}
			if admitted {
				admits.Add(1)
			}
		}()
	}
	wg.Wait()

	if admits.Load() != 1 {
		t.Fatalf("admits = %d, want 1", admits.Load())
	}
}

func TestStoreUnavailable(t *testing.T) {
	repo, mr := newTestRepo(t)
	mr.Close()

	if _, err := repo.Exists(context.Background(), "42"); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("Exists error = %v, want ErrStoreUnavailable", err)
	}
	if err := repo.Ping(context.Background()); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("Ping error = %v, want ErrStoreUnavailable", err)
	}
}
