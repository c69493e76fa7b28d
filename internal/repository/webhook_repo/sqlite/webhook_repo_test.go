package sqlite

import (
	"context"
	"testing"
	"time"

	"dropwatch/internal/testsupport"
)

func TestWebhookLifecycle(t *testing.T) {
	repo := NewWebhookRepository(testsupport.MustOpenSQLite(t), time.Second)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	repo.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	for _, url := range []string{"https://hook.test/b", "https://hook.test/a"} {
		added, err := repo.Add(ctx, url)
		if err != nil || !added {
			t.Fatalf("Add(%s) = %v, %v", url, added, err)
		}
	}
	added, err := repo.Add(ctx, "https://hook.test/a")
	if err != nil || added {
		t.Fatalf("duplicate Add = %v, %v; want false", added, err)
	}

	hooks, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(hooks) != 2 || hooks[0].URL != "https://hook.test/b" || hooks[1].URL != "https://hook.test/a" {
		t.Fatalf("List = %+v, want insertion order", hooks)
	}

	removed, err := repo.Remove(ctx, "https://hook.test/b")
	if err != nil || !removed {
		t.Fatalf("Remove = %v, %v", removed, err)
	}
	removed, err = repo.Remove(ctx, "https://hook.test/b")
	if err != nil || removed {
		t.Fatalf("second Remove = %v, %v; want false", removed, err)
	}

	hooks, err = repo.List(ctx)
	if err != nil || len(hooks) != 1 || hooks[0].URL != "https://hook.test/a" {
		t.Fatalf("List after Remove = %+v, %v", hooks, err)
	}
}
