package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"dropwatch/internal/domain"
)

func newMockRepo(t *testing.T) (*WebhookRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewWebhookRepository(db, time.Second), mock
}

func TestList(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT url, created_at FROM webhooks`).
		WillReturnRows(sqlmock.NewRows([]string{"url", "created_at"}).
			AddRow("https://hook.test/1", created).
			AddRow("https://hook.test/2", created))

	hooks, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(hooks) != 2 || hooks[1].URL != "https://hook.test/2" {
		t.Fatalf("List = %+v", hooks)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestAddAndRemove(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`INSERT INTO webhooks`).
		WithArgs("https://hook.test/1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO webhooks`).
		WithArgs("https://hook.test/1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM webhooks`).
		WithArgs("https://hook.test/1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ctx := context.Background()
	if added, err := repo.Add(ctx, "https://hook.test/1"); err != nil || !added {
		t.Fatalf("Add = %v, %v", added, err)
	}
	if added, err := repo.Add(ctx, "https://hook.test/1"); err != nil || added {
		t.Fatalf("duplicate Add = %v, %v", added, err)
	}
	if removed, err := repo.Remove(ctx, "https://hook.test/1"); err != nil || !removed {
		t.Fatalf("Remove = %v, %v", removed, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestListStoreUnavailable(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`SELECT url, created_at FROM webhooks`).WillReturnError(errors.New("connection refused"))

	if _, err := repo.List(context.Background()); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("error = %v, want ErrStoreUnavailable", err)
	}
}
