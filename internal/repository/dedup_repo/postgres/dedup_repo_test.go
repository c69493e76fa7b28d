package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"dropwatch/internal/domain"
)

const insertQuery = `INSERT INTO seen_items`

func newMockRepo(t *testing.T) (*DedupRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewDedupRepository(db, time.Second), mock
}

func TestAdmitCommitsAfterForward(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(insertQuery).
		WithArgs("42", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("42"))
	mock.ExpectCommit()

	forwarded := false
	admitted, err := repo.Admit(context.Background(), "42", func(context.Context) error {
		forwarded = true
		return nil
	})
	if err != nil || !admitted || !forwarded {
		t.Fatalf("Admit = %v, %v (forwarded %v)", admitted, err, forwarded)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestAdmitSuppressesConflict(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(insertQuery).
		WithArgs("42", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	admitted, err := repo.Admit(context.Background(), "42", func(context.Context) error {
		t.Fatal("forward must not run for a duplicate")
		return nil
	})
	if err != nil || admitted {
		t.Fatalf("Admit = %v, %v; want false, nil", admitted, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestAdmitRollsBackOnForwardError(t *testing.T) {
	repo, mock := newMockRepo(t)
	forwardErr := errors.New("queue down")

	mock.ExpectBegin()
	mock.ExpectQuery(insertQuery).
		WithArgs("42", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("42"))
	mock.ExpectRollback()

	admitted, err := repo.Admit(context.Background(), "42", func(context.Context) error { return forwardErr })
	if !errors.Is(err, forwardErr) || admitted {
		t.Fatalf("Admit = %v, %v", admitted, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestExistsWrapsStoreErrors(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("42").
		WillReturnError(errors.New("connection reset"))

	_, err := repo.Exists(context.Background(), "42")
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("error = %v, want ErrStoreUnavailable", err)
	}
}
