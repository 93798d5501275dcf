package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/arxiv-simplifier/internal/core/domain"
)

func TestSummaryRepositoryInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewSummaryRepository(db)
	completed := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO summaries").
		WithArgs("req-1", "2301.12345", "Attention Is Cheap", "ResearchLikeIAmFive", "a gist", true, completed).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Insert(context.Background(), domain.SummaryCompleted{
		RequestID:        "req-1",
		ArxivID:          "2301.12345",
		Title:            "Attention Is Cheap",
		ExplanationStyle: "ResearchLikeIAmFive",
		Gist:             "a gist",
		Truncated:        true,
		CompletedAt:      completed,
	})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSummaryRepositoryInsertDuplicateIsSilent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewSummaryRepository(db)
	mock.ExpectExec("INSERT INTO summaries").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.Insert(context.Background(), domain.SummaryCompleted{
		RequestID:   "req-dup",
		CompletedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Insert() on conflict should be silent, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSummaryRepositoryEnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewSummaryRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").
		WithArgs(int64(2026082401)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS summaries").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
