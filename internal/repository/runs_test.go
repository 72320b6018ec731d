package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/atinyakov/researchhive/internal/models"
	"github.com/lib/pq"
)

func setupMock(t *testing.T) (*PostgresRunRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	return NewPostgresRunRepository(db), mock, func() { db.Close() }
}

var runColumns = []string{"id", "username", "input_kind", "stage", "error", "video_present", "started_at", "finished_at"}

func TestRecord_Success(t *testing.T) {
	repo, mock, cleanup := setupMock(t)
	defer cleanup()

	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	run := models.Run{
		ID:           "run-1",
		Username:     "alice",
		InputKind:    models.InputPDF,
		Stage:        "complete",
		VideoPresent: false,
		StartedAt:    start,
		FinishedAt:   start.Add(time.Minute),
	}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO pipeline_runs`)).
		WithArgs("run-1", "alice", "pdf", "complete", "", false, run.StartedAt, run.FinishedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Record(context.Background(), run); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRecord_Error(t *testing.T) {
	repo, mock, cleanup := setupMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO pipeline_runs`)).
		WillReturnError(errors.New("insert fail"))

	err := repo.Record(context.Background(), models.Run{ID: "run-2"})
	if err == nil || !regexp.MustCompile(`record run run-2`).MatchString(err.Error()) {
		t.Errorf("expected record run error, got %v", err)
	}
}

func TestRecent_Success(t *testing.T) {
	repo, mock, cleanup := setupMock(t)
	defer cleanup()

	now := time.Now().UTC()
	rows := sqlmock.NewRows(runColumns).
		AddRow("b", "alice", "text", "failed", "Failed to generate audio", false, now.Add(-time.Minute), now).
		AddRow("a", "alice", "pdf", "complete", "", true, now.Add(-time.Hour), now.Add(-50*time.Minute))

	mock.ExpectQuery(regexp.QuoteMeta(`FROM pipeline_runs WHERE username = $1 ORDER BY finished_at DESC LIMIT $2`)).
		WithArgs("alice", 5).
		WillReturnRows(rows)

	runs, err := repo.Recent(context.Background(), "alice", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "b" || runs[0].Error != "Failed to generate audio" || runs[0].InputKind != models.InputText {
		t.Errorf("unexpected first run: %+v", runs[0])
	}
	if !runs[1].VideoPresent || runs[1].InputKind != models.InputPDF {
		t.Errorf("unexpected second run: %+v", runs[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRecent_DefaultLimit(t *testing.T) {
	repo, mock, cleanup := setupMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM pipeline_runs`)).
		WithArgs("", DefaultRecentLimit).
		WillReturnRows(sqlmock.NewRows(runColumns))

	runs, err := repo.Recent(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestRecent_ScanError(t *testing.T) {
	repo, mock, cleanup := setupMock(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id"}).AddRow("only-id")
	mock.ExpectQuery(regexp.QuoteMeta(`FROM pipeline_runs`)).
		WithArgs("alice", 1).
		WillReturnRows(rows)

	_, err := repo.Recent(context.Background(), "alice", 1)
	if err == nil || !regexp.MustCompile(`scan`).MatchString(err.Error()) {
		t.Errorf("expected scan error, got %v", err)
	}
}

func TestRecent_QueryError(t *testing.T) {
	repo, mock, cleanup := setupMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM pipeline_runs`)).
		WillReturnError(errors.New("query fail"))

	_, err := repo.Recent(context.Background(), "alice", 3)
	if err == nil || !regexp.MustCompile(`recent runs`).MatchString(err.Error()) {
		t.Errorf("expected recent runs error, got %v", err)
	}
}

func TestForget(t *testing.T) {
	repo, mock, cleanup := setupMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM pipeline_runs WHERE username = $1 AND id = ANY($2)`)).
		WithArgs("alice", pq.Array([]string{"a", "b"})).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.Forget(context.Background(), "alice", []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 removed, got %d", n)
	}

	n, err = repo.Forget(context.Background(), "alice", nil)
	if err != nil || n != 0 {
		t.Errorf("expected no-op for empty ids, got %d, %v", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
