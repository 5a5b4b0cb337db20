package portal

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestRepositoryListProjects(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := &Repository{pool: mock}
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT id, client_id, name, status, progress, deadline, created_at").
		WithArgs("u-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "client_id", "name", "status", "progress", "deadline", "created_at"}).
			AddRow("p-2", "u-1", "Marketing Site", "In Progress", 40, now.AddDate(0, 1, 0), now).
			AddRow("p-1", "u-1", "Booking MVP", "Completed", 100, now.AddDate(0, -1, 0), now.AddDate(0, -2, 0)))

	projects, err := repo.ListProjects(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("list projects: %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(projects))
	}
	if projects[0].ID != "p-2" {
		t.Errorf("expected newest first, got %s", projects[0].ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRepositoryListInvoices(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := &Repository{pool: mock}
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT id, client_id, number, amount_cents, status, due_date, created_at").
		WithArgs("u-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "client_id", "number", "amount_cents", "status", "due_date", "created_at"}).
			AddRow("i-1", "u-1", "INV-2026-001", int64(375000), "Pending", now.AddDate(0, 0, 14), now))

	invoices, err := repo.ListInvoices(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("list invoices: %v", err)
	}
	if len(invoices) != 1 || invoices[0].AmountCents != 375000 {
		t.Fatalf("unexpected invoices: %+v", invoices)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRepositoryListMessagesQueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := &Repository{pool: mock}
	mock.ExpectQuery("SELECT id, client_id, sender, subject, body, is_read, created_at").
		WithArgs("u-1").
		WillReturnError(errors.New("connection reset"))

	if _, err := repo.ListMessages(context.Background(), "u-1"); err == nil {
		t.Fatal("expected error")
	}
}

func TestRepositoryMarkMessageRead(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := &Repository{pool: mock}
	mock.ExpectExec("UPDATE messages SET is_read = TRUE").
		WithArgs("m-1", "u-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.MarkMessageRead(context.Background(), "u-1", "m-1"); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRepositoryMarkMessageReadNotOwned(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := &Repository{pool: mock}
	mock.ExpectExec("UPDATE messages SET is_read = TRUE").
		WithArgs("m-1", "u-2").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := repo.MarkMessageRead(context.Background(), "u-2", "m-1"); !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("expected ErrMessageNotFound, got %v", err)
	}
}
