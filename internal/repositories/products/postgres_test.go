package products

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ritvika/paintshop/internal/common"
	"github.com/ritvika/paintshop/internal/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+products.*RETURNING\s+id,\s+created_at,\s+updated_at`).
		WithArgs("Crimson", "oil paint", int64(650), "k1", "admin1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("p1", now, now))

	p, err := repo.Create(context.Background(), &models.Product{
		Title: "Crimson", Description: "oil paint", PriceCents: 650, ImageKey: "k1", UserID: "admin1",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if p.ID != "p1" {
		t.Fatalf("unexpected product: %+v", p)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+id,\s+title`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+products`).
		WithArgs("missing", "T", "D", int64(100), "").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Product{ID: "missing", Title: "T", Description: "D", PriceCents: 100})
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestList_PageWindow(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "title", "description", "price_cents", "image_key", "user_id", "created_at", "updated_at"}).
		AddRow("p2", "Ultramarine", "", int64(720), "", "admin1", now, now).
		AddRow("p1", "Crimson", "", int64(650), "", "admin1", now.Add(-time.Hour), now.Add(-time.Hour))
	mock.ExpectQuery(`(?s)ORDER\s+BY\s+created_at\s+DESC\s+OFFSET\s+\$1\s+LIMIT\s+\$2`).
		WithArgs(4, 4).
		WillReturnRows(rows)

	out, err := repo.List(context.Background(), 4, 4)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(out) != 2 || out[0].ID != "p2" {
		t.Fatalf("unexpected result: %+v", out)
	}
}

func TestCount(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+COUNT\(\*\)\s+FROM\s+products`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(9)))

	n, err := repo.Count(context.Background())
	if err != nil {
		t.Fatalf("Count error: %v", err)
	}
	if n != 9 {
		t.Fatalf("expected 9, got %d", n)
	}
}
