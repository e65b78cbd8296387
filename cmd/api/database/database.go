package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/whiskey-inventory/cmd/api/whiskey"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const uniqueViolation = "23505"

const whiskeyColumns = `id, name, distillery, region, age, abv, size_ml, quantity, purchase_date,
	price_cents, notes, image_url, tags, rating, created_at, updated_at`

type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db  *sql.DB
	exc DBTX
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, exc: db}
}

/* Connects to the database through a connection string and returns a pointer to a valid DB object (*sql.DB). */
func ConnectDb(ctx context.Context, connStr string) (*sql.DB, error) {
	sqlDB, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("connecting to db, opening: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("connecting to db, pinging: %w", err)
	}

	slog.Info("connected to postgres")
	return sqlDB, nil
}

// MigrationUp applies the embedded migrations. Being already up to date is not an error.
func MigrationUp(store *Store) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrating up, reading source: %w", err)
	}

	driver, err := postgres.WithInstance(store.db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("migrating up: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrating up: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrating up: %w", err)
	}

	version, dirty, _ := m.Version()
	slog.Info("migrations applied", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
	return nil
}

// CheckReady pings the pool for the readiness probe.
func (store *Store) CheckReady() (status string, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := store.db.PingContext(ctx); err != nil {
		return "fail", fmt.Sprintf("postgres unavailable: %v", err)
	}
	return "ok", "connection active"
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWhiskey(row rowScanner) (whiskey.Whiskey, error) {
	var w whiskey.Whiskey
	err := row.Scan(&w.ID, &w.Name, &w.Distillery, &w.Region, &w.Age, &w.ABV, &w.SizeML, &w.Quantity, &w.PurchaseDate,
		&w.PriceCents, &w.Notes, &w.ImageURL, pq.Array(&w.Tags), &w.Rating, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return whiskey.Whiskey{}, err
	}

	if w.Tags == nil {
		w.Tags = []string{}
	}
	if w.PurchaseDate != nil {
		d := time.Date(w.PurchaseDate.Year(), w.PurchaseDate.Month(), w.PurchaseDate.Day(), 0, 0, 0, 0, time.UTC)
		w.PurchaseDate = &d
	}
	w.CreatedAt = w.CreatedAt.UTC()
	w.UpdatedAt = w.UpdatedAt.UTC()
	return w, nil
}

// dateParam sends a date as YYYY-MM-DD so the DATE column never sees a time or zone.
func dateParam(d *time.Time) any {
	if d == nil {
		return nil
	}
	return d.Format(whiskey.DateLayout)
}

func mapWriteErr(op string, err error) error {
	var pqErr *pq.Error
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", op, whiskey.ErrNotFound)
	case errors.As(err, &pqErr) && pqErr.Code == uniqueViolation:
		return fmt.Errorf("%s: %s: %w", op, pqErr.Constraint, whiskey.ErrConflict)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

/* Stores the whiskey into the database. Id and timestamps come from the column defaults. */
func (store *Store) Insert(ctx context.Context, w whiskey.Whiskey) (whiskey.Whiskey, error) {
	sqlStatement := `
	INSERT INTO whiskeys (name, distillery, region, age, abv, size_ml, quantity, purchase_date,
		price_cents, notes, image_url, tags, rating)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	RETURNING ` + whiskeyColumns
	row := store.exc.QueryRowContext(ctx, sqlStatement, mutableArgs(w)...)
	created, err := scanWhiskey(row)
	if err != nil {
		return whiskey.Whiskey{}, mapWriteErr("storing whiskey on db", err)
	}
	return created, nil
}

func mutableArgs(w whiskey.Whiskey) []any {
	tags := w.Tags
	if tags == nil {
		tags = []string{}
	}
	return []any{w.Name, w.Distillery, w.Region, w.Age, w.ABV, w.SizeML, w.Quantity, dateParam(w.PurchaseDate),
		w.PriceCents, w.Notes, w.ImageURL, pq.Array(tags), w.Rating}
}

func (store *Store) FindByID(ctx context.Context, id uuid.UUID) (whiskey.Whiskey, error) {
	sqlStatement := `SELECT ` + whiskeyColumns + ` FROM whiskeys WHERE id = $1`
	w, err := scanWhiskey(store.exc.QueryRowContext(ctx, sqlStatement, id))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return whiskey.Whiskey{}, fmt.Errorf("searching by ID: %w", whiskey.ErrNotFound)
		default:
			return whiskey.Whiskey{}, fmt.Errorf("searching by ID: %w", err)
		}
	}
	return w, nil
}

/* Returns one filtered, ordered page. Negative offsets are treated as 0. */
func (store *Store) Scan(ctx context.Context, q whiskey.Query) ([]whiskey.Whiskey, error) {
	orderBy, err := buildOrderBy(q.Sort)
	if err != nil {
		return nil, fmt.Errorf("listing whiskeys from db: %w", err)
	}

	where, args := buildWhere(q.Filter, 1)
	n := len(args)
	sqlStatement := `SELECT ` + whiskeyColumns + ` FROM whiskeys` + where + orderBy +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", n+1, n+2)
	args = append(args, max(q.Limit, 0), max(q.Offset, 0))

	rows, err := store.exc.QueryContext(ctx, sqlStatement, args...)
	if err != nil {
		return nil, fmt.Errorf("listing whiskeys from db: %w", err)
	}
	defer rows.Close()

	list := []whiskey.Whiskey{}
	for rows.Next() {
		w, err := scanWhiskey(rows)
		if err != nil {
			return nil, fmt.Errorf("listing whiskeys from db: %w", err)
		}
		list = append(list, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing whiskeys from db: %w", err)
	}
	return list, nil
}

func (store *Store) Count(ctx context.Context, f whiskey.Filter) (int, error) {
	where, args := buildWhere(f, 1)
	var total int
	err := store.exc.QueryRowContext(ctx, `SELECT COUNT(*) FROM whiskeys`+where, args...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("counting whiskeys from db: %w", err)
	}
	return total, nil
}

/* Overwrites every mutable column in a single statement. */
func (store *Store) UpdateByID(ctx context.Context, id uuid.UUID, w whiskey.Whiskey) (whiskey.Whiskey, error) {
	sqlStatement := `
	UPDATE whiskeys
	SET name = $2, distillery = $3, region = $4, age = $5, abv = $6, size_ml = $7, quantity = $8,
		purchase_date = $9, price_cents = $10, notes = $11, image_url = $12, tags = $13, rating = $14,
		` + touchUpdatedAt + `
	WHERE id = $1
	RETURNING ` + whiskeyColumns
	args := append([]any{id}, mutableArgs(w)...)
	updated, err := scanWhiskey(store.exc.QueryRowContext(ctx, sqlStatement, args...))
	if err != nil {
		return whiskey.Whiskey{}, mapWriteErr("updating whiskey on db", err)
	}
	return updated, nil
}

/* Assigns only the supplied patch fields, in a single statement. */
func (store *Store) MergeByID(ctx context.Context, id uuid.UUID, p whiskey.Patch) (whiskey.Whiskey, error) {
	sets, args := patchAssignments(p, 2)
	sqlStatement := `UPDATE whiskeys SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING ` + whiskeyColumns
	args = append([]any{id}, args...)
	merged, err := scanWhiskey(store.exc.QueryRowContext(ctx, sqlStatement, args...))
	if err != nil {
		return whiskey.Whiskey{}, mapWriteErr("merging whiskey on db", err)
	}
	return merged, nil
}

func (store *Store) DeleteByID(ctx context.Context, id uuid.UUID) error {
	res, err := store.exc.ExecContext(ctx, `DELETE FROM whiskeys WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting whiskey from db: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting whiskey from db: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("deleting whiskey from db: %w", whiskey.ErrNotFound)
	}
	return nil
}
