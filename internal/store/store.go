package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoRows is returned when a lookup matches nothing. It wraps pgx.ErrNoRows
// so callers can match either sentinel.
var ErrNoRows = pgx.ErrNoRows

// NewPool opens a pgx connection pool and verifies connectivity.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// User is a registered account row.
type User struct {
	ID          string
	Email       string
	Password    string
	DisplayName string
	CreatedAt   time.Time
}

// Project is a drawing surface row. The drawable content lives in snapshots.
type Project struct {
	ID        string
	Name      string
	OwnerID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Snapshot is one persisted version of a project's drawable content, stored
// as a JSONB document.
type Snapshot struct {
	ID        string
	ProjectID string
	Version   int32
	Document  json.RawMessage
	CreatedAt time.Time
}

// Queries runs the application's SQL against a pool or transaction.
type Queries struct {
	db dbtx
}

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func New(db dbtx) *Queries {
	return &Queries{db: db}
}

// IsDuplicateKey reports whether err is a Postgres unique violation.
func IsDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// --- Users ---

type CreateUserParams struct {
	ID          string
	Email       string
	Password    string
	DisplayName string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO users (id, email, password, display_name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email, password, display_name, created_at`,
		arg.ID, arg.Email, arg.Password, arg.DisplayName)
	return scanUser(row)
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRow(ctx, `
		SELECT id, email, password, display_name, created_at
		FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	row := q.db.QueryRow(ctx, `
		SELECT id, email, password, display_name, created_at
		FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName, &u.CreatedAt)
	return u, err
}

// --- Projects ---

type CreateProjectParams struct {
	ID      string
	Name    string
	OwnerID string
}

func (q *Queries) CreateProject(ctx context.Context, arg CreateProjectParams) (Project, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO projects (id, name, owner_id)
		VALUES ($1, $2, $3)
		RETURNING id, name, owner_id, created_at, updated_at`,
		arg.ID, arg.Name, arg.OwnerID)
	return scanProject(row)
}

func (q *Queries) GetProject(ctx context.Context, id string) (Project, error) {
	row := q.db.QueryRow(ctx, `
		SELECT id, name, owner_id, created_at, updated_at
		FROM projects WHERE id = $1`, id)
	return scanProject(row)
}

func (q *Queries) ListProjectsForUser(ctx context.Context, ownerID string) ([]Project, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, name, owner_id, created_at, updated_at
		FROM projects WHERE owner_id = $1
		ORDER BY updated_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

type RenameProjectParams struct {
	ID   string
	Name string
}

func (q *Queries) RenameProject(ctx context.Context, arg RenameProjectParams) (Project, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE projects SET name = $2, updated_at = now()
		WHERE id = $1
		RETURNING id, name, owner_id, created_at, updated_at`,
		arg.ID, arg.Name)
	return scanProject(row)
}

func (q *Queries) DeleteProject(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	return err
}

func scanProject(row pgx.Row) (Project, error) {
	var p Project
	err := row.Scan(&p.ID, &p.Name, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// --- Snapshots ---

type CreateSnapshotParams struct {
	ID        string
	ProjectID string
	Version   int32
	Document  json.RawMessage
}

func (q *Queries) CreateSnapshot(ctx context.Context, arg CreateSnapshotParams) (Snapshot, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO snapshots (id, project_id, version, document)
		VALUES ($1, $2, $3, $4)
		RETURNING id, project_id, version, document, created_at`,
		arg.ID, arg.ProjectID, arg.Version, arg.Document)
	return scanSnapshot(row)
}

func (q *Queries) GetLatestSnapshot(ctx context.Context, projectID string) (Snapshot, error) {
	row := q.db.QueryRow(ctx, `
		SELECT id, project_id, version, document, created_at
		FROM snapshots WHERE project_id = $1
		ORDER BY version DESC LIMIT 1`, projectID)
	return scanSnapshot(row)
}

func scanSnapshot(row pgx.Row) (Snapshot, error) {
	var s Snapshot
	err := row.Scan(&s.ID, &s.ProjectID, &s.Version, &s.Document, &s.CreatedAt)
	return s, err
}
