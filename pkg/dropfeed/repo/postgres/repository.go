package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/dropfeed/pkg/dropfeed"
)

//go:embed schema.sql
var schemaSQL string

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements dropfeed.PostRepository and dropfeed.AirdropRepository
// using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// EnsureSchema creates the posts and airdrops tables when they are missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return r.handlePostgresError("ensure schema", err)
		}
	}
	return nil
}

// Ping checks connectivity when the underlying handle supports it.
func (r *Repository) Ping(ctx context.Context) error {
	if p, ok := r.db.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "23514": // check_violation
			return fmt.Errorf("%s: %w", operation, dropfeed.ErrInvalidCategory)
		case "22P02": // invalid_text_representation
			return fmt.Errorf("invalid value in %s: %s", operation, pgErr.Message)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

// Post operations

const postColumns = `id, title, body_md, is_premium, published_at, updated_at`

func scanPost(row pgx.Row) (*dropfeed.Post, error) {
	var post dropfeed.Post
	if err := row.Scan(
		&post.ID, &post.Title, &post.BodyMD, &post.IsPremium,
		&post.PublishedAt, &post.UpdatedAt); err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *Repository) LatestVisiblePost(ctx context.Context) (*dropfeed.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE is_premium = true AND published_at IS NOT NULL
		ORDER BY published_at DESC
		LIMIT 1`

	post, err := scanPost(r.db.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, r.handlePostgresError("latest post", err)
	}
	return post, nil
}

func (r *Repository) UpsertPost(ctx context.Context, p dropfeed.PostUpsert) (uuid.UUID, error) {
	var id uuid.UUID

	if p.ID == nil {
		query := `
			INSERT INTO posts (title, body_md, is_premium, published_at)
			VALUES ($1, $2, true, $3)
			RETURNING id`
		if err := r.db.QueryRow(ctx, query, p.Title, p.BodyMD, p.PublishedAt).Scan(&id); err != nil {
			return uuid.Nil, r.handlePostgresError("insert post", err)
		}
		return id, nil
	}

	var err error
	if p.PublishedAt != nil {
		query := `
			UPDATE posts SET title = $2, body_md = $3, published_at = $4, updated_at = now()
			WHERE id = $1
			RETURNING id`
		err = r.db.QueryRow(ctx, query, *p.ID, p.Title, p.BodyMD, *p.PublishedAt).Scan(&id)
	} else {
		query := `
			UPDATE posts SET title = $2, body_md = $3, updated_at = now()
			WHERE id = $1
			RETURNING id`
		err = r.db.QueryRow(ctx, query, *p.ID, p.Title, p.BodyMD).Scan(&id)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, dropfeed.ErrPostNotFound
		}
		return uuid.Nil, r.handlePostgresError("update post", err)
	}
	return id, nil
}

func (r *Repository) ListPosts(ctx context.Context) ([]*dropfeed.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts ORDER BY updated_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, r.handlePostgresError("list posts", err)
	}
	defer rows.Close()

	posts := []*dropfeed.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, r.handlePostgresError("scan post", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("list posts", err)
	}
	return posts, nil
}

// Airdrop operations

const airdropColumns = `id, category, name, subtitle, score, amount, time_text, badge, sort, published_at, updated_at`

func (r *Repository) queryAirdrops(ctx context.Context, operation, query string, args ...interface{}) ([]*dropfeed.Airdrop, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, r.handlePostgresError(operation, err)
	}
	defer rows.Close()

	items := []*dropfeed.Airdrop{}
	for rows.Next() {
		var a dropfeed.Airdrop
		var category string
		if err := rows.Scan(
			&a.ID, &category, &a.Name, &a.Subtitle, &a.Score, &a.Amount,
			&a.TimeText, &a.Badge, &a.Sort, &a.PublishedAt, &a.UpdatedAt); err != nil {
			return nil, r.handlePostgresError(operation, err)
		}
		a.Category = dropfeed.Category(category)
		items = append(items, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError(operation, err)
	}
	return items, nil
}

func (r *Repository) ListVisibleAirdrops(ctx context.Context, category dropfeed.Category) ([]*dropfeed.Airdrop, error) {
	query := `
		SELECT ` + airdropColumns + `
		FROM airdrops
		WHERE category = $1 AND published_at IS NOT NULL
		ORDER BY sort ASC, published_at DESC`

	return r.queryAirdrops(ctx, "list visible airdrops", query, string(category))
}

func (r *Repository) ListAirdrops(ctx context.Context, category *dropfeed.Category) ([]*dropfeed.Airdrop, error) {
	if category == nil {
		query := `
			SELECT ` + airdropColumns + `
			FROM airdrops
			ORDER BY category ASC, sort ASC, published_at DESC NULLS LAST`
		return r.queryAirdrops(ctx, "list airdrops", query)
	}

	query := `
		SELECT ` + airdropColumns + `
		FROM airdrops
		WHERE category = $1
		ORDER BY sort ASC, published_at DESC NULLS LAST`
	return r.queryAirdrops(ctx, "list airdrops", query, string(*category))
}

func (r *Repository) UpsertAirdrop(ctx context.Context, a dropfeed.AirdropUpsert) (uuid.UUID, error) {
	var id uuid.UUID

	if a.ID == nil {
		sort := 0
		if a.Sort != nil {
			sort = *a.Sort
		}
		query := `
			INSERT INTO airdrops (category, name, subtitle, score, amount, time_text, badge, sort, published_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id`
		err := r.db.QueryRow(ctx, query,
			string(a.Category), a.Name, a.Subtitle, a.Score, a.Amount,
			a.TimeText, a.Badge, sort, a.PublishedAt).Scan(&id)
		if err != nil {
			return uuid.Nil, r.handlePostgresError("insert airdrop", err)
		}
		return id, nil
	}

	sets := []string{
		"category = $2", "name = $3", "subtitle = $4", "score = $5",
		"amount = $6", "time_text = $7", "badge = $8",
	}
	args := []interface{}{
		*a.ID, string(a.Category), a.Name, a.Subtitle, a.Score,
		a.Amount, a.TimeText, a.Badge,
	}
	if a.Sort != nil {
		args = append(args, *a.Sort)
		sets = append(sets, fmt.Sprintf("sort = $%d", len(args)))
	}
	if a.PublishedAt != nil {
		args = append(args, *a.PublishedAt)
		sets = append(sets, fmt.Sprintf("published_at = $%d", len(args)))
	}
	sets = append(sets, "updated_at = now()")

	query := `UPDATE airdrops SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING id`
	if err := r.db.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, dropfeed.ErrAirdropNotFound
		}
		return uuid.Nil, r.handlePostgresError("update airdrop", err)
	}
	return id, nil
}

// ClearAirdrops permanently deletes airdrops. A nil category truncates the
// whole table.
func (r *Repository) ClearAirdrops(ctx context.Context, category *dropfeed.Category) error {
	var err error
	if category != nil {
		_, err = r.db.Exec(ctx, `DELETE FROM airdrops WHERE category = $1`, string(*category))
	} else {
		_, err = r.db.Exec(ctx, `TRUNCATE TABLE airdrops`)
	}
	if err != nil {
		return r.handlePostgresError("clear airdrops", err)
	}
	return nil
}
