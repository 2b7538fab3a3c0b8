package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"campus_notifier/internal/domain/content"

	"github.com/lib/pq"
)

// PostgresContentRepository reads the content tables. It never writes them.
type PostgresContentRepository struct {
	db *sql.DB
}

func NewPostgresContentRepository(db *sql.DB) *PostgresContentRepository {
	return &PostgresContentRepository{db: db}
}

func (r *PostgresContentRepository) GetArticle(ctx context.Context, id string) (*content.Article, error) {
	query := `SELECT id, title, author_id, is_published, created_at FROM articles WHERE id = $1`
	a := &content.Article{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&a.ID, &a.Title, &a.AuthorID, &a.IsPublished, &a.CreatedAt)
	if err != nil {
		return nil, notFoundOr(err, "article", id)
	}
	return a, nil
}

func (r *PostgresContentRepository) GetPoll(ctx context.Context, id string) (*content.Poll, error) {
	query := `SELECT id, title, created_by, is_all_classes, class_scopes, expires_at, created_at
               FROM polls WHERE id = $1`
	p := &content.Poll{}
	var (
		allClasses sql.NullBool
		expiresAt  sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Title, &p.CreatedBy, &allClasses, pq.Array(&p.ClassScopes), &expiresAt, &p.CreatedAt,
	)
	if err != nil {
		return nil, notFoundOr(err, "poll", id)
	}
	p.IsAllClasses = nullBoolPtr(allClasses)
	if expiresAt.Valid {
		p.ExpiresAt = &expiresAt.Time
	}
	return p, nil
}

func (r *PostgresContentRepository) GetProposal(ctx context.Context, id string) (*content.Proposal, error) {
	query := `SELECT id, title, author_id, required_endorsements, endorsements, participants, created_at
               FROM proposals WHERE id = $1`
	p := &content.Proposal{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Title, &p.AuthorID, &p.RequiredEndorsements,
		pq.Array(&p.Endorsements), pq.Array(&p.Participants), &p.CreatedAt,
	)
	if err != nil {
		return nil, notFoundOr(err, "proposal", id)
	}
	return p, nil
}

func (r *PostgresContentRepository) GetEvent(ctx context.Context, id string) (*content.Event, error) {
	query := `SELECT id, title, created_by, is_all_classes, class_scopes, start_date, created_at
               FROM events WHERE id = $1`
	e := &content.Event{}
	var (
		allClasses sql.NullBool
		startDate  sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.Title, &e.CreatedBy, &allClasses, pq.Array(&e.ClassScopes), &startDate, &e.CreatedAt,
	)
	if err != nil {
		return nil, notFoundOr(err, "event", id)
	}
	e.IsAllClasses = nullBoolPtr(allClasses)
	if startDate.Valid {
		e.StartDate = &startDate.Time
	}
	return e, nil
}

func notFoundOr(err error, what, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return content.ErrNotFound
	}
	return fmt.Errorf("error getting %s %s: %w", what, id, err)
}

func nullBoolPtr(b sql.NullBool) *bool {
	if !b.Valid {
		return nil
	}
	v := b.Bool
	return &v
}

func boolPtrValue(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}
