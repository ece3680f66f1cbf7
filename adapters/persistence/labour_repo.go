package persistence

import (
	"context"
	"encoding/json"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/khoahotran/labour-connect/internal/domain/labour"
	"github.com/khoahotran/labour-connect/pkg/apperror"
	"github.com/khoahotran/labour-connect/pkg/logger"
)

// postgresLabourRepo keeps each profile as a JSONB document keyed by user id.
type postgresLabourRepo struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

func NewPostgresLabourRepo(db *pgxpool.Pool, logger logger.Logger) labour.Repository {
	return &postgresLabourRepo{db: db, logger: logger}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func (r *postgresLabourRepo) Get(ctx context.Context, userID string) (*labour.Profile, error) {
	query, args, err := psql.Select("document").
		From(labour.Collection).
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build profile query", err)
	}

	var raw []byte
	if err := r.db.QueryRow(ctx, query, args...).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, labour.ErrProfileNotFound
		}
		return nil, apperror.NewPersistence("failed to query profile", err)
	}

	var doc labour.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		r.logger.Warn("Failed to unmarshal profile document", zap.String("user_id", userID), zap.Error(err))
		return nil, apperror.NewPersistence("stored profile document is corrupt", err)
	}

	p := doc.Profile(userID)
	return &p, nil
}

func (r *postgresLabourRepo) Set(ctx context.Context, p *labour.Profile) error {
	raw, err := json.Marshal(labour.NewDocument(*p))
	if err != nil {
		return apperror.NewInternal("failed to marshal profile document", err)
	}

	query, args, err := psql.Insert(labour.Collection).
		Columns("user_id", "document", "updated_at").
		Values(p.UserID, raw, sq.Expr("NOW()")).
		Suffix("ON CONFLICT (user_id) DO UPDATE SET document = EXCLUDED.document, updated_at = NOW()").
		ToSql()
	if err != nil {
		return apperror.NewInternal("failed to build profile upsert", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return apperror.NewPersistence("failed to write profile", err)
	}
	return nil
}

func (r *postgresLabourRepo) Delete(ctx context.Context, userID string) error {
	query, args, err := psql.Delete(labour.Collection).
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return apperror.NewInternal("failed to build profile delete", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return apperror.NewPersistence("failed to delete profile", err)
	}
	return nil
}
