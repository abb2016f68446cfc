package database

import (
	"context"
	"fmt"
	"time"

	"github.com/bps3275/sinora/internal/domain"
	"github.com/bps3275/sinora/internal/ports"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type sessionRepository struct {
	db *gorm.DB
}

func (r *sessionRepository) Create(ctx context.Context, params ports.SessionCreateParams) (domain.Session, error) {
	rec := sessionModel{
		SessionID: uuid.New(),
		UserID:    params.UserID,
		IPAddress: nullableString(params.IPAddress),
		UserAgent: params.UserAgent,
		CreatedAt: params.CreatedAt,
		ExpiresAt: params.ExpiresAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return domain.Session{}, err
	}
	return toDomainSession(rec), nil
}

func (r *sessionRepository) GetByID(ctx context.Context, sessionID uuid.UUID) (domain.Session, error) {
	var rec sessionModel
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Take(&rec).Error; err != nil {
		return domain.Session{}, notFound(err, "session")
	}
	return toDomainSession(rec), nil
}

func (r *sessionRepository) RevokeByID(ctx context.Context, sessionID uuid.UUID, revokedAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&sessionModel{}).
		Where("session_id = ?", sessionID).
		Where("revoked_at IS NULL").
		Update("revoked_at", revokedAt)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var exists int64
		if err := r.db.WithContext(ctx).Model(&sessionModel{}).Where("session_id = ?", sessionID).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return fmt.Errorf("%w: session", domain.ErrNotFound)
		}
	}
	return nil
}

func (r *sessionRepository) RevokeAllByUser(ctx context.Context, userID int64, keep uuid.UUID, revokedAt time.Time) ([]domain.Session, error) {
	var revoked []domain.Session
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("user_id = ?", userID).Where("revoked_at IS NULL")
		if keep != uuid.Nil {
			q = q.Where("session_id <> ?", keep)
		}
		var rows []sessionModel
		if err := q.Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		ids := make([]string, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.SessionID.String())
		}
		if err := tx.Model(&sessionModel{}).
			Where("session_id IN ?", ids).
			Update("revoked_at", revokedAt).Error; err != nil {
			return err
		}
		for _, row := range rows {
			row.RevokedAt = &revokedAt
			revoked = append(revoked, toDomainSession(row))
		}
		return nil
	})
	return revoked, err
}
