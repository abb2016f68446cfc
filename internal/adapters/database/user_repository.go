package database

import (
	"context"
	"fmt"
	"time"

	"github.com/bps3275/sinora/internal/domain"
	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

func (r *userRepository) Create(ctx context.Context, user domain.User, roleName string) (domain.User, error) {
	var role roleModel
	if err := r.db.WithContext(ctx).Where("name = ?", roleName).Take(&role).Error; err != nil {
		return domain.User{}, notFound(err, "role %s", roleName)
	}
	rec := userModel{
		NIP:          user.NIP,
		Name:         user.Name,
		PasswordHash: user.PasswordHash,
		RoleID:       role.RoleID,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, fmt.Errorf("%w: nip %s is already registered", domain.ErrConflict, user.NIP)
		}
		return domain.User{}, err
	}
	return toDomainUser(rec, role.Name), nil
}

func (r *userRepository) withRole(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("users").
		Select("users.*, roles.name AS role_name").
		Joins("JOIN roles ON roles.role_id = users.role_id")
}

func (r *userRepository) take(ctx context.Context, query string, arg any) (domain.User, error) {
	var rec userWithRole
	if err := r.withRole(ctx).Where(query, arg).Order("users.id").Take(&rec).Error; err != nil {
		return domain.User{}, notFound(err, "user")
	}
	return toDomainUser(rec.User, rec.RoleName), nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (domain.User, error) {
	return r.take(ctx, "users.id = ?", id)
}

func (r *userRepository) GetByNIP(ctx context.Context, nip string) (domain.User, error) {
	return r.take(ctx, "users.nip = ?", nip)
}

// GetByName matches case-insensitively; on duplicates the oldest account wins.
func (r *userRepository) GetByName(ctx context.Context, name string) (domain.User, error) {
	return r.take(ctx, "LOWER(users.name) = LOWER(?)", name)
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	var rows []userWithRole
	if err := r.withRole(ctx).Order("users.name ASC, users.id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, toDomainUser(row.User, row.RoleName))
	}
	return users, nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&userModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"password_hash": passwordHash,
			"updated_at":    at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: user %d", domain.ErrNotFound, id)
	}
	return nil
}

func (r *userRepository) UpdateRole(ctx context.Context, id int64, roleName string, at time.Time) error {
	var role roleModel
	if err := r.db.WithContext(ctx).Where("name = ?", roleName).Take(&role).Error; err != nil {
		return notFound(err, "role %s", roleName)
	}
	res := r.db.WithContext(ctx).
		Model(&userModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"role_id":    role.RoleID,
			"updated_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: user %d", domain.ErrNotFound, id)
	}
	return nil
}
