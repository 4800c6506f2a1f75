// Package repository provides data access layer for member accounts.
package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/festy23/reviewdesk/internal/user/model"
)

// Repository defines the interface for member data access operations.
type Repository interface {
	// Create inserts a new user.
	Create(ctx context.Context, user *model.User) error

	// GetByID finds a user regardless of activity.
	GetByID(ctx context.Context, id string) (*model.User, error)

	// GetActiveByEmail finds an active user by email.
	GetActiveByEmail(ctx context.Context, email string) (*model.User, error)

	// ListActiveByIDs returns the active users among ids.
	ListActiveByIDs(ctx context.Context, ids []string) ([]model.User, error)

	// List returns all users ordered by name.
	List(ctx context.Context) ([]model.User, error)

	// Count returns the number of users.
	Count(ctx context.Context) (int64, error)

	// ToggleActive flips is_active and returns the updated user.
	ToggleActive(ctx context.Context, id string) (*model.User, error)

	// UpdateRole sets the role and returns the updated user.
	UpdateRole(ctx context.Context, id string, role model.Role) (*model.User, error)

	// Delete removes a user without review history, with their sessions,
	// magic links and notifications.
	Delete(ctx context.Context, id string) error
}

// historyRefs are the columns that keep a user row alive.
var historyRefs = []struct{ table, column string }{
	{"reviews", "requester_id"},
	{"review_assignees", "user_id"},
	{"comments", "user_id"},
}

// ownedTables hold rows that only make sense for their user.
var ownedTables = []string{"sessions", "magic_links", "notifications"}

type repository struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// New creates a new user repository instance.
func New(db *gorm.DB, logger *zap.SugaredLogger) Repository {
	return &repository{db: db, logger: logger}
}

// Create inserts a new user.
func (r *repository) Create(ctx context.Context, user *model.User) error {
	r.logger.Debugw("Create called", "email", user.Email)

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isDuplicateError(err) {
			return model.ErrEmailTaken
		}
		r.logger.Errorw("Create database error", "email", user.Email, "error", err)
		return err
	}

	r.logger.Infow("Create completed", "user_id", user.ID, "role", user.Role)
	return nil
}

// GetByID finds a user regardless of activity.
func (r *repository) GetByID(ctx context.Context, id string) (*model.User, error) {
	r.logger.Debugw("GetByID called", "user_id", id)

	var user model.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrUserNotFound
		}
		r.logger.Errorw("GetByID database error", "user_id", id, "error", err)
		return nil, err
	}

	return &user, nil
}

// GetActiveByEmail finds an active user by email.
func (r *repository) GetActiveByEmail(ctx context.Context, email string) (*model.User, error) {
	r.logger.Debugw("GetActiveByEmail called")

	var user model.User
	err := r.db.WithContext(ctx).
		Where("email = ? AND is_active = ?", email, true).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrUserNotFound
		}
		r.logger.Errorw("GetActiveByEmail database error", "error", err)
		return nil, err
	}

	return &user, nil
}

// ListActiveByIDs returns the active users among ids.
func (r *repository) ListActiveByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	r.logger.Debugw("ListActiveByIDs called", "count", len(ids))

	users := []model.User{}
	if len(ids) == 0 {
		return users, nil
	}

	err := r.db.WithContext(ctx).
		Where("id IN ? AND is_active = ?", ids, true).
		Find(&users).Error
	if err != nil {
		r.logger.Errorw("ListActiveByIDs database error", "error", err)
		return nil, err
	}

	return users, nil
}

// List returns all users ordered by name.
func (r *repository) List(ctx context.Context) ([]model.User, error) {
	r.logger.Debugw("List called")

	users := []model.User{}
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&users).Error; err != nil {
		r.logger.Errorw("List database error", "error", err)
		return nil, err
	}

	return users, nil
}

// Count returns the number of users.
func (r *repository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Count(&count).Error; err != nil {
		r.logger.Errorw("Count database error", "error", err)
		return 0, err
	}
	return count, nil
}

// ToggleActive flips is_active in a single statement and returns the updated user.
func (r *repository) ToggleActive(ctx context.Context, id string) (*model.User, error) {
	r.logger.Infow("ToggleActive called", "user_id", id)

	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_active":  gorm.Expr("NOT is_active"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		r.logger.Errorw("ToggleActive database error", "user_id", id, "error", result.Error)
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, model.ErrUserNotFound
	}

	return r.GetByID(ctx, id)
}

// UpdateRole sets the role and returns the updated user.
func (r *repository) UpdateRole(ctx context.Context, id string, role model.Role) (*model.User, error) {
	r.logger.Infow("UpdateRole called", "user_id", id, "role", role)

	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"role": role, "updated_at": time.Now()})
	if result.Error != nil {
		r.logger.Errorw("UpdateRole database error", "user_id", id, "error", result.Error)
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, model.ErrUserNotFound
	}

	return r.GetByID(ctx, id)
}

// Delete removes a user in one transaction. Users referenced by reviews,
// assignments or comments are refused with ErrMemberInUse.
func (r *repository) Delete(ctx context.Context, id string) error {
	r.logger.Infow("Delete called", "user_id", id)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.Where("id = ?", id).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return model.ErrUserNotFound
			}
			return err
		}

		for _, ref := range historyRefs {
			var count int64
			if err := tx.Table(ref.table).Where(ref.column+" = ?", id).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return model.ErrMemberInUse
			}
		}

		for _, table := range ownedTables {
			if err := tx.Exec("DELETE FROM "+table+" WHERE user_id = ?", id).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("id = ?", id).Delete(&model.User{}).Error; err != nil {
			if isForeignKeyError(err) {
				return model.ErrMemberInUse
			}
			return err
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, model.ErrUserNotFound) && !errors.Is(err, model.ErrMemberInUse) {
			r.logger.Errorw("Delete database error", "user_id", id, "error", err)
		}
		return err
	}

	r.logger.Infow("Delete completed", "user_id", id)
	return nil
}

// isForeignKeyError checks if error is a foreign key violation, raised when a
// reference was written after the history check.
func isForeignKeyError(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "foreign key") || strings.Contains(msg, "23503")
}

// isDuplicateError checks if error is a unique constraint violation.
func isDuplicateError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}
