package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"catalog-service/internal/model"
	"catalog-service/prometheus"
)

// UserRepository owns the users table
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a user repository on the injected handle
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID returns the user with the given id
func (r *UserRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	defer prometheus.TrackDBOperation("user_get")(time.Now())

	var user model.User
	result := r.db.WithContext(ctx).First(&user, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

// GetByEmail returns the user registered under the given email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	defer prometheus.TrackDBOperation("user_get")(time.Now())

	var user model.User
	result := r.db.WithContext(ctx).Where("email = ?", email).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

// Create inserts a new user. A duplicate email reports ErrConflict.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	defer prometheus.TrackDBOperation("user_create")(time.Now())

	result := r.db.WithContext(ctx).Create(user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrConflict
		}
		return result.Error
	}
	return nil
}
