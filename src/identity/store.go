package identity

import (
	"context"

	"github.com/gawwe-id/oknum/src/models"
	"gorm.io/gorm"
)

type Store interface {
	// FindUser returns nil without error when no user has the id or email.
	FindUser(ctx context.Context, id string, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) FindUser(ctx context.Context, id string, email string) (*models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? OR email = ?", id, email).
		Limit(1).
		Find(&users).
		Error
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}
