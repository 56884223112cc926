package repository

import (
	"github.com/ManuelReschke/CoursePay/app/models"
	"github.com/ManuelReschke/CoursePay/internal/pkg/billing"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByEmail(email string) (*models.User, error)
	TouchLastLogin(id uint) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	User    UserRepository
	Billing billing.Repository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:    NewUserRepository(db),
		Billing: billing.NewRepository(db),
	}
}
