package repositories

import (
	"context"

	"gorm.io/gorm"

	"bookstore-restful/models"
)

// UserRepository interface defines User-related database operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindAll(ctx context.Context) ([]models.User, error)
	UpdateRole(ctx context.Context, id uint, role string) (*models.User, error)
}

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts user and fills in its generated id.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

// FindByEmail returns the first user registered with email.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	result := r.db.WithContext(ctx).Where("email = ?", email).Order("id").First(&user)
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	return &user, nil
}

// FindAll lists every user without the password column.
func (r *userRepository) FindAll(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	result := r.db.WithContext(ctx).
		Select("id", "username", "email", "location", "phone", "role").
		Order("id").
		Find(&users)
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	return users, nil
}

// UpdateRole sets the role of user id and returns the updated row.
func (r *userRepository) UpdateRole(ctx context.Context, id uint, role string) (*models.User, error) {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("role", role)
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}
