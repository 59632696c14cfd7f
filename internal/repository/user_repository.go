package repository

import (
	"context"

	"github.com/yukikurage/projects-crm/internal/models"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	return wrapWrite(r.db.WithContext(ctx).Create(user).Error)
}

// Save writes every column of an existing user
func (r *GormUserRepository) Save(ctx context.Context, user *models.User) error {
	return wrapWrite(r.db.WithContext(ctx).Save(user).Error)
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByAgencyCRMID finds a user by remote identity id
func (r *GormUserRepository) FindByAgencyCRMID(ctx context.Context, remoteID int64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("agency_crm_id = ?", remoteID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Deactivate clears the active flag of the user with the given email
func (r *GormUserRepository) Deactivate(ctx context.Context, email string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("email = ?", email).
		Update("is_active", false)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	// Already inactive rows may report zero affected rows on some drivers.
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// SetPasswordHash stores the bcrypt hash used by the local login fallback
func (r *GormUserRepository) SetPasswordHash(ctx context.Context, id uint64, hash string) error {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("password_hash", hash)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Transaction runs fn with a repository bound to a single transaction
func (r *GormUserRepository) Transaction(ctx context.Context, fn func(repo UserRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormUserRepository{db: tx})
	})
}
