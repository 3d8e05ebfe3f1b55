// internal/repository/lookups.go
package repository

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/printforge/printforge-backend/internal/models"
)

// ProductLookup is the read-only product eligibility provider consumed by
// the workflow engine.
type ProductLookup interface {
	FindByID(id uuid.UUID) (*models.Product, error)
}

// UserLookup is the read-only actor identity/role provider consumed by the
// workflow engine.
type UserLookup interface {
	FindByID(id uuid.UUID) (*models.User, error)
	FindDesigners() ([]models.User, error)
}

type gormProductLookup struct {
	db *gorm.DB
}

func NewProductLookup(db *gorm.DB) ProductLookup {
	return &gormProductLookup{db: db}
}

func (l *gormProductLookup) FindByID(id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := l.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

type gormUserLookup struct {
	db *gorm.DB
}

func NewUserLookup(db *gorm.DB) UserLookup {
	return &gormUserLookup{db: db}
}

func (l *gormUserLookup) FindByID(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := l.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

func (l *gormUserLookup) FindDesigners() ([]models.User, error) {
	var designers []models.User
	err := l.db.Where("user_type = ? AND status = ?", models.UserTypeDesigner, models.UserStatusActive).
		Order("username ASC").
		Find(&designers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch designers: %w", err)
	}
	return designers, nil
}
