// internal/models/product.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Product struct {
	BaseModel
	OwnerID        uuid.UUID      `json:"owner_id" gorm:"type:uuid;not null;index"`
	Title          string         `json:"title" gorm:"size:255;not null"`
	Description    string         `json:"description" gorm:"type:text"`
	Category       string         `json:"category" gorm:"size:100;index"`
	Price          float64        `json:"price" gorm:"type:decimal(10,2);not null"`
	Images         pq.StringArray `json:"images" gorm:"type:text[]"`
	Specifications JSONB          `json:"specifications" gorm:"type:jsonb"`
	Status         ProductStatus  `json:"status" gorm:"type:varchar(20);default:'draft';index"`
	IsCustomizable bool           `json:"is_customizable" gorm:"default:false;index"`
	Tags           pq.StringArray `json:"tags" gorm:"type:text[]"`

	// Relationships
	Owner                 User                   `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	CustomizationRequests []CustomizationRequest `json:"customization_requests,omitempty" gorm:"foreignKey:ProductID"`
}
