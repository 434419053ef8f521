package model

import (
	"time"

	"github.com/google/uuid"
)

// Producto es la referencia mínima del catálogo que el motor de compras
// necesita: identidad y SKU. El catálogo completo vive en otro módulo.
type Producto struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SKU       string    `gorm:"uniqueIndex;not null"`
	Nombre    string    `gorm:"index;not null"`
	Activo    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Producto) TableName() string { return "productos" }
