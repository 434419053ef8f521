package model

import (
	"time"

	"github.com/google/uuid"
)

// Estados de una unidad de inventario generada por recepción.
const (
	UnidadDisponible = "disponible"
	UnidadReservada  = "reservada"
)

// UnidadInventario es una unidad física generada al recibir una orden de
// compra: una fila por unidad pedida. Al generarse se particiona en
// reservada (si hay una reserva de venta abierta para el producto) o
// disponible.
type UnidadInventario struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Codigo        string    `gorm:"uniqueIndex;not null"` // OC-00042-U0007
	ProductoID    uuid.UUID `gorm:"type:uuid;not null;index"`
	SKU           string    `gorm:"not null"`
	OrdenCompraID uuid.UUID `gorm:"type:uuid;not null;index"`
	Almacen       *string
	Estado        string     `gorm:"not null;default:'disponible'"`
	ReservaID     *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt     time.Time
}

func (UnidadInventario) TableName() string { return "unidades_inventario" }

// ReservaVenta es una reserva de venta abierta contra un producto sin stock:
// las unidades que lleguen se asignan primero a estas reservas.
type ReservaVenta struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductoID uuid.UUID `gorm:"type:uuid;not null;index"`
	Cantidad   int       `gorm:"not null"`
	Abierta    bool      `gorm:"not null;default:true"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (ReservaVenta) TableName() string { return "reservas_venta" }
