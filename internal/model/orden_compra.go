package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Estados logísticos de una orden de compra. El estado de pago es un eje
// independiente (EstadoPago*) y no condiciona las transiciones logísticas.
const (
	OrdenBorrador   = "borrador"
	OrdenEnviada    = "enviada"
	OrdenEnTransito = "en_transito"
	OrdenRecibida   = "recibida"
	OrdenCancelada  = "cancelada"
)

const (
	PagoPendiente = "pendiente"
	PagoParcial   = "parcial"
	PagoPagada    = "pagada"
)

// Monedas soportadas.
const (
	MonedaUSD = "USD"
	MonedaVES = "VES"
)

// OrdenCompra es la entidad central del ciclo de compra. Todos los montos
// internos están en USD; los campos en moneda local son derivados, nunca
// autoritativos. Una orden que salió de borrador no se elimina — se cancela.
type OrdenCompra struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Numero string    `gorm:"uniqueIndex;not null"` // OC-00042

	ProveedorID     uuid.UUID `gorm:"type:uuid;not null;index"`
	ProveedorNombre string    `gorm:"not null"` // denormalizado para reportes

	Items []OrdenItem `gorm:"foreignKey:OrdenCompraID"`

	SubtotalUSD    decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	EnvioUSD       *decimal.Decimal `gorm:"type:decimal(12,2)"`
	OtrosCostosUSD *decimal.Decimal `gorm:"type:decimal(12,2)"`
	TotalUSD       decimal.Decimal  `gorm:"type:decimal(12,2);not null"`

	// Campos cambiarios: TasaCompra fija el total local al momento de crear
	// la orden; TasaPago y DiferenciaCambiaria se completan al pagar.
	TasaCompra          *decimal.Decimal `gorm:"type:decimal(14,4)"`
	TasaPago            *decimal.Decimal `gorm:"type:decimal(14,4)"`
	TotalLocal          *decimal.Decimal `gorm:"type:decimal(16,2)"`
	DiferenciaCambiaria *decimal.Decimal `gorm:"type:decimal(16,2)"`

	Estado     string `gorm:"not null;default:'borrador';index"`
	EstadoPago string `gorm:"not null;default:'pendiente'"`

	FechaEnvio       *time.Time
	FechaTransito    *time.Time
	FechaRecepcion   *time.Time
	FechaCancelacion *time.Time

	Tracking       *string
	Courier        *string
	AlmacenDestino *string

	TieneProblemas    bool `gorm:"not null;default:false"`
	NotaProblema      *string
	MotivoCancelacion *string

	InventarioGenerado bool     `gorm:"not null;default:false"`
	UnidadesGeneradas  []string `gorm:"serializer:json"`

	Pagos []PagoOrden `gorm:"foreignKey:OrdenCompraID"`

	Version   int `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (OrdenCompra) TableName() string { return "ordenes_compra" }

// OrdenItem es una línea de la orden. Subtotal = Cantidad × CostoUnitarioUSD.
type OrdenItem struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrdenCompraID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductoID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	SKU              string          `gorm:"not null"`
	Cantidad         int             `gorm:"not null"`
	CostoUnitarioUSD decimal.Decimal `gorm:"type:decimal(12,4);not null"`
	SubtotalUSD      decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

func (OrdenItem) TableName() string { return "orden_items" }

// PagoOrden registra un pago (posiblemente parcial) contra una orden.
// Los pagos son inmutables — no hay Update ni Delete.
type PagoOrden struct {
	ID            uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrdenCompraID uuid.UUID        `gorm:"type:uuid;not null;index"`
	Monto         decimal.Decimal  `gorm:"type:decimal(16,2);not null"`
	Moneda        string           `gorm:"not null"` // USD | VES
	Tasa          *decimal.Decimal `gorm:"type:decimal(14,4)"`
	MontoUSD      decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	Metodo        string           `gorm:"not null"` // transferencia | efectivo | otro
	Referencia    *string
	CreatedAt     time.Time
}

func (PagoOrden) TableName() string { return "pagos_orden" }
