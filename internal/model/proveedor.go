package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Categorías de proveedor.
const (
	CategoriaFabricante   = "fabricante"
	CategoriaDistribuidor = "distribuidor"
	CategoriaMayorista    = "mayorista"
	CategoriaMinorista    = "minorista"
)

// Clasificación derivada del puntaje de evaluación.
const (
	ClasificacionPreferido   = "preferido"
	ClasificacionAprobado    = "aprobado"
	ClasificacionCondicional = "condicional"
	ClasificacionSuspendido  = "suspendido"
)

// MetricasProveedor acumula el desempeño histórico de un proveedor.
// Solo la registra el agregador de métricas al completarse una orden —
// nunca se edita campo a campo.
type MetricasProveedor struct {
	TotalOrdenes        int             `gorm:"not null;default:0" json:"total_ordenes"`
	TotalCompradoUSD    decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"total_comprado_usd"`
	ProductosComprados  []string        `gorm:"serializer:json" json:"productos_comprados"`
	OrdenesCompletadas  int             `gorm:"not null;default:0" json:"ordenes_completadas"`
	OrdenesConProblemas int             `gorm:"not null;default:0" json:"ordenes_con_problemas"`
	// TasaProblemas se recalcula siempre desde los contadores crudos.
	TasaProblemas       float64 `gorm:"not null;default:0" json:"tasa_problemas"`
	PromedioDiasEntrega float64 `gorm:"not null;default:0" json:"promedio_dias_entrega"`
	// DesviacionDiasEntrega es la distancia absoluta de la última muestra al
	// promedio, no una desviación estándar real. Los umbrales de puntualidad
	// están calibrados contra este valor simplificado.
	DesviacionDiasEntrega float64    `gorm:"not null;default:0" json:"desviacion_dias_entrega"`
	UltimaCompra          *time.Time `json:"ultima_compra,omitempty"`
}

// EvaluacionProveedor es el puntaje vigente: cuatro factores en [0,25] cuya
// suma es el puntaje 0–100. La clasificación siempre deriva del puntaje.
type EvaluacionProveedor struct {
	CalidadProducto      float64    `gorm:"not null;default:0" json:"calidad_producto"`
	PuntualidadEntrega   float64    `gorm:"not null;default:0" json:"puntualidad_entrega"`
	CompetitividadPrecio float64    `gorm:"not null;default:0" json:"competitividad_precio"`
	Comunicacion         float64    `gorm:"not null;default:0" json:"comunicacion"`
	Puntaje              float64    `gorm:"not null;default:0" json:"puntaje"`
	Clasificacion        string     `gorm:"not null;default:''" json:"clasificacion"`
	CalculoAutomatico    bool       `gorm:"not null;default:true" json:"calculo_automatico"`
	FechaEvaluacion      *time.Time `json:"fecha_evaluacion,omitempty"`
}

// Proveedor representa un proveedor con sus datos comerciales, métricas
// acumuladas y evaluación vigente.
type Proveedor struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Codigo    string    `gorm:"uniqueIndex;not null"`
	Nombre    string    `gorm:"index;not null"`
	Pais      string    `gorm:"not null"`
	Categoria string    `gorm:"not null"` // fabricante | distribuidor | mayorista | minorista
	Telefono  *string
	Email     *string
	Direccion *string
	Activo    bool `gorm:"not null;default:true"`

	Metricas   MetricasProveedor   `gorm:"embedded;embeddedPrefix:met_"`
	Evaluacion EvaluacionProveedor `gorm:"embedded;embeddedPrefix:eval_"`

	// Version habilita el control optimista de concurrencia: a lo sumo una
	// mutación en vuelo por proveedor.
	Version   int `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Historial []EvaluacionHistorial `gorm:"foreignKey:ProveedorID"`
}

func (Proveedor) TableName() string { return "proveedores" }

// EvaluacionHistorial es una instantánea inmutable de una revisión manual.
// Solo las evaluaciones humanas generan historial; el recálculo automático
// actualiza la evaluación vigente sin dejar rastro aquí.
type EvaluacionHistorial struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProveedorID          uuid.UUID `gorm:"type:uuid;not null;index"`
	Fecha                time.Time `gorm:"not null"`
	Puntaje              float64   `gorm:"not null"`
	CalidadProducto      float64   `gorm:"not null"`
	PuntualidadEntrega   float64   `gorm:"not null"`
	CompetitividadPrecio float64   `gorm:"not null"`
	Comunicacion         float64   `gorm:"not null"`
	Evaluador            string    `gorm:"not null"`
	Nota                 *string
}

func (EvaluacionHistorial) TableName() string { return "evaluaciones_historial" }
