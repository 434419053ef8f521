package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearProveedorRequest struct {
	Nombre    string  `json:"nombre"    validate:"required,min=2"`
	Pais      string  `json:"pais"      validate:"required,min=2"`
	Categoria string  `json:"categoria" validate:"required,oneof=fabricante distribuidor mayorista minorista"`
	Telefono  *string `json:"telefono"`
	Email     *string `json:"email"     validate:"omitempty,email"`
	Direccion *string `json:"direccion"`
}

type EvaluacionManualRequest struct {
	CalidadProducto      float64 `json:"calidad_producto"      validate:"min=0,max=25"`
	PuntualidadEntrega   float64 `json:"puntualidad_entrega"   validate:"min=0,max=25"`
	CompetitividadPrecio float64 `json:"competitividad_precio" validate:"min=0,max=25"`
	Comunicacion         float64 `json:"comunicacion"          validate:"min=0,max=25"`
	Evaluador            string  `json:"evaluador"             validate:"required,min=2"`
	Nota                 *string `json:"nota"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type MetricasResponse struct {
	TotalOrdenes          int             `json:"total_ordenes"`
	TotalCompradoUSD      decimal.Decimal `json:"total_comprado_usd"`
	ProductosComprados    []string        `json:"productos_comprados"`
	OrdenesCompletadas    int             `json:"ordenes_completadas"`
	OrdenesConProblemas   int             `json:"ordenes_con_problemas"`
	TasaProblemas         float64         `json:"tasa_problemas"`
	PromedioDiasEntrega   float64         `json:"promedio_dias_entrega"`
	DesviacionDiasEntrega float64         `json:"desviacion_dias_entrega"`
	UltimaCompra          *string         `json:"ultima_compra,omitempty"`
}

type EvaluacionResponse struct {
	CalidadProducto      float64 `json:"calidad_producto"`
	PuntualidadEntrega   float64 `json:"puntualidad_entrega"`
	CompetitividadPrecio float64 `json:"competitividad_precio"`
	Comunicacion         float64 `json:"comunicacion"`
	Puntaje              float64 `json:"puntaje"`
	Clasificacion        string  `json:"clasificacion"`
	CalculoAutomatico    bool    `json:"calculo_automatico"`
	FechaEvaluacion      *string `json:"fecha_evaluacion,omitempty"`
}

type EvaluacionHistorialItem struct {
	Fecha                string  `json:"fecha"`
	Puntaje              float64 `json:"puntaje"`
	CalidadProducto      float64 `json:"calidad_producto"`
	PuntualidadEntrega   float64 `json:"puntualidad_entrega"`
	CompetitividadPrecio float64 `json:"competitividad_precio"`
	Comunicacion         float64 `json:"comunicacion"`
	Evaluador            string  `json:"evaluador"`
	Nota                 *string `json:"nota,omitempty"`
}

type ProveedorResponse struct {
	ID         string             `json:"id"`
	Codigo     string             `json:"codigo"`
	Nombre     string             `json:"nombre"`
	Pais       string             `json:"pais"`
	Categoria  string             `json:"categoria"`
	Telefono   *string            `json:"telefono,omitempty"`
	Email      *string            `json:"email,omitempty"`
	Direccion  *string            `json:"direccion,omitempty"`
	Activo     bool               `json:"activo"`
	Metricas   MetricasResponse   `json:"metricas"`
	Evaluacion EvaluacionResponse `json:"evaluacion"`
}

// AnaliticaResponse agrega todo lo que el panel de un proveedor necesita:
// métricas, evaluación vigente + tendencia, historial y predicciones.
type AnaliticaResponse struct {
	Proveedor  ProveedorResponse         `json:"proveedor"`
	Tendencia  string                    `json:"tendencia_evaluacion"`
	Historial  []EvaluacionHistorialItem `json:"historial"`
	Prediccion PrediccionResponse        `json:"prediccion"`
}
