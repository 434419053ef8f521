package dto

import "github.com/shopspring/decimal"

// VentanaActividad resume la actividad de una ventana móvil (30/90/365 días).
type VentanaActividad struct {
	Dias     int             `json:"dias"`
	Ordenes  int             `json:"ordenes"`
	GastoUSD decimal.Decimal `json:"gasto_usd"`
}

// PrediccionResponse es el reporte heurístico hacia adelante de un proveedor.
// Los campos puntero son "sin dato": un proveedor nuevo rinde un reporte
// vacío, nunca un error.
type PrediccionResponse struct {
	Ventanas              []VentanaActividad `json:"ventanas"`
	FrecuenciaDias        *float64           `json:"frecuencia_dias,omitempty"`
	UltimaCompra          *string            `json:"ultima_compra,omitempty"`
	ProximaCompraEstimada *string            `json:"proxima_compra_estimada,omitempty"`
	MontoEstimadoUSD      *decimal.Decimal   `json:"monto_estimado_usd,omitempty"`
	TendenciaVolumen      string             `json:"tendencia_volumen"`
	TendenciaPrecios      string             `json:"tendencia_precios"`
	RiesgoIncidencias     float64            `json:"riesgo_incidencias"`
	RiesgoInactividad     float64            `json:"riesgo_inactividad"`
	ValorAnualEstimado    decimal.Decimal    `json:"valor_anual_estimado_usd"`
	ValorTotalHistorico   decimal.Decimal    `json:"valor_total_historico_usd"`
}
