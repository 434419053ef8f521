package dto

import "github.com/shopspring/decimal"

// PrecioProveedorItem es la posición de un proveedor en el ranking de un
// producto compartido, ordenado por costo unitario promedio ascendente.
type PrecioProveedorItem struct {
	ProveedorID     string          `json:"proveedor_id"`
	ProveedorNombre string          `json:"proveedor_nombre"`
	CostoPromedio   decimal.Decimal `json:"costo_promedio_usd"`
	Ordenes         int             `json:"ordenes"`
	UltimaCompra    string          `json:"ultima_compra"`
	// SobreprecioPct es el premio porcentual sobre el mejor precio (0 para el líder).
	SobreprecioPct decimal.Decimal `json:"sobreprecio_pct"`
}

// ComparativoPrecioProducto compara los proveedores de un producto comprado
// a dos o más proveedores distintos. Es un read-model recalculado a demanda,
// nunca estado autoritativo.
type ComparativoPrecioProducto struct {
	ProductoID       string                `json:"producto_id"`
	SKU              string                `json:"sku"`
	Nombre           string                `json:"nombre"`
	Proveedores      []PrecioProveedorItem `json:"proveedores"`
	MejorPrecio      PrecioProveedorItem   `json:"mejor_precio"`
	PromedioMercado  decimal.Decimal       `json:"promedio_mercado_usd"`
	DiferenciaMaxima decimal.Decimal       `json:"diferencia_maxima_pct"`
}
