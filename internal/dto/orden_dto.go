package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OrdenItemInput struct {
	ProductoID    string          `json:"producto_id"     validate:"required,uuid"`
	Cantidad      int             `json:"cantidad"        validate:"required,gt=0"`
	CostoUnitario decimal.Decimal `json:"costo_unitario"  validate:"required,gt=0"`
}

type CrearOrdenRequest struct {
	ProveedorID    string           `json:"proveedor_id"    validate:"required,uuid"`
	Items          []OrdenItemInput `json:"items"           validate:"required,min=1,dive"`
	EnvioUSD       *decimal.Decimal `json:"envio_usd"       validate:"omitempty,min=0"`
	OtrosCostosUSD *decimal.Decimal `json:"otros_costos_usd" validate:"omitempty,min=0"`
	TasaCompra     *decimal.Decimal `json:"tasa_compra"     validate:"omitempty,gt=0"`
	AlmacenDestino *string          `json:"almacen_destino"`
}

type AvanzarOrdenRequest struct {
	Destino  string  `json:"destino" validate:"required,oneof=enviada en_transito recibida cancelada"`
	Tracking *string `json:"tracking"`
	Courier  *string `json:"courier"`
	Motivo   *string `json:"motivo"` // solo para cancelada
}

type RegistrarPagoRequest struct {
	Monto      decimal.Decimal  `json:"monto"      validate:"required,gt=0"`
	Moneda     string           `json:"moneda"     validate:"required,oneof=USD VES"`
	Tasa       *decimal.Decimal `json:"tasa"       validate:"omitempty,gt=0"`
	Metodo     string           `json:"metodo"     validate:"required"`
	Referencia *string          `json:"referencia"`
}

type MarcarProblemaRequest struct {
	Nota string `json:"nota" validate:"required,min=3"`
}

type CancelarOrdenRequest struct {
	Motivo *string `json:"motivo"`
}

type OrdenFilter struct {
	ProveedorID string `form:"proveedor_id"`
	Estado      string `form:"estado"`
	Page        int    `form:"page"`
	Limit       int    `form:"limit"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type OrdenItemResponse struct {
	ProductoID    string          `json:"producto_id"`
	SKU           string          `json:"sku"`
	Cantidad      int             `json:"cantidad"`
	CostoUnitario decimal.Decimal `json:"costo_unitario_usd"`
	Subtotal      decimal.Decimal `json:"subtotal_usd"`
}

type PagoOrdenResponse struct {
	Monto      decimal.Decimal  `json:"monto"`
	Moneda     string           `json:"moneda"`
	Tasa       *decimal.Decimal `json:"tasa,omitempty"`
	MontoUSD   decimal.Decimal  `json:"monto_usd"`
	Metodo     string           `json:"metodo"`
	Referencia *string          `json:"referencia,omitempty"`
	Fecha      string           `json:"fecha"`
}

type OrdenResponse struct {
	ID                  string              `json:"id"`
	Numero              string              `json:"numero"`
	ProveedorID         string              `json:"proveedor_id"`
	ProveedorNombre     string              `json:"proveedor_nombre"`
	Items               []OrdenItemResponse `json:"items"`
	SubtotalUSD         decimal.Decimal     `json:"subtotal_usd"`
	EnvioUSD            *decimal.Decimal    `json:"envio_usd,omitempty"`
	OtrosCostosUSD      *decimal.Decimal    `json:"otros_costos_usd,omitempty"`
	TotalUSD            decimal.Decimal     `json:"total_usd"`
	TasaCompra          *decimal.Decimal    `json:"tasa_compra,omitempty"`
	TasaPago            *decimal.Decimal    `json:"tasa_pago,omitempty"`
	TotalLocal          *decimal.Decimal    `json:"total_local,omitempty"`
	DiferenciaCambiaria *decimal.Decimal    `json:"diferencia_cambiaria,omitempty"`
	Estado              string              `json:"estado"`
	EstadoPago          string              `json:"estado_pago"`
	FechaEnvio          *string             `json:"fecha_envio,omitempty"`
	FechaTransito       *string             `json:"fecha_transito,omitempty"`
	FechaRecepcion      *string             `json:"fecha_recepcion,omitempty"`
	FechaCancelacion    *string             `json:"fecha_cancelacion,omitempty"`
	Tracking            *string             `json:"tracking,omitempty"`
	Courier             *string             `json:"courier,omitempty"`
	AlmacenDestino      *string             `json:"almacen_destino,omitempty"`
	TieneProblemas      bool                `json:"tiene_problemas"`
	InventarioGenerado  bool                `json:"inventario_generado"`
	UnidadesGeneradas   []string            `json:"unidades_generadas,omitempty"`
	Pagos               []PagoOrdenResponse `json:"pagos,omitempty"`
	CreatedAt           string              `json:"created_at"`
}

// PagoResponse es el resultado de registrar un pago. Advertencia se completa
// ante un sobrepago: el pago se aplica igual, pero el caller debe mostrarla.
type PagoResponse struct {
	OrdenID             string           `json:"orden_id"`
	PagadoUSD           decimal.Decimal  `json:"pagado_usd"`
	TotalUSD            decimal.Decimal  `json:"total_usd"`
	EstadoPago          string           `json:"estado_pago"`
	DiferenciaCambiaria *decimal.Decimal `json:"diferencia_cambiaria,omitempty"`
	Advertencia         *string          `json:"advertencia,omitempty"`
}

type OrdenListResponse struct {
	Data  []OrdenResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}
