package infra

// tipo_cambio.go — cliente del proveedor externo de tasa de cambio.
// Consulta la cotización oficial USD→moneda local detrás de un circuit
// breaker y cachea el último valor bueno conocido: si el upstream cae, las
// órdenes siguen saliendo con la última tasa observada.

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// staleMaximo es la antigüedad máxima del último valor bueno conocido antes
// de descartarlo.
const staleMaximo = 6 * time.Hour

// cotizacionOficial es la respuesta del API de cotizaciones.
type cotizacionOficial struct {
	Promedio float64 `json:"promedio"`
}

// TipoCambioClient resuelve la tasa de cambio vigente. Satisface
// service.TasaCambioProvider.
type TipoCambioClient struct {
	http *resty.Client
	cb   *CircuitBreaker

	mu            sync.Mutex
	ultimaTasa    decimal.Decimal
	ultimaLectura time.Time
}

func NewTipoCambioClient(apiURL string) *TipoCambioClient {
	return &TipoCambioClient{
		http: resty.New().
			SetBaseURL(apiURL).
			SetTimeout(10 * time.Second).
			SetRetryCount(0), // los reintentos los gobierna el circuit breaker
		cb: NewCircuitBreaker(DefaultCBConfig()),
	}
}

// TasaActual devuelve la tasa USD→local vigente. Ante una falla del upstream
// (o breaker abierto) cae al último valor bueno conocido si no está vencido.
func (c *TipoCambioClient) TasaActual(ctx context.Context) (decimal.Decimal, error) {
	var tasa decimal.Decimal
	err := c.cb.Execute(func() error {
		var cot cotizacionOficial
		resp, err := c.http.R().
			SetContext(ctx).
			SetResult(&cot).
			Get("")
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("tipo de cambio: upstream devolvió %d", resp.StatusCode())
		}
		if cot.Promedio <= 0 {
			return fmt.Errorf("tipo de cambio: cotización no positiva %v", cot.Promedio)
		}
		tasa = decimal.NewFromFloat(cot.Promedio)
		return nil
	})
	if err == nil {
		c.mu.Lock()
		c.ultimaTasa = tasa
		c.ultimaLectura = time.Now()
		c.mu.Unlock()
		return tasa, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ultimaTasa.IsZero() && time.Since(c.ultimaLectura) < staleMaximo {
		log.Warn().Err(err).Str("tasa", c.ultimaTasa.String()).
			Msg("tipo de cambio: usando último valor bueno conocido")
		return c.ultimaTasa, nil
	}
	return decimal.Zero, err
}

// EstadoBreaker expone el estado del circuit breaker para el health endpoint.
func (c *TipoCambioClient) EstadoBreaker() string {
	return c.cb.State().String()
}
