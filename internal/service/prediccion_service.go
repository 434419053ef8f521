package service

import (
	"context"
	"time"

	"abasto/internal/dto"
	"abasto/internal/model"
	"abasto/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tendencias de volumen y precios del motor de predicción.
const (
	TendenciaCreciente   = "creciente"
	TendenciaDecreciente = "decreciente"
)

// umbralTendencia es el cambio relativo mínimo para declarar una tendencia;
// por debajo se reporta estable.
const umbralTendencia = 0.10

var ventanasDias = []int{30, 90, 365}

// PrediccionService produce el reporte heurístico hacia adelante de un
// proveedor a partir de su historial de órdenes recibidas. Son heurísticas
// deterministas, no modelos estadísticos: un proveedor sin historial rinde
// un reporte vacío, nunca un error.
type PrediccionService interface {
	Predecir(ctx context.Context, proveedorID uuid.UUID) (*dto.PrediccionResponse, error)
}

type prediccionService struct {
	ordenes     repository.OrdenCompraRepository
	proveedores repository.ProveedorRepository
	ahora       func() time.Time
}

func NewPrediccionService(ordenes repository.OrdenCompraRepository, proveedores repository.ProveedorRepository) PrediccionService {
	return &prediccionService{ordenes: ordenes, proveedores: proveedores, ahora: time.Now}
}

func (s *prediccionService) WithClock(ahora func() time.Time) *prediccionService {
	s.ahora = ahora
	return s
}

func (s *prediccionService) Predecir(ctx context.Context, proveedorID uuid.UUID) (*dto.PrediccionResponse, error) {
	p, err := s.proveedores.FindByID(ctx, proveedorID)
	if err != nil {
		return nil, err
	}
	ordenes, err := s.ordenes.ListRecibidasPorProveedor(ctx, proveedorID)
	if err != nil {
		return nil, err
	}

	ahora := s.ahora()
	resp := &dto.PrediccionResponse{
		Ventanas:          s.ventanas(ordenes, ahora),
		TendenciaVolumen:  TendenciaEstable,
		TendenciaPrecios:  TendenciaEstable,
		RiesgoIncidencias: clampFloat(2*p.Metricas.TasaProblemas, 0, 100),
	}

	for i := range ordenes {
		resp.ValorTotalHistorico = resp.ValorTotalHistorico.Add(ordenes[i].TotalUSD)
	}

	if len(ordenes) == 0 {
		return resp, nil
	}

	ultima := fechaCompra(&ordenes[len(ordenes)-1])
	u := ultima.Format(time.RFC3339)
	resp.UltimaCompra = &u

	// Frecuencia: brecha promedio en días entre compras consecutivas
	if len(ordenes) >= 2 {
		primera := fechaCompra(&ordenes[0])
		frecuencia := ultima.Sub(primera).Hours() / 24 / float64(len(ordenes)-1)
		resp.FrecuenciaDias = &frecuencia

		proxima := ultima.Add(time.Duration(frecuencia * 24 * float64(time.Hour))).Format(time.RFC3339)
		resp.ProximaCompraEstimada = &proxima

		diasInactiva := ahora.Sub(ultima).Hours() / 24
		resp.RiesgoInactividad = riesgoInactividad(diasInactiva, frecuencia)
	}

	resp.MontoEstimadoUSD = s.montoEstimado(ordenes, ahora)
	resp.TendenciaVolumen = tendenciaVolumen(ordenes)
	resp.TendenciaPrecios = tendenciaPrecios(ordenes)
	resp.ValorAnualEstimado = s.valorAnual(ordenes, ahora)
	return resp, nil
}

func (s *prediccionService) ventanas(ordenes []model.OrdenCompra, ahora time.Time) []dto.VentanaActividad {
	out := make([]dto.VentanaActividad, 0, len(ventanasDias))
	for _, dias := range ventanasDias {
		corte := ahora.AddDate(0, 0, -dias)
		v := dto.VentanaActividad{Dias: dias}
		for i := range ordenes {
			if fechaCompra(&ordenes[i]).After(corte) {
				v.Ordenes++
				v.GastoUSD = v.GastoUSD.Add(ordenes[i].TotalUSD)
			}
		}
		out = append(out, v)
	}
	return out
}

// montoEstimado es el ticket promedio de los últimos 90 días; sin actividad
// reciente cae al promedio histórico completo.
func (s *prediccionService) montoEstimado(ordenes []model.OrdenCompra, ahora time.Time) *decimal.Decimal {
	corte := ahora.AddDate(0, 0, -90)
	suma, n := decimal.Zero, 0
	for i := range ordenes {
		if fechaCompra(&ordenes[i]).After(corte) {
			suma = suma.Add(ordenes[i].TotalUSD)
			n++
		}
	}
	if n == 0 {
		for i := range ordenes {
			suma = suma.Add(ordenes[i].TotalUSD)
		}
		n = len(ordenes)
	}
	if n == 0 {
		return nil
	}
	monto := suma.Div(decimal.NewFromInt(int64(n))).Round(2)
	return &monto
}

// valorAnual proyecta el gasto anual: con un año o más de historial es el
// gasto real de los últimos 365 días; con menos, anualiza la ventana de 90.
func (s *prediccionService) valorAnual(ordenes []model.OrdenCompra, ahora time.Time) decimal.Decimal {
	primera := fechaCompra(&ordenes[0])
	if ahora.Sub(primera).Hours()/24 >= 365 {
		corte := ahora.AddDate(0, 0, -365)
		suma := decimal.Zero
		for i := range ordenes {
			if fechaCompra(&ordenes[i]).After(corte) {
				suma = suma.Add(ordenes[i].TotalUSD)
			}
		}
		return suma.Round(2)
	}
	corte := ahora.AddDate(0, 0, -90)
	suma := decimal.Zero
	for i := range ordenes {
		if fechaCompra(&ordenes[i]).After(corte) {
			suma = suma.Add(ordenes[i].TotalUSD)
		}
	}
	return suma.Mul(decimal.NewFromInt(365)).Div(decimal.NewFromInt(90)).Round(2)
}

// tendenciaVolumen compara el gasto de la mitad reciente del historial contra
// la mitad antigua; cambios menores al umbral se reportan estables.
func tendenciaVolumen(ordenes []model.OrdenCompra) string {
	if len(ordenes) < 2 {
		return TendenciaEstable
	}
	medio := len(ordenes) / 2
	antigua, reciente := decimal.Zero, decimal.Zero
	for i := range ordenes {
		if i < medio {
			antigua = antigua.Add(ordenes[i].TotalUSD)
		} else {
			reciente = reciente.Add(ordenes[i].TotalUSD)
		}
	}
	// Normaliza por cantidad de órdenes en cada mitad
	promAntigua := antigua.Div(decimal.NewFromInt(int64(medio)))
	promReciente := reciente.Div(decimal.NewFromInt(int64(len(ordenes) - medio)))
	return compararTendencia(promAntigua, promReciente)
}

// tendenciaPrecios compara el costo unitario promedio de ambas mitades.
func tendenciaPrecios(ordenes []model.OrdenCompra) string {
	if len(ordenes) < 2 {
		return TendenciaEstable
	}
	medio := len(ordenes) / 2
	costoPromedio := func(desde, hasta int) decimal.Decimal {
		suma, qty := decimal.Zero, int64(0)
		for i := desde; i < hasta; i++ {
			for _, item := range ordenes[i].Items {
				suma = suma.Add(item.CostoUnitarioUSD.Mul(decimal.NewFromInt(int64(item.Cantidad))))
				qty += int64(item.Cantidad)
			}
		}
		if qty == 0 {
			return decimal.Zero
		}
		return suma.Div(decimal.NewFromInt(qty))
	}
	return compararTendencia(costoPromedio(0, medio), costoPromedio(medio, len(ordenes)))
}

func compararTendencia(antigua, reciente decimal.Decimal) string {
	if antigua.IsZero() {
		return TendenciaEstable
	}
	cambio, _ := reciente.Sub(antigua).Div(antigua).Float64()
	switch {
	case cambio > umbralTendencia:
		return TendenciaCreciente
	case cambio < -umbralTendencia:
		return TendenciaDecreciente
	default:
		return TendenciaEstable
	}
}

// riesgoInactividad crece linealmente desde 0 cuando la inactividad alcanza
// la frecuencia de compra y satura en 100 al triplicarla.
func riesgoInactividad(diasInactiva, frecuencia float64) float64 {
	if frecuencia <= 0 {
		return 0
	}
	return clampFloat(100*(diasInactiva-frecuencia)/(2*frecuencia), 0, 100)
}

func fechaCompra(o *model.OrdenCompra) time.Time {
	if o.FechaRecepcion != nil {
		return *o.FechaRecepcion
	}
	return o.CreatedAt
}
