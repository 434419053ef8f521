package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildMetricasSvc() (*metricasService, *stubProveedorRepo) {
	repo := newStubProveedorRepo()
	evaluacion := NewEvaluacionService(repo)
	svc := NewMetricasService(repo, evaluacion).(*metricasService)
	svc.WithClock(relojFijo(time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)))
	return svc, repo
}

func TestRegistrarOrdenCompletada(t *testing.T) {
	svc, repo := buildMetricasSvc()
	p := nuevoProveedorActivo(repo, "Tech Import C.A.")

	require.NoError(t, svc.RegistrarOrdenCompletada(context.Background(), EventoOrdenCompletada{
		ProveedorID: p.ID,
		TotalUSD:    dec("500"),
		ProductoIDs: []string{"prod-a", "prod-b"},
		DiasEntrega: 4,
	}))

	m := p.Metricas
	assert.Equal(t, 1, m.TotalOrdenes)
	assert.Equal(t, 1, m.OrdenesCompletadas)
	assert.Equal(t, 0, m.OrdenesConProblemas)
	assert.True(t, dec("500").Equal(m.TotalCompradoUSD))
	assert.Equal(t, []string{"prod-a", "prod-b"}, m.ProductosComprados)
	assert.Equal(t, 0.0, m.TasaProblemas)
	// Primera muestra: el promedio es la muestra y la desviación es cero
	assert.Equal(t, 4.0, m.PromedioDiasEntrega)
	assert.Equal(t, 0.0, m.DesviacionDiasEntrega)
	require.NotNil(t, m.UltimaCompra)

	// El recálculo automático corrió sobre las métricas nuevas
	assert.True(t, p.Evaluacion.CalculoAutomatico)
	assert.Equal(t, 25.0, p.Evaluacion.CalidadProducto)
}

func TestPromedioIncrementalDeDiasEntrega(t *testing.T) {
	svc, repo := buildMetricasSvc()
	p := nuevoProveedorActivo(repo, "Distribuidora Andina")

	registrar := func(dias float64, problema bool) {
		require.NoError(t, svc.RegistrarOrdenCompletada(context.Background(), EventoOrdenCompletada{
			ProveedorID:   p.ID,
			TotalUSD:      dec("100"),
			DiasEntrega:   dias,
			TuvoProblemas: problema,
		}))
	}

	registrar(2, false)
	registrar(4, false)
	registrar(6, true)

	m := p.Metricas
	assert.Equal(t, 3, m.OrdenesCompletadas)
	// Promedio en línea de 2, 4, 6
	assert.InDelta(t, 4.0, m.PromedioDiasEntrega, 1e-9)
	// Desviación = |última muestra − promedio nuevo| = |6 − 4| = 2
	assert.InDelta(t, 2.0, m.DesviacionDiasEntrega, 1e-9)
	assert.Equal(t, 1, m.OrdenesConProblemas)
	assert.InDelta(t, 100.0/3, m.TasaProblemas, 1e-9)
	assert.True(t, dec("300").Equal(m.TotalCompradoUSD))
}

func TestRegistrarProblemaCorrigeContadores(t *testing.T) {
	svc, repo := buildMetricasSvc()
	p := nuevoProveedorActivo(repo, "Importadora del Sur")

	require.NoError(t, svc.RegistrarOrdenCompletada(context.Background(), EventoOrdenCompletada{
		ProveedorID: p.ID, TotalUSD: dec("100"), DiasEntrega: 1,
	}))
	require.NoError(t, svc.RegistrarOrdenCompletada(context.Background(), EventoOrdenCompletada{
		ProveedorID: p.ID, TotalUSD: dec("100"), DiasEntrega: 1,
	}))

	// La orden se marcó problemática después de recibida
	require.NoError(t, svc.RegistrarProblema(context.Background(), p.ID))

	m := p.Metricas
	assert.Equal(t, 1, m.OrdenesConProblemas)
	assert.InDelta(t, 50.0, m.TasaProblemas, 1e-9)
	// La evaluación automática refleja la tasa corregida: 25 × (1 − 0.5)
	assert.Equal(t, 12.5, p.Evaluacion.CalidadProducto)
}

func TestUnirProductos(t *testing.T) {
	casos := []struct {
		actuales, nuevos, esperado []string
	}{
		{nil, []string{"a", "b"}, []string{"a", "b"}},
		{[]string{"a"}, []string{"a", "b"}, []string{"a", "b"}},
		{[]string{"a", "b"}, nil, []string{"a", "b"}},
		{[]string{"a", "b"}, []string{"b", "c", "c"}, []string{"a", "b", "c"}},
	}
	for _, c := range casos {
		assert.Equal(t, c.esperado, unirProductos(c.actuales, c.nuevos))
	}
}
