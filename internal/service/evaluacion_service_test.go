package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"abasto/internal/apierror"
	"abasto/internal/dto"
	"abasto/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildEvaluacionSvc() (*evaluacionService, *stubProveedorRepo) {
	repo := newStubProveedorRepo()
	svc := NewEvaluacionService(repo).(*evaluacionService)
	svc.WithClock(relojFijo(time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)))
	return svc, repo
}

func TestClasificar(t *testing.T) {
	casos := []struct {
		puntaje  float64
		esperado string
	}{
		{100, model.ClasificacionPreferido},
		{80, model.ClasificacionPreferido},
		{79.99, model.ClasificacionAprobado},
		{60, model.ClasificacionAprobado},
		{59.99, model.ClasificacionCondicional},
		{40, model.ClasificacionCondicional},
		{39.99, model.ClasificacionSuspendido},
		{0, model.ClasificacionSuspendido},
		// Fuera de rango se acota antes de clasificar
		{150, model.ClasificacionPreferido},
		{-10, model.ClasificacionSuspendido},
	}
	for _, c := range casos {
		assert.Equal(t, c.esperado, Clasificar(c.puntaje), "puntaje %.2f", c.puntaje)
	}
}

func TestFactorCalidad(t *testing.T) {
	assert.Equal(t, 25.0, factorCalidad(0))
	assert.Equal(t, 20.0, factorCalidad(20))
	assert.Equal(t, 12.5, factorCalidad(50))
	assert.Equal(t, 0.0, factorCalidad(100))
	// Una tasa absurda nunca produce un factor negativo
	assert.Equal(t, 0.0, factorCalidad(150))
}

func TestFactorPuntualidad(t *testing.T) {
	casos := []struct {
		desviacion float64
		esperado   float64
	}{
		{0, 25}, {1, 25}, {1.5, 20}, {3, 20}, {4, 15}, {5, 15}, {6, 10}, {7, 10}, {8, 5}, {30, 5},
	}
	for _, c := range casos {
		assert.Equal(t, c.esperado, factorPuntualidad(c.desviacion), "desviación %.1f", c.desviacion)
	}
}

func TestRecalcularPrimeraVez(t *testing.T) {
	svc, repo := buildEvaluacionSvc()
	p := nuevoProveedorActivo(repo, "Tech Import C.A.")
	p.Metricas.TasaProblemas = 20        // → calidad 20
	p.Metricas.DesviacionDiasEntrega = 2 // → puntualidad 20

	require.NoError(t, svc.Recalcular(context.Background(), p.ID))

	ev := p.Evaluacion
	assert.Equal(t, 20.0, ev.CalidadProducto)
	assert.Equal(t, 20.0, ev.PuntualidadEntrega)
	// Sin evaluación previa, los factores manuales arrancan en el default
	assert.Equal(t, factorDefault, ev.CompetitividadPrecio)
	assert.Equal(t, factorDefault, ev.Comunicacion)
	assert.Equal(t, 70.0, ev.Puntaje)
	assert.Equal(t, model.ClasificacionAprobado, ev.Clasificacion)
	assert.True(t, ev.CalculoAutomatico)
	require.NotNil(t, ev.FechaEvaluacion)
}

func TestRecalcularArrastraFactoresManuales(t *testing.T) {
	svc, repo := buildEvaluacionSvc()
	p := nuevoProveedorActivo(repo, "Distribuidora Andina")

	// Revisión humana previa con competitividad y comunicación altas
	_, err := svc.EvaluarManual(context.Background(), p.ID, dto.EvaluacionManualRequest{
		CalidadProducto:      10,
		PuntualidadEntrega:   10,
		CompetitividadPrecio: 24,
		Comunicacion:         22,
		Evaluador:            "María Pérez",
	})
	require.NoError(t, err)

	p, err = repo.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	p.Metricas.TasaProblemas = 0         // → calidad 25
	p.Metricas.DesviacionDiasEntrega = 0 // → puntualidad 25
	require.NoError(t, svc.Recalcular(context.Background(), p.ID))

	ev := p.Evaluacion
	assert.Equal(t, 25.0, ev.CalidadProducto)
	assert.Equal(t, 25.0, ev.PuntualidadEntrega)
	// Los factores manuales se arrastran, no se pisan con el default
	assert.Equal(t, 24.0, ev.CompetitividadPrecio)
	assert.Equal(t, 22.0, ev.Comunicacion)
	assert.Equal(t, 96.0, ev.Puntaje)
	assert.Equal(t, model.ClasificacionPreferido, ev.Clasificacion)
	assert.True(t, ev.CalculoAutomatico)
}

func TestEvaluarManualFueraDeRango(t *testing.T) {
	svc, repo := buildEvaluacionSvc()
	p := nuevoProveedorActivo(repo, "Importadora del Sur")

	_, err := svc.EvaluarManual(context.Background(), p.ID, dto.EvaluacionManualRequest{
		CalidadProducto:      26, // > 25
		PuntualidadEntrega:   10,
		CompetitividadPrecio: 10,
		Comunicacion:         10,
		Evaluador:            "María Pérez",
	})
	assert.ErrorIs(t, err, apierror.ErrFueraDeRango)

	_, err = svc.EvaluarManual(context.Background(), p.ID, dto.EvaluacionManualRequest{
		CalidadProducto:      10,
		PuntualidadEntrega:   -1,
		CompetitividadPrecio: 10,
		Comunicacion:         10,
		Evaluador:            "María Pérez",
	})
	assert.ErrorIs(t, err, apierror.ErrFueraDeRango)

	// Nada quedó persistido
	assert.Empty(t, repo.historial[p.ID])
	assert.Equal(t, 0.0, p.Evaluacion.Puntaje)
}

func TestEvaluarManualGeneraHistorial(t *testing.T) {
	svc, repo := buildEvaluacionSvc()
	p := nuevoProveedorActivo(repo, "Comercial Oriente")
	nota := "buen trato postventa"

	resp, err := svc.EvaluarManual(context.Background(), p.ID, dto.EvaluacionManualRequest{
		CalidadProducto:      20,
		PuntualidadEntrega:   18,
		CompetitividadPrecio: 15,
		Comunicacion:         12,
		Evaluador:            "Carlos Rondón",
		Nota:                 &nota,
	})
	require.NoError(t, err)

	assert.Equal(t, 65.0, resp.Puntaje)
	assert.Equal(t, model.ClasificacionAprobado, resp.Clasificacion)
	assert.False(t, resp.CalculoAutomatico)

	hist := repo.historial[p.ID]
	require.Len(t, hist, 1)
	assert.Equal(t, 65.0, hist[0].Puntaje)
	assert.Equal(t, "Carlos Rondón", hist[0].Evaluador)
	require.NotNil(t, hist[0].Nota)
	assert.Equal(t, nota, *hist[0].Nota)
}

func TestEvaluarManualNoPersisteSiFallaElHistorial(t *testing.T) {
	svc, repo := buildEvaluacionSvc()
	p := nuevoProveedorActivo(repo, "Comercial Oriente")

	_, err := svc.EvaluarManual(context.Background(), p.ID, dto.EvaluacionManualRequest{
		CalidadProducto:      10,
		PuntualidadEntrega:   10,
		CompetitividadPrecio: 10,
		Comunicacion:         10,
		Evaluador:            "Carlos Rondón",
	})
	require.NoError(t, err)

	repo.failHistorial = errors.New("historial no disponible")
	_, err = svc.EvaluarManual(context.Background(), p.ID, dto.EvaluacionManualRequest{
		CalidadProducto:      25,
		PuntualidadEntrega:   25,
		CompetitividadPrecio: 25,
		Comunicacion:         25,
		Evaluador:            "Carlos Rondón",
	})
	require.Error(t, err)

	// La revisión fallida no movió la evaluación vigente ni el historial
	guardado, err := repo.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 40.0, guardado.Evaluacion.Puntaje)
	assert.Equal(t, model.ClasificacionCondicional, guardado.Evaluacion.Clasificacion)
	require.Len(t, repo.historial[p.ID], 1)
	assert.Equal(t, 40.0, repo.historial[p.ID][0].Puntaje)
}

func TestHistorialAcotadoADiez(t *testing.T) {
	svc, repo := buildEvaluacionSvc()
	p := nuevoProveedorActivo(repo, "Ferretería Central")

	for i := 1; i <= 12; i++ {
		nota := fmt.Sprintf("revisión %d", i)
		_, err := svc.EvaluarManual(context.Background(), p.ID, dto.EvaluacionManualRequest{
			CalidadProducto:      float64(i),
			PuntualidadEntrega:   10,
			CompetitividadPrecio: 10,
			Comunicacion:         10,
			Evaluador:            "Carlos Rondón",
			Nota:                 &nota,
		})
		require.NoError(t, err)
	}

	hist := repo.historial[p.ID]
	require.Len(t, hist, 10)
	// Sobreviven las 10 más recientes (revisiones 3..12)
	assert.Equal(t, 3.0, hist[0].CalidadProducto)
	assert.Equal(t, 12.0, hist[9].CalidadProducto)
}

func TestTendencia(t *testing.T) {
	svc, repo := buildEvaluacionSvc()
	p := nuevoProveedorActivo(repo, "Suministros Lara")

	// Sin historial: estable
	tendencia, err := svc.Tendencia(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, TendenciaEstable, tendencia)

	evaluar := func(calidad float64) {
		_, err := svc.EvaluarManual(context.Background(), p.ID, dto.EvaluacionManualRequest{
			CalidadProducto:      calidad,
			PuntualidadEntrega:   15,
			CompetitividadPrecio: 15,
			Comunicacion:         15,
			Evaluador:            "María Pérez",
		})
		require.NoError(t, err)
	}

	evaluar(10)
	evaluar(20) // puntaje vigente 65 > inicial 55
	tendencia, err = svc.Tendencia(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, TendenciaMejorando, tendencia)

	evaluar(5) // puntaje vigente 50 < inicial 55
	tendencia, err = svc.Tendencia(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, TendenciaEmpeorando, tendencia)
}

func TestRecalcularTodosNoAbortaPorUnProveedor(t *testing.T) {
	svc, repo := buildEvaluacionSvc()
	nuevoProveedorActivo(repo, "Proveedor A")
	nuevoProveedorActivo(repo, "Proveedor B")
	repo.failUpdate = apierror.ErrConcurrencia

	// Falla cada Update pero la corrida completa no devuelve error
	assert.NoError(t, svc.RecalcularTodos(context.Background()))
}
