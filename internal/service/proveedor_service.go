package service

import (
	"context"
	"fmt"
	"time"

	"abasto/internal/apierror"
	"abasto/internal/dto"
	"abasto/internal/model"
	"abasto/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type ProveedorService interface {
	// Crear da de alta un proveedor con código PROV-NNN, evaluación neutra y
	// métricas en cero.
	Crear(ctx context.Context, req dto.CrearProveedorRequest) (*dto.ProveedorResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.ProveedorResponse, error)
	ObtenerPorNombre(ctx context.Context, nombre string) (*dto.ProveedorResponse, error)
	Listar(ctx context.Context, soloActivos bool) ([]dto.ProveedorResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.CrearProveedorRequest) (*dto.ProveedorResponse, error)
	Desactivar(ctx context.Context, id uuid.UUID) error
	// ObtenerAnalitica compone el panel completo: métricas, evaluación con
	// tendencia, historial y predicciones.
	ObtenerAnalitica(ctx context.Context, id uuid.UUID) (*dto.AnaliticaResponse, error)
}

type proveedorService struct {
	repo       repository.ProveedorRepository
	evaluacion EvaluacionService
	prediccion PrediccionService
}

func NewProveedorService(repo repository.ProveedorRepository, evaluacion EvaluacionService, prediccion PrediccionService) ProveedorService {
	return &proveedorService{repo: repo, evaluacion: evaluacion, prediccion: prediccion}
}

var categoriasValidas = map[string]bool{
	model.CategoriaFabricante:   true,
	model.CategoriaDistribuidor: true,
	model.CategoriaMayorista:    true,
	model.CategoriaMinorista:    true,
}

func (s *proveedorService) Crear(ctx context.Context, req dto.CrearProveedorRequest) (*dto.ProveedorResponse, error) {
	if !categoriasValidas[req.Categoria] {
		return nil, fmt.Errorf("categoría %q: %w", req.Categoria, apierror.ErrValidacion)
	}

	codigo, err := s.repo.NextCodigo(ctx)
	if err != nil {
		return nil, err
	}

	p := &model.Proveedor{
		Codigo:    codigo,
		Nombre:    req.Nombre,
		Pais:      req.Pais,
		Categoria: req.Categoria,
		Telefono:  req.Telefono,
		Email:     req.Email,
		Direccion: req.Direccion,
		Activo:    true,
		Evaluacion: model.EvaluacionProveedor{
			CalidadProducto:      factorDefault,
			PuntualidadEntrega:   factorDefault,
			CompetitividadPrecio: factorDefault,
			Comunicacion:         factorDefault,
			Puntaje:              4 * factorDefault,
			Clasificacion:        Clasificar(4 * factorDefault),
			CalculoAutomatico:    true,
		},
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	log.Info().Str("codigo", p.Codigo).Str("nombre", p.Nombre).Msg("proveedor creado")

	resp := proveedorToResponse(p)
	return &resp, nil
}

func (s *proveedorService) Obtener(ctx context.Context, id uuid.UUID) (*dto.ProveedorResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := proveedorToResponse(p)
	return &resp, nil
}

func (s *proveedorService) ObtenerPorNombre(ctx context.Context, nombre string) (*dto.ProveedorResponse, error) {
	p, err := s.repo.FindByNombre(ctx, nombre)
	if err != nil {
		return nil, err
	}
	resp := proveedorToResponse(p)
	return &resp, nil
}

func (s *proveedorService) Listar(ctx context.Context, soloActivos bool) ([]dto.ProveedorResponse, error) {
	proveedores, err := s.repo.List(ctx, soloActivos)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProveedorResponse, 0, len(proveedores))
	for i := range proveedores {
		out = append(out, proveedorToResponse(&proveedores[i]))
	}
	return out, nil
}

func (s *proveedorService) Actualizar(ctx context.Context, id uuid.UUID, req dto.CrearProveedorRequest) (*dto.ProveedorResponse, error) {
	if !categoriasValidas[req.Categoria] {
		return nil, fmt.Errorf("categoría %q: %w", req.Categoria, apierror.ErrValidacion)
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	p.Nombre = req.Nombre
	p.Pais = req.Pais
	p.Categoria = req.Categoria
	p.Telefono = req.Telefono
	p.Email = req.Email
	p.Direccion = req.Direccion

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	resp := proveedorToResponse(p)
	return &resp, nil
}

func (s *proveedorService) Desactivar(ctx context.Context, id uuid.UUID) error {
	return s.repo.SoftDelete(ctx, id)
}

func (s *proveedorService) ObtenerAnalitica(ctx context.Context, id uuid.UUID) (*dto.AnaliticaResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tendencia, err := s.evaluacion.Tendencia(ctx, id)
	if err != nil {
		return nil, err
	}
	historial, err := s.repo.ListHistorial(ctx, id)
	if err != nil {
		return nil, err
	}
	prediccion, err := s.prediccion.Predecir(ctx, id)
	if err != nil {
		return nil, err
	}

	items := make([]dto.EvaluacionHistorialItem, 0, len(historial))
	for _, h := range historial {
		items = append(items, dto.EvaluacionHistorialItem{
			Fecha:                h.Fecha.Format(time.RFC3339),
			Puntaje:              h.Puntaje,
			CalidadProducto:      h.CalidadProducto,
			PuntualidadEntrega:   h.PuntualidadEntrega,
			CompetitividadPrecio: h.CompetitividadPrecio,
			Comunicacion:         h.Comunicacion,
			Evaluador:            h.Evaluador,
			Nota:                 h.Nota,
		})
	}

	return &dto.AnaliticaResponse{
		Proveedor:  proveedorToResponse(p),
		Tendencia:  tendencia,
		Historial:  items,
		Prediccion: *prediccion,
	}, nil
}

func proveedorToResponse(p *model.Proveedor) dto.ProveedorResponse {
	m := dto.MetricasResponse{
		TotalOrdenes:          p.Metricas.TotalOrdenes,
		TotalCompradoUSD:      p.Metricas.TotalCompradoUSD,
		ProductosComprados:    p.Metricas.ProductosComprados,
		OrdenesCompletadas:    p.Metricas.OrdenesCompletadas,
		OrdenesConProblemas:   p.Metricas.OrdenesConProblemas,
		TasaProblemas:         p.Metricas.TasaProblemas,
		PromedioDiasEntrega:   p.Metricas.PromedioDiasEntrega,
		DesviacionDiasEntrega: p.Metricas.DesviacionDiasEntrega,
		UltimaCompra:          fechaOpcional(p.Metricas.UltimaCompra),
	}
	return dto.ProveedorResponse{
		ID:         p.ID.String(),
		Codigo:     p.Codigo,
		Nombre:     p.Nombre,
		Pais:       p.Pais,
		Categoria:  p.Categoria,
		Telefono:   p.Telefono,
		Email:      p.Email,
		Direccion:  p.Direccion,
		Activo:     p.Activo,
		Metricas:   m,
		Evaluacion: evaluacionToResponse(&p.Evaluacion),
	}
}
