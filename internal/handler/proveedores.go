package handler

import (
	"net/http"

	"abasto/internal/apierror"
	"abasto/internal/dto"
	"abasto/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ProveedoresHandler struct {
	svc        service.ProveedorService
	evaluacion service.EvaluacionService
}

func NewProveedoresHandler(svc service.ProveedorService, evaluacion service.EvaluacionService) *ProveedoresHandler {
	return &ProveedoresHandler{svc: svc, evaluacion: evaluacion}
}

// Crear godoc
// @Summary      Registrar proveedor
// @Description  Da de alta un proveedor con código PROV-NNN, evaluación neutra y métricas en cero.
// @Tags         proveedores
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CrearProveedorRequest true "Datos del proveedor"
// @Success      201  {object} dto.ProveedorResponse
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/proveedores [post]
func (h *ProveedoresHandler) Crear(c *gin.Context) {
	var req dto.CrearProveedorRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar godoc
// @Summary      Listar proveedores
// @Produce      json
// @Security     BearerAuth
// @Param        incluir_inactivos query bool false "Incluir proveedores desactivados"
// @Success      200 {array} dto.ProveedorResponse
// @Router       /v1/proveedores [get]
func (h *ProveedoresHandler) Listar(c *gin.Context) {
	soloActivos := c.Query("incluir_inactivos") != "true"
	resp, err := h.svc.Listar(c.Request.Context(), soloActivos)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Obtener godoc
// @Summary      Obtener proveedor
// @Description  Busca por UUID, o por nombre exacto con ?nombre= cuando no se pasa id.
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID del proveedor"
// @Success      200 {object} dto.ProveedorResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/proveedores/{id} [get]
func (h *ProveedoresHandler) Obtener(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.svc.Obtener(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// BuscarPorNombre godoc
// @Summary      Buscar proveedor por nombre
// @Produce      json
// @Security     BearerAuth
// @Param        nombre query string true "Nombre exacto (case-insensitive)"
// @Success      200 {object} dto.ProveedorResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/proveedores/buscar [get]
func (h *ProveedoresHandler) BuscarPorNombre(c *gin.Context) {
	nombre := c.Query("nombre")
	if nombre == "" {
		c.JSON(http.StatusBadRequest, apierror.New("Parametro nombre requerido"))
		return
	}
	resp, err := h.svc.ObtenerPorNombre(c.Request.Context(), nombre)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Actualizar godoc
// @Summary      Actualizar proveedor
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                    true "UUID del proveedor"
// @Param        body body dto.CrearProveedorRequest true "Datos del proveedor"
// @Success      200 {object} dto.ProveedorResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/proveedores/{id} [put]
func (h *ProveedoresHandler) Actualizar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.CrearProveedorRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), id, req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Desactivar godoc
// @Summary      Desactivar proveedor
// @Description  Baja lógica: el proveedor deja de aceptar órdenes nuevas pero conserva su historial.
// @Security     BearerAuth
// @Param        id path string true "UUID del proveedor"
// @Success      204
// @Failure      404 {object} apierror.APIError
// @Router       /v1/proveedores/{id} [delete]
func (h *ProveedoresHandler) Desactivar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	if err := h.svc.Desactivar(c.Request.Context(), id); err != nil {
		responderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// EvaluarManual godoc
// @Summary      Registrar evaluación manual
// @Description  Revisión humana con los cuatro factores en [0,25]. Genera una entrada de historial.
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                      true "UUID del proveedor"
// @Param        body body dto.EvaluacionManualRequest true "Factores y evaluador"
// @Success      200 {object} dto.EvaluacionResponse
// @Failure      422 {object} apierror.APIError
// @Router       /v1/proveedores/{id}/evaluacion [post]
func (h *ProveedoresHandler) EvaluarManual(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.EvaluacionManualRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.evaluacion.EvaluarManual(c.Request.Context(), id, req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RecalcularTodos godoc
// @Summary      Recalcular evaluaciones automáticas
// @Description  Fuerza el recálculo de todos los proveedores activos (misma rutina que el cron nocturno).
// @Security     BearerAuth
// @Success      202
// @Router       /v1/proveedores/evaluacion/recalcular [post]
func (h *ProveedoresHandler) RecalcularTodos(c *gin.Context) {
	if err := h.evaluacion.RecalcularTodos(c.Request.Context()); err != nil {
		responderError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}
