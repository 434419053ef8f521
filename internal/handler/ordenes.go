package handler

import (
	"net/http"

	"abasto/internal/apierror"
	"abasto/internal/dto"
	"abasto/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OrdenesHandler struct{ svc service.OrdenService }

func NewOrdenesHandler(svc service.OrdenService) *OrdenesHandler { return &OrdenesHandler{svc: svc} }

// Crear godoc
// @Summary      Crear orden de compra
// @Description  Crea la orden en borrador: congela costos unitarios, calcula totales en USD y fija la tasa de cambio si está disponible.
// @Tags         ordenes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CrearOrdenRequest true "Líneas y costos de la orden"
// @Success      201  {object} dto.OrdenResponse
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/ordenes [post]
func (h *OrdenesHandler) Crear(c *gin.Context) {
	var req dto.CrearOrdenRequest
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
// @Summary      Listar órdenes de compra
// @Produce      json
// @Security     BearerAuth
// @Param        proveedor_id query string false "Filtrar por proveedor"
// @Param        estado       query string false "borrador | enviada | en_transito | recibida | cancelada | all"
// @Param        page         query int    false "Página (default 1)"
// @Param        limit        query int    false "Registros por página (default 20)"
// @Success      200 {object} dto.OrdenListResponse
// @Router       /v1/ordenes [get]
func (h *OrdenesHandler) Listar(c *gin.Context) {
	var filter dto.OrdenFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), filter)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Obtener godoc
// @Summary      Obtener orden de compra
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID de la orden"
// @Success      200 {object} dto.OrdenResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/ordenes/{id} [get]
func (h *OrdenesHandler) Obtener(c *gin.Context) {
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

// Avanzar godoc
// @Summary      Avanzar estado de la orden
// @Description  Transición hacia adelante: borrador→enviada→en_transito→recibida. Recibir genera inventario y actualiza métricas del proveedor.
// @Tags         ordenes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                  true "UUID de la orden"
// @Param        body body dto.AvanzarOrdenRequest true "Estado destino y tracking"
// @Success      200 {object} dto.OrdenResponse
// @Failure      409 {object} apierror.APIError
// @Failure      422 {object} apierror.APIError
// @Router       /v1/ordenes/{id}/avanzar [post]
func (h *OrdenesHandler) Avanzar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.AvanzarOrdenRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Avanzar(c.Request.Context(), id, req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RegistrarPago godoc
// @Summary      Registrar pago
// @Description  Aplica un pago parcial o total en USD o moneda local. Un sobrepago se acepta y devuelve advertencia.
// @Tags         ordenes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                   true "UUID de la orden"
// @Param        body body dto.RegistrarPagoRequest true "Monto, moneda y método"
// @Success      200 {object} dto.PagoResponse
// @Failure      422 {object} apierror.APIError
// @Router       /v1/ordenes/{id}/pagos [post]
func (h *OrdenesHandler) RegistrarPago(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.RegistrarPagoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegistrarPago(c.Request.Context(), id, req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cancelar godoc
// @Summary      Cancelar orden
// @Description  Cancela la orden si aún no generó inventario. El número no se reutiliza.
// @Tags         ordenes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                   true "UUID de la orden"
// @Param        body body dto.CancelarOrdenRequest false "Motivo"
// @Success      200 {object} dto.OrdenResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/ordenes/{id}/cancelar [post]
func (h *OrdenesHandler) Cancelar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.CancelarOrdenRequest
	_ = c.ShouldBindJSON(&req) // body opcional
	resp, err := h.svc.Cancelar(c.Request.Context(), id, req.Motivo)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// MarcarProblema godoc
// @Summary      Marcar orden con problemas
// @Description  Registra una incidencia sobre la orden. Sobre una orden recibida corrige los contadores del proveedor.
// @Tags         ordenes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                    true "UUID de la orden"
// @Param        body body dto.MarcarProblemaRequest true "Nota de la incidencia"
// @Success      200 {object} dto.OrdenResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/ordenes/{id}/problema [post]
func (h *OrdenesHandler) MarcarProblema(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.MarcarProblemaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.MarcarProblema(c.Request.Context(), id, req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
