package handler

import (
	"net/http"
	"strconv"

	"abasto/internal/apierror"
	"abasto/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AnaliticaHandler struct {
	proveedores service.ProveedorService
	comparativa service.ComparativaService
}

func NewAnaliticaHandler(proveedores service.ProveedorService, comparativa service.ComparativaService) *AnaliticaHandler {
	return &AnaliticaHandler{proveedores: proveedores, comparativa: comparativa}
}

// Analitica godoc
// @Summary      Panel analítico del proveedor
// @Description  Métricas acumuladas, evaluación vigente con tendencia, historial de revisiones y predicciones heurísticas.
// @Tags         analitica
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID del proveedor"
// @Success      200 {object} dto.AnaliticaResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/proveedores/{id}/analitica [get]
func (h *AnaliticaHandler) Analitica(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.proveedores.ObtenerAnalitica(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ComparativoPrecios godoc
// @Summary      Comparativo de precios entre proveedores
// @Description  Para cada producto comprado a min_proveedores o más proveedores: ranking por costo promedio ponderado, mejor precio, promedio de mercado y sobreprecios.
// @Tags         analitica
// @Produce      json
// @Security     BearerAuth
// @Param        min_proveedores query int false "Mínimo de proveedores distintos por producto" default(2) minimum(2)
// @Success      200 {array} dto.ComparativoPrecioProducto
// @Router       /v1/comparativa/precios [get]
func (h *AnaliticaHandler) ComparativoPrecios(c *gin.Context) {
	minProveedores, err := strconv.Atoi(c.DefaultQuery("min_proveedores", "2"))
	if err != nil || minProveedores < 2 {
		c.JSON(http.StatusBadRequest, apierror.New("min_proveedores inválido"))
		return
	}
	resp, err := h.comparativa.ComparativoPrecios(c.Request.Context(), minProveedores)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
