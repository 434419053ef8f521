package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"abasto/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildComparativaSvc() (*comparativaService, *stubOrdenRepo, *stubProductoRepo) {
	ordenes := newStubOrdenRepo()
	productos := newStubProductoRepo()
	svc := NewComparativaService(ordenes, productos, nil).(*comparativaService)
	return svc, ordenes, productos
}

func ordenRecibidaDe(repo *stubOrdenRepo, proveedorID uuid.UUID, proveedorNombre string,
	productoID uuid.UUID, sku string, cantidad int, costo decimal.Decimal, fecha time.Time) *model.OrdenCompra {
	repo.numeroSeq++
	subtotal := costo.Mul(decimal.NewFromInt(int64(cantidad))).Round(2)
	o := &model.OrdenCompra{
		ID:              uuid.New(),
		Numero:          fmt.Sprintf("OC-%05d", repo.numeroSeq),
		ProveedorID:     proveedorID,
		ProveedorNombre: proveedorNombre,
		Items: []model.OrdenItem{
			{ProductoID: productoID, SKU: sku, Cantidad: cantidad, CostoUnitarioUSD: costo, SubtotalUSD: subtotal},
		},
		SubtotalUSD:    subtotal,
		TotalUSD:       subtotal,
		Estado:         model.OrdenRecibida,
		FechaRecepcion: &fecha,
		CreatedAt:      fecha.AddDate(0, 0, -3),
	}
	repo.ordenes[o.ID] = o
	return o
}

func TestComparativoPreciosRankingYSobreprecio(t *testing.T) {
	svc, ordenes, productos := buildComparativaSvc()
	laptop := productos.agregar("TEC-LAP-001", "Laptop 14\" 16GB")
	provA, provB := uuid.New(), uuid.New()
	marzo := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	ordenRecibidaDe(ordenes, provA, "Tech Import C.A.", laptop, "TEC-LAP-001", 5, dec("10"), marzo)
	ordenRecibidaDe(ordenes, provB, "Distribuidora Andina", laptop, "TEC-LAP-001", 5, dec("12"), marzo.AddDate(0, 0, 5))

	resultado, err := svc.ComparativoPrecios(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, resultado, 1)

	producto := resultado[0]
	assert.Equal(t, "TEC-LAP-001", producto.SKU)
	assert.Equal(t, "Laptop 14\" 16GB", producto.Nombre)
	require.Len(t, producto.Proveedores, 2)

	// Ranking ascendente por costo: A lidera sin sobreprecio
	assert.Equal(t, "Tech Import C.A.", producto.Proveedores[0].ProveedorNombre)
	assert.True(t, dec("10").Equal(producto.Proveedores[0].CostoPromedio))
	assert.True(t, producto.Proveedores[0].SobreprecioPct.IsZero())

	// B paga 20% de premio sobre el mejor precio
	assert.Equal(t, "Distribuidora Andina", producto.Proveedores[1].ProveedorNombre)
	assert.True(t, dec("12").Equal(producto.Proveedores[1].CostoPromedio))
	assert.True(t, dec("20").Equal(producto.Proveedores[1].SobreprecioPct))

	assert.True(t, dec("10").Equal(producto.MejorPrecio.CostoPromedio))
	assert.True(t, dec("11").Equal(producto.PromedioMercado))
	assert.True(t, dec("20").Equal(producto.DiferenciaMaxima))
}

func TestComparativoExcluyeProductosDeUnSoloProveedor(t *testing.T) {
	svc, ordenes, productos := buildComparativaSvc()
	laptop := productos.agregar("TEC-LAP-001", "Laptop")
	monitor := productos.agregar("TEC-MON-002", "Monitor")
	provA, provB := uuid.New(), uuid.New()
	marzo := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	// Laptop: dos proveedores. Monitor: solo uno — no compara contra nadie.
	ordenRecibidaDe(ordenes, provA, "Tech Import C.A.", laptop, "TEC-LAP-001", 2, dec("10"), marzo)
	ordenRecibidaDe(ordenes, provB, "Distribuidora Andina", laptop, "TEC-LAP-001", 2, dec("11"), marzo)
	ordenRecibidaDe(ordenes, provA, "Tech Import C.A.", monitor, "TEC-MON-002", 4, dec("200"), marzo)

	resultado, err := svc.ComparativoPrecios(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, resultado, 1)
	assert.Equal(t, "TEC-LAP-001", resultado[0].SKU)
}

func TestComparativoPromedioPonderadoPorCantidad(t *testing.T) {
	svc, ordenes, productos := buildComparativaSvc()
	laptop := productos.agregar("TEC-LAP-001", "Laptop")
	provA, provB := uuid.New(), uuid.New()
	marzo := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	// A compró 2 a $10 y 8 a $15: promedio ponderado (20+120)/10 = 14
	ordenRecibidaDe(ordenes, provA, "Tech Import C.A.", laptop, "TEC-LAP-001", 2, dec("10"), marzo)
	ordenRecibidaDe(ordenes, provA, "Tech Import C.A.", laptop, "TEC-LAP-001", 8, dec("15"), marzo.AddDate(0, 0, 10))
	ordenRecibidaDe(ordenes, provB, "Distribuidora Andina", laptop, "TEC-LAP-001", 1, dec("13"), marzo)

	resultado, err := svc.ComparativoPrecios(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, resultado, 1)
	require.Len(t, resultado[0].Proveedores, 2)

	// B lidera con $13; A queda en $14 ponderado, no en el promedio simple $12.50
	assert.Equal(t, "Distribuidora Andina", resultado[0].Proveedores[0].ProveedorNombre)
	assert.True(t, dec("13").Equal(resultado[0].Proveedores[0].CostoPromedio))
	assert.True(t, dec("14").Equal(resultado[0].Proveedores[1].CostoPromedio))
	assert.Equal(t, 2, resultado[0].Proveedores[1].Ordenes)
}

func TestComparativoEmpateGanaRelacionMasAntigua(t *testing.T) {
	svc, ordenes, productos := buildComparativaSvc()
	laptop := productos.agregar("TEC-LAP-001", "Laptop")
	provA, provB := uuid.New(), uuid.New()
	marzo := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	ordenRecibidaDe(ordenes, provA, "Tech Import C.A.", laptop, "TEC-LAP-001", 1, dec("10"), marzo)
	ordenRecibidaDe(ordenes, provB, "Distribuidora Andina", laptop, "TEC-LAP-001", 1, dec("10"), marzo.AddDate(0, 0, 15))

	resultado, err := svc.ComparativoPrecios(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, resultado, 1)
	// A igual costo, lidera la relación más establecida
	assert.Equal(t, "Tech Import C.A.", resultado[0].Proveedores[0].ProveedorNombre)
	assert.True(t, resultado[0].Proveedores[0].SobreprecioPct.IsZero())
	assert.True(t, resultado[0].Proveedores[1].SobreprecioPct.IsZero())
}

func TestComparativoUmbralDeProveedores(t *testing.T) {
	svc, ordenes, productos := buildComparativaSvc()
	laptop := productos.agregar("TEC-LAP-001", "Laptop")
	monitor := productos.agregar("TEC-MON-002", "Monitor")
	provA, provB, provC := uuid.New(), uuid.New(), uuid.New()
	marzo := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	// Laptop: tres proveedores. Monitor: dos.
	ordenRecibidaDe(ordenes, provA, "Tech Import C.A.", laptop, "TEC-LAP-001", 1, dec("10"), marzo)
	ordenRecibidaDe(ordenes, provB, "Distribuidora Andina", laptop, "TEC-LAP-001", 1, dec("11"), marzo)
	ordenRecibidaDe(ordenes, provC, "Comercial Oriente", laptop, "TEC-LAP-001", 1, dec("12"), marzo)
	ordenRecibidaDe(ordenes, provA, "Tech Import C.A.", monitor, "TEC-MON-002", 1, dec("200"), marzo)
	ordenRecibidaDe(ordenes, provB, "Distribuidora Andina", monitor, "TEC-MON-002", 1, dec("210"), marzo)

	// Con umbral 3 solo sobrevive la laptop
	resultado, err := svc.ComparativoPrecios(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, resultado, 1)
	assert.Equal(t, "TEC-LAP-001", resultado[0].SKU)

	// Con el default entran ambos productos
	resultado, err = svc.ComparativoPrecios(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, resultado, 2)

	// Valores por debajo del piso se elevan a 2, no filtran de más
	resultado, err = svc.ComparativoPrecios(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, resultado, 2)
}

func TestComparativoSinOrdenesRecibidas(t *testing.T) {
	svc, _, _ := buildComparativaSvc()
	resultado, err := svc.ComparativoPrecios(context.Background(), 2)
	require.NoError(t, err)
	assert.Empty(t, resultado)
}

func TestSobreprecio(t *testing.T) {
	assert.True(t, sobreprecio(dec("12"), dec("10")).Equal(dec("20")))
	assert.True(t, sobreprecio(dec("10"), dec("10")).IsZero())
	// Un mejor precio en cero no divide
	assert.True(t, sobreprecio(dec("5"), dec("0")).IsZero())
}
