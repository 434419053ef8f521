package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"abasto/internal/dto"
	"abasto/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	comparativaCachePrefix = "comparativa:precios"
	comparativaCacheTTL    = 5 * time.Minute
	// minProveedoresPiso es el mínimo absoluto de proveedores distintos para
	// que un producto entre al comparativo: con uno solo no hay contra quién
	// comparar.
	minProveedoresPiso = 2
)

// ComparativaService arma el comparativo de precios entre proveedores para
// productos comprados a varios de ellos. Es un read-model derivado del
// historial de órdenes recibidas, cacheado brevemente en redis.
type ComparativaService interface {
	// ComparativoPrecios incluye solo productos comprados a minProveedores o
	// más proveedores distintos; valores menores a 2 se elevan al piso.
	ComparativoPrecios(ctx context.Context, minProveedores int) ([]dto.ComparativoPrecioProducto, error)
}

type comparativaService struct {
	ordenes   repository.OrdenCompraRepository
	productos repository.ProductoRepository
	rdb       *redis.Client // puede ser nil: el cálculo funciona sin caché
}

func NewComparativaService(ordenes repository.OrdenCompraRepository, productos repository.ProductoRepository, rdb *redis.Client) ComparativaService {
	return &comparativaService{ordenes: ordenes, productos: productos, rdb: rdb}
}

// acumuladorProveedor acumula las compras de un producto a un proveedor para
// derivar el costo unitario promedio ponderado por cantidad.
type acumuladorProveedor struct {
	nombre       string
	cantidad     int64
	costoTotal   decimal.Decimal
	ordenes      int
	ultimaCompra time.Time
}

func (s *comparativaService) ComparativoPrecios(ctx context.Context, minProveedores int) ([]dto.ComparativoPrecioProducto, error) {
	if minProveedores < minProveedoresPiso {
		minProveedores = minProveedoresPiso
	}
	clave := fmt.Sprintf("%s:%d", comparativaCachePrefix, minProveedores)
	if cached := s.leerCache(ctx, clave); cached != nil {
		return cached, nil
	}

	ordenes, err := s.ordenes.ListRecibidas(ctx)
	if err != nil {
		return nil, err
	}

	// producto → proveedor → acumulado
	porProducto := make(map[uuid.UUID]map[uuid.UUID]*acumuladorProveedor)
	skus := make(map[uuid.UUID]string)
	for i := range ordenes {
		o := &ordenes[i]
		fecha := o.CreatedAt
		if o.FechaRecepcion != nil {
			fecha = *o.FechaRecepcion
		}
		for _, item := range o.Items {
			porProv, ok := porProducto[item.ProductoID]
			if !ok {
				porProv = make(map[uuid.UUID]*acumuladorProveedor)
				porProducto[item.ProductoID] = porProv
				skus[item.ProductoID] = item.SKU
			}
			acc, ok := porProv[o.ProveedorID]
			if !ok {
				acc = &acumuladorProveedor{nombre: o.ProveedorNombre}
				porProv[o.ProveedorID] = acc
			}
			acc.cantidad += int64(item.Cantidad)
			acc.costoTotal = acc.costoTotal.Add(item.CostoUnitarioUSD.Mul(decimal.NewFromInt(int64(item.Cantidad))))
			acc.ordenes++
			if fecha.After(acc.ultimaCompra) {
				acc.ultimaCompra = fecha
			}
		}
	}

	nombres := s.nombresProductos(ctx)

	resultado := make([]dto.ComparativoPrecioProducto, 0)
	for productoID, porProv := range porProducto {
		if len(porProv) < minProveedores {
			continue
		}

		items := make([]dto.PrecioProveedorItem, 0, len(porProv))
		for provID, acc := range porProv {
			promedio := acc.costoTotal.Div(decimal.NewFromInt(acc.cantidad)).Round(4)
			items = append(items, dto.PrecioProveedorItem{
				ProveedorID:     provID.String(),
				ProveedorNombre: acc.nombre,
				CostoPromedio:   promedio,
				Ordenes:         acc.ordenes,
				UltimaCompra:    acc.ultimaCompra.Format(time.RFC3339),
			})
		}
		// Ranking ascendente por costo; a igual costo gana la relación más
		// antigua (última compra más vieja)
		sort.Slice(items, func(a, b int) bool {
			if !items[a].CostoPromedio.Equal(items[b].CostoPromedio) {
				return items[a].CostoPromedio.LessThan(items[b].CostoPromedio)
			}
			return items[a].UltimaCompra < items[b].UltimaCompra
		})

		mejor := items[0].CostoPromedio
		suma := decimal.Zero
		for i := range items {
			items[i].SobreprecioPct = sobreprecio(items[i].CostoPromedio, mejor)
			suma = suma.Add(items[i].CostoPromedio)
		}

		resultado = append(resultado, dto.ComparativoPrecioProducto{
			ProductoID:       productoID.String(),
			SKU:              skus[productoID],
			Nombre:           nombreProducto(nombres, productoID, skus[productoID]),
			Proveedores:      items,
			MejorPrecio:      items[0],
			PromedioMercado:  suma.Div(decimal.NewFromInt(int64(len(items)))).Round(4),
			DiferenciaMaxima: items[len(items)-1].SobreprecioPct,
		})
	}

	// Orden estable por SKU para que el reporte sea reproducible
	sort.Slice(resultado, func(a, b int) bool { return resultado[a].SKU < resultado[b].SKU })

	s.escribirCache(ctx, clave, resultado)
	return resultado, nil
}

// sobreprecio es el premio porcentual sobre el mejor precio, 0 para el líder.
func sobreprecio(precio, mejor decimal.Decimal) decimal.Decimal {
	if mejor.IsZero() || precio.LessThanOrEqual(mejor) {
		return decimal.Zero
	}
	return precio.Sub(mejor).Div(mejor).Mul(decimal.NewFromInt(100)).Round(2)
}

func (s *comparativaService) nombresProductos(ctx context.Context) map[uuid.UUID]string {
	nombres := make(map[uuid.UUID]string)
	productos, err := s.productos.List(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("catálogo no disponible para el comparativo")
		return nombres
	}
	for _, p := range productos {
		nombres[p.ID] = p.Nombre
	}
	return nombres
}

func nombreProducto(nombres map[uuid.UUID]string, id uuid.UUID, sku string) string {
	if n, ok := nombres[id]; ok {
		return n
	}
	return sku
}

func (s *comparativaService) leerCache(ctx context.Context, clave string) []dto.ComparativoPrecioProducto {
	if s.rdb == nil {
		return nil
	}
	raw, err := s.rdb.Get(ctx, clave).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Msg("lectura de caché del comparativo falló")
		}
		return nil
	}
	var out []dto.ComparativoPrecioProducto
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func (s *comparativaService) escribirCache(ctx context.Context, clave string, data []dto.ComparativoPrecioProducto) {
	if s.rdb == nil {
		return
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, clave, raw, comparativaCacheTTL).Err(); err != nil {
		log.Warn().Err(err).Msg("escritura de caché del comparativo falló")
	}
}
