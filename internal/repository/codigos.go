package repository

import "fmt"

// Formatos de códigos legibles generados a partir de secuencias de postgres.

func codigoProveedor(n int) string { return fmt.Sprintf("PROV-%03d", n) }

func numeroOrden(n int) string { return fmt.Sprintf("OC-%05d", n) }

// CodigoUnidad arma el código de una unidad de inventario a partir del
// número de la orden que la originó y su posición 1-based.
func CodigoUnidad(numeroOrden string, i int) string {
	return fmt.Sprintf("%s-U%04d", numeroOrden, i)
}
