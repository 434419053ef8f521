package infra

// pdf.go — generación del PDF de la orden de compra con go-pdf/fpdf.
// Documento A4 con encabezado de la empresa, datos del proveedor, tabla de
// líneas (SKU, cantidad, costo unitario, subtotal), costos adicionales y
// total en USD (más el total local congelado si la orden fijó tasa).
// El archivo se escribe en storagePath/orden_{numero}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"

	"abasto/internal/model"

	"github.com/go-pdf/fpdf"
)

// GenerateOrdenPDF renders the purchase order document sent to the supplier.
// Returns the absolute path to the generated file.
func GenerateOrdenPDF(orden *model.OrdenCompra, empresa, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("orden_%s.pdf", orden.Numero)
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, empresa, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(contentW, 6, "Orden de Compra", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW/2, 7, orden.Numero, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW/2, 7, orden.CreatedAt.Format("02/01/2006"), "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, 6, "Proveedor: "+orden.ProveedorNombre, "", 1, "L", false, 0, "")
	if orden.AlmacenDestino != nil {
		pdf.CellFormat(contentW, 6, "Entregar en: "+*orden.AlmacenDestino, "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)
	pdf.Line(15, pdf.GetY(), pageW-15, pdf.GetY())
	pdf.Ln(3)

	// ── Items table ──────────────────────────────────────────────────────────
	col1 := contentW * 0.40 // SKU
	col2 := contentW * 0.15 // qty
	col3 := contentW * 0.22 // unit cost
	col4 := contentW * 0.23 // subtotal

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1, 6, "SKU", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 6, "Cantidad", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 6, "Costo unit. USD", "B", 0, "R", false, 0, "")
	pdf.CellFormat(col4, 6, "Subtotal USD", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, item := range orden.Items {
		sku := item.SKU
		if len(sku) > 30 {
			sku = sku[:29] + "…"
		}
		pdf.CellFormat(col1, 6, sku, "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 6, fmt.Sprintf("x%d", item.Cantidad), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 6, "$"+item.CostoUnitarioUSD.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(col4, 6, "$"+item.SubtotalUSD.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(15, pdf.GetY(), pageW-15, pdf.GetY())
	pdf.Ln(2)

	// ── Totals ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(col1+col2+col3, 6, "Subtotal:", "", 0, "R", false, 0, "")
	pdf.CellFormat(col4, 6, "$"+orden.SubtotalUSD.StringFixed(2), "", 1, "R", false, 0, "")
	if orden.EnvioUSD != nil && !orden.EnvioUSD.IsZero() {
		pdf.CellFormat(col1+col2+col3, 6, "Envío:", "", 0, "R", false, 0, "")
		pdf.CellFormat(col4, 6, "$"+orden.EnvioUSD.StringFixed(2), "", 1, "R", false, 0, "")
	}
	if orden.OtrosCostosUSD != nil && !orden.OtrosCostosUSD.IsZero() {
		pdf.CellFormat(col1+col2+col3, 6, "Otros costos:", "", 0, "R", false, 0, "")
		pdf.CellFormat(col4, 6, "$"+orden.OtrosCostosUSD.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(col1+col2+col3, 8, "TOTAL USD:", "", 0, "R", false, 0, "")
	pdf.CellFormat(col4, 8, "$"+orden.TotalUSD.StringFixed(2), "", 1, "R", false, 0, "")

	if orden.TotalLocal != nil && orden.TasaCompra != nil {
		pdf.SetFont("Helvetica", "", 9)
		linea := fmt.Sprintf("Total local: %s (tasa %s)", orden.TotalLocal.StringFixed(2), orden.TasaCompra.StringFixed(4))
		pdf.CellFormat(contentW, 6, linea, "", 1, "R", false, 0, "")
	}

	// ── Footer ───────────────────────────────────────────────────────────────
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(contentW, 5, "Documento generado automáticamente. Montos expresados en dólares estadounidenses.", "", 1, "L", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}

	return filePath, nil
}
