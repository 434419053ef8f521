package service

// moneda.go — normalizador de monedas.
// Todo monto interno está en USD; la moneda local (VES) solo existe como
// derivado multiplicando por una tasa. Funciones puras, sin estado.

import "github.com/shopspring/decimal"

// epsilonUSD es la tolerancia para comparaciones monetarias: evita falsos
// "pago incompleto" por redondeo de punto flotante en tasas de cambio.
var epsilonUSD = decimal.NewFromFloat(0.005)

// ALocal convierte un monto USD a moneda local con la tasa dada.
func ALocal(montoUSD, tasa decimal.Decimal) decimal.Decimal {
	return montoUSD.Mul(tasa).Round(2)
}

// AUSD convierte un monto en moneda local a USD con la tasa dada.
// La tasa debe ser positiva; el caller valida antes.
func AUSD(montoLocal, tasa decimal.Decimal) decimal.Decimal {
	return montoLocal.Div(tasa).Round(2)
}

// cubreTotal responde si lo pagado alcanza el total dentro del epsilon.
func cubreTotal(pagado, total decimal.Decimal) bool {
	return pagado.GreaterThanOrEqual(total.Sub(epsilonUSD))
}

// excedeTotal responde si lo pagado supera el total más allá del epsilon.
func excedeTotal(pagado, total decimal.Decimal) bool {
	return pagado.GreaterThan(total.Add(epsilonUSD))
}
