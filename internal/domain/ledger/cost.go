package ledger

import "github.com/shopspring/decimal"

// QuantityScale es la escala fija de cantidades y costos (numeric(18,4) en persistencia).
const QuantityScale = 4

// Quantize normaliza una cantidad o costo a la escala fija.
// Política de redondeo: half away from zero, aplicada al crear la entrada de movimiento.
func Quantize(d decimal.Decimal) decimal.Decimal {
	return d.Round(QuantityScale)
}

// CostImpact devuelve el impacto de costo de un movimiento: cantidad × costo unitario,
// redondeado a la escala fija.
func CostImpact(qty, unitCost decimal.Decimal) decimal.Decimal {
	return Quantize(qty.Mul(unitCost))
}

// CostCalculator implementa la lógica de costo promedio ponderado (servicio de dominio).
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
func CostCalculator(stockActual, costoActual, cantEntrada, costoEntrada decimal.Decimal) decimal.Decimal {
	sum := stockActual.Add(cantEntrada)
	if sum.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	num := stockActual.Mul(costoActual).Add(cantEntrada.Mul(costoEntrada))
	return num.Div(sum)
}
