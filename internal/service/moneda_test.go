package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestALocal(t *testing.T) {
	// 100 USD a tasa 36.5 → 3650.00 VES
	assert.True(t, dec("3650").Equal(ALocal(dec("100"), dec("36.5"))))
	// Redondeo a 2 decimales
	assert.True(t, dec("36.61").Equal(ALocal(dec("1.003"), dec("36.5"))))
}

func TestAUSD(t *testing.T) {
	assert.True(t, dec("100").Equal(AUSD(dec("3650"), dec("36.5"))))
	// División no exacta se redondea a centavos
	assert.True(t, dec("27.40").Equal(AUSD(dec("1000"), dec("36.5"))))
}

func TestCubreTotal(t *testing.T) {
	total := dec("70.00")

	assert.True(t, cubreTotal(dec("70.00"), total))
	assert.True(t, cubreTotal(dec("75.00"), total))
	// Dentro del epsilon de medio centavo cuenta como cubierto
	assert.True(t, cubreTotal(dec("69.996"), total))
	// Más allá del epsilon no
	assert.False(t, cubreTotal(dec("69.99"), total))
	assert.False(t, cubreTotal(dec("0"), total))
}

func TestExcedeTotal(t *testing.T) {
	total := dec("70.00")

	assert.False(t, excedeTotal(dec("70.00"), total))
	assert.False(t, excedeTotal(dec("70.004"), total))
	assert.True(t, excedeTotal(dec("70.01"), total))
	assert.True(t, excedeTotal(dec("100"), total))
}
