package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundMoney(t *testing.T) {
	assert.InDelta(t, 0.13, RoundMoney(0.125), 1e-9)
	assert.InDelta(t, 0.12, RoundMoney(0.1249), 1e-9)
	assert.InDelta(t, 2.00, RoundMoney(1.999), 1e-9)
	assert.InDelta(t, 100.0, RoundMoney(100.0), 1e-9)
	assert.InDelta(t, 0.0, RoundMoney(0.004), 1e-9)
}
