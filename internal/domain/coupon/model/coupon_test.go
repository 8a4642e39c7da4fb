package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func f64(v float64) *float64 { return &v }
func intp(v int) *int        { return &v }

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "WELCOME10", NormalizeCode("  welcome10 "))
	assert.Equal(t, "FLAT50", NormalizeCode("Flat50"))
	assert.Equal(t, "", NormalizeCode("   "))
}

func TestNewCoupon(t *testing.T) {
	start := time.Now()
	end := start.Add(24 * time.Hour)

	t.Run("Valid percentage coupon", func(t *testing.T) {
		c, err := NewCoupon("welcome10", TypePercentage, 10, f64(1000), f64(500), start, end, intp(100), 1, "admin-id")
		assert.NoError(t, err)
		assert.Equal(t, "WELCOME10", c.Code)
		assert.True(t, c.IsActive)
		assert.Equal(t, 1, c.MaxUsesPerUser)
	})

	t.Run("Rejects unknown type", func(t *testing.T) {
		_, err := NewCoupon("X", "bogo", 10, nil, nil, start, end, nil, 1, "")
		assert.Error(t, err)
	})

	t.Run("Rejects negative value", func(t *testing.T) {
		_, err := NewCoupon("X", TypeFixed, -5, nil, nil, start, end, nil, 1, "")
		assert.Error(t, err)
	})

	t.Run("Rejects percentage over 100", func(t *testing.T) {
		_, err := NewCoupon("X", TypePercentage, 150, nil, nil, start, end, nil, 1, "")
		assert.Error(t, err)
	})

	t.Run("Rejects end date before start date", func(t *testing.T) {
		_, err := NewCoupon("X", TypeFixed, 5, nil, nil, end, start, nil, 1, "")
		assert.Error(t, err)
	})

	t.Run("Rejects non-positive max uses", func(t *testing.T) {
		_, err := NewCoupon("X", TypeFixed, 5, nil, nil, start, end, intp(0), 1, "")
		assert.Error(t, err)
	})

	t.Run("Defaults per-user limit to one", func(t *testing.T) {
		c, err := NewCoupon("X", TypeFixed, 5, nil, nil, start, end, nil, 0, "")
		assert.NoError(t, err)
		assert.Equal(t, 1, c.MaxUsesPerUser)
	})
}

func TestComputeDiscount(t *testing.T) {
	t.Run("Percentage with cap not reached", func(t *testing.T) {
		// WELCOME10: 10% 封顶 1000，订单 2000 折 200
		c := &Coupon{Type: TypePercentage, Value: 10, MaxDiscount: f64(1000)}
		assert.Equal(t, 200.0, c.ComputeDiscount(2000))
	})

	t.Run("Percentage clamped to max discount", func(t *testing.T) {
		c := &Coupon{Type: TypePercentage, Value: 50, MaxDiscount: f64(100)}
		assert.Equal(t, 100.0, c.ComputeDiscount(2000))
	})

	t.Run("Fixed discount never exceeds order amount", func(t *testing.T) {
		// FLAT50 用在 30 元订单上，折扣封到 30
		c := &Coupon{Type: TypeFixed, Value: 50}
		assert.Equal(t, 30.0, c.ComputeDiscount(30))
	})

	t.Run("Fixed discount below amount is unchanged", func(t *testing.T) {
		c := &Coupon{Type: TypeFixed, Value: 50}
		assert.Equal(t, 50.0, c.ComputeDiscount(200))
	})

	t.Run("Percentage without cap", func(t *testing.T) {
		c := &Coupon{Type: TypePercentage, Value: 25}
		assert.Equal(t, 50.0, c.ComputeDiscount(200))
	})

	t.Run("Sub-cent discount rounds to two decimals", func(t *testing.T) {
		// 12.5% 用在 1 元订单上得 0.125，入库前取整到 0.13
		c := &Coupon{Type: TypePercentage, Value: 12.5}
		assert.InDelta(t, 0.13, c.ComputeDiscount(1.00), 1e-9)
	})
}

func TestWindowAndExhaustion(t *testing.T) {
	now := time.Now()
	c := &Coupon{StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour)}

	assert.True(t, c.InWindow(now))
	assert.False(t, c.InWindow(now.Add(-2*time.Hour)))
	assert.False(t, c.InWindow(now.Add(2*time.Hour)))

	c.MaxUses = intp(5)
	c.UsesCount = 4
	assert.False(t, c.Exhausted())
	c.UsesCount = 5
	assert.True(t, c.Exhausted())

	// 不限总次数的券永不耗尽
	c.MaxUses = nil
	c.UsesCount = 100000
	assert.False(t, c.Exhausted())
}
