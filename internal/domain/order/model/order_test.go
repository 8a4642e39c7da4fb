package model

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		allowed  bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusProcessing, StatusCompleted, true},
		{StatusProcessing, StatusFailed, true},
		{StatusCompleted, StatusRefunded, true},

		// completed/failed 只能由支付结果驱动，管理侧不允许从 pending 直跳
		{StatusPending, StatusCompleted, false},
		{StatusPending, StatusFailed, false},
		{StatusCompleted, StatusPending, false},
		{StatusCompleted, StatusProcessing, false},
		{StatusFailed, StatusPending, false},
		{StatusFailed, StatusCompleted, false},
		{StatusRefunded, StatusCompleted, false},
		{StatusPending, StatusRefunded, false},
		{StatusProcessing, StatusPending, false},
	}

	for _, c := range cases {
		assert.Equal(t, c.allowed, CanTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}

func TestCanPaymentDrive(t *testing.T) {
	cases := []struct {
		from, to string
		allowed  bool
	}{
		{StatusPending, StatusCompleted, true},
		{StatusPending, StatusFailed, true},
		{StatusProcessing, StatusCompleted, true},
		{StatusProcessing, StatusFailed, true},

		{StatusCompleted, StatusRefunded, false},
		{StatusCompleted, StatusFailed, false},
		{StatusFailed, StatusCompleted, false},
		{StatusRefunded, StatusCompleted, false},
		{StatusPending, StatusProcessing, false},
	}

	for _, c := range cases {
		assert.Equal(t, c.allowed, CanPaymentDrive(c.from, c.to), "payment-driven %s -> %s", c.from, c.to)
	}
}

func TestCanPaymentTransition(t *testing.T) {
	cases := []struct {
		from, to string
		allowed  bool
	}{
		{PaymentInitiated, PaymentProcessing, true},
		{PaymentInitiated, PaymentSuccess, true},
		{PaymentInitiated, PaymentFailed, true},
		{PaymentProcessing, PaymentSuccess, true},
		{PaymentProcessing, PaymentFailed, true},

		{PaymentSuccess, PaymentFailed, false},
		{PaymentSuccess, PaymentProcessing, false},
		{PaymentFailed, PaymentSuccess, false},
		{PaymentProcessing, PaymentInitiated, false},
	}

	for _, c := range cases {
		assert.Equal(t, c.allowed, CanPaymentTransition(c.from, c.to), "payment %s -> %s", c.from, c.to)
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(StatusFailed))
	assert.True(t, IsTerminal(StatusRefunded))
	assert.False(t, IsTerminal(StatusPending))
	assert.False(t, IsTerminal(StatusProcessing))
	assert.False(t, IsTerminal(StatusCompleted))
}

func TestNewOrderNumber(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	pattern := regexp.MustCompile(`^ORD260831\d{4}$`)

	for i := 0; i < 50; i++ {
		assert.Regexp(t, pattern, NewOrderNumber(now))
	}
}
