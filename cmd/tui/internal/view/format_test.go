package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "84,500", FormatAmount(84500, 0))
	assert.Equal(t, "120,000,000", FormatAmount(120_000_000, 0))
	assert.Equal(t, "0", FormatAmount(0, 0))
	assert.Equal(t, "1,234.56", FormatAmount(123456, 2))
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "2026-11-14", FormatDate(time.Date(2026, 11, 14, 23, 0, 0, 0, time.UTC)))
}
