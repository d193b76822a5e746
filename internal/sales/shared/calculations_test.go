package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCalculateLineTotals(t *testing.T) {
	discount, tax, total := CalculateLineTotals(2, 1000, 0, 19)
	require.InDelta(t, 0.0, discount, 0.0001)
	require.InDelta(t, 380.0, tax, 0.0001)
	require.InDelta(t, 2380.0, total, 0.0001)

	discount, tax, total = CalculateLineTotals(3, 500, 10, 0)
	require.InDelta(t, 150.0, discount, 0.0001)
	require.InDelta(t, 0.0, tax, 0.0001)
	require.InDelta(t, 1350.0, total, 0.0001)
}
