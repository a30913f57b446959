package strategies

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeValues(t *testing.T) {
	assert.Equal(t, []float64{5, 10, 15, 20, 25}, Range{"fastPeriod", 5, 30, 5}.Values())
	assert.Equal(t, []float64{0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8}, Range{"buyVolumeMultiplier", 0.2, 0.9, 0.1}.Values())
	assert.Len(t, Range{"atrMultiplier", 0.3, 6.0, 0.6}.Values(), 10)
	assert.Nil(t, Range{"x", 1, 2, 0}.Values())
}

func TestGrid(t *testing.T) {
	tests := []struct {
		typ  Type
		size int
	}{
		{TypeMACD, 50},
		{TypeMA, 64},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			grid, err := Grid(tt.typ, nil)
			require.NoError(t, err)
			assert.Len(t, grid, tt.size)

			keep := Constraint(tt.typ)
			for _, cfg := range grid {
				assert.True(t, keep(cfg.Params), cfg.String())
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}

func TestGridConstraints(t *testing.T) {
	for _, typ := range []Type{TypeATR, TypeVolume} {
		grid, err := Grid(typ, nil)
		require.NoError(t, err)
		require.NotEmpty(t, grid)
		for _, cfg := range grid {
			switch typ {
			case TypeATR:
				assert.Less(t, cfg.Params.ATRPeriod, cfg.Params.HighLowPeriod)
			case TypeVolume:
				assert.Greater(t, cfg.Params.SellVolumeMultiplier, cfg.Params.BuyVolumeMultiplier)
			}
		}
	}
}

func TestGridCustomRanges(t *testing.T) {
	grid, err := Grid(TypeMA, []Range{{"shortPeriod", 5, 15, 5}, {"longPeriod", 10, 30, 10}})
	require.NoError(t, err)
	// (5,10) (5,20) (10,20); (10,10) violates short < long
	assert.Len(t, grid, 3)

	_, err = Grid(TypeMA, []Range{{"fastPeriod", 1, 3, 1}})
	assert.Error(t, err)

	_, err = OptimizationSpace("RSI")
	assert.Error(t, err)
}
