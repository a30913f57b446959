package strategies

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/souloss/TradingLab/pkg/errors"
)

func TestMajorityVote(t *testing.T) {
	flat := PositionState{CanAfford: true}
	broke := PositionState{}
	long := PositionState{Long: true}

	tests := []struct {
		name  string
		votes []Signal
		state PositionState
		want  Signal
	}{
		{"buy majority flat", []Signal{Buy, Buy, Sell}, flat, Buy},
		{"buy majority but cannot afford", []Signal{Buy}, broke, Hold},
		{"buy majority while long", []Signal{Buy, Hold}, long, Hold},
		{"sell majority long", []Signal{Sell, Sell, Buy}, long, Sell},
		{"sell majority flat", []Signal{Sell}, flat, Hold},
		{"tie holds", []Signal{Buy, Sell}, flat, Hold},
		{"all hold", []Signal{Hold, Hold}, long, Hold},
		{"no votes", nil, flat, Hold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MajorityVote{}.Combine(tt.votes, tt.state))
		})
	}
}

func TestUnanimousAndAny(t *testing.T) {
	flat := PositionState{CanAfford: true}
	long := PositionState{Long: true}

	assert.Equal(t, Buy, Unanimous{}.Combine([]Signal{Buy, Buy}, flat))
	assert.Equal(t, Hold, Unanimous{}.Combine([]Signal{Buy, Hold}, flat))
	assert.Equal(t, Sell, Unanimous{}.Combine([]Signal{Sell, Sell}, long))
	assert.Equal(t, Hold, Unanimous{}.Combine(nil, long))

	assert.Equal(t, Buy, AnyVote{}.Combine([]Signal{Hold, Buy, Sell}, flat))
	assert.Equal(t, Sell, AnyVote{}.Combine([]Signal{Buy, Sell}, long))
	assert.Equal(t, Hold, AnyVote{}.Combine([]Signal{Buy}, long))
	assert.Equal(t, Hold, AnyVote{}.Combine([]Signal{Buy}, PositionState{}))
}

func TestCombinerByName(t *testing.T) {
	for name, want := range map[string]string{"": "majority", "Majority": "majority", "unanimous": "unanimous", "any": "any"} {
		c, err := CombinerByName(name)
		require.NoError(t, err)
		assert.Equal(t, want, c.Name())
	}

	_, err := CombinerByName("weighted")
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func TestTallyAndNetVote(t *testing.T) {
	buys, sells := Tally([]Signal{Buy, Sell, Buy, Hold})
	assert.Equal(t, 2, buys)
	assert.Equal(t, 1, sells)
	assert.Equal(t, Buy, NetVote([]Signal{Buy, Sell, Buy}))
	assert.Equal(t, Hold, NetVote([]Signal{Buy, Sell}))
}
