package strategies

import (
	"strings"

	"github.com/souloss/TradingLab/pkg/errors"
)

// PositionState is what a Combiner may know about the account.
type PositionState struct {
	Long bool
	// CanAfford reports whether cash covers at least one lot at the
	// current close, including commission.
	CanAfford bool
}

// Combiner merges per-strategy votes into the one decision applied to the
// ledger. Implementations must only return BUY when flat and affordable and
// SELL when long.
type Combiner interface {
	Name() string
	Combine(votes []Signal, state PositionState) Signal
}

// Tally counts BUY and SELL votes.
func Tally(votes []Signal) (buys, sells int) {
	for _, v := range votes {
		switch v {
		case Buy:
			buys++
		case Sell:
			sells++
		}
	}
	return buys, sells
}

// NetVote is the majority direction ignoring position state.
func NetVote(votes []Signal) Signal {
	buys, sells := Tally(votes)
	switch {
	case buys > sells:
		return Buy
	case sells > buys:
		return Sell
	}
	return Hold
}

func gate(sig Signal, state PositionState) Signal {
	switch {
	case sig == Buy && !state.Long && state.CanAfford:
		return Buy
	case sig == Sell && state.Long:
		return Sell
	}
	return Hold
}

// MajorityVote buys when bullish votes outnumber bearish ones and sells on
// the reverse; ties hold.
type MajorityVote struct{}

func (MajorityVote) Name() string { return "majority" }

func (MajorityVote) Combine(votes []Signal, state PositionState) Signal {
	return gate(NetVote(votes), state)
}

// Unanimous acts only when every strategy votes the same direction.
type Unanimous struct{}

func (Unanimous) Name() string { return "unanimous" }

func (Unanimous) Combine(votes []Signal, state PositionState) Signal {
	if len(votes) == 0 {
		return Hold
	}
	buys, sells := Tally(votes)
	switch {
	case buys == len(votes):
		return gate(Buy, state)
	case sells == len(votes):
		return gate(Sell, state)
	}
	return Hold
}

// AnyVote acts on the first applicable vote: any SELL exits a long
// position, any BUY opens one when flat.
type AnyVote struct{}

func (AnyVote) Name() string { return "any" }

func (AnyVote) Combine(votes []Signal, state PositionState) Signal {
	buys, sells := Tally(votes)
	if state.Long && sells > 0 {
		return Sell
	}
	if !state.Long && buys > 0 {
		return gate(Buy, state)
	}
	return Hold
}

// CombinerByName resolves "majority" (the default for ""), "unanimous" or
// "any".
func CombinerByName(name string) (Combiner, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "majority", "majority-vote":
		return MajorityVote{}, nil
	case "unanimous", "all":
		return Unanimous{}, nil
	case "any":
		return AnyVote{}, nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration,
			"unknown combiner %q (supported: majority, unanimous, any)", name)
	}
}
