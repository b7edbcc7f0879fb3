package blockchain

import (
	"testing"

	"github.com/forgenet/forged/chaincfg"
)

func TestCalcBlockReward(t *testing.T) {
	params := &chaincfg.MainnetParams

	tests := []struct {
		name   string
		height uint64
		want   uint64
	}{
		{name: "genesis", height: 1, want: 0},
		{name: "below offset", height: params.RewardOffset - 1, want: 0},
		{name: "offset", height: params.RewardOffset, want: 500000000},
		{name: "end of first milestone", height: params.RewardOffset + params.RewardDistance - 1, want: 500000000},
		{name: "second milestone", height: params.RewardOffset + params.RewardDistance, want: 400000000},
		{name: "final milestone", height: params.RewardOffset + 4*params.RewardDistance, want: 100000000},
		{name: "beyond the table", height: params.RewardOffset + 40*params.RewardDistance, want: 100000000},
	}
	for _, test := range tests {
		got := CalcBlockReward(test.height, params)
		if got != test.want {
			t.Errorf("%s: CalcBlockReward(%d) = %d, want %d",
				test.name, test.height, got, test.want)
		}
	}
}
