package blockchain

import (
	"github.com/forgenet/forged/chaincfg"
)

// CalcBlockReward returns the reward a block at the given height is
// required to carry. The schedule is a milestone table: rewards start
// at RewardOffset and step down every RewardDistance blocks until the
// final milestone, which applies forever after.
//
// Heights below the offset, including genesis, earn no reward.
func CalcBlockReward(height uint64, params *chaincfg.Params) uint64 {
	if height < params.RewardOffset || len(params.RewardMilestones) == 0 {
		return 0
	}
	milestone := (height - params.RewardOffset) / params.RewardDistance
	if milestone >= uint64(len(params.RewardMilestones)) {
		milestone = uint64(len(params.RewardMilestones) - 1)
	}
	return params.RewardMilestones[milestone]
}
