package types

import (
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"

	clienttypes "github.com/ComposableFi/light-clients/modules/core/02-client/types"
	"github.com/ComposableFi/light-clients/modules/core/exported"
)

var _ exported.ConsensusState = (*ConsensusState)(nil)

// ConsensusState is the state root and timestamp of a verified parachain block.
type ConsensusState struct {
	// Timestamp in nanoseconds
	Timestamp uint64
	Root      types.H256
}

// NewConsensusState creates a new ConsensusState instance.
func NewConsensusState(timestamp time.Time, root types.H256) *ConsensusState {
	return &ConsensusState{
		Timestamp: uint64(timestamp.UnixNano()),
		Root:      root,
	}
}

// ClientType returns grandpa
func (ConsensusState) ClientType() string {
	return exported.Grandpa
}

// GetRoot returns the parachain state root.
func (cs ConsensusState) GetRoot() []byte {
	return cs.Root[:]
}

// GetTimestamp returns block time in nanoseconds of the header that created consensus state
func (cs ConsensusState) GetTimestamp() uint64 {
	return cs.Timestamp
}

// ValidateBasic defines a basic validation for the grandpa consensus state.
func (cs ConsensusState) ValidateBasic() error {
	if cs.Root == (types.H256{}) {
		return errorsmod.Wrap(clienttypes.ErrInvalidConsensus, "root cannot be empty")
	}
	if cs.Timestamp == 0 {
		return errorsmod.Wrap(clienttypes.ErrInvalidConsensus, "timestamp cannot be zero")
	}
	return nil
}

// ConsensusStateWithHeight is a consensus state produced by an update and its height.
type ConsensusStateWithHeight struct {
	Height         clienttypes.Height
	ConsensusState ConsensusState
}
