package types

import (
	errorsmod "cosmossdk.io/errors"

	clienttypes "github.com/ComposableFi/light-clients/modules/core/02-client/types"
	host "github.com/ComposableFi/light-clients/modules/core/24-host"
	"github.com/ComposableFi/light-clients/modules/core/exported"
)

// GetConsensusState retrieves the consensus state from the client prefixed store.
// An error is returned if the consensus state does not exist.
func GetConsensusState(store exported.ClientStore, cdc exported.Codec, height exported.Height) (*ConsensusState, error) {
	bz := store.Get(host.ConsensusStateKey(height))
	if len(bz) == 0 {
		return nil, errorsmod.Wrapf(
			clienttypes.ErrConsensusStateNotFound,
			"consensus state does not exist for height %s", height,
		)
	}

	consensusStateI, err := cdc.UnmarshalConsensusState(bz)
	if err != nil {
		return nil, errorsmod.Wrapf(clienttypes.ErrInvalidConsensus, "unmarshal error: %v", err)
	}

	consensusState, ok := consensusStateI.(*ConsensusState)
	if !ok {
		return nil, errorsmod.Wrapf(
			clienttypes.ErrInvalidConsensus,
			"invalid consensus type %T, expected %T", consensusStateI, &ConsensusState{},
		)
	}

	return consensusState, nil
}

// setClientState stores the client state
func setClientState(clientStore exported.ClientStore, cdc exported.Codec, clientState *ClientState) {
	clientStore.Set(host.ClientStateKey(), clienttypes.MustMarshalClientState(cdc, clientState))
}

// setConsensusState stores the consensus state at the given height.
func setConsensusState(clientStore exported.ClientStore, cdc exported.Codec, consensusState *ConsensusState, height exported.Height) {
	clientStore.Set(host.ConsensusStateKey(height), clienttypes.MustMarshalConsensusState(cdc, consensusState))
}

// deleteConsensusState deletes the consensus state at the given height
func deleteConsensusState(clientStore exported.ClientStore, height exported.Height) {
	clientStore.Delete(host.ConsensusStateKey(height))
}
