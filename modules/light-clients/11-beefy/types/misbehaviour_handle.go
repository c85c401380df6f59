package types

import (
	errorsmod "cosmossdk.io/errors"

	clienttypes "github.com/ComposableFi/light-clients/modules/core/02-client/types"
	"github.com/ComposableFi/light-clients/modules/core/exported"
)

// CheckForMisbehaviour reports a verified Misbehaviour, or a header proving a parachain
// consensus state that conflicts with a stored one or with another header of the update.
func (cs *ClientState) CheckForMisbehaviour(ctx exported.Context, cdc exported.Codec, clientStore exported.ClientStore, msg exported.ClientMessage) bool {
	switch msg.(type) {
	case *Header, *AppliedHeader:
		_, consensusStates, err := cs.appliedUpdate(ctx, msg)
		if err != nil {
			return false
		}

		seen := make(map[clienttypes.Height]ConsensusState, len(consensusStates))
		for _, consensusState := range consensusStates {
			if prev, ok := seen[consensusState.Height]; ok && prev != consensusState.ConsensusState {
				return true
			}
			seen[consensusState.Height] = consensusState.ConsensusState

			existing, err := GetConsensusState(clientStore, cdc, consensusState.Height)
			if err != nil {
				continue
			}
			if *existing != consensusState.ConsensusState {
				return true
			}
		}

	case *Misbehaviour:
		return true
	}

	return false
}

// verifyMisbehaviour checks both commitments are signed by a threshold of the current or
// next authority set.
func (cs *ClientState) verifyMisbehaviour(host exported.HostFunctions, misbehaviour *Misbehaviour) error {
	if cs.IsFrozen() {
		return errorsmod.Wrapf(clienttypes.ErrClientFrozen, "frozen at height %s", cs.FrozenHeight.Value)
	}
	if err := misbehaviour.ValidateBasic(); err != nil {
		return err
	}

	for _, proof := range []struct {
		name  string
		proof CommitmentProof
	}{
		{"first", misbehaviour.First},
		{"second", misbehaviour.Second},
	} {
		set, err := cs.authoritySet(proof.proof.SignedCommitment.Commitment.ValidatorSetID)
		if err != nil {
			return errorsmod.Wrapf(err, "%s commitment", proof.name)
		}
		if err := proof.proof.SignedCommitment.VerifySignatures(host, set, proof.proof.AuthoritiesProof); err != nil {
			return errorsmod.Wrapf(err, "%s commitment", proof.name)
		}
	}

	return nil
}

// UpdateStateOnMisbehaviour freezes the client at its latest height.
func (cs *ClientState) UpdateStateOnMisbehaviour(_ exported.Context, cdc exported.Codec, clientStore exported.ClientStore, _ exported.ClientMessage) error {
	cs.FrozenHeight = clienttypes.SomeHeight(cs.latestHeight())
	setClientState(clientStore, cdc, cs)

	logger.Info("client frozen due to misbehaviour", "height", cs.latestHeight().String())

	return nil
}
