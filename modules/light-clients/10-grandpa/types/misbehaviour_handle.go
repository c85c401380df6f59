package types

import (
	errorsmod "cosmossdk.io/errors"

	clienttypes "github.com/ComposableFi/light-clients/modules/core/02-client/types"
	"github.com/ComposableFi/light-clients/modules/core/exported"
)

// CheckForMisbehaviour detects duplicate height misbehaviour and forced authority set changes
// that rewind finality behind the client. A verified Misbehaviour is always misbehaviour.
func (cs *ClientState) CheckForMisbehaviour(ctx exported.Context, cdc exported.Codec, clientStore exported.ClientStore, msg exported.ClientMessage) bool {
	var header *Header
	switch msg := msg.(type) {
	case *Header:
		header = msg
	case *AppliedHeader:
		header = msg.Header
	case *Misbehaviour:
		return true
	default:
		return false
	}

	for _, unknown := range header.FinalityProof.UnknownHeaders {
		forced, err := FindForcedChange(unknown)
		if err == nil && forced != nil && forced.MedianLastFinalized < cs.LatestRelayHeight {
			logger.Info("forced authority set change rewinds finality", "median_last_finalized", forced.MedianLastFinalized, "latest_relay_height", cs.LatestRelayHeight)
			return true
		}
	}

	_, consensusStates, err := cs.appliedUpdate(ctx, msg)
	if err != nil {
		// verified headers apply, an error here is not evidence of misbehaviour
		return false
	}

	return conflictingConsensusStates(cdc, clientStore, consensusStates)
}

// conflictingConsensusStates reports consensus states that conflict with each other or with
// the consensus states already stored at their heights.
func conflictingConsensusStates(cdc exported.Codec, clientStore exported.ClientStore, consensusStates []ConsensusStateWithHeight) bool {
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

	return false
}

// verifyMisbehaviour checks both finality proofs are justified by the current authority set
// and finalize different blocks at the same height.
func (cs *ClientState) verifyMisbehaviour(host exported.HostFunctions, misbehaviour *Misbehaviour) error {
	if err := misbehaviour.ValidateBasic(); err != nil {
		return err
	}

	set := cs.AuthoritySet()
	first, err := verifyFinalityProof(host, set, misbehaviour.FirstFinalityProof)
	if err != nil {
		return errorsmod.Wrap(err, "first finality proof")
	}
	second, err := verifyFinalityProof(host, set, misbehaviour.SecondFinalityProof)
	if err != nil {
		return errorsmod.Wrap(err, "second finality proof")
	}

	if first.TargetNumber != second.TargetNumber {
		return errorsmod.Wrapf(ErrInvalidMisbehaviour, "finalized blocks are at different heights %d and %d", first.TargetNumber, second.TargetNumber)
	}
	if first.TargetHash == second.TargetHash {
		return errorsmod.Wrap(ErrInvalidMisbehaviour, "finalized blocks are equal")
	}

	return nil
}

// verifyFinalityProof verifies the justification of proof against set and returns its commit.
func verifyFinalityProof(host exported.HostFunctions, set AuthoritySet, proof FinalityProof) (Commit, error) {
	justification, err := DecodeJustification(proof.Justification)
	if err != nil {
		return Commit{}, err
	}
	if justification.Commit.TargetHash != proof.Block {
		return Commit{}, errorsmod.Wrapf(
			ErrInvalidMisbehaviour, "justification target %s does not match block %s",
			justification.Commit.TargetHash.Hex(), proof.Block.Hex(),
		)
	}
	if err := justification.Verify(host, set); err != nil {
		return Commit{}, err
	}

	return justification.Commit, nil
}

// UpdateStateOnMisbehaviour freezes the client at its latest height.
func (cs *ClientState) UpdateStateOnMisbehaviour(_ exported.Context, cdc exported.Codec, clientStore exported.ClientStore, _ exported.ClientMessage) error {
	cs.FrozenHeight = clienttypes.SomeHeight(cs.latestHeight())
	setClientState(clientStore, cdc, cs)

	logger.Info("client frozen due to misbehaviour", "height", cs.latestHeight().String())

	return nil
}
