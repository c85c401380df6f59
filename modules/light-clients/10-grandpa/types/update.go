package types

import (
	errorsmod "cosmossdk.io/errors"
	"github.com/ChainSafe/log15"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"

	clienttypes "github.com/ComposableFi/light-clients/modules/core/02-client/types"
	host "github.com/ComposableFi/light-clients/modules/core/24-host"
	"github.com/ComposableFi/light-clients/modules/core/exported"
	"github.com/ComposableFi/light-clients/modules/light-clients/substrate"
)

var logger = log15.New("module", "10-grandpa")

// VerifyClientMessage checks if the clientMessage is of type Header or Misbehaviour and verifies the message
func (cs *ClientState) VerifyClientMessage(
	ctx exported.Context, _ exported.Codec, _ exported.ClientStore,
	clientMsg exported.ClientMessage,
) error {
	host := substrate.ContextHostFunctions(ctx)
	switch msg := clientMsg.(type) {
	case *Header:
		return cs.verifyHeader(host, msg)
	case *Misbehaviour:
		return cs.verifyMisbehaviour(host, msg)
	default:
		return clienttypes.ErrInvalidClientType
	}
}

// ApplyClientMessage verifies clientMsg like VerifyClientMessage. A Header is returned as an
// AppliedHeader so that CheckForMisbehaviour and UpdateState do not verify it again.
func (cs *ClientState) ApplyClientMessage(
	ctx exported.Context, cdc exported.Codec, clientStore exported.ClientStore,
	clientMsg exported.ClientMessage,
) (exported.ClientMessage, error) {
	header, ok := clientMsg.(*Header)
	if !ok {
		if err := cs.VerifyClientMessage(ctx, cdc, clientStore, clientMsg); err != nil {
			return nil, err
		}
		return clientMsg, nil
	}

	next, consensusStates, err := cs.ApplyHeader(substrate.ContextHostFunctions(ctx), *header)
	if err != nil {
		return nil, err
	}
	return &AppliedHeader{Header: header, clientState: next, consensusStates: consensusStates}, nil
}

// appliedUpdate returns the update produced by a Header or an AppliedHeader.
func (cs ClientState) appliedUpdate(ctx exported.Context, clientMsg exported.ClientMessage) (ClientState, []ConsensusStateWithHeight, error) {
	switch msg := clientMsg.(type) {
	case *AppliedHeader:
		return msg.clientState, msg.consensusStates, nil
	case *Header:
		return cs.ApplyHeader(substrate.ContextHostFunctions(ctx), *msg)
	default:
		return ClientState{}, nil, errorsmod.Wrapf(clienttypes.ErrInvalidClientType, "expected type %T, got %T", &Header{}, clientMsg)
	}
}

// verifyHeader returns an error if:
// - the client is frozen
// - the finality proof is not newer than the latest relay block
// - the unknown headers do not extend the latest relay block up to the finalized block
// - the justification does not finalize the block under the current authority set
// - an authority set change is skipped or conflicts with a pending one
// - a parachain header is not included in the state of a finalized relay block
func (cs *ClientState) verifyHeader(host exported.HostFunctions, header *Header) error {
	_, _, err := cs.ApplyHeader(host, *header)
	return err
}

// ApplyHeader verifies header against the client state and returns the updated client state
// together with the consensus states of the proven parachain headers. The receiver is not
// modified.
func (cs ClientState) ApplyHeader(host exported.HostFunctions, header Header) (ClientState, []ConsensusStateWithHeight, error) {
	if cs.IsFrozen() {
		return ClientState{}, nil, errorsmod.Wrapf(clienttypes.ErrClientFrozen, "frozen at height %s", cs.FrozenHeight.Value)
	}
	if err := header.ValidateBasic(); err != nil {
		return ClientState{}, nil, err
	}

	proof := header.FinalityProof
	justification, err := DecodeJustification(proof.Justification)
	if err != nil {
		return ClientState{}, nil, err
	}

	target := justification.Commit
	if target.TargetNumber <= cs.LatestRelayHeight {
		return ClientState{}, nil, errorsmod.Wrapf(
			ErrStaleUpdate, "finalized block %d is not newer than latest relay block %d", target.TargetNumber, cs.LatestRelayHeight,
		)
	}
	if target.TargetHash != proof.Block {
		return ClientState{}, nil, errorsmod.Wrapf(
			ErrInvalidFinalityProof, "justification target %s does not match finalized block %s", target.TargetHash.Hex(), proof.Block.Hex(),
		)
	}

	relayHeaders, err := cs.verifyHeaderChain(host, proof)
	if err != nil {
		return ClientState{}, nil, err
	}
	if last := proof.UnknownHeaders[len(proof.UnknownHeaders)-1]; last.Number != target.TargetNumber {
		return ClientState{}, nil, errorsmod.Wrapf(
			ErrInvalidFinalityProof, "justification target number %d does not match finalized header number %d", target.TargetNumber, last.Number,
		)
	}

	if err := justification.Verify(host, cs.AuthoritySet()); err != nil {
		return ClientState{}, nil, err
	}

	next, err := cs.applyAuthoritySetChanges(proof.UnknownHeaders, target.TargetNumber)
	if err != nil {
		return ClientState{}, nil, err
	}

	consensusStates := make([]ConsensusStateWithHeight, 0, len(header.ParachainHeaders))
	for i, parachainHeader := range header.ParachainHeaders {
		relayHeader, ok := relayHeaders[parachainHeader.RelayHash]
		if !ok {
			return ClientState{}, nil, errorsmod.Wrapf(
				ErrInvalidParachainHeader, "parachain header %d: relay block %s is not finalized by the proof", i, parachainHeader.RelayHash.Hex(),
			)
		}

		verified, err := substrate.VerifyParachainHeader(host, relayHeader.StateRoot, cs.ParaID, parachainHeader.Proof())
		if err != nil {
			return ClientState{}, nil, errorsmod.Wrapf(err, "parachain header %d", i)
		}

		consensusStates = append(consensusStates, ConsensusStateWithHeight{
			Height: clienttypes.NewHeight(uint64(cs.ParaID), uint64(verified.Header.Number)),
			ConsensusState: ConsensusState{
				Timestamp: verified.TimestampNanos(),
				Root:      verified.Header.StateRoot,
			},
		})
		if verified.Header.Number > next.LatestParaHeight {
			next.LatestParaHeight = verified.Header.Number
		}
	}

	next.LatestRelayHeight = target.TargetNumber
	next.LatestRelayHash = proof.Block

	return next, consensusStates, nil
}

// verifyHeaderChain checks the unknown headers are a parent linked chain starting right after
// the latest relay block and ending at the finalized block. It returns the headers by hash.
func (cs ClientState) verifyHeaderChain(host exported.HostFunctions, proof FinalityProof) (map[types.H256]substrate.Header, error) {
	var (
		headers    = make(map[types.H256]substrate.Header, len(proof.UnknownHeaders))
		parentHash = cs.LatestRelayHash
		number     = cs.LatestRelayHeight
	)
	for _, header := range proof.UnknownHeaders {
		if header.ParentHash != parentHash {
			return nil, errorsmod.Wrapf(
				ErrInvalidAncestry, "header %d has parent %s, expected %s", header.Number, header.ParentHash.Hex(), parentHash.Hex(),
			)
		}
		if header.Number != number+1 {
			return nil, errorsmod.Wrapf(ErrInvalidAncestry, "header number %d does not follow %d", header.Number, number)
		}

		hash, err := substrate.HeaderHash(host, header)
		if err != nil {
			return nil, err
		}
		headers[hash] = header
		parentHash, number = hash, header.Number
	}

	if parentHash != proof.Block {
		return nil, errorsmod.Wrapf(ErrInvalidAncestry, "unknown headers end at %s, expected finalized block %s", parentHash.Hex(), proof.Block.Hex())
	}

	return headers, nil
}

// applyAuthoritySetChanges tracks the authority set changes announced by headers, oldest
// first, and enacts the pending change once the finalized block reaches its activation block.
// A standard change must be enacted at exactly its activation block, a finalized block past
// it would have been justified by the next set and is rejected. A forced change is enacted by
// any finalized block at or past its activation block.
func (cs ClientState) applyAuthoritySetChanges(headers []substrate.Header, finalized uint32) (ClientState, error) {
	next := cs
	for _, header := range headers {
		forced, err := FindForcedChange(header)
		if err != nil {
			return ClientState{}, err
		}
		scheduled, err := FindScheduledChange(header)
		if err != nil {
			return ClientState{}, err
		}

		switch {
		case forced != nil && scheduled != nil:
			return ClientState{}, errorsmod.Wrapf(ErrInvalidAuthoritySetChange, "header %d announces a standard and a forced change", header.Number)

		case forced != nil:
			// a forced change supersedes any pending change
			next.PendingChange = SomePendingChange(PendingChange{
				NextAuthorities:  forced.Change.NextAuthorities,
				ActivationHeight: header.Number + forced.Change.Delay,
				Forced:           true,
			})

		case scheduled != nil:
			if next.PendingChange.HasValue {
				return ClientState{}, errorsmod.Wrapf(
					ErrInvalidAuthoritySetChange, "header %d announces a change while the change enacted at %d is pending",
					header.Number, next.PendingChange.Value.ActivationHeight,
				)
			}
			next.PendingChange = SomePendingChange(PendingChange{
				NextAuthorities:  scheduled.NextAuthorities,
				ActivationHeight: header.Number + scheduled.Delay,
			})
		}
	}

	if !next.PendingChange.HasValue {
		return next, nil
	}

	change := next.PendingChange.Value
	if change.ActivationHeight > finalized {
		return next, nil
	}
	if change.ActivationHeight < finalized && !change.Forced {
		return ClientState{}, errorsmod.Wrapf(
			ErrInvalidAuthoritySetChange, "finality proof for block %d skips the authority set change enacted at %d",
			finalized, change.ActivationHeight,
		)
	}

	if err := change.NextAuthorities.Validate(); err != nil {
		return ClientState{}, errorsmod.Wrap(ErrInvalidAuthoritySetChange, err.Error())
	}
	set := next.AuthoritySet().Apply(change)
	next.CurrentSetID = set.ID
	next.CurrentAuthorities = set.Authorities
	next.PendingChange = OptionalPendingChange{}

	return next, nil
}

// UpdateState stores the consensus states of the verified header, prunes expired consensus
// states and updates the client state. It assumes the ClientMessage has already been verified.
func (cs *ClientState) UpdateState(ctx exported.Context, cdc exported.Codec, clientStore exported.ClientStore, clientMsg exported.ClientMessage) ([]exported.Height, error) {
	next, consensusStates, err := cs.appliedUpdate(ctx, clientMsg)
	if err != nil {
		return nil, err
	}

	cs.pruneExpiredConsensusStates(ctx, cdc, clientStore)

	heights := make([]exported.Height, 0, len(consensusStates))
	for _, consensusState := range consensusStates {
		consensusState := consensusState
		heights = append(heights, consensusState.Height)

		// a consensus state already stored at this height is kept, conflicts are
		// reported by CheckForMisbehaviour
		if clientStore.Has(host.ConsensusStateKey(consensusState.Height)) {
			continue
		}

		setConsensusState(clientStore, cdc, &consensusState.ConsensusState, consensusState.Height)
		clienttypes.SetConsensusMetadata(ctx, clientStore, consensusState.Height)
	}

	if next.CurrentSetID != cs.CurrentSetID {
		logger.Info("enacted authority set change", "set_id", next.CurrentSetID, "relay_height", next.LatestRelayHeight)
	}

	*cs = next
	setClientState(clientStore, cdc, cs)

	return heights, nil
}

// pruneExpiredConsensusStates deletes the consensus states, and their metadata, that are
// older than the trusting period. The latest consensus state is never pruned.
func (cs ClientState) pruneExpiredConsensusStates(ctx exported.Context, cdc exported.Codec, clientStore exported.ClientStore) {
	var (
		expired    []exported.Height
		pruneError error
		latest     = cs.GetLatestHeight()
	)

	clienttypes.IterateConsensusStateAscending(clientStore, func(height exported.Height) bool {
		if height.EQ(latest) {
			return true
		}

		consState, err := GetConsensusState(clientStore, cdc, height)
		// this error should never occur
		if err != nil {
			pruneError = err
			return true
		}

		if !clienttypes.IsExpired(consState.Timestamp, cs.Chain.TrustingPeriod(), ctx.BlockTime) {
			return true
		}

		expired = append(expired, height)
		return false
	})

	if pruneError != nil {
		logger.Error("failed to prune consensus states", "err", pruneError)
		return
	}

	for _, height := range expired {
		deleteConsensusState(clientStore, height)
		clienttypes.DeleteConsensusMetadata(clientStore, height)
		logger.Debug("pruned expired consensus state", "height", height.String())
	}
}
