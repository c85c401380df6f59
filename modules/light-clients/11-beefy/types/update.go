package types

import (
	"bytes"
	"sort"

	errorsmod "cosmossdk.io/errors"
	"github.com/ChainSafe/log15"
	"github.com/ComposableFi/go-merkle-trees/merkle"
	"github.com/ComposableFi/go-merkle-trees/mmr"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"

	clienttypes "github.com/ComposableFi/light-clients/modules/core/02-client/types"
	host "github.com/ComposableFi/light-clients/modules/core/24-host"
	"github.com/ComposableFi/light-clients/modules/core/exported"
	"github.com/ComposableFi/light-clients/modules/light-clients/substrate"
)

var logger = log15.New("module", "11-beefy")

// VerifyClientMessage checks if the clientMessage is of type Header or Misbehaviour and verifies the message
func (cs *ClientState) VerifyClientMessage(
	ctx exported.Context, _ exported.Codec, _ exported.ClientStore,
	clientMsg exported.ClientMessage,
) error {
	host := substrate.ContextHostFunctions(ctx)
	switch msg := clientMsg.(type) {
	case *Header:
		_, _, err := cs.ApplyHeader(host, *msg)
		return err
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

	next := cs
	if header.MmrUpdateProof.HasValue {
		var err error
		if next, err = cs.VerifyMmrUpdateProof(host, header.MmrUpdateProof.Value); err != nil {
			return ClientState{}, nil, err
		}
	}

	if len(header.ParachainHeaders) == 0 {
		return next, nil, nil
	}

	consensusStates, err := next.verifyParachainHeaders(host, header)
	if err != nil {
		return ClientState{}, nil, err
	}
	for _, consensusState := range consensusStates {
		if height := uint32(consensusState.Height.RevisionHeight); height > next.LatestParaHeight {
			next.LatestParaHeight = height
		}
	}
	// without a new mmr root the update must advance the parachain height
	if !header.MmrUpdateProof.HasValue && next.LatestParaHeight == cs.LatestParaHeight {
		return ClientState{}, nil, errorsmod.Wrapf(
			ErrStaleParachainHeaders, "latest parachain height %d", cs.LatestParaHeight,
		)
	}

	return next, consensusStates, nil
}

// VerifyMmrUpdateProof verifies a signed commitment newer than the latest beefy height and
// the latest mmr leaf under its mmr root. It returns the client state advanced to the
// commitment, with the authority sets rotated when the leaf announces a new next set.
func (cs ClientState) VerifyMmrUpdateProof(host exported.HostFunctions, proof MmrUpdateProof) (ClientState, error) {
	commitment := proof.SignedCommitment.Commitment
	if commitment.BlockNumber <= cs.LatestBeefyHeight {
		return ClientState{}, errorsmod.Wrapf(
			ErrStaleCommitment, "commitment block %d, latest beefy height %d", commitment.BlockNumber, cs.LatestBeefyHeight,
		)
	}

	set, err := cs.authoritySet(commitment.ValidatorSetID)
	if err != nil {
		return ClientState{}, err
	}
	if err := proof.SignedCommitment.VerifySignatures(host, set, proof.AuthoritiesProof); err != nil {
		return ClientState{}, err
	}

	mmrRoot, err := commitment.MmrRoot()
	if err != nil {
		return ClientState{}, err
	}
	leafHash, err := proof.LatestMmrLeaf.Hash(host)
	if err != nil {
		return ClientState{}, errorsmod.Wrap(ErrInvalidMmrProof, err.Error())
	}

	// the latest leaf closes the mmr, its index gives the mmr size
	mmrProof := mmr.NewProof(
		mmr.LeafIndexToMMRSize(proof.MmrLeafIndex),
		h256sToBytes(proof.MmrProof),
		[]mmr.Leaf{{Hash: leafHash, Index: proof.MmrLeafIndex}},
		NewKeccak256(host),
	)
	if !mmrProof.Verify(mmrRoot[:]) {
		return ClientState{}, errorsmod.Wrapf(
			ErrInvalidMmrProof, "leaf %d is not the latest leaf under mmr root %s", proof.MmrLeafIndex, mmrRoot.Hex(),
		)
	}

	next := cs
	if nextSet := proof.LatestMmrLeaf.BeefyNextAuthoritySet; nextSet.ID > cs.NextAuthorities.ID {
		next.CurrentAuthorities = cs.NextAuthorities
		next.NextAuthorities = nextSet
	}
	next.LatestBeefyHeight = commitment.BlockNumber
	next.MmrRootHash = mmrRoot

	return next, nil
}

// verifyParachainHeaders rebuilds the mmr leaves of the parachain headers from their heads
// proofs, verifies them with the header's batch proof against the mmr root, and returns the
// consensus states of the headers.
func (cs ClientState) verifyParachainHeaders(host exported.HostFunctions, header Header) ([]ConsensusStateWithHeight, error) {
	hasher := NewKeccak256(host)

	var (
		leaves          []mmr.Leaf
		leafHashes      = make(map[uint64][]byte, len(header.ParachainHeaders))
		consensusStates = make([]ConsensusStateWithHeight, 0, len(header.ParachainHeaders))
	)
	for i, parachainHeader := range header.ParachainHeaders {
		if parachainHeader.ParaID != cs.ParaID {
			return nil, errorsmod.Wrapf(
				ErrInvalidParachainHeader, "parachain header %d is for para %d, client tracks para %d", i, parachainHeader.ParaID, cs.ParaID,
			)
		}

		headsLeaf, err := ParachainHeadsLeaf(host, parachainHeader.ParaID, parachainHeader.ParachainHeader)
		if err != nil {
			return nil, errorsmod.Wrapf(ErrInvalidParachainHeadsProof, "parachain header %d: %v", i, err)
		}
		headsRoot, err := merkle.NewProof(
			[]merkle.Leaf{{Hash: headsLeaf, Index: parachainHeader.HeadsLeafIndex}},
			h256sToBytes(parachainHeader.ParachainHeadsProof),
			parachainHeader.HeadsTotalCount,
			hasher,
		).Root()
		if err != nil {
			return nil, errorsmod.Wrapf(ErrInvalidParachainHeadsProof, "parachain header %d: %v", i, err)
		}
		if len(headsRoot) != len(types.H256{}) {
			return nil, errorsmod.Wrapf(ErrInvalidParachainHeadsProof, "parachain header %d: heads root has %d bytes", i, len(headsRoot))
		}

		leaf := parachainHeader.MmrLeafPartial.Leaf(types.NewH256(headsRoot))
		leafHash, err := leaf.Hash(host)
		if err != nil {
			return nil, errorsmod.Wrapf(ErrInvalidMmrProof, "parachain header %d: %v", i, err)
		}
		leafIndex, err := cs.GetLeafIndexForBlockNumber(leaf.ParentNumber + 1)
		if err != nil {
			return nil, errorsmod.Wrapf(err, "parachain header %d", i)
		}

		// headers proven by the same leaf share one mmr leaf
		if prev, ok := leafHashes[leafIndex]; ok {
			if !bytes.Equal(prev, leafHash) {
				return nil, errorsmod.Wrapf(ErrInvalidMmrProof, "parachain header %d: conflicting leaves at index %d", i, leafIndex)
			}
		} else {
			leafHashes[leafIndex] = leafHash
			leaves = append(leaves, mmr.Leaf{Hash: leafHash, Index: leafIndex})
		}

		verified, err := verifyParachainHeader(host, parachainHeader)
		if err != nil {
			return nil, errorsmod.Wrapf(err, "parachain header %d", i)
		}
		consensusStates = append(consensusStates, ConsensusStateWithHeight{
			Height: clienttypes.NewHeight(uint64(cs.ParaID), uint64(verified.Header.Number)),
			ConsensusState: ConsensusState{
				Timestamp: verified.TimestampNanos(),
				Root:      verified.Header.StateRoot,
			},
		})
	}
	sort.Slice(leaves, func(i, j int) bool { return leaves[i].Index < leaves[j].Index })

	mmrProof := mmr.NewProof(header.MmrSize, h256sToBytes(header.MmrProofs), leaves, hasher)
	if !mmrProof.Verify(cs.MmrRootHash[:]) {
		if root, err := mmrProof.CalculateRoot(); err == nil {
			logger.Debug("parachain headers mmr proof mismatch", "calculated", types.NewH256(root).Hex(), "expected", cs.MmrRootHash.Hex())
		}
		return nil, errorsmod.Wrapf(ErrInvalidMmrProof, "parachain headers are not included under mmr root %s", cs.MmrRootHash.Hex())
	}

	return consensusStates, nil
}

// verifyParachainHeader decodes a parachain header and verifies its timestamp extrinsic.
func verifyParachainHeader(host exported.HostFunctions, parachainHeader ParachainHeader) (substrate.VerifiedParachainHeader, error) {
	decoded, err := parachainHeader.DecodeParachainHeader()
	if err != nil {
		return substrate.VerifiedParachainHeader{}, errorsmod.Wrap(ErrInvalidParachainHeader, err.Error())
	}

	millis, err := substrate.VerifyTimestampExtrinsic(host, decoded.ExtrinsicsRoot, parachainHeader.TimestampExtrinsic, parachainHeader.ExtrinsicProof)
	if err != nil {
		return substrate.VerifiedParachainHeader{}, err
	}

	return substrate.VerifiedParachainHeader{
		Header:          decoded,
		Hash:            types.H256(host.Blake2b256(parachainHeader.ParachainHeader)),
		TimestampMillis: millis,
	}, nil
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

		if clientStore.Has(host.ConsensusStateKey(consensusState.Height)) {
			continue
		}

		setConsensusState(clientStore, cdc, &consensusState.ConsensusState, consensusState.Height)
		clienttypes.SetConsensusMetadata(ctx, clientStore, consensusState.Height)
	}

	if next.CurrentAuthorities.ID != cs.CurrentAuthorities.ID {
		logger.Info("rotated beefy authority set", "set_id", next.CurrentAuthorities.ID, "next_set_id", next.NextAuthorities.ID)
	}
	if next.LatestBeefyHeight != cs.LatestBeefyHeight {
		logger.Debug("updated mmr root", "beefy_height", next.LatestBeefyHeight, "mmr_root", next.MmrRootHash.Hex())
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
	}
}
