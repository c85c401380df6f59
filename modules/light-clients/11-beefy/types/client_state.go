package types

import (
	errorsmod "cosmossdk.io/errors"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"

	clienttypes "github.com/ComposableFi/light-clients/modules/core/02-client/types"
	commitmenttypes "github.com/ComposableFi/light-clients/modules/core/23-commitment/types"
	"github.com/ComposableFi/light-clients/modules/core/exported"
	"github.com/ComposableFi/light-clients/modules/light-clients/substrate"
)

var _ exported.ClientState = (*ClientState)(nil)

// ClientState tracks the relay chain mmr root signed by the beefy validators, and the
// parachain ParaID through the parachain heads committed to by the mmr leaves.
type ClientState struct {
	Chain  substrate.RelayChain
	ParaID uint32

	// LatestBeefyHeight is the relay block number of the latest verified commitment
	LatestBeefyHeight    uint32
	MmrRootHash          types.H256
	BeefyActivationBlock uint32

	CurrentAuthorities BeefyAuthoritySet
	NextAuthorities    BeefyAuthoritySet

	LatestParaHeight uint32
	FrozenHeight     clienttypes.OptionalHeight
}

// NewClientState creates a new ClientState instance
func NewClientState(
	chain substrate.RelayChain, paraID uint32,
	latestBeefyHeight uint32, mmrRootHash types.H256, beefyActivationBlock uint32,
	currentAuthorities, nextAuthorities BeefyAuthoritySet,
	latestParaHeight uint32,
) *ClientState {
	return &ClientState{
		Chain:                chain,
		ParaID:               paraID,
		LatestBeefyHeight:    latestBeefyHeight,
		MmrRootHash:          mmrRootHash,
		BeefyActivationBlock: beefyActivationBlock,
		CurrentAuthorities:   currentAuthorities,
		NextAuthorities:      nextAuthorities,
		LatestParaHeight:     latestParaHeight,
	}
}

// ClientType is beefy.
func (ClientState) ClientType() string {
	return exported.Beefy
}

// GetLatestHeight returns the latest parachain height. The revision number is the para id.
func (cs ClientState) GetLatestHeight() exported.Height {
	return cs.latestHeight()
}

func (cs ClientState) latestHeight() clienttypes.Height {
	return clienttypes.NewHeight(uint64(cs.ParaID), uint64(cs.LatestParaHeight))
}

// IsFrozen returns true if misbehaviour has been detected.
func (cs ClientState) IsFrozen() bool {
	return cs.FrozenHeight.HasValue
}

// GetLeafIndexForBlockNumber returns the mmr leaf index of the leaf appended by blockNumber.
func (cs ClientState) GetLeafIndexForBlockNumber(blockNumber uint32) (uint64, error) {
	return GetLeafIndexForBlockNumber(cs.BeefyActivationBlock, blockNumber)
}

// GetBlockNumberForLeaf returns the number of the block that appended the leaf at leafIndex.
func (cs ClientState) GetBlockNumberForLeaf(leafIndex uint64) (uint32, error) {
	return GetBlockNumberForLeaf(cs.BeefyActivationBlock, leafIndex)
}

// authoritySet returns the known authority set with the given id.
func (cs ClientState) authoritySet(id uint64) (BeefyAuthoritySet, error) {
	switch id {
	case cs.CurrentAuthorities.ID:
		return cs.CurrentAuthorities, nil
	case cs.NextAuthorities.ID:
		return cs.NextAuthorities, nil
	default:
		return BeefyAuthoritySet{}, errorsmod.Wrapf(
			ErrUnknownAuthoritySet, "set id %d, current %d, next %d", id, cs.CurrentAuthorities.ID, cs.NextAuthorities.ID,
		)
	}
}

// Validate performs basic validation of the client state fields.
func (cs ClientState) Validate() error {
	if err := cs.Chain.Validate(); err != nil {
		return err
	}
	if cs.LatestParaHeight == 0 {
		return errorsmod.Wrap(clienttypes.ErrInvalidHeight, "latest parachain height cannot be zero")
	}
	if cs.MmrRootHash == (types.H256{}) {
		return errorsmod.Wrap(clienttypes.ErrInvalidClient, "mmr root hash cannot be empty")
	}
	if err := cs.CurrentAuthorities.ValidateBasic(); err != nil {
		return err
	}
	if err := cs.NextAuthorities.ValidateBasic(); err != nil {
		return err
	}
	if cs.NextAuthorities.ID <= cs.CurrentAuthorities.ID {
		return errorsmod.Wrapf(
			ErrInvalidAuthoritySet, "next set id %d must be greater than current set id %d",
			cs.NextAuthorities.ID, cs.CurrentAuthorities.ID,
		)
	}

	return nil
}

// Status returns the status of the beefy client.
// The client may be:
// - Active: FrozenHeight is unset and the latest consensus state is within the trusting period
// - Frozen: FrozenHeight is set
// - Expired: the latest consensus state is older than the trusting period
// - Unknown: the latest consensus state cannot be found
func (cs ClientState) Status(
	ctx exported.Context,
	clientStore exported.ClientStore,
	cdc exported.Codec,
) exported.Status {
	if cs.IsFrozen() {
		return exported.Frozen
	}

	consState, err := GetConsensusState(clientStore, cdc, cs.GetLatestHeight())
	if err != nil {
		return exported.Unknown
	}

	if clienttypes.IsExpired(consState.Timestamp, cs.Chain.TrustingPeriod(), ctx.BlockTime) {
		return exported.Expired
	}

	return exported.Active
}

// GetTimestampAtHeight returns the timestamp in nanoseconds of the consensus state at the given height.
func (ClientState) GetTimestampAtHeight(
	_ exported.Context,
	clientStore exported.ClientStore,
	cdc exported.Codec,
	height exported.Height,
) (uint64, error) {
	consState, err := GetConsensusState(clientStore, cdc, height)
	if err != nil {
		return 0, errorsmod.Wrapf(err, "height (%s)", height)
	}
	return consState.GetTimestamp(), nil
}

// Initialize checks that the initial consensus state is a beefy consensus state and stores
// it, together with the client state, at the latest height.
func (cs ClientState) Initialize(ctx exported.Context, cdc exported.Codec, clientStore exported.ClientStore, consState exported.ConsensusState) error {
	consensusState, ok := consState.(*ConsensusState)
	if !ok {
		return errorsmod.Wrapf(clienttypes.ErrInvalidConsensus, "invalid initial consensus state. expected type: %T, got: %T",
			&ConsensusState{}, consState)
	}
	if cs.IsFrozen() {
		return errorsmod.Wrap(clienttypes.ErrClientFrozen, "cannot initialize a frozen client")
	}

	setClientState(clientStore, cdc, &cs)
	setConsensusState(clientStore, cdc, consensusState, cs.GetLatestHeight())
	clienttypes.SetConsensusMetadata(ctx, clientStore, cs.GetLatestHeight())

	return nil
}

// VerifyMembership verifies a parachain state proof of the existence of value at path, at
// the specified height.
func (cs ClientState) VerifyMembership(
	ctx exported.Context,
	clientStore exported.ClientStore,
	cdc exported.Codec,
	height exported.Height,
	delayTimePeriod uint64,
	delayBlockPeriod uint64,
	proof []byte,
	path exported.Path,
	value []byte,
) error {
	trieProof, consensusState, err := produceVerificationArgs(ctx, clientStore, cdc, cs, height, delayTimePeriod, delayBlockPeriod, proof)
	if err != nil {
		return err
	}

	return trieProof.VerifyMembership(substrate.ContextHostFunctions(ctx), consensusState.GetRoot(), path, value)
}

// VerifyNonMembership verifies a parachain state proof of the absence of path at the
// specified height.
func (cs ClientState) VerifyNonMembership(
	ctx exported.Context,
	clientStore exported.ClientStore,
	cdc exported.Codec,
	height exported.Height,
	delayTimePeriod uint64,
	delayBlockPeriod uint64,
	proof []byte,
	path exported.Path,
) error {
	trieProof, consensusState, err := produceVerificationArgs(ctx, clientStore, cdc, cs, height, delayTimePeriod, delayBlockPeriod, proof)
	if err != nil {
		return err
	}

	return trieProof.VerifyNonMembership(substrate.ContextHostFunctions(ctx), consensusState.GetRoot(), path)
}

// produceVerificationArgs performs the checks shared by the verification functions and
// returns the decoded trie proof and the consensus state at height.
func produceVerificationArgs(
	ctx exported.Context,
	clientStore exported.ClientStore,
	cdc exported.Codec,
	cs ClientState,
	height exported.Height,
	delayTimePeriod uint64,
	delayBlockPeriod uint64,
	proof []byte,
) (commitmenttypes.TrieProof, *ConsensusState, error) {
	if cs.GetLatestHeight().LT(height) {
		return commitmenttypes.TrieProof{}, nil, errorsmod.Wrapf(
			clienttypes.ErrInvalidHeight,
			"client state height < proof height (%s < %s), please ensure the client has been updated", cs.GetLatestHeight(), height,
		)
	}

	if err := clienttypes.VerifyDelayPeriodPassed(ctx, clientStore, height, delayTimePeriod, delayBlockPeriod); err != nil {
		return commitmenttypes.TrieProof{}, nil, err
	}

	if len(proof) == 0 {
		return commitmenttypes.TrieProof{}, nil, errorsmod.Wrap(commitmenttypes.ErrInvalidProof, "proof cannot be empty")
	}

	trieProof, err := commitmenttypes.DecodeTrieProof(proof)
	if err != nil {
		return commitmenttypes.TrieProof{}, nil, err
	}

	consensusState, err := GetConsensusState(clientStore, cdc, height)
	if err != nil {
		return commitmenttypes.TrieProof{}, nil, errorsmod.Wrap(err, "please ensure the proof was constructed against a height that exists on the client")
	}

	return trieProof, consensusState, nil
}
