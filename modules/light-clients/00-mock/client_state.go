package mock

import (
	errorsmod "cosmossdk.io/errors"

	clienttypes "github.com/ComposableFi/light-clients/modules/core/02-client/types"
	host "github.com/ComposableFi/light-clients/modules/core/24-host"
	"github.com/ComposableFi/light-clients/modules/core/exported"
)

var _ exported.ClientState = (*ClientState)(nil)

// ClientState is an in-memory client used to exercise client keeper dispatch. It trusts
// every header, freezes on any misbehaviour and accepts every membership proof.
type ClientState struct {
	LatestHeight clienttypes.Height
	FrozenHeight clienttypes.OptionalHeight
}

// NewClientState returns a mock client at height.
func NewClientState(height clienttypes.Height) *ClientState {
	return &ClientState{LatestHeight: height}
}

func (*ClientState) ClientType() string {
	return exported.Mock
}

func (cs *ClientState) GetLatestHeight() exported.Height {
	return cs.LatestHeight
}

func (cs *ClientState) Validate() error {
	if cs.LatestHeight.IsZero() {
		return errorsmod.Wrap(clienttypes.ErrInvalidHeight, "latest height cannot be zero")
	}
	return nil
}

func (cs *ClientState) Status(_ exported.Context, clientStore exported.ClientStore, _ exported.Codec) exported.Status {
	if cs.FrozenHeight.HasValue {
		return exported.Frozen
	}
	if !clientStore.Has(host.ConsensusStateKey(cs.LatestHeight)) {
		return exported.Unknown
	}
	return exported.Active
}

func (cs *ClientState) Initialize(ctx exported.Context, cdc exported.Codec, clientStore exported.ClientStore, consState exported.ConsensusState) error {
	consensusState, ok := consState.(*ConsensusState)
	if !ok {
		return errorsmod.Wrapf(clienttypes.ErrInvalidConsensus, "invalid initial consensus state. expected type: %T, got: %T",
			&ConsensusState{}, consState)
	}

	setClientState(clientStore, cdc, cs)
	setConsensusState(clientStore, cdc, consensusState, cs.LatestHeight)
	clienttypes.SetConsensusMetadata(ctx, clientStore, cs.LatestHeight)
	return nil
}

func (*ClientState) GetTimestampAtHeight(_ exported.Context, clientStore exported.ClientStore, cdc exported.Codec, height exported.Height) (uint64, error) {
	bz := clientStore.Get(host.ConsensusStateKey(height))
	if len(bz) == 0 {
		return 0, errorsmod.Wrapf(clienttypes.ErrConsensusStateNotFound, "height (%s)", height)
	}
	consensusState, err := cdc.UnmarshalConsensusState(bz)
	if err != nil {
		return 0, err
	}
	return consensusState.GetTimestamp(), nil
}

func (*ClientState) VerifyMembership(
	_ exported.Context, _ exported.ClientStore, _ exported.Codec, _ exported.Height,
	_, _ uint64, _ []byte, _ exported.Path, _ []byte,
) error {
	return nil
}

func (*ClientState) VerifyNonMembership(
	_ exported.Context, _ exported.ClientStore, _ exported.Codec, _ exported.Height,
	_, _ uint64, _ []byte, _ exported.Path,
) error {
	return nil
}
