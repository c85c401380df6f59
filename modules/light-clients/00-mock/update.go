package mock

import (
	errorsmod "cosmossdk.io/errors"

	clienttypes "github.com/ComposableFi/light-clients/modules/core/02-client/types"
	host "github.com/ComposableFi/light-clients/modules/core/24-host"
	"github.com/ComposableFi/light-clients/modules/core/exported"
)

// VerifyClientMessage checks if the clientMessage is the correct type and verifies the message
func (cs *ClientState) VerifyClientMessage(_ exported.Context, _ exported.Codec, _ exported.ClientStore, clientMsg exported.ClientMessage) error {
	if cs.FrozenHeight.HasValue {
		return clienttypes.ErrClientFrozen
	}

	switch msg := clientMsg.(type) {
	case *MockHeader:
		return msg.ValidateBasic()
	case *Misbehaviour:
		return nil
	default:
		return errorsmod.Wrapf(ErrInvalidClientMsg, "invalid client message type %T", clientMsg)
	}
}

// CheckForMisbehaviour reports every Misbehaviour message as misbehaviour.
func (*ClientState) CheckForMisbehaviour(_ exported.Context, _ exported.Codec, _ exported.ClientStore, clientMsg exported.ClientMessage) bool {
	_, ok := clientMsg.(*Misbehaviour)
	return ok
}

// UpdateStateOnMisbehaviour freezes the client at its latest height.
func (cs *ClientState) UpdateStateOnMisbehaviour(_ exported.Context, cdc exported.Codec, clientStore exported.ClientStore, _ exported.ClientMessage) error {
	cs.FrozenHeight = clienttypes.SomeHeight(cs.LatestHeight)
	setClientState(clientStore, cdc, cs)
	return nil
}

func (cs *ClientState) UpdateState(ctx exported.Context, cdc exported.Codec, clientStore exported.ClientStore, clientMsg exported.ClientMessage) ([]exported.Height, error) {
	mockHeader, ok := clientMsg.(*MockHeader)
	if !ok {
		return nil, errorsmod.Wrapf(ErrInvalidClientMsg, "invalid client message type %T", clientMsg)
	}

	if mockHeader.Height.GT(cs.LatestHeight) {
		cs.LatestHeight = mockHeader.Height
	}

	consensusState := ConsensusState{
		Timestamp: mockHeader.Timestamp,
	}

	setClientState(clientStore, cdc, cs)
	setConsensusState(clientStore, cdc, &consensusState, mockHeader.Height)
	clienttypes.SetConsensusMetadata(ctx, clientStore, mockHeader.Height)

	return []exported.Height{mockHeader.Height}, nil
}

func setClientState(clientStore exported.ClientStore, cdc exported.Codec, clientState *ClientState) {
	clientStore.Set(host.ClientStateKey(), clienttypes.MustMarshalClientState(cdc, clientState))
}

func setConsensusState(clientStore exported.ClientStore, cdc exported.Codec, consensusState *ConsensusState, height exported.Height) {
	clientStore.Set(host.ConsensusStateKey(height), clienttypes.MustMarshalConsensusState(cdc, consensusState))
}
