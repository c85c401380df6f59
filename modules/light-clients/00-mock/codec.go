package mock

import (
	clienttypes "github.com/ComposableFi/light-clients/modules/core/02-client/types"
	"github.com/ComposableFi/light-clients/modules/core/exported"
)

// Client message kinds of the mock variant.
const (
	MessageHeader       uint8 = 0
	MessageMisbehaviour uint8 = 1
)

// RegisterInterfaces registers the mock client types with the client codec.
func RegisterInterfaces(cdc *clienttypes.Codec) {
	cdc.RegisterClient(
		clienttypes.VariantMock,
		exported.Mock,
		func() exported.ClientState { return &ClientState{} },
		func() exported.ConsensusState { return &ConsensusState{} },
	)
	cdc.RegisterClientMessage(exported.Mock, MessageHeader, func() exported.ClientMessage { return &MockHeader{} })
	cdc.RegisterClientMessage(exported.Mock, MessageMisbehaviour, func() exported.ClientMessage { return &Misbehaviour{} })
}
