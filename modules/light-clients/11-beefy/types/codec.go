package types

import (
	clienttypes "github.com/ComposableFi/light-clients/modules/core/02-client/types"
	"github.com/ComposableFi/light-clients/modules/core/exported"
)

// Client message kinds of the beefy variant.
const (
	MessageHeader       uint8 = 0
	MessageMisbehaviour uint8 = 1
)

// RegisterInterfaces registers the beefy client types with the client codec.
func RegisterInterfaces(cdc *clienttypes.Codec) {
	cdc.RegisterClient(
		clienttypes.VariantBeefy,
		exported.Beefy,
		func() exported.ClientState { return &ClientState{} },
		func() exported.ConsensusState { return &ConsensusState{} },
	)
	cdc.RegisterClientMessage(exported.Beefy, MessageHeader, func() exported.ClientMessage { return &Header{} })
	cdc.RegisterClientMessage(exported.Beefy, MessageMisbehaviour, func() exported.ClientMessage { return &Misbehaviour{} })
}
