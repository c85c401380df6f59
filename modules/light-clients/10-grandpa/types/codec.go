package types

import (
	clienttypes "github.com/ComposableFi/light-clients/modules/core/02-client/types"
	"github.com/ComposableFi/light-clients/modules/core/exported"
)

// Client message kinds of the grandpa variant.
const (
	MessageHeader       uint8 = 0
	MessageMisbehaviour uint8 = 1
)

// RegisterInterfaces registers the grandpa client types with the client codec.
func RegisterInterfaces(cdc *clienttypes.Codec) {
	cdc.RegisterClient(
		clienttypes.VariantGrandpa,
		exported.Grandpa,
		func() exported.ClientState { return &ClientState{} },
		func() exported.ConsensusState { return &ConsensusState{} },
	)
	cdc.RegisterClientMessage(exported.Grandpa, MessageHeader, func() exported.ClientMessage { return &Header{} })
	cdc.RegisterClientMessage(exported.Grandpa, MessageMisbehaviour, func() exported.ClientMessage { return &Misbehaviour{} })
}
