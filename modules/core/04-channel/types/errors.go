package types

import (
	errorsmod "cosmossdk.io/errors"
)

// SubModuleName defines the IBC channels name
const SubModuleName = "channel"

// IBC channel sentinel errors
var (
	ErrChannelNotFound        = errorsmod.Register(SubModuleName, 3, "channel not found")
	ErrInvalidChannel         = errorsmod.Register(SubModuleName, 4, "invalid channel")
	ErrInvalidChannelState    = errorsmod.Register(SubModuleName, 5, "invalid channel state")
	ErrInvalidChannelOrdering = errorsmod.Register(SubModuleName, 6, "invalid channel ordering")
	ErrInvalidCounterparty    = errorsmod.Register(SubModuleName, 7, "invalid counterparty channel")
	ErrTooManyConnectionHops  = errorsmod.Register(SubModuleName, 9, "too many connection hops")
	ErrInvalidPacket          = errorsmod.Register(SubModuleName, 16, "invalid packet")
)
