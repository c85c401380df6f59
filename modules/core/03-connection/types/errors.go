package types

import (
	errorsmod "cosmossdk.io/errors"
)

// SubModuleName defines the IBC connection name
const SubModuleName = "connection"

// IBC connection sentinel errors
var (
	ErrConnectionNotFound     = errorsmod.Register(SubModuleName, 3, "connection not found")
	ErrInvalidConnectionState = errorsmod.Register(SubModuleName, 6, "invalid connection state")
	ErrInvalidCounterparty    = errorsmod.Register(SubModuleName, 7, "invalid counterparty connection")
	ErrInvalidConnection      = errorsmod.Register(SubModuleName, 8, "invalid connection")
	ErrInvalidVersion         = errorsmod.Register(SubModuleName, 9, "invalid connection version")
)
