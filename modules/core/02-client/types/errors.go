package types

import (
	errorsmod "cosmossdk.io/errors"
)

// IBC client sentinel errors
var (
	ErrClientExists           = errorsmod.Register(SubModuleName, 2, "light client already exists")
	ErrInvalidClient          = errorsmod.Register(SubModuleName, 3, "light client is invalid")
	ErrClientNotFound         = errorsmod.Register(SubModuleName, 4, "light client not found")
	ErrClientFrozen           = errorsmod.Register(SubModuleName, 5, "light client is frozen due to misbehaviour")
	ErrInvalidClientMetadata  = errorsmod.Register(SubModuleName, 6, "invalid client metadata")
	ErrConsensusStateNotFound = errorsmod.Register(SubModuleName, 7, "consensus state not found")
	ErrInvalidConsensus       = errorsmod.Register(SubModuleName, 8, "invalid consensus state")
	ErrClientTypeNotFound     = errorsmod.Register(SubModuleName, 9, "client type not found")
	ErrInvalidClientType      = errorsmod.Register(SubModuleName, 10, "invalid client type")
	ErrRootNotFound           = errorsmod.Register(SubModuleName, 11, "commitment root not found")
	ErrInvalidHeader          = errorsmod.Register(SubModuleName, 12, "invalid client header")
	ErrInvalidMisbehaviour    = errorsmod.Register(SubModuleName, 13, "invalid light client misbehaviour")
	ErrInvalidHeight          = errorsmod.Register(SubModuleName, 22, "invalid height")
	ErrInvalidClientMessage   = errorsmod.Register(SubModuleName, 23, "invalid client message")
	ErrClientNotActive        = errorsmod.Register(SubModuleName, 24, "client state is not active")
	ErrDelayPeriodNotPassed   = errorsmod.Register(SubModuleName, 27, "packet-specified delay period has not been reached")
	ErrInvalidCodec           = errorsmod.Register(SubModuleName, 28, "invalid client codec encoding")
)
