package types

import (
	errorsmod "cosmossdk.io/errors"
)

const (
	SubModuleName = "grandpa-client"
)

// IBC grandpa client sentinel errors
var (
	ErrInvalidAuthorities        = errorsmod.Register(SubModuleName, 2, "invalid authority set")
	ErrInvalidCommit             = errorsmod.Register(SubModuleName, 3, "invalid commit")
	ErrInvalidSignature          = errorsmod.Register(SubModuleName, 4, "invalid precommit signature")
	ErrInvalidAncestry           = errorsmod.Register(SubModuleName, 5, "invalid ancestry")
	ErrStaleUpdate               = errorsmod.Register(SubModuleName, 6, "finality proof is not newer than the latest relay block")
	ErrInvalidFinalityProof      = errorsmod.Register(SubModuleName, 7, "invalid finality proof")
	ErrInvalidJustification      = errorsmod.Register(SubModuleName, 8, "invalid justification encoding")
	ErrInvalidAuthoritySetChange = errorsmod.Register(SubModuleName, 9, "invalid authority set change")
	ErrInvalidParachainHeader    = errorsmod.Register(SubModuleName, 10, "invalid parachain header")
	ErrInvalidMisbehaviour       = errorsmod.Register(SubModuleName, 11, "invalid misbehaviour")
	ErrInvalidConsensusLog       = errorsmod.Register(SubModuleName, 12, "invalid grandpa consensus log")
)
