package types

import (
	errorsmod "cosmossdk.io/errors"
)

const (
	SubModuleName = "beefy-client"
)

// IBC beefy client sentinel errors
var (
	ErrInvalidAuthoritySet        = errorsmod.Register(SubModuleName, 2, "invalid beefy authority set")
	ErrUnknownAuthoritySet        = errorsmod.Register(SubModuleName, 3, "commitment signed by an unknown authority set")
	ErrStaleCommitment            = errorsmod.Register(SubModuleName, 4, "commitment is not newer than the latest beefy height")
	ErrInvalidCommitment          = errorsmod.Register(SubModuleName, 5, "invalid commitment")
	ErrInvalidSignature           = errorsmod.Register(SubModuleName, 6, "invalid commitment signature")
	ErrInvalidSignatureThreshold  = errorsmod.Register(SubModuleName, 7, "not enough valid commitment signatures")
	ErrInvalidAuthorityProof      = errorsmod.Register(SubModuleName, 8, "invalid authority merkle proof")
	ErrInvalidMmrProof            = errorsmod.Register(SubModuleName, 9, "invalid mmr proof")
	ErrInvalidLeafIndex           = errorsmod.Register(SubModuleName, 10, "invalid mmr leaf index")
	ErrInvalidParachainHeadsProof = errorsmod.Register(SubModuleName, 11, "invalid parachain heads proof")
	ErrInvalidParachainHeader     = errorsmod.Register(SubModuleName, 12, "invalid parachain header")
	ErrInvalidMisbehaviour        = errorsmod.Register(SubModuleName, 13, "invalid misbehaviour")
	ErrStaleParachainHeaders      = errorsmod.Register(SubModuleName, 14, "parachain headers are not newer than the latest parachain height")
)
