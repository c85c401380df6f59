package substrate

import (
	errorsmod "cosmossdk.io/errors"
)

// SubModuleName defines the codespace of the substrate primitives
const SubModuleName = "substrate"

var (
	ErrInvalidEncoding       = errorsmod.Register(SubModuleName, 2, "invalid SCALE encoding")
	ErrInvalidHeader         = errorsmod.Register(SubModuleName, 3, "invalid substrate header")
	ErrInvalidRoot           = errorsmod.Register(SubModuleName, 4, "invalid root")
	ErrInvalidProof          = errorsmod.Register(SubModuleName, 5, "invalid storage proof")
	ErrParachainHeadNotFound = errorsmod.Register(SubModuleName, 6, "parachain head not found in relay chain state")
	ErrParachainHeadMismatch = errorsmod.Register(SubModuleName, 7, "parachain head does not match relay chain state")
	ErrTimestampNotFound     = errorsmod.Register(SubModuleName, 8, "timestamp extrinsic not found in extrinsics root")
	ErrTimestampDecode       = errorsmod.Register(SubModuleName, 9, "failed to decode timestamp extrinsic")
	ErrInvalidChain          = errorsmod.Register(SubModuleName, 10, "invalid relay chain")
)
