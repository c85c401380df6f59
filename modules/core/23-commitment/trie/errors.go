package trie

import (
	errorsmod "cosmossdk.io/errors"
)

// SubModuleName defines the substrate trie proof codespace
const SubModuleName = "trie"

var (
	ErrInvalidRootLength = errorsmod.Register(SubModuleName, 2, "trie root must be 32 bytes")
	ErrRootMismatch      = errorsmod.Register(SubModuleName, 3, "no proof node hashes to the trie root")
	ErrIncompleteProof   = errorsmod.Register(SubModuleName, 4, "node referenced by the proof is missing")
	ErrInvalidNode       = errorsmod.Register(SubModuleName, 5, "malformed trie node")
)
