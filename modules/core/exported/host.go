package exported

import "time"

// HostFunctions are the cryptographic primitives a light client delegates to its host.
// A host running inside a constrained runtime may substitute native implementations.
type HostFunctions interface {
	// Keccak256 returns the keccak-256 digest of data.
	Keccak256(data []byte) [32]byte
	// Blake2b256 returns the BLAKE2b-256 digest of data.
	Blake2b256(data []byte) [32]byte
	// Ed25519Verify reports whether signature is a valid signature of message by publicKey.
	Ed25519Verify(signature [64]byte, message []byte, publicKey [32]byte) bool
	// Secp256k1EcdsaRecover recovers the uncompressed 65 byte public key that produced the
	// recoverable signature over messageHash. The recovery id may be 0/1 or 27/28.
	Secp256k1EcdsaRecover(signature [65]byte, messageHash [32]byte) ([]byte, error)
}

// Context carries what a light client needs from its host for a single call: the host
// functions and the host's current block time and height.
type Context struct {
	HostFunctions HostFunctions
	BlockTime     time.Time
	BlockHeight   Height
}

// NewContext returns a Context for the given host functions, time and height.
func NewContext(host HostFunctions, blockTime time.Time, blockHeight Height) Context {
	return Context{
		HostFunctions: host,
		BlockTime:     blockTime,
		BlockHeight:   blockHeight,
	}
}
