package substrate

import (
	"fmt"

	"github.com/ChainSafe/gossamer/lib/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/oasisprotocol/curve25519-voi/primitives/ed25519"

	"github.com/ComposableFi/light-clients/modules/core/exported"
)

var _ exported.HostFunctions = DefaultHostFunctions{}

// DefaultHostFunctions implements exported.HostFunctions with native Go libraries.
type DefaultHostFunctions struct{}

// Keccak256 implements exported.HostFunctions.
func (DefaultHostFunctions) Keccak256(data []byte) [32]byte {
	var out [32]byte
	copy(out[:], crypto.Keccak256(data))
	return out
}

// Blake2b256 implements exported.HostFunctions.
func (DefaultHostFunctions) Blake2b256(data []byte) [32]byte {
	hash, err := common.Blake2bHash(data)
	if err != nil {
		// blake2b.New256 only fails for oversized keys and no key is used
		panic(err)
	}
	return hash
}

// Ed25519Verify implements exported.HostFunctions.
func (DefaultHostFunctions) Ed25519Verify(signature [64]byte, message []byte, publicKey [32]byte) bool {
	return ed25519.Verify(ed25519.PublicKey(publicKey[:]), message, signature[:])
}

// Secp256k1EcdsaRecover implements exported.HostFunctions.
func (DefaultHostFunctions) Secp256k1EcdsaRecover(signature [65]byte, messageHash [32]byte) ([]byte, error) {
	sig := signature
	switch {
	case sig[64] >= 27 && sig[64] <= 28:
		sig[64] -= 27
	case sig[64] > 1:
		return nil, fmt.Errorf("invalid recovery id %d", sig[64])
	}

	return crypto.Ecrecover(messageHash[:], sig[:])
}

// ContextHostFunctions returns the host functions carried by ctx, or DefaultHostFunctions when
// the host did not provide any.
func ContextHostFunctions(ctx exported.Context) exported.HostFunctions {
	if ctx.HostFunctions == nil {
		return DefaultHostFunctions{}
	}
	return ctx.HostFunctions
}
