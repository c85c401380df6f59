package types

import (
	errorsmod "cosmossdk.io/errors"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"

	"github.com/ComposableFi/light-clients/modules/core/exported"
)

// BeefyAuthoritySet is the commitment to a beefy validator set: the merkle root of the
// keccak hashes of the authorities' ethereum addresses.
type BeefyAuthoritySet struct {
	ID   uint64
	Len  uint32
	Root types.H256
}

// NewBeefyAuthoritySet returns the commitment to a validator set.
func NewBeefyAuthoritySet(id uint64, length uint32, root types.H256) BeefyAuthoritySet {
	return BeefyAuthoritySet{ID: id, Len: length, Root: root}
}

// ValidateBasic checks the set is not empty.
func (s BeefyAuthoritySet) ValidateBasic() error {
	if s.Len == 0 {
		return errorsmod.Wrapf(ErrInvalidAuthoritySet, "authority set %d is empty", s.ID)
	}
	if s.Root == (types.H256{}) {
		return errorsmod.Wrapf(ErrInvalidAuthoritySet, "authority set %d has an empty root", s.ID)
	}
	return nil
}

// Threshold returns the number of signatures needed to finalize a commitment,
// ceil(2N/3)+1.
func (s BeefyAuthoritySet) Threshold() uint32 {
	q, r := s.Len/3, s.Len%3
	return 2*q + r + 1
}

// AuthorityAddress returns the ethereum address of an uncompressed secp256k1 public key.
func AuthorityAddress(host exported.HostFunctions, pubKey []byte) ([]byte, error) {
	if len(pubKey) != 65 || pubKey[0] != 4 {
		return nil, errorsmod.Wrapf(ErrInvalidSignature, "expected an uncompressed public key, got %d bytes", len(pubKey))
	}
	hash := host.Keccak256(pubKey[1:])
	return hash[12:], nil
}

// AuthorityLeaf returns the authority merkle tree leaf of an address.
func AuthorityLeaf(host exported.HostFunctions, address []byte) []byte {
	hash := host.Keccak256(address)
	return hash[:]
}
