package types

import (
	"fmt"
	"strings"

	errorsmod "cosmossdk.io/errors"

	"github.com/ComposableFi/light-clients/modules/core/exported"
)

var _ exported.Prefix = (*MerklePrefix)(nil)

// MerklePrefix is the key prefix under which the counterparty keeps its IBC commitments.
type MerklePrefix struct {
	KeyPrefix []byte
}

// NewMerklePrefix constructs new MerklePrefix instance
func NewMerklePrefix(keyPrefix []byte) MerklePrefix {
	return MerklePrefix{
		KeyPrefix: keyPrefix,
	}
}

// Bytes returns the key prefix bytes
func (mp MerklePrefix) Bytes() []byte {
	return mp.KeyPrefix
}

// Empty returns true if the prefix is empty
func (mp MerklePrefix) Empty() bool {
	return len(mp.Bytes()) == 0
}

var _ exported.Path = (*MerklePath)(nil)

// MerklePath is the path used to verify commitment proofs. The first element is the
// counterparty store prefix, the remaining elements form the ICS-24 path.
type MerklePath struct {
	KeyPath []string
}

// NewMerklePath creates a new MerklePath instance
// The keys must be passed in from root-to-leaf order
func NewMerklePath(keyPath ...string) MerklePath {
	return MerklePath{
		KeyPath: keyPath,
	}
}

// String implements fmt.Stringer.
func (mp MerklePath) String() string {
	pathStr := ""
	for _, k := range mp.KeyPath {
		pathStr += "/" + k
	}
	return pathStr
}

// Pretty returns the unescaped path of the URL string.
func (mp MerklePath) Pretty() string {
	return strings.Join(mp.KeyPath, "/")
}

// GetKey will return a byte representation of the key
func (mp MerklePath) GetKey(i uint64) ([]byte, error) {
	if i >= uint64(len(mp.KeyPath)) {
		return nil, fmt.Errorf("index out of range. %d (index) >= %d (len)", i, len(mp.KeyPath))
	}
	return []byte(mp.KeyPath[i]), nil
}

// Empty returns true if the path is empty
func (mp MerklePath) Empty() bool {
	return len(mp.KeyPath) == 0
}

// TrieKey returns the storage key the path refers to in the counterparty's IBC trie:
// the prefix bytes immediately followed by the ICS-24 path.
func (mp MerklePath) TrieKey() []byte {
	if mp.Empty() {
		return nil
	}
	return append([]byte(mp.KeyPath[0]), strings.Join(mp.KeyPath[1:], "/")...)
}

// ApplyPrefix constructs a new commitment path from the arguments. It prepends the prefix key
// with the given path.
func ApplyPrefix(prefix exported.Prefix, path MerklePath) (MerklePath, error) {
	if prefix == nil || prefix.Empty() {
		return MerklePath{}, errorsmod.Wrap(ErrInvalidPrefix, "prefix can't be empty")
	}
	return NewMerklePath(append([]string{string(prefix.Bytes())}, path.KeyPath...)...), nil
}
