package types

import (
	"bytes"

	errorsmod "cosmossdk.io/errors"
	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"

	"github.com/ComposableFi/light-clients/internal/codec"
	"github.com/ComposableFi/light-clients/modules/core/23-commitment/trie"
	"github.com/ComposableFi/light-clients/modules/core/exported"
)

// TrieProof is a storage proof of the counterparty's IBC trie. It is SCALE encoded as
// Vec<Vec<u8>> of trie node encodings.
type TrieProof struct {
	Nodes [][]byte
}

// DecodeTrieProof decodes a SCALE encoded proof.
func DecodeTrieProof(bz []byte) (TrieProof, error) {
	var proof TrieProof
	if err := codec.Decode(bz, &proof); err != nil {
		return TrieProof{}, errorsmod.Wrapf(ErrInvalidProof, "failed to decode trie proof: %v", err)
	}

	return proof, nil
}

// Bytes returns the SCALE encoding of the proof.
func (p TrieProof) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := scale.NewEncoder(&buf).Encode(p); err != nil {
		return nil, errorsmod.Wrapf(ErrInvalidProof, "failed to encode trie proof: %v", err)
	}
	return buf.Bytes(), nil
}

// ValidateBasic checks the proof is not empty.
func (p TrieProof) ValidateBasic() error {
	if len(p.Nodes) == 0 {
		return errorsmod.Wrap(ErrInvalidProof, "trie proof cannot be empty")
	}
	return nil
}

// VerifyMembership verifies the membership of a value at the given path under root.
func (p TrieProof) VerifyMembership(hasher trie.Hasher, root []byte, path exported.Path, value []byte) error {
	key, err := trieKey(path)
	if err != nil {
		return err
	}
	if len(value) == 0 {
		return errorsmod.Wrap(ErrInvalidMerkleProof, "empty value in membership proof")
	}

	ok, err := trie.VerifyMembership(hasher, root, p.Nodes, key, value)
	if err != nil {
		return errorsmod.Wrapf(err, "path %s", path)
	}
	if !ok {
		return errorsmod.Wrapf(ErrInvalidMerkleProof, "value at path %s does not match", path)
	}

	return nil
}

// VerifyNonMembership verifies the absence of any value at the given path under root.
func (p TrieProof) VerifyNonMembership(hasher trie.Hasher, root []byte, path exported.Path) error {
	key, err := trieKey(path)
	if err != nil {
		return err
	}

	ok, err := trie.VerifyNonMembership(hasher, root, p.Nodes, key)
	if err != nil {
		return errorsmod.Wrapf(err, "path %s", path)
	}
	if !ok {
		return errorsmod.Wrapf(ErrInvalidMerkleProof, "value exists at path %s", path)
	}

	return nil
}

func trieKey(path exported.Path) ([]byte, error) {
	merklePath, ok := path.(MerklePath)
	if !ok {
		return nil, errorsmod.Wrapf(ErrInvalidProof, "expected %T, got %T", MerklePath{}, path)
	}
	if merklePath.Empty() {
		return nil, errorsmod.Wrap(ErrInvalidProof, "empty path")
	}
	return merklePath.TrieKey(), nil
}
