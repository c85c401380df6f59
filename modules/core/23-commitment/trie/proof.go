package trie

import (
	"bytes"
	"errors"

	errorsmod "cosmossdk.io/errors"
	"github.com/ChainSafe/chaindb"
	"github.com/ChainSafe/gossamer/lib/common"
	gossamertrie "github.com/ChainSafe/gossamer/lib/trie"
)

// HashLength is the length of a node hash and of the trie root.
const HashLength = 32

// Hasher hashes trie nodes. exported.HostFunctions satisfies it.
type Hasher interface {
	Blake2b256(data []byte) [32]byte
}

const (
	// kindBranch is the header kind, the two high bits of a node encoding, of a branch
	// without a value
	kindBranch        = 0b10
	partialKeyLenMask = 0x3f
)

var errLeftKeyPath = errors.New("lookup left the key path")

// lookupDB serves the nodes of a proof to a gossamer trie lookup of a single key. The lookup
// is replayed over the served nodes and stopped as soon as it leaves the path of the key.
type lookupDB struct {
	// only Get is used by the lookup
	chaindb.Database

	nodes map[[HashLength]byte][]byte
	// remaining holds the key nibbles from the last served node downwards
	remaining []byte
	last      []byte
}

func newLookupDB(hasher Hasher, proof [][]byte, key []byte) *lookupDB {
	db := &lookupDB{
		nodes:     make(map[[HashLength]byte][]byte, len(proof)),
		remaining: keyToNibbles(key),
	}
	for _, enc := range proof {
		db.nodes[hasher.Blake2b256(enc)] = enc
	}
	return db
}

// Get implements chaindb.Database.
func (db *lookupDB) Get(key []byte) ([]byte, error) {
	if db.last != nil {
		_, partial, err := decodeHeader(db.last)
		if err != nil {
			return nil, err
		}
		if !bytes.HasPrefix(db.remaining, partial) || len(db.remaining) == len(partial) {
			return nil, errLeftKeyPath
		}
		db.remaining = db.remaining[len(partial)+1:]
	}

	var enc []byte
	switch {
	case len(key) < HashLength:
		// children shorter than a hash are inlined in their parent
		enc = key
	case len(key) == HashLength:
		var hash [HashLength]byte
		copy(hash[:], key)
		found, ok := db.nodes[hash]
		if !ok {
			return nil, errorsmod.Wrapf(ErrIncompleteProof, "node %x", key)
		}
		enc = found
	default:
		return nil, errorsmod.Wrapf(ErrInvalidNode, "child reference of %d bytes", len(key))
	}

	db.last = enc
	return append([]byte{}, enc...), nil
}

// ReadProofCheck looks up key in the trie with the given root using only the nodes in
// proof. It returns a nil value when the proof shows the key is absent. Nodes that are not
// on the lookup path are ignored.
func ReadProofCheck(hasher Hasher, root []byte, proof [][]byte, key []byte) (value []byte, err error) {
	if len(root) != HashLength {
		return nil, errorsmod.Wrapf(ErrInvalidRootLength, "got %d bytes", len(root))
	}

	rootHash := common.BytesToHash(root)
	if rootHash == gossamertrie.EmptyHash {
		return nil, nil
	}

	db := newLookupDB(hasher, proof, key)
	if _, ok := db.nodes[[HashLength]byte(rootHash)]; !ok {
		return nil, errorsmod.Wrapf(ErrRootMismatch, "root %x", root)
	}

	defer func() {
		if r := recover(); r != nil {
			value, err = nil, errorsmod.Wrapf(ErrInvalidNode, "%v", r)
		}
	}()

	found, err := gossamertrie.GetFromDB(db, rootHash, key)
	switch {
	case errors.Is(err, errLeftKeyPath):
		return nil, nil
	case errors.Is(err, ErrIncompleteProof), errors.Is(err, ErrInvalidNode):
		return nil, err
	case err != nil:
		return nil, errorsmod.Wrap(ErrInvalidNode, err.Error())
	}

	kind, partial, err := decodeHeader(db.last)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(db.remaining, partial) || kind == kindBranch {
		return nil, nil
	}

	// found values are never nil so absence stays distinguishable from an empty value
	return append([]byte{}, found...), nil
}

// VerifyMembership reports whether the proof shows key holds exactly value under root.
// An error is returned when the proof itself is unusable.
func VerifyMembership(hasher Hasher, root []byte, proof [][]byte, key, value []byte) (bool, error) {
	got, err := ReadProofCheck(hasher, root, proof, key)
	if err != nil {
		return false, err
	}

	return got != nil && bytes.Equal(got, value), nil
}

// VerifyNonMembership reports whether the proof shows key is absent under root.
func VerifyNonMembership(hasher Hasher, root []byte, proof [][]byte, key []byte) (bool, error) {
	got, err := ReadProofCheck(hasher, root, proof, key)
	if err != nil {
		return false, err
	}

	return got == nil, nil
}

// decodeHeader returns the kind and the partial key nibbles of an encoded node.
func decodeHeader(enc []byte) (byte, []byte, error) {
	if len(enc) == 0 {
		return 0, nil, errorsmod.Wrap(ErrInvalidNode, "empty node")
	}

	kind := enc[0] >> 6
	if kind == 0 {
		return 0, nil, errorsmod.Wrapf(ErrInvalidNode, "unknown node header %#x", enc[0])
	}

	length, offset := int(enc[0]&partialKeyLenMask), 1
	if length == partialKeyLenMask {
		for {
			if offset >= len(enc) {
				return 0, nil, errorsmod.Wrap(ErrInvalidNode, "truncated partial key length")
			}
			next := enc[offset]
			offset++
			length += int(next)
			if next < 0xff {
				break
			}
		}
	}

	size := length/2 + length%2
	if len(enc) < offset+size {
		return 0, nil, errorsmod.Wrapf(ErrInvalidNode, "partial key of %d nibbles is truncated", length)
	}

	return kind, keyToNibbles(enc[offset : offset+size])[length%2:], nil
}

func keyToNibbles(key []byte) []byte {
	nibbles := make([]byte, 2*len(key))
	for i, b := range key {
		nibbles[2*i] = b >> 4
		nibbles[2*i+1] = b & 0x0f
	}
	return nibbles
}
