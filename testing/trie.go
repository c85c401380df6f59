package ibctesting

import (
	"bytes"
	"sync"
	"testing"

	"github.com/ChainSafe/chaindb"
	"github.com/ChainSafe/gossamer/lib/trie"
	"github.com/stretchr/testify/require"
)

// nodeDBs holds one in-memory node database per test. Nodes are content addressed so every
// trie of a test can share it.
var nodeDBs sync.Map

func nodeDB(t *testing.T) chaindb.Database {
	if db, ok := nodeDBs.Load(t); ok {
		return db.(chaindb.Database)
	}

	db, err := chaindb.NewBadgerDB(&chaindb.Config{
		DataDir:  t.TempDir(),
		InMemory: true,
	})
	require.NoError(t, err)
	nodeDBs.Store(t, db)
	t.Cleanup(func() {
		nodeDBs.Delete(t)
		_ = db.Close()
	})

	return db
}

// StateTrie is a substrate storage trie whose nodes are committed to an in-memory database
// to generate storage proofs.
type StateTrie struct {
	t    *testing.T
	trie *trie.Trie
}

// NewStateTrie returns an empty trie.
func NewStateTrie(t *testing.T) *StateTrie {
	return &StateTrie{t: t, trie: trie.NewEmptyTrie()}
}

// Put sets the value of key.
func (s *StateTrie) Put(key, value []byte) {
	s.trie.Put(key, value)
}

// Get returns the value of key, nil if it is absent.
func (s *StateTrie) Get(key []byte) []byte {
	return s.trie.Get(key)
}

// Root returns the trie root.
func (s *StateTrie) Root() [32]byte {
	root, err := s.trie.Hash()
	require.NoError(s.t, err)
	return root
}

// Proof returns the nodes visited by the lookups of keys. An absent key is proven by the
// lookup of the stored key sharing its longest prefix, which visits every node the lookup
// of the absent key reaches.
func (s *StateTrie) Proof(keys ...[]byte) [][]byte {
	root := s.Root()
	if root == trie.EmptyHash {
		return [][]byte{}
	}

	db := nodeDB(s.t)
	require.NoError(s.t, s.trie.Store(db))
	// a root shorter than a hash is stored under its encoding
	enc, _, err := s.trie.RootNode().EncodeAndHash()
	require.NoError(s.t, err)
	require.NoError(s.t, db.Put(root[:], enc))

	lookups := make([][]byte, len(keys))
	for i, key := range keys {
		lookups[i] = s.closestKey(key)
	}
	proof, err := trie.GenerateProof(root[:], lookups, db)
	require.NoError(s.t, err)

	return proof
}

func (s *StateTrie) closestKey(key []byte) []byte {
	var (
		closest []byte
		longest = -1
	)
	target := nibbles(key)
	for stored := range s.trie.Entries() {
		candidate := []byte(stored)
		if bytes.Equal(candidate, key) {
			return candidate
		}
		if n := commonPrefix(target, nibbles(candidate)); n > longest {
			closest, longest = candidate, n
		}
	}
	return closest
}

func nibbles(key []byte) []byte {
	out := make([]byte, 0, 2*len(key))
	for _, b := range key {
		out = append(out, b>>4, b&0x0f)
	}
	return out
}

func commonPrefix(a, b []byte) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}
