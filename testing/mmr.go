package ibctesting

import (
	"testing"

	"github.com/ComposableFi/go-merkle-trees/mmr"
	"github.com/stretchr/testify/require"

	beefytypes "github.com/ComposableFi/light-clients/modules/light-clients/11-beefy/types"
	"github.com/ComposableFi/light-clients/modules/light-clients/substrate"
)

// MMR is an append only merkle mountain range of leaf hashes kept in an in-memory store.
// Peaks are bagged right to left.
type MMR struct {
	t      *testing.T
	hasher beefytypes.Keccak256
	store  mmr.MemStore
	size   uint64
	leaves [][]byte
}

// NewMMR returns an empty mmr hashing with keccak-256.
func NewMMR(t *testing.T) *MMR {
	return &MMR{
		t:      t,
		hasher: beefytypes.NewKeccak256(substrate.DefaultHostFunctions{}),
		store:  mmr.NewMemStore(),
	}
}

func (m *MMR) tree() *mmr.MMR {
	return mmr.NewMMR(m.size, m.store, nil, m.hasher)
}

// Push appends a leaf hash and returns its leaf index.
func (m *MMR) Push(leafHash []byte) uint64 {
	tree := m.tree()
	pos, err := tree.Push(leafHash)
	require.NoError(m.t, err)
	tree.Commit()

	index := uint64(len(m.leaves))
	require.Equal(m.t, mmr.LeafIndexToPos(index), pos)
	m.size = tree.MMRSize()
	m.leaves = append(m.leaves, leafHash)

	return index
}

// Size returns the number of nodes.
func (m *MMR) Size() uint64 {
	return m.size
}

// Leaf returns the leaf hash at leafIndex.
func (m *MMR) Leaf(leafIndex uint64) []byte {
	require.Less(m.t, leafIndex, uint64(len(m.leaves)), "leaf %d not pushed", leafIndex)
	return m.leaves[leafIndex]
}

// Root returns the root of the mmr.
func (m *MMR) Root() []byte {
	root, err := m.tree().GetRoot()
	require.NoError(m.t, err)
	return root
}

// Proof returns the batch proof of the leaves at leafIndices in the current mmr.
func (m *MMR) Proof(leafIndices ...uint64) [][]byte {
	positions := make([]uint64, len(leafIndices))
	for i, index := range leafIndices {
		require.Less(m.t, index, uint64(len(m.leaves)), "leaf %d not pushed", index)
		positions[i] = mmr.LeafIndexToPos(index)
	}

	proof, err := m.tree().GenProof(positions)
	require.NoError(m.t, err)
	return proof.ProofItems()
}
