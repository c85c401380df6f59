package ibctesting

import (
	"sort"
	"testing"

	"github.com/ComposableFi/go-merkle-trees/merkle"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/stretchr/testify/require"

	beefytypes "github.com/ComposableFi/light-clients/modules/light-clients/11-beefy/types"
	"github.com/ComposableFi/light-clients/modules/light-clients/substrate"
)

// SiblingParaIDs are the parachains included next to the simulated parachain.
var SiblingParaIDs = []uint32{1000, 3000}

// BeefyBlock is a block of the simulated beefy relay chain and the mmr leaf it appended.
type BeefyBlock struct {
	Number    uint32
	Hash      types.H256
	Leaf      beefytypes.BeefyMmrLeaf
	LeafIndex uint64

	// Heads are the parachain heads tree leaves, ordered by para id
	Heads      [][]byte
	HeadsIndex uint32
	Parachain  *ParachainBlock
}

// BeefyChain simulates a relay chain finalized by beefy. Every block after genesis includes
// a new block of Parachain and appends a leaf to the mmr.
type BeefyChain struct {
	t      *testing.T
	host   substrate.DefaultHostFunctions
	hasher beefytypes.Keccak256

	Chain     substrate.RelayChain
	Parachain *Parachain

	SetID           uint64
	Authorities     []BeefyKey
	NextAuthorities []BeefyKey

	Blocks []BeefyBlock
	MMR    *MMR
}

// NewBeefyChain returns a beefy chain at block 1, the first block with an mmr leaf, signed
// by authorities of setID and including blocks of paraID.
func NewBeefyChain(t *testing.T, paraID uint32, setID uint64, authorities, nextAuthorities []BeefyKey) *BeefyChain {
	t.Helper()

	chain := &BeefyChain{
		t:               t,
		hasher:          beefytypes.NewKeccak256(substrate.DefaultHostFunctions{}),
		Chain:           substrate.Rococo,
		Parachain:       NewParachain(t, paraID),
		SetID:           setID,
		Authorities:     authorities,
		NextAuthorities: nextAuthorities,
		MMR:             NewMMR(t),
	}
	chain.Blocks = append(chain.Blocks, BeefyBlock{Hash: chain.blockHash(0)})
	chain.ProduceBlock()

	return chain
}

// AuthoritySet returns the commitment to keys as the authority set id.
func (chain *BeefyChain) AuthoritySet(id uint64, keys []BeefyKey) beefytypes.BeefyAuthoritySet {
	return beefytypes.NewBeefyAuthoritySet(id, uint32(len(keys)), types.NewH256(chain.merkleRoot(chain.authorityLeaves(keys))))
}

// CurrentAuthoritySet returns the commitment to the current authorities.
func (chain *BeefyChain) CurrentAuthoritySet() beefytypes.BeefyAuthoritySet {
	return chain.AuthoritySet(chain.SetID, chain.Authorities)
}

// NextAuthoritySet returns the commitment to the next authorities.
func (chain *BeefyChain) NextAuthoritySet() beefytypes.BeefyAuthoritySet {
	return chain.AuthoritySet(chain.SetID+1, chain.NextAuthorities)
}

// AuthoritiesProof returns the proof of the authorities at indices in the tree of keys.
func (chain *BeefyChain) AuthoritiesProof(keys []BeefyKey, indices []uint32) []types.H256 {
	return chain.merkleProof(chain.authorityLeaves(keys), indices)
}

func (chain *BeefyChain) authorityLeaves(keys []BeefyKey) [][]byte {
	leaves := make([][]byte, len(keys))
	for i, key := range keys {
		leaves[i] = beefytypes.AuthorityLeaf(chain.host, key.Address())
	}
	return leaves
}

func (chain *BeefyChain) merkleRoot(leaves [][]byte) []byte {
	tree, err := merkle.NewTree(chain.hasher).FromLeaves(leaves)
	require.NoError(chain.t, err)
	return tree.Root()
}

// merkleProof returns the proof of the leaves at indices, deduplicated and sorted.
func (chain *BeefyChain) merkleProof(leaves [][]byte, indices []uint32) []types.H256 {
	seen := make(map[uint32]bool, len(indices))
	sorted := make([]uint32, 0, len(indices))
	for _, index := range indices {
		if !seen[index] {
			seen[index] = true
			sorted = append(sorted, index)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	tree, err := merkle.NewTree(chain.hasher).FromLeaves(leaves)
	require.NoError(chain.t, err)
	return toH256s(tree.Proof(sorted).ProofHashes())
}

// RotateAuthorities enacts the next authorities and announces next as the following set.
func (chain *BeefyChain) RotateAuthorities(next []BeefyKey) {
	chain.SetID++
	chain.Authorities = chain.NextAuthorities
	chain.NextAuthorities = next
}

// Latest returns the latest block.
func (chain *BeefyChain) Latest() BeefyBlock {
	return chain.Blocks[len(chain.Blocks)-1]
}

// Block returns the block at number.
func (chain *BeefyChain) Block(number uint32) BeefyBlock {
	require.Less(chain.t, int(number), len(chain.Blocks), "beefy block %d not produced", number)
	return chain.Blocks[number]
}

// ProduceBlock produces a block including a new parachain block, and appends its leaf.
func (chain *BeefyChain) ProduceBlock() BeefyBlock {
	parent := chain.Latest()
	number := parent.Number + 1
	para := chain.Parachain.ProduceBlock()

	paraIDs := append([]uint32{chain.Parachain.ParaID}, SiblingParaIDs...)
	sort.Slice(paraIDs, func(i, j int) bool { return paraIDs[i] < paraIDs[j] })

	block := BeefyBlock{Number: number, Hash: chain.blockHash(number), Parachain: para}
	for i, paraID := range paraIDs {
		head := para.HeaderBz
		if paraID != chain.Parachain.ParaID {
			hash := chain.host.Blake2b256(substrate.MustEncode([]uint32{paraID, number}))
			head = hash[:]
		} else {
			block.HeadsIndex = uint32(i)
		}

		leaf, err := beefytypes.ParachainHeadsLeaf(chain.host, paraID, head)
		require.NoError(chain.t, err)
		block.Heads = append(block.Heads, leaf)
	}

	block.Leaf = beefytypes.BeefyMmrLeaf{
		ParentNumber:          parent.Number,
		ParentHash:            parent.Hash,
		BeefyNextAuthoritySet: chain.NextAuthoritySet(),
		ParachainHeads:        types.NewH256(chain.merkleRoot(block.Heads)),
	}
	leafHash, err := block.Leaf.Hash(chain.host)
	require.NoError(chain.t, err)
	block.LeafIndex = chain.MMR.Push(leafHash)

	chain.Blocks = append(chain.Blocks, block)
	return block
}

// ProduceBlocks produces n blocks.
func (chain *BeefyChain) ProduceBlocks(n int) BeefyBlock {
	for i := 0; i < n; i++ {
		chain.ProduceBlock()
	}
	return chain.Latest()
}

func (chain *BeefyChain) blockHash(number uint32) types.H256 {
	return types.H256(chain.host.Blake2b256(substrate.MustEncode(number)))
}

// MmrRoot returns the root of the mmr after the latest block.
func (chain *BeefyChain) MmrRoot() types.H256 {
	return types.NewH256(chain.MMR.Root())
}

// Commitment returns the commitment of the mmr root at the latest block, for the current set.
func (chain *BeefyChain) Commitment() beefytypes.Commitment {
	root := chain.MmrRoot()
	return beefytypes.Commitment{
		Payload:        []beefytypes.PayloadItem{{ID: beefytypes.MmrRootID, Data: root[:]}},
		BlockNumber:    chain.Latest().Number,
		ValidatorSetID: chain.SetID,
	}
}

// Sign signs commitment with the current authorities at indices.
func (chain *BeefyChain) Sign(commitment beefytypes.Commitment, indices []uint32) beefytypes.SignedCommitment {
	hash, err := commitment.Hash(chain.host)
	require.NoError(chain.t, err)

	signed := beefytypes.SignedCommitment{Commitment: commitment}
	for _, index := range indices {
		signed.Signatures = append(signed.Signatures, beefytypes.CommitmentSignature{
			Signature:      chain.Authorities[index].Sign(hash),
			AuthorityIndex: index,
		})
	}
	return signed
}

// CommitmentProof signs commitment with the current authorities at indices and proves them.
func (chain *BeefyChain) CommitmentProof(commitment beefytypes.Commitment, indices []uint32) beefytypes.CommitmentProof {
	return beefytypes.CommitmentProof{
		SignedCommitment: chain.Sign(commitment, indices),
		AuthoritiesProof: chain.AuthoritiesProof(chain.Authorities, indices),
	}
}

// MmrUpdateProof returns an update to the latest block signed by the current authorities at
// indices.
func (chain *BeefyChain) MmrUpdateProof(indices []uint32) beefytypes.MmrUpdateProof {
	latest := chain.Latest()
	return beefytypes.MmrUpdateProof{
		SignedCommitment: chain.Sign(chain.Commitment(), indices),
		LatestMmrLeaf:    latest.Leaf,
		MmrLeafIndex:     latest.LeafIndex,
		MmrProof:         toH256s(chain.MMR.Proof(latest.LeafIndex)),
		AuthoritiesProof: chain.AuthoritiesProof(chain.Authorities, indices),
	}
}

// ParachainHeader proves the parachain block included by the block at number.
func (chain *BeefyChain) ParachainHeader(number uint32) beefytypes.ParachainHeader {
	block := chain.Block(number)
	return beefytypes.ParachainHeader{
		ParachainHeader: block.Parachain.HeaderBz,
		MmrLeafPartial: beefytypes.MmrLeafPartial{
			Version:               block.Leaf.Version,
			ParentNumber:          block.Leaf.ParentNumber,
			ParentHash:            block.Leaf.ParentHash,
			BeefyNextAuthoritySet: block.Leaf.BeefyNextAuthoritySet,
		},
		ParaID:              chain.Parachain.ParaID,
		ParachainHeadsProof: chain.merkleProof(block.Heads, []uint32{block.HeadsIndex}),
		HeadsLeafIndex:      block.HeadsIndex,
		HeadsTotalCount:     uint32(len(block.Heads)),
		TimestampExtrinsic:  block.Parachain.TimestampExtrinsic,
		ExtrinsicProof:      block.Parachain.ExtrinsicProof(),
	}
}

// ParachainHeaders proves the parachain blocks included by the blocks at numbers, with a
// batch proof in the latest mmr.
func (chain *BeefyChain) ParachainHeaders(header *beefytypes.Header, numbers ...uint32) {
	leafIndices := make([]uint64, len(numbers))
	for i, number := range numbers {
		header.ParachainHeaders = append(header.ParachainHeaders, chain.ParachainHeader(number))
		leafIndices[i] = chain.Block(number).LeafIndex
	}
	header.MmrProofs = toH256s(chain.MMR.Proof(leafIndices...))
	header.MmrSize = chain.MMR.Size()
}

// Header returns an update to the latest block signed by the authorities at indices, proving
// the parachain blocks included by the blocks at parachainsAt.
func (chain *BeefyChain) Header(indices []uint32, parachainsAt ...uint32) *beefytypes.Header {
	header := &beefytypes.Header{
		MmrUpdateProof: beefytypes.SomeMmrUpdateProof(chain.MmrUpdateProof(indices)),
	}
	if len(parachainsAt) > 0 {
		chain.ParachainHeaders(header, parachainsAt...)
	}
	return header
}

// ClientState returns a beefy client state trusting the latest block.
func (chain *BeefyChain) ClientState() *beefytypes.ClientState {
	latest := chain.Latest()
	return beefytypes.NewClientState(
		chain.Chain, chain.Parachain.ParaID,
		latest.Number, chain.MmrRoot(), 0,
		chain.CurrentAuthoritySet(), chain.NextAuthoritySet(),
		latest.Parachain.Header.Number,
	)
}

// ConsensusState returns the consensus state of the parachain block included by the latest
// block.
func (chain *BeefyChain) ConsensusState() *beefytypes.ConsensusState {
	para := chain.Latest().Parachain
	return beefytypes.NewConsensusState(para.Timestamp, para.Header.StateRoot)
}

// Signers returns the first n authority indices.
func Signers(n int) []uint32 {
	indices := make([]uint32, n)
	for i := range indices {
		indices[i] = uint32(i)
	}
	return indices
}

func toH256s(hashes [][]byte) []types.H256 {
	out := make([]types.H256, len(hashes))
	for i, hash := range hashes {
		out[i] = types.NewH256(hash)
	}
	return out
}
