package ibctesting

import (
	"testing"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/stretchr/testify/require"

	grandpatypes "github.com/ComposableFi/light-clients/modules/light-clients/10-grandpa/types"
	"github.com/ComposableFi/light-clients/modules/light-clients/substrate"
)

// RelayBlock is a block of the simulated relay chain. Each relay block includes the
// parachain block Parachain in its state.
type RelayBlock struct {
	Header    substrate.Header
	Hash      types.H256
	State     *StateTrie
	Parachain *ParachainBlock
}

// Vote is a precommit cast by Key for Block.
type Vote struct {
	Key   GrandpaKey
	Block RelayBlock
}

// RelayChain simulates a relay chain finalized by grandpa, with a single parachain whose
// head is stored in the relay state of every block.
type RelayChain struct {
	t    *testing.T
	host substrate.DefaultHostFunctions

	Chain substrate.RelayChain

	SetID  uint64
	Voters []GrandpaKey
	Round  uint64

	Blocks    []RelayBlock
	byHash    map[types.H256]RelayBlock
	Parachain *Parachain
}

// NewRelayChain returns a relay chain at its genesis block, including the first parachain
// block, finalized by the voters of set 0.
func NewRelayChain(t *testing.T, voters []GrandpaKey) *RelayChain {
	t.Helper()

	chain := &RelayChain{
		t:         t,
		Chain:     substrate.Rococo,
		Voters:    voters,
		Round:     1,
		byHash:    make(map[types.H256]RelayBlock),
		Parachain: NewParachain(t, DefaultParaID),
	}

	chain.Blocks = append(chain.Blocks, chain.newBlock(types.H256{}, 0, nil))
	chain.byHash[chain.Blocks[0].Hash] = chain.Blocks[0]

	return chain
}

// AuthoritySet returns the current grandpa authority set.
func (chain *RelayChain) AuthoritySet() grandpatypes.AuthoritySet {
	return grandpatypes.NewAuthoritySet(chain.SetID, GrandpaAuthorities(chain.Voters))
}

// SetVoters replaces the voters and moves to the next set id.
func (chain *RelayChain) SetVoters(voters []GrandpaKey) {
	chain.Voters = voters
	chain.SetID++
}

// Latest returns the latest relay block.
func (chain *RelayChain) Latest() RelayBlock {
	return chain.Blocks[len(chain.Blocks)-1]
}

// Block returns the relay block at number.
func (chain *RelayChain) Block(number uint32) RelayBlock {
	require.Less(chain.t, int(number), len(chain.Blocks), "relay block %d not produced", number)
	return chain.Blocks[number]
}

// SetParachainState sets a key of the parachain state. It is committed by the next
// parachain block.
func (chain *RelayChain) SetParachainState(key, value []byte) {
	chain.Parachain.SetState(key, value)
}

// ProduceBlock produces a relay block on top of the latest one, with a new parachain block.
func (chain *RelayChain) ProduceBlock(digest ...substrate.DigestItem) RelayBlock {
	parent := chain.Latest()
	block := chain.newBlock(parent.Hash, parent.Header.Number+1, digest)
	chain.Blocks = append(chain.Blocks, block)
	chain.byHash[block.Hash] = block
	return block
}

// ProduceBlocks produces n relay blocks.
func (chain *RelayChain) ProduceBlocks(n int) RelayBlock {
	for i := 0; i < n; i++ {
		chain.ProduceBlock()
	}
	return chain.Latest()
}

// Fork produces a relay block on top of the block at number that is not part of the main
// chain. The fork block includes the parachain block of the main chain at number.
func (chain *RelayChain) Fork(number uint32, salt []byte) RelayBlock {
	parent := chain.Block(number)
	header := substrate.Header{
		ParentHash:     parent.Hash,
		Number:         number + 1,
		StateRoot:      types.H256(parent.State.Root()),
		ExtrinsicsRoot: types.H256(chain.host.Blake2b256(salt)),
	}
	block := RelayBlock{
		Header:    header,
		Hash:      chain.hash(header),
		State:     parent.State,
		Parachain: parent.Parachain,
	}
	chain.byHash[block.Hash] = block
	return block
}

func (chain *RelayChain) newBlock(parentHash types.H256, number uint32, digest []substrate.DigestItem) RelayBlock {
	para := chain.Parachain.ProduceBlock()

	state := NewStateTrie(chain.t)
	state.Put(substrate.ParachainHeadsKey(chain.Parachain.ParaID), substrate.MustEncode(para.HeaderBz))

	extrinsics := NewStateTrie(chain.t)
	extrinsics.Put(substrate.TimestampExtrinsicKey, substrate.EncodeTimestampExtrinsic(TimestampPallet, TimestampCall, uint64(para.Timestamp.UnixMilli())))

	header := substrate.Header{
		ParentHash:     parentHash,
		Number:         number,
		StateRoot:      types.H256(state.Root()),
		ExtrinsicsRoot: types.H256(extrinsics.Root()),
		Digest:         digest,
	}

	return RelayBlock{
		Header:    header,
		Hash:      chain.hash(header),
		State:     state,
		Parachain: para,
	}
}

func (chain *RelayChain) hash(header substrate.Header) types.H256 {
	hash, err := substrate.HeaderHash(chain.host, header)
	require.NoError(chain.t, err)
	return hash
}

// ClientState returns a grandpa client state trusting the latest relay block.
func (chain *RelayChain) ClientState() *grandpatypes.ClientState {
	latest := chain.Latest()
	return grandpatypes.NewClientState(
		chain.Chain, chain.Parachain.ParaID,
		latest.Header.Number, latest.Hash, latest.Parachain.Header.Number,
		chain.AuthoritySet(),
	)
}

// ConsensusState returns the consensus state of the parachain block included by the latest
// relay block.
func (chain *RelayChain) ConsensusState() *grandpatypes.ConsensusState {
	para := chain.Latest().Parachain
	return grandpatypes.NewConsensusState(para.Timestamp, para.Header.StateRoot)
}

// SignPrecommit signs a precommit for block in the current round and set.
func (chain *RelayChain) SignPrecommit(key GrandpaKey, block RelayBlock) grandpatypes.SignedPrecommit {
	precommit := grandpatypes.Precommit{TargetHash: block.Hash, TargetNumber: block.Header.Number}
	return grandpatypes.SignedPrecommit{
		Precommit: precommit,
		Signature: key.Sign(grandpatypes.PrecommitSigningPayload(precommit, chain.Round, chain.SetID)),
		ID:        key.ID(),
	}
}

// Justify returns a justification of target signed by every voter.
func (chain *RelayChain) Justify(target RelayBlock) grandpatypes.Justification {
	votes := make([]Vote, len(chain.Voters))
	for i, voter := range chain.Voters {
		votes[i] = Vote{Key: voter, Block: target}
	}
	return chain.JustifyVotes(target, votes)
}

// JustifyVotes returns a justification of target made of votes. The vote ancestries hold
// the headers between target and every voted block.
func (chain *RelayChain) JustifyVotes(target RelayBlock, votes []Vote) grandpatypes.Justification {
	justification := grandpatypes.Justification{
		Round: chain.Round,
		Commit: grandpatypes.Commit{
			TargetHash:   target.Hash,
			TargetNumber: target.Header.Number,
		},
	}

	included := make(map[types.H256]bool)
	for _, vote := range votes {
		justification.Commit.Precommits = append(justification.Commit.Precommits, chain.SignPrecommit(vote.Key, vote.Block))

		for block := vote.Block; block.Hash != target.Hash && block.Header.Number > target.Header.Number; {
			if !included[block.Hash] {
				included[block.Hash] = true
				justification.VotesAncestries = append(justification.VotesAncestries, block.Header)
			}
			parent, ok := chain.byHash[block.Header.ParentHash]
			require.True(chain.t, ok, "unknown parent of voted block %d", block.Header.Number)
			block = parent
		}
	}

	return justification
}

// EncodeJustification returns the SCALE encoding of justification.
func (chain *RelayChain) EncodeJustification(justification grandpatypes.Justification) []byte {
	bz, err := substrate.Encode(justification)
	require.NoError(chain.t, err)
	return bz
}

// FinalityProof returns a proof finalizing the block at number, with the relay headers
// after trusted.
func (chain *RelayChain) FinalityProof(trusted, number uint32, justification grandpatypes.Justification) grandpatypes.FinalityProof {
	require.Less(chain.t, trusted, number)

	proof := grandpatypes.FinalityProof{
		Block:         chain.Block(number).Hash,
		Justification: chain.EncodeJustification(justification),
	}
	for n := trusted + 1; n <= number; n++ {
		proof.UnknownHeaders = append(proof.UnknownHeaders, chain.Block(n).Header)
	}

	return proof
}

// ParachainHeaderProof proves the parachain block included by the relay block.
func (chain *RelayChain) ParachainHeaderProof(block RelayBlock) grandpatypes.ParachainHeaderProof {
	return grandpatypes.ParachainHeaderProof{
		RelayHash:          block.Hash,
		ParachainHeader:    block.Parachain.HeaderBz,
		StateProof:         block.State.Proof(substrate.ParachainHeadsKey(chain.Parachain.ParaID)),
		TimestampExtrinsic: block.Parachain.TimestampExtrinsic,
		ExtrinsicProof:     block.Parachain.ExtrinsicProof(),
	}
}

// Header returns a client update from the trusted relay block to the block at number,
// justified by every voter and proving the parachain blocks of the given relay blocks.
func (chain *RelayChain) Header(trusted, number uint32, parachainsAt ...uint32) *grandpatypes.Header {
	header := &grandpatypes.Header{
		FinalityProof: chain.FinalityProof(trusted, number, chain.Justify(chain.Block(number))),
	}
	for _, at := range parachainsAt {
		header.ParachainHeaders = append(header.ParachainHeaders, chain.ParachainHeaderProof(chain.Block(at)))
	}
	return header
}
