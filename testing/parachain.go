package ibctesting

import (
	"sort"
	"testing"
	"time"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/stretchr/testify/require"

	"github.com/ComposableFi/light-clients/modules/light-clients/substrate"
)

const (
	// DefaultParaID is the para id of the simulated parachain.
	DefaultParaID = uint32(2000)

	// TimestampPallet and TimestampCall are the call index of Timestamp::set.
	TimestampPallet = uint8(3)
	TimestampCall   = uint8(0)

	// BlockTime is the time between two parachain blocks.
	BlockTime = 12 * time.Second
)

// GenesisTime is the timestamp of the first parachain block.
var GenesisTime = time.Date(2022, time.April, 15, 0, 0, 0, 0, time.UTC)

// ParachainBlock is a block of the simulated parachain with its state and extrinsics tries.
type ParachainBlock struct {
	Header    substrate.Header
	HeaderBz  []byte
	Hash      types.H256
	Timestamp time.Time

	TimestampExtrinsic []byte
	Extrinsics         *StateTrie
	State              *StateTrie
}

// ExtrinsicProof returns the proof of the timestamp extrinsic in the extrinsics root.
func (b *ParachainBlock) ExtrinsicProof() [][]byte {
	return b.Extrinsics.Proof(substrate.TimestampExtrinsicKey)
}

// StateProof returns a proof of keys in the parachain state root.
func (b *ParachainBlock) StateProof(keys ...[]byte) [][]byte {
	return b.State.Proof(keys...)
}

// Parachain simulates the blocks of a parachain. Every block sets its timestamp with a
// Timestamp::set inherent and commits the state set so far.
type Parachain struct {
	t    *testing.T
	host substrate.DefaultHostFunctions

	ParaID uint32
	Blocks []*ParachainBlock
	state  map[string][]byte
}

// NewParachain returns a parachain without blocks.
func NewParachain(t *testing.T, paraID uint32) *Parachain {
	return &Parachain{
		t:      t,
		ParaID: paraID,
		state:  make(map[string][]byte),
	}
}

// SetState sets a key of the parachain state. It is committed by the next block.
func (p *Parachain) SetState(key, value []byte) {
	p.state[string(key)] = append([]byte{}, value...)
}

// ProduceBlock produces the next parachain block.
func (p *Parachain) ProduceBlock() *ParachainBlock {
	var (
		number     = uint32(len(p.Blocks) + 1)
		parentHash types.H256
		timestamp  = GenesisTime.Add(time.Duration(number-1) * BlockTime)
	)
	if len(p.Blocks) > 0 {
		parentHash = p.Blocks[len(p.Blocks)-1].Hash
	}

	state := NewStateTrie(p.t)
	keys := make([]string, 0, len(p.state))
	for key := range p.state {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		state.Put([]byte(key), p.state[key])
	}

	timestampExtrinsic := substrate.EncodeTimestampExtrinsic(TimestampPallet, TimestampCall, uint64(timestamp.UnixMilli()))
	extrinsics := NewStateTrie(p.t)
	extrinsics.Put(substrate.TimestampExtrinsicKey, timestampExtrinsic)

	header := substrate.Header{
		ParentHash:     parentHash,
		Number:         number,
		StateRoot:      types.H256(state.Root()),
		ExtrinsicsRoot: types.H256(extrinsics.Root()),
	}
	headerBz, err := substrate.Encode(header)
	require.NoError(p.t, err)

	block := &ParachainBlock{
		Header:             header,
		HeaderBz:           headerBz,
		Hash:               types.H256(p.host.Blake2b256(headerBz)),
		Timestamp:          timestamp,
		TimestampExtrinsic: timestampExtrinsic,
		Extrinsics:         extrinsics,
		State:              state,
	}
	p.Blocks = append(p.Blocks, block)

	return block
}

// Latest returns the latest parachain block.
func (p *Parachain) Latest() *ParachainBlock {
	require.NotEmpty(p.t, p.Blocks, "no parachain block produced")
	return p.Blocks[len(p.Blocks)-1]
}
