package substrate

import (
	"fmt"
	"math"
	"math/big"

	errorsmod "cosmossdk.io/errors"
	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"

	"github.com/ComposableFi/light-clients/internal/codec"
	"github.com/ComposableFi/light-clients/modules/core/exported"
)

// ConsensusEngineID identifies the consensus engine a digest item belongs to.
type ConsensusEngineID [4]byte

var (
	// GrandpaEngineID is the engine id of GRANDPA consensus logs.
	GrandpaEngineID = ConsensusEngineID{'F', 'R', 'N', 'K'}
	// BeefyEngineID is the engine id of BEEFY consensus logs.
	BeefyEngineID = ConsensusEngineID{'B', 'E', 'E', 'F'}
	// AuraEngineID is the engine id of AURA pre-runtime digests.
	AuraEngineID = ConsensusEngineID{'a', 'u', 'r', 'a'}
)

// Digest item variant indexes.
const (
	DigestItemOther                     = 0
	DigestItemChangesTrieRoot           = 2
	DigestItemConsensus                 = 4
	DigestItemSeal                      = 5
	DigestItemPreRuntime                = 6
	DigestItemChangesTrieSignal         = 7
	DigestItemRuntimeEnvironmentUpdated = 8
)

// EngineMessage is a message addressed to, or produced by, a consensus engine.
type EngineMessage struct {
	EngineID ConsensusEngineID
	Data     []byte
}

// DigestItem is a single item of a header digest. Exactly one of the Is* flags is set.
type DigestItem struct {
	IsOther                     bool
	AsOther                     []byte
	IsChangesTrieRoot           bool
	AsChangesTrieRoot           types.H256
	IsConsensus                 bool
	AsConsensus                 EngineMessage
	IsSeal                      bool
	AsSeal                      EngineMessage
	IsPreRuntime                bool
	AsPreRuntime                EngineMessage
	IsChangesTrieSignal         bool
	AsChangesTrieSignal         []byte
	IsRuntimeEnvironmentUpdated bool
}

// Encode implements scale.Encodeable.
func (d DigestItem) Encode(encoder scale.Encoder) error {
	var err error
	switch {
	case d.IsOther:
		if err = encoder.PushByte(DigestItemOther); err == nil {
			err = encoder.Encode(d.AsOther)
		}
	case d.IsChangesTrieRoot:
		if err = encoder.PushByte(DigestItemChangesTrieRoot); err == nil {
			err = encoder.Encode(d.AsChangesTrieRoot)
		}
	case d.IsConsensus:
		if err = encoder.PushByte(DigestItemConsensus); err == nil {
			err = encoder.Encode(d.AsConsensus)
		}
	case d.IsSeal:
		if err = encoder.PushByte(DigestItemSeal); err == nil {
			err = encoder.Encode(d.AsSeal)
		}
	case d.IsPreRuntime:
		if err = encoder.PushByte(DigestItemPreRuntime); err == nil {
			err = encoder.Encode(d.AsPreRuntime)
		}
	case d.IsChangesTrieSignal:
		if err = encoder.PushByte(DigestItemChangesTrieSignal); err == nil {
			err = encoder.Encode(d.AsChangesTrieSignal)
		}
	case d.IsRuntimeEnvironmentUpdated:
		err = encoder.PushByte(DigestItemRuntimeEnvironmentUpdated)
	default:
		err = fmt.Errorf("digest item has no variant set")
	}
	return err
}

// Decode implements scale.Decodeable.
func (d *DigestItem) Decode(decoder scale.Decoder) error {
	index, err := decoder.ReadOneByte()
	if err != nil {
		return err
	}

	*d = DigestItem{}
	switch index {
	case DigestItemOther:
		d.IsOther = true
		return decoder.Decode(&d.AsOther)
	case DigestItemChangesTrieRoot:
		d.IsChangesTrieRoot = true
		return decoder.Decode(&d.AsChangesTrieRoot)
	case DigestItemConsensus:
		d.IsConsensus = true
		return decoder.Decode(&d.AsConsensus)
	case DigestItemSeal:
		d.IsSeal = true
		return decoder.Decode(&d.AsSeal)
	case DigestItemPreRuntime:
		d.IsPreRuntime = true
		return decoder.Decode(&d.AsPreRuntime)
	case DigestItemChangesTrieSignal:
		d.IsChangesTrieSignal = true
		return decoder.Decode(&d.AsChangesTrieSignal)
	case DigestItemRuntimeEnvironmentUpdated:
		d.IsRuntimeEnvironmentUpdated = true
		return nil
	default:
		return fmt.Errorf("unknown digest item variant %d", index)
	}
}

// NewConsensusDigest returns a consensus digest item for the given engine.
func NewConsensusDigest(engineID ConsensusEngineID, data []byte) DigestItem {
	return DigestItem{IsConsensus: true, AsConsensus: EngineMessage{EngineID: engineID, Data: data}}
}

// Header is a Substrate block header. The block number is SCALE encoded as Compact<u32>.
type Header struct {
	ParentHash     types.H256
	Number         uint32
	StateRoot      types.H256
	ExtrinsicsRoot types.H256
	Digest         []DigestItem
}

// Encode implements scale.Encodeable.
func (h Header) Encode(encoder scale.Encoder) error {
	if err := encoder.Encode(h.ParentHash); err != nil {
		return err
	}
	if err := encoder.EncodeUintCompact(*new(big.Int).SetUint64(uint64(h.Number))); err != nil {
		return err
	}
	if err := encoder.Encode(h.StateRoot); err != nil {
		return err
	}
	if err := encoder.Encode(h.ExtrinsicsRoot); err != nil {
		return err
	}
	return encoder.Encode(h.Digest)
}

// Decode implements scale.Decodeable.
func (h *Header) Decode(decoder scale.Decoder) error {
	if err := decoder.Decode(&h.ParentHash); err != nil {
		return err
	}
	number, err := codec.DecodeCompact(decoder)
	if err != nil {
		return err
	}
	if !number.IsUint64() || number.Uint64() > math.MaxUint32 {
		return fmt.Errorf("block number %s overflows u32", number)
	}
	h.Number = uint32(number.Uint64())
	if err := decoder.Decode(&h.StateRoot); err != nil {
		return err
	}
	if err := decoder.Decode(&h.ExtrinsicsRoot); err != nil {
		return err
	}
	return decoder.Decode(&h.Digest)
}

// DecodeHeader decodes a SCALE encoded header.
func DecodeHeader(bz []byte) (Header, error) {
	var header Header
	if err := Decode(bz, &header); err != nil {
		return Header{}, errorsmod.Wrapf(ErrInvalidHeader, "%v", err)
	}
	return header, nil
}

// ConsensusDigests returns the payloads of the consensus digest items produced by engineID,
// in digest order.
func (h Header) ConsensusDigests(engineID ConsensusEngineID) [][]byte {
	var logs [][]byte
	for _, item := range h.Digest {
		if item.IsConsensus && item.AsConsensus.EngineID == engineID {
			logs = append(logs, item.AsConsensus.Data)
		}
	}
	return logs
}

// HeaderHash returns the BLAKE2-256 hash of the SCALE encoded header.
func HeaderHash(host exported.HostFunctions, header Header) (types.H256, error) {
	bz, err := Encode(header)
	if err != nil {
		return types.H256{}, errorsmod.Wrapf(ErrInvalidHeader, "%v", err)
	}
	return types.H256(host.Blake2b256(bz)), nil
}
