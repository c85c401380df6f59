package types

import (
	"math"
	"math/bits"

	errorsmod "cosmossdk.io/errors"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"

	"github.com/ComposableFi/light-clients/modules/core/exported"
	"github.com/ComposableFi/light-clients/modules/light-clients/substrate"
)

// BeefyMmrLeaf is the leaf appended to the relay chain mmr by every block.
type BeefyMmrLeaf struct {
	Version uint8
	// ParentNumber and ParentHash identify the parent of the block that appended the leaf
	ParentNumber          uint32
	ParentHash            types.H256
	BeefyNextAuthoritySet BeefyAuthoritySet
	// ParachainHeads is the merkle root of the parachain heads included by the block
	ParachainHeads types.H256
}

// Hash returns the keccak hash of the SCALE encoded leaf, as stored in the mmr.
func (l BeefyMmrLeaf) Hash(host exported.HostFunctions) ([]byte, error) {
	bz, err := substrate.Encode(l)
	if err != nil {
		return nil, err
	}
	hash := host.Keccak256(bz)
	return hash[:], nil
}

// MmrLeafPartial is a beefy mmr leaf without its parachain heads root, which is rebuilt from
// a parachain heads proof.
type MmrLeafPartial struct {
	Version               uint8
	ParentNumber          uint32
	ParentHash            types.H256
	BeefyNextAuthoritySet BeefyAuthoritySet
}

// Leaf completes the partial leaf with the parachain heads root.
func (p MmrLeafPartial) Leaf(parachainHeads types.H256) BeefyMmrLeaf {
	return BeefyMmrLeaf{
		Version:               p.Version,
		ParentNumber:          p.ParentNumber,
		ParentHash:            p.ParentHash,
		BeefyNextAuthoritySet: p.BeefyNextAuthoritySet,
		ParachainHeads:        parachainHeads,
	}
}

type parachainHead struct {
	ParaID uint32
	Head   []byte
}

// ParachainHeadsLeaf returns the parachain heads merkle tree leaf of a para: the keccak hash
// of the SCALE encoded (para id, head data) pair.
func ParachainHeadsLeaf(host exported.HostFunctions, paraID uint32, head []byte) ([]byte, error) {
	bz, err := substrate.Encode(parachainHead{ParaID: paraID, Head: head})
	if err != nil {
		return nil, err
	}
	hash := host.Keccak256(bz)
	return hash[:], nil
}

// NumPeaks returns the number of peaks of an mmr with leafCount leaves.
func NumPeaks(leafCount uint64) uint64 {
	return uint64(bits.OnesCount64(leafCount))
}

// MmrSize returns the number of nodes of an mmr with leafCount leaves.
func MmrSize(leafCount uint64) uint64 {
	return 2*leafCount - NumPeaks(leafCount)
}

// GetLeafIndexForBlockNumber returns the mmr leaf index of the leaf appended by the block
// at blockNumber. Leaves start at the block after the beefy activation block.
func GetLeafIndexForBlockNumber(activationBlock, blockNumber uint32) (uint64, error) {
	if activationBlock == 0 {
		if blockNumber == 0 {
			return 0, errorsmod.Wrap(ErrInvalidLeafIndex, "genesis block has no mmr leaf")
		}
		return uint64(blockNumber) - 1, nil
	}

	// the pallet computes activation - (block + 1), kept as is to match on chain indexes
	if uint64(blockNumber)+1 > uint64(activationBlock) {
		return 0, errorsmod.Wrapf(
			ErrInvalidLeafIndex, "block %d is not before activation block %d", blockNumber, activationBlock,
		)
	}
	return uint64(activationBlock) - (uint64(blockNumber) + 1), nil
}

// GetBlockNumberForLeaf returns the number of the block that appended the leaf at leafIndex.
// It inverts GetLeafIndexForBlockNumber.
func GetBlockNumberForLeaf(activationBlock uint32, leafIndex uint64) (uint32, error) {
	if activationBlock == 0 {
		if leafIndex >= math.MaxUint32 {
			return 0, errorsmod.Wrapf(ErrInvalidLeafIndex, "leaf %d is past the last block", leafIndex)
		}
		return uint32(leafIndex) + 1, nil
	}

	if leafIndex >= uint64(activationBlock) {
		return 0, errorsmod.Wrapf(
			ErrInvalidLeafIndex, "leaf %d is not appended before activation block %d", leafIndex, activationBlock,
		)
	}
	return activationBlock - 1 - uint32(leafIndex), nil
}
