package types

import (
	"sort"

	errorsmod "cosmossdk.io/errors"
	"github.com/ComposableFi/go-merkle-trees/merkle"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"

	"github.com/ComposableFi/light-clients/modules/core/exported"
	"github.com/ComposableFi/light-clients/modules/light-clients/substrate"
)

// MmrRootID is the payload id of the mmr root hash.
var MmrRootID = [2]byte{'m', 'h'}

// PayloadItem is a value signed by the beefy validators, tagged by a two byte id.
type PayloadItem struct {
	ID   [2]byte
	Data []byte
}

// Commitment is the message signed by the beefy validators.
type Commitment struct {
	Payload        []PayloadItem
	BlockNumber    uint32
	ValidatorSetID uint64
}

// MmrRoot returns the mmr root hash carried by the payload.
func (c Commitment) MmrRoot() (types.H256, error) {
	for _, item := range c.Payload {
		if item.ID != MmrRootID {
			continue
		}
		if len(item.Data) != len(types.H256{}) {
			return types.H256{}, errorsmod.Wrapf(ErrInvalidCommitment, "mmr root has %d bytes", len(item.Data))
		}
		return types.NewH256(item.Data), nil
	}
	return types.H256{}, errorsmod.Wrap(ErrInvalidCommitment, "payload has no mmr root")
}

// Hash returns the keccak hash of the SCALE encoded commitment, the message signed by
// the validators.
func (c Commitment) Hash(host exported.HostFunctions) ([32]byte, error) {
	bz, err := substrate.Encode(c)
	if err != nil {
		return [32]byte{}, errorsmod.Wrap(ErrInvalidCommitment, err.Error())
	}
	return host.Keccak256(bz), nil
}

// CommitmentSignature is the signature of the authority at AuthorityIndex in the set.
type CommitmentSignature struct {
	Signature      [65]byte
	AuthorityIndex uint32
}

// SignedCommitment is a commitment and a sparse list of validator signatures.
type SignedCommitment struct {
	Commitment Commitment
	Signatures []CommitmentSignature
}

// VerifySignatures checks the signatures of the commitment are cast by distinct members of
// set, proven by authoritiesProof, and reach the set threshold. Repeated indexes count once.
func (sc SignedCommitment) VerifySignatures(host exported.HostFunctions, set BeefyAuthoritySet, authoritiesProof []types.H256) error {
	if err := set.ValidateBasic(); err != nil {
		return err
	}

	threshold := set.Threshold()
	if uint32(len(sc.Signatures)) < threshold {
		return errorsmod.Wrapf(
			ErrInvalidSignatureThreshold, "%d signatures, set %d requires %d", len(sc.Signatures), set.ID, threshold,
		)
	}

	hash, err := sc.Commitment.Hash(host)
	if err != nil {
		return err
	}

	seen := make(map[uint32]bool, len(sc.Signatures))
	leaves := make([]merkle.Leaf, 0, len(sc.Signatures))
	for _, sig := range sc.Signatures {
		if seen[sig.AuthorityIndex] {
			continue
		}
		if sig.AuthorityIndex >= set.Len {
			return errorsmod.Wrapf(ErrInvalidAuthorityProof, "authority index %d out of set of %d", sig.AuthorityIndex, set.Len)
		}
		seen[sig.AuthorityIndex] = true

		pubKey, err := host.Secp256k1EcdsaRecover(sig.Signature, hash)
		if err != nil {
			return errorsmod.Wrapf(ErrInvalidSignature, "authority %d: %v", sig.AuthorityIndex, err)
		}
		address, err := AuthorityAddress(host, pubKey)
		if err != nil {
			return errorsmod.Wrapf(err, "authority %d", sig.AuthorityIndex)
		}

		leaves = append(leaves, merkle.Leaf{
			Hash:  AuthorityLeaf(host, address),
			Index: sig.AuthorityIndex,
		})
	}
	sort.Slice(leaves, func(i, j int) bool { return leaves[i].Index < leaves[j].Index })

	ok, err := merkle.NewProof(leaves, h256sToBytes(authoritiesProof), set.Len, NewKeccak256(host)).Verify(set.Root[:])
	if err != nil {
		return errorsmod.Wrap(ErrInvalidAuthorityProof, err.Error())
	}
	if !ok {
		return errorsmod.Wrapf(ErrInvalidAuthorityProof, "signers are not members of set %d", set.ID)
	}

	if uint32(len(leaves)) < threshold {
		return errorsmod.Wrapf(
			ErrInvalidSignatureThreshold, "%d distinct signers, set %d requires %d", len(leaves), set.ID, threshold,
		)
	}

	return nil
}

func h256sToBytes(hashes []types.H256) [][]byte {
	out := make([][]byte, len(hashes))
	for i := range hashes {
		out[i] = hashes[i][:]
	}
	return out
}
