package types

import (
	"bytes"
	"encoding/binary"

	errorsmod "cosmossdk.io/errors"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"

	"github.com/ComposableFi/light-clients/modules/core/exported"
	"github.com/ComposableFi/light-clients/modules/light-clients/substrate"
)

// precommitMessage is the index of the Precommit variant of a grandpa vote message.
const precommitMessage = 1

// Precommit is a grandpa vote to finalize a block.
type Precommit struct {
	TargetHash   types.H256
	TargetNumber uint32
}

// SignedPrecommit is a precommit with the voter's signature.
type SignedPrecommit struct {
	Precommit Precommit
	Signature [64]byte
	ID        AuthorityID
}

// Commit is a set of precommits finalizing a target block.
type Commit struct {
	TargetHash   types.H256
	TargetNumber uint32
	Precommits   []SignedPrecommit
}

// Justification proves the finality of the commit target. VotesAncestries holds the headers
// linking every precommit target to the commit target.
type Justification struct {
	Round           uint64
	Commit          Commit
	VotesAncestries []substrate.Header
}

// DecodeJustification decodes a SCALE encoded grandpa justification.
func DecodeJustification(bz []byte) (Justification, error) {
	var justification Justification
	if err := substrate.Decode(bz, &justification); err != nil {
		return Justification{}, errorsmod.Wrap(ErrInvalidJustification, err.Error())
	}
	return justification, nil
}

// PrecommitSigningPayload returns the message a voter signs for precommit:
// SCALE((Message::Precommit(precommit), round, setID)).
func PrecommitSigningPayload(precommit Precommit, round, setID uint64) []byte {
	var buf bytes.Buffer
	buf.WriteByte(precommitMessage)
	buf.Write(precommit.TargetHash[:])

	var scratch [8]byte
	binary.LittleEndian.PutUint32(scratch[:4], precommit.TargetNumber)
	buf.Write(scratch[:4])
	binary.LittleEndian.PutUint64(scratch[:], round)
	buf.Write(scratch[:])
	binary.LittleEndian.PutUint64(scratch[:], setID)
	buf.Write(scratch[:])

	return buf.Bytes()
}

// Verify checks the justification finalizes its commit target under the given authority set:
// the commit must carry a supermajority of precommits for descendants of the target, every
// signature must be valid for the set id and the vote ancestries must contain exactly the
// headers needed to route each precommit to the lowest voted block.
func (j Justification) Verify(host exported.HostFunctions, set AuthoritySet) error {
	if err := set.ValidateBasic(); err != nil {
		return err
	}

	ancestry, err := NewAncestryChain(host, j.VotesAncestries)
	if err != nil {
		return err
	}

	if err := j.validateCommit(ancestry, set); err != nil {
		return err
	}

	// base is the lowest voted block
	base := j.Commit.Precommits[0].Precommit
	for _, signed := range j.Commit.Precommits[1:] {
		if signed.Precommit.TargetNumber < base.TargetNumber {
			base = signed.Precommit
		}
	}

	for i, signed := range j.Commit.Precommits {
		payload := PrecommitSigningPayload(signed.Precommit, j.Round, set.ID)
		if !host.Ed25519Verify(signed.Signature, payload, signed.ID) {
			return errorsmod.Wrapf(ErrInvalidSignature, "precommit %d by %x", i, signed.ID)
		}
	}

	visited := make(map[types.H256]struct{})
	for _, signed := range j.Commit.Precommits {
		target := signed.Precommit.TargetHash
		if target == base.TargetHash {
			continue
		}

		route, err := ancestry.Ancestry(base.TargetHash, target)
		if err != nil {
			return err
		}
		visited[target] = struct{}{}
		for _, hash := range route {
			visited[hash] = struct{}{}
		}
	}

	hashes := ancestry.Hashes()
	if len(visited) != len(hashes) {
		return errorsmod.Wrapf(ErrInvalidAncestry, "vote ancestries hold %d headers, %d are used", len(hashes), len(visited))
	}
	for hash := range visited {
		if _, ok := hashes[hash]; !ok {
			return errorsmod.Wrapf(ErrInvalidAncestry, "voted block %s missing from vote ancestries", hash.Hex())
		}
	}

	return nil
}

// validateCommit checks every precommit is cast by a voter of the set for the commit target or
// one of its descendants, and that the distinct voters reach the threshold weight.
func (j Justification) validateCommit(ancestry AncestryChain, set AuthoritySet) error {
	if len(j.Commit.Precommits) == 0 {
		return errorsmod.Wrap(ErrInvalidCommit, "commit has no precommits")
	}

	var (
		weight uint64
		voted  = make(map[AuthorityID]bool, len(j.Commit.Precommits))
	)
	for i, signed := range j.Commit.Precommits {
		voterWeight, ok := set.Weight(signed.ID)
		if !ok {
			return errorsmod.Wrapf(ErrInvalidCommit, "precommit %d by unknown voter %x", i, signed.ID)
		}
		if !ancestry.IsEqualOrDescendantOf(j.Commit.TargetHash, signed.Precommit.TargetHash) {
			return errorsmod.Wrapf(
				ErrInvalidCommit, "precommit %d target %s is not a descendant of commit target %s",
				i, signed.Precommit.TargetHash.Hex(), j.Commit.TargetHash.Hex(),
			)
		}

		// an equivocating voter counts once
		if !voted[signed.ID] {
			voted[signed.ID] = true
			weight += voterWeight
		}
	}

	if threshold := set.Threshold(); weight < threshold {
		return errorsmod.Wrapf(ErrInvalidCommit, "precommit weight %d is below threshold %d", weight, threshold)
	}

	return nil
}
