package types

import (
	"bytes"

	errorsmod "cosmossdk.io/errors"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"

	clienttypes "github.com/ComposableFi/light-clients/modules/core/02-client/types"
	"github.com/ComposableFi/light-clients/modules/core/exported"
	"github.com/ComposableFi/light-clients/modules/light-clients/substrate"
)

var _ exported.ClientMessage = (*Misbehaviour)(nil)

// CommitmentProof is a signed commitment with the merkle proof of its signers.
type CommitmentProof struct {
	SignedCommitment SignedCommitment
	AuthoritiesProof []types.H256
}

// Misbehaviour is evidence of two different commitments signed for the same relay block by
// an authority set known to the client.
type Misbehaviour struct {
	ClientID string
	First    CommitmentProof
	Second   CommitmentProof
}

// NewMisbehaviour creates a new Misbehaviour instance.
func NewMisbehaviour(clientID string, first, second CommitmentProof) *Misbehaviour {
	return &Misbehaviour{ClientID: clientID, First: first, Second: second}
}

// ClientType is beefy.
func (Misbehaviour) ClientType() string {
	return exported.Beefy
}

// ValidateBasic checks both commitments are signed, for the same block, and differ.
func (misbehaviour Misbehaviour) ValidateBasic() error {
	if misbehaviour.ClientID != "" && !clienttypes.IsValidClientID(misbehaviour.ClientID) {
		return errorsmod.Wrapf(ErrInvalidMisbehaviour, "invalid client identifier %s", misbehaviour.ClientID)
	}

	first, second := misbehaviour.First.SignedCommitment, misbehaviour.Second.SignedCommitment
	if len(first.Signatures) == 0 || len(second.Signatures) == 0 {
		return errorsmod.Wrap(ErrInvalidMisbehaviour, "commitments must be signed")
	}
	if first.Commitment.BlockNumber != second.Commitment.BlockNumber {
		return errorsmod.Wrapf(
			ErrInvalidMisbehaviour, "commitments are for different blocks %d and %d",
			first.Commitment.BlockNumber, second.Commitment.BlockNumber,
		)
	}

	firstBz, err := substrate.Encode(first.Commitment)
	if err != nil {
		return errorsmod.Wrap(ErrInvalidMisbehaviour, err.Error())
	}
	secondBz, err := substrate.Encode(second.Commitment)
	if err != nil {
		return errorsmod.Wrap(ErrInvalidMisbehaviour, err.Error())
	}
	if bytes.Equal(firstBz, secondBz) {
		return errorsmod.Wrap(ErrInvalidMisbehaviour, "commitments are equal")
	}

	return nil
}
