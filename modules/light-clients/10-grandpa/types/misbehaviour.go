package types

import (
	errorsmod "cosmossdk.io/errors"

	clienttypes "github.com/ComposableFi/light-clients/modules/core/02-client/types"
	"github.com/ComposableFi/light-clients/modules/core/exported"
)

var _ exported.ClientMessage = (*Misbehaviour)(nil)

// Misbehaviour is evidence of two conflicting relay blocks finalized at the same height by
// the client's authority set.
type Misbehaviour struct {
	ClientID            string
	FirstFinalityProof  FinalityProof
	SecondFinalityProof FinalityProof
}

// NewMisbehaviour creates a new Misbehaviour instance.
func NewMisbehaviour(clientID string, first, second FinalityProof) *Misbehaviour {
	return &Misbehaviour{
		ClientID:            clientID,
		FirstFinalityProof:  first,
		SecondFinalityProof: second,
	}
}

// ClientType is grandpa.
func (Misbehaviour) ClientType() string {
	return exported.Grandpa
}

// ValidateBasic checks both justifications are present and target distinct blocks.
func (misbehaviour Misbehaviour) ValidateBasic() error {
	if misbehaviour.ClientID != "" && !clienttypes.IsValidClientID(misbehaviour.ClientID) {
		return errorsmod.Wrapf(ErrInvalidMisbehaviour, "invalid client identifier %s", misbehaviour.ClientID)
	}
	if len(misbehaviour.FirstFinalityProof.Justification) == 0 {
		return errorsmod.Wrap(ErrInvalidMisbehaviour, "first justification cannot be empty")
	}
	if len(misbehaviour.SecondFinalityProof.Justification) == 0 {
		return errorsmod.Wrap(ErrInvalidMisbehaviour, "second justification cannot be empty")
	}
	if misbehaviour.FirstFinalityProof.Block == misbehaviour.SecondFinalityProof.Block {
		return errorsmod.Wrap(ErrInvalidMisbehaviour, "finality proofs target the same block")
	}

	return nil
}
