package types

import (
	errorsmod "cosmossdk.io/errors"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"

	clienttypes "github.com/ComposableFi/light-clients/modules/core/02-client/types"
	"github.com/ComposableFi/light-clients/modules/core/exported"
	"github.com/ComposableFi/light-clients/modules/light-clients/substrate"
)

var (
	_ exported.ClientMessage = (*Header)(nil)
	_ exported.ClientMessage = (*AppliedHeader)(nil)
)

// AppliedHeader is a Header verified against a client state, with the client state and the
// consensus states it produces.
type AppliedHeader struct {
	*Header

	clientState     ClientState
	consensusStates []ConsensusStateWithHeight
}

// FinalityProof proves the finality of Block. UnknownHeaders are the relay headers the client
// has not seen yet, oldest first, ending with Block.
type FinalityProof struct {
	Block types.H256
	// SCALE encoded Justification
	Justification  []byte
	UnknownHeaders []substrate.Header
}

// ValidateBasic checks the proof is not empty.
func (p FinalityProof) ValidateBasic() error {
	if len(p.Justification) == 0 {
		return errorsmod.Wrap(ErrInvalidFinalityProof, "justification cannot be empty")
	}
	if len(p.UnknownHeaders) == 0 {
		return errorsmod.Wrap(ErrInvalidFinalityProof, "unknown headers cannot be empty")
	}
	return nil
}

// ParachainHeaderProof proves a parachain header against the state root of the relay header
// RelayHash, which must be one of the headers finalized by the finality proof.
type ParachainHeaderProof struct {
	RelayHash          types.H256
	ParachainHeader    []byte
	StateProof         [][]byte
	TimestampExtrinsic []byte
	ExtrinsicProof     [][]byte
}

// Proof returns the relay independent part of the proof.
func (p ParachainHeaderProof) Proof() substrate.ParachainHeaderProof {
	return substrate.ParachainHeaderProof{
		ParachainHeader:    p.ParachainHeader,
		StateProof:         p.StateProof,
		TimestampExtrinsic: p.TimestampExtrinsic,
		ExtrinsicProof:     p.ExtrinsicProof,
	}
}

// Header is the grandpa client update message: a relay chain finality proof and the
// parachain headers proven against the newly finalized relay blocks.
type Header struct {
	FinalityProof    FinalityProof
	ParachainHeaders []ParachainHeaderProof
}

// ClientType defines that the Header is a grandpa finality proof.
func (Header) ClientType() string {
	return exported.Grandpa
}

// ValidateBasic checks the finality proof and parachain proofs are not empty.
func (h Header) ValidateBasic() error {
	if err := h.FinalityProof.ValidateBasic(); err != nil {
		return errorsmod.Wrap(clienttypes.ErrInvalidHeader, err.Error())
	}

	for i, proof := range h.ParachainHeaders {
		switch {
		case len(proof.ParachainHeader) == 0:
			return errorsmod.Wrapf(ErrInvalidParachainHeader, "parachain header %d is empty", i)
		case len(proof.StateProof) == 0:
			return errorsmod.Wrapf(ErrInvalidParachainHeader, "parachain header %d has no state proof", i)
		case len(proof.ExtrinsicProof) == 0:
			return errorsmod.Wrapf(ErrInvalidParachainHeader, "parachain header %d has no extrinsic proof", i)
		}
	}

	return nil
}
