package types

import (
	errorsmod "cosmossdk.io/errors"
	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
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

// MmrUpdateProof moves the client to a newer mmr root. The commitment signs the root, and
// LatestMmrLeaf, the last leaf under that root, carries the next authority set.
type MmrUpdateProof struct {
	SignedCommitment SignedCommitment
	LatestMmrLeaf    BeefyMmrLeaf
	MmrLeafIndex     uint64
	MmrProof         []types.H256
	// AuthoritiesProof proves the signers against the root of the signing authority set
	AuthoritiesProof []types.H256
}

// ValidateBasic checks the commitment is signed.
func (p MmrUpdateProof) ValidateBasic() error {
	if len(p.SignedCommitment.Signatures) == 0 {
		return errorsmod.Wrap(ErrInvalidCommitment, "commitment has no signatures")
	}
	if _, err := p.SignedCommitment.Commitment.MmrRoot(); err != nil {
		return err
	}
	return nil
}

// OptionalMmrUpdateProof is a SCALE Option<MmrUpdateProof>.
type OptionalMmrUpdateProof struct {
	HasValue bool
	Value    MmrUpdateProof
}

// SomeMmrUpdateProof wraps proof in an option.
func SomeMmrUpdateProof(proof MmrUpdateProof) OptionalMmrUpdateProof {
	return OptionalMmrUpdateProof{HasValue: true, Value: proof}
}

// Encode implements scale.Encodeable.
func (o OptionalMmrUpdateProof) Encode(encoder scale.Encoder) error {
	return encoder.EncodeOption(o.HasValue, o.Value)
}

// Decode implements scale.Decodeable.
func (o *OptionalMmrUpdateProof) Decode(decoder scale.Decoder) error {
	*o = OptionalMmrUpdateProof{}
	return decoder.DecodeOption(&o.HasValue, &o.Value)
}

// ParachainHeader proves a parachain header through the relay chain mmr: the header is a
// leaf of the parachain heads tree whose root completes MmrLeafPartial.
type ParachainHeader struct {
	// SCALE encoded parachain header
	ParachainHeader []byte
	MmrLeafPartial  MmrLeafPartial
	ParaID          uint32
	// ParachainHeadsProof proves the header at HeadsLeafIndex among HeadsTotalCount heads
	ParachainHeadsProof []types.H256
	HeadsLeafIndex      uint32
	HeadsTotalCount     uint32
	// SCALE encoded Timestamp::set extrinsic and its proof in the header's extrinsics root
	TimestampExtrinsic []byte
	ExtrinsicProof     [][]byte
}

// Header is the beefy client update message. The optional mmr update is applied first, the
// parachain headers are then proven with a single batch mmr proof against the resulting root.
type Header struct {
	MmrUpdateProof   OptionalMmrUpdateProof
	ParachainHeaders []ParachainHeader
	// MmrProofs is the batch proof of the parachain headers' mmr leaves in an mmr of MmrSize nodes
	MmrProofs []types.H256
	MmrSize   uint64
}

// ClientType defines that the Header is a beefy header.
func (Header) ClientType() string {
	return exported.Beefy
}

// ValidateBasic checks the header carries an update and its parachain proofs are complete.
func (h Header) ValidateBasic() error {
	if !h.MmrUpdateProof.HasValue && len(h.ParachainHeaders) == 0 {
		return errorsmod.Wrap(clienttypes.ErrInvalidHeader, "header has neither an mmr update nor parachain headers")
	}
	if h.MmrUpdateProof.HasValue {
		if err := h.MmrUpdateProof.Value.ValidateBasic(); err != nil {
			return errorsmod.Wrap(clienttypes.ErrInvalidHeader, err.Error())
		}
	}
	if len(h.ParachainHeaders) > 0 && h.MmrSize == 0 {
		return errorsmod.Wrap(ErrInvalidMmrProof, "mmr size cannot be zero")
	}

	for i, header := range h.ParachainHeaders {
		switch {
		case len(header.ParachainHeader) == 0:
			return errorsmod.Wrapf(ErrInvalidParachainHeader, "parachain header %d is empty", i)
		case header.HeadsLeafIndex >= header.HeadsTotalCount:
			return errorsmod.Wrapf(
				ErrInvalidParachainHeadsProof, "parachain header %d: heads leaf index %d out of %d heads",
				i, header.HeadsLeafIndex, header.HeadsTotalCount,
			)
		case len(header.ExtrinsicProof) == 0:
			return errorsmod.Wrapf(ErrInvalidParachainHeader, "parachain header %d has no extrinsic proof", i)
		}
	}

	return nil
}

// DecodeParachainHeader decodes the SCALE encoded parachain header.
func (h ParachainHeader) DecodeParachainHeader() (substrate.Header, error) {
	return substrate.DecodeHeader(h.ParachainHeader)
}
