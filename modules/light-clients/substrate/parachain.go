package substrate

import (
	"bytes"

	errorsmod "cosmossdk.io/errors"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"

	"github.com/ComposableFi/light-clients/modules/core/23-commitment/trie"
	"github.com/ComposableFi/light-clients/modules/core/exported"
)

// ParachainHeaderProof proves that a parachain header is the head of its parachain in
// some relay chain state, and carries the header's timestamp inherent.
type ParachainHeaderProof struct {
	// SCALE encoded parachain header
	ParachainHeader []byte
	// relay chain state proof of Paras::Heads(para_id)
	StateProof [][]byte
	// SCALE encoded Timestamp::set extrinsic of the parachain block
	TimestampExtrinsic []byte
	// proof of TimestampExtrinsic in the parachain header's extrinsics root
	ExtrinsicProof [][]byte
}

// VerifiedParachainHeader is a parachain header whose inclusion and timestamp were proven.
type VerifiedParachainHeader struct {
	Header          Header
	Hash            types.H256
	TimestampMillis uint64
}

// TimestampNanos returns the header timestamp in nanoseconds.
func (v VerifiedParachainHeader) TimestampNanos() uint64 {
	return v.TimestampMillis * 1_000_000
}

// VerifyParachainHeadInclusion checks that the relay chain state committed to by
// relayStateRoot stores header as the head of paraID, and returns the decoded header.
func VerifyParachainHeadInclusion(
	host exported.HostFunctions,
	relayStateRoot types.H256,
	paraID uint32,
	header []byte,
	stateProof [][]byte,
) (Header, error) {
	value, err := trie.ReadProofCheck(host, relayStateRoot[:], stateProof, ParachainHeadsKey(paraID))
	if err != nil {
		return Header{}, errorsmod.Wrapf(err, "parachain %d heads proof", paraID)
	}
	if value == nil {
		return Header{}, errorsmod.Wrapf(ErrParachainHeadNotFound, "para id %d", paraID)
	}

	// Paras::Heads stores HeadData, itself a Vec<u8> of the encoded header
	var head []byte
	if err := Decode(value, &head); err != nil {
		return Header{}, errorsmod.Wrapf(ErrParachainHeadMismatch, "stored head data: %v", err)
	}
	if !bytes.Equal(head, header) {
		return Header{}, errorsmod.Wrapf(ErrParachainHeadMismatch, "para id %d", paraID)
	}

	return DecodeHeader(header)
}

// VerifyTimestampExtrinsic checks that extrinsic is the first extrinsic under extrinsicsRoot
// and returns the timestamp it sets, in milliseconds.
func VerifyTimestampExtrinsic(host exported.HostFunctions, extrinsicsRoot types.H256, extrinsic []byte, proof [][]byte) (uint64, error) {
	ok, err := trie.VerifyMembership(host, extrinsicsRoot[:], proof, TimestampExtrinsicKey, extrinsic)
	if err != nil {
		return 0, errorsmod.Wrap(err, "timestamp extrinsic proof")
	}
	if !ok {
		return 0, ErrTimestampNotFound
	}

	return DecodeExtrinsicTimestamp(extrinsic)
}

// VerifyParachainHeader verifies the inclusion of a parachain header in the relay chain
// state and its timestamp inherent.
func VerifyParachainHeader(
	host exported.HostFunctions,
	relayStateRoot types.H256,
	paraID uint32,
	proof ParachainHeaderProof,
) (VerifiedParachainHeader, error) {
	header, err := VerifyParachainHeadInclusion(host, relayStateRoot, paraID, proof.ParachainHeader, proof.StateProof)
	if err != nil {
		return VerifiedParachainHeader{}, err
	}

	millis, err := VerifyTimestampExtrinsic(host, header.ExtrinsicsRoot, proof.TimestampExtrinsic, proof.ExtrinsicProof)
	if err != nil {
		return VerifiedParachainHeader{}, err
	}

	return VerifiedParachainHeader{
		Header:          header,
		Hash:            types.H256(host.Blake2b256(proof.ParachainHeader)),
		TimestampMillis: millis,
	}, nil
}
