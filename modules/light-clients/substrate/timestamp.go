package substrate

import (
	"bytes"
	"math/big"

	errorsmod "cosmossdk.io/errors"
	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"

	"github.com/ComposableFi/light-clients/internal/codec"
)

const (
	// unsignedExtrinsicVersion is the version byte of an unsigned (inherent) extrinsic.
	unsignedExtrinsicVersion = 0x04
	callIndexLength          = 2
)

// TimestampExtrinsicKey is the extrinsics trie key of the first extrinsic of a block,
// SCALE(Compact(0)), which is the timestamp inherent.
var TimestampExtrinsicKey = []byte{0x00}

// DecodeExtrinsicTimestamp decodes the Timestamp::set inherent of a block and returns the
// timestamp in milliseconds. The extrinsic is laid out as a compact length prefix, the
// version byte, the two byte call index and the Compact<u64> argument.
func DecodeExtrinsicTimestamp(extrinsic []byte) (uint64, error) {
	reader := bytes.NewReader(extrinsic)
	decoder := scale.NewDecoder(reader)

	length, err := codec.DecodeCompact(*decoder)
	if err != nil {
		return 0, errorsmod.Wrapf(ErrTimestampDecode, "invalid length prefix: %v", err)
	}
	if !length.IsUint64() || length.Uint64() != uint64(reader.Len()) {
		return 0, errorsmod.Wrapf(ErrTimestampDecode, "length prefix %s does not match %d remaining bytes", length, reader.Len())
	}

	// the version byte is skipped, its format differs between runtimes
	if _, err := decoder.ReadOneByte(); err != nil {
		return 0, errorsmod.Wrap(ErrTimestampDecode, "missing version byte")
	}

	callIndex := make([]byte, callIndexLength)
	if err := decoder.Read(callIndex); err != nil {
		return 0, errorsmod.Wrap(ErrTimestampDecode, "missing call index")
	}

	millis, err := codec.DecodeCompact(*decoder)
	if err != nil {
		return 0, errorsmod.Wrapf(ErrTimestampDecode, "invalid timestamp argument: %v", err)
	}
	if !millis.IsUint64() {
		return 0, errorsmod.Wrapf(ErrTimestampDecode, "timestamp %s overflows u64", millis)
	}
	if reader.Len() != 0 {
		return 0, errorsmod.Wrapf(ErrTimestampDecode, "%d trailing bytes", reader.Len())
	}

	return millis.Uint64(), nil
}

// EncodeTimestampExtrinsic encodes an unsigned Timestamp::set(millis) extrinsic for the
// given call index, in the layout DecodeExtrinsicTimestamp reads.
func EncodeTimestampExtrinsic(palletIndex, callIndex uint8, millis uint64) []byte {
	var call bytes.Buffer
	call.Write([]byte{unsignedExtrinsicVersion, palletIndex, callIndex})
	_ = scale.NewEncoder(&call).EncodeUintCompact(*new(big.Int).SetUint64(millis))

	var buf bytes.Buffer
	_ = scale.NewEncoder(&buf).Encode(call.Bytes())
	return buf.Bytes()
}
