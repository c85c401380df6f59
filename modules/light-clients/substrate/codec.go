package substrate

import (
	"bytes"

	errorsmod "cosmossdk.io/errors"
	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"

	"github.com/ComposableFi/light-clients/internal/codec"
)

// Encode returns the SCALE encoding of value.
func Encode(value interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := scale.NewEncoder(&buf).Encode(value); err != nil {
		return nil, errorsmod.Wrapf(ErrInvalidEncoding, "failed to encode %T: %v", value, err)
	}
	return buf.Bytes(), nil
}

// MustEncode is Encode that panics on error. It is meant for values whose encoding
// cannot fail, such as fixed size arrays and plain integers.
func MustEncode(value interface{}) []byte {
	bz, err := Encode(value)
	if err != nil {
		panic(err)
	}
	return bz
}

// Decode decodes the SCALE encoded bz into target. Trailing bytes are an error.
func Decode(bz []byte, target interface{}) error {
	if err := codec.Decode(bz, target); err != nil {
		return errorsmod.Wrapf(ErrInvalidEncoding, "failed to decode %T: %v", target, err)
	}
	return nil
}
