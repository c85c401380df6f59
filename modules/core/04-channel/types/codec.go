package types

import (
	"bytes"

	errorsmod "cosmossdk.io/errors"
	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"

	"github.com/ComposableFi/light-clients/internal/codec"
)

// MarshalChannel returns the SCALE encoding of a channel end, the value a counterparty
// chain commits to under the channel path.
func MarshalChannel(channel Channel) ([]byte, error) {
	var buf bytes.Buffer
	if err := scale.NewEncoder(&buf).Encode(channel); err != nil {
		return nil, errorsmod.Wrapf(ErrInvalidChannel, "failed to encode channel: %v", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalChannel decodes a SCALE encoded channel end.
func UnmarshalChannel(bz []byte) (Channel, error) {
	var channel Channel
	if err := codec.Decode(bz, &channel); err != nil {
		return Channel{}, errorsmod.Wrapf(ErrInvalidChannel, "failed to decode channel: %v", err)
	}
	return channel, nil
}
