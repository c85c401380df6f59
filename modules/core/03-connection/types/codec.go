package types

import (
	"bytes"

	errorsmod "cosmossdk.io/errors"
	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"

	"github.com/ComposableFi/light-clients/internal/codec"
)

// MarshalConnectionEnd returns the SCALE encoding of a connection end, the value a
// counterparty chain commits to under the connection path.
func MarshalConnectionEnd(connection ConnectionEnd) ([]byte, error) {
	var buf bytes.Buffer
	if err := scale.NewEncoder(&buf).Encode(connection); err != nil {
		return nil, errorsmod.Wrapf(ErrInvalidConnection, "failed to encode connection end: %v", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalConnectionEnd decodes a SCALE encoded connection end.
func UnmarshalConnectionEnd(bz []byte) (ConnectionEnd, error) {
	var connection ConnectionEnd
	if err := codec.Decode(bz, &connection); err != nil {
		return ConnectionEnd{}, errorsmod.Wrapf(ErrInvalidConnection, "failed to decode connection end: %v", err)
	}
	return connection, nil
}
