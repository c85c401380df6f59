package types

import (
	"fmt"

	errorsmod "cosmossdk.io/errors"
	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"

	"github.com/ComposableFi/light-clients/internal/codec"
	ibcerrors "github.com/ComposableFi/light-clients/internal/errors"
	commitmenttypes "github.com/ComposableFi/light-clients/modules/core/23-commitment/types"
	host "github.com/ComposableFi/light-clients/modules/core/24-host"
)

// maxVersions bounds the number of versions decoded for a single connection end.
const maxVersions = 16

// State defines if a connection is in one of the following states:
// INIT, TRYOPEN, OPEN or UNINITIALIZED. It is SCALE encoded as a single byte.
type State uint8

const (
	// Default State
	UNINITIALIZED State = iota
	// A connection end has just started the opening handshake.
	INIT
	// A connection end has acknowledged the handshake step on the counterparty
	// chain.
	TRYOPEN
	// A connection end has completed the handshake.
	OPEN
)

func (s State) String() string {
	switch s {
	case UNINITIALIZED:
		return "STATE_UNINITIALIZED_UNSPECIFIED"
	case INIT:
		return "STATE_INIT"
	case TRYOPEN:
		return "STATE_TRYOPEN"
	case OPEN:
		return "STATE_OPEN"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Encode implements scale.Encodeable.
func (s State) Encode(encoder scale.Encoder) error {
	return encoder.PushByte(byte(s))
}

// Decode implements scale.Decodeable.
func (s *State) Decode(decoder scale.Decoder) error {
	b, err := decoder.ReadOneByte()
	if err != nil {
		return err
	}
	if State(b) > OPEN {
		return errorsmod.Wrapf(ErrInvalidConnectionState, "unknown connection state %d", b)
	}
	*s = State(b)
	return nil
}

// Counterparty defines the counterparty chain associated with a connection end.
type Counterparty struct {
	// identifies the client on the counterparty chain associated with a given
	// connection.
	ClientID string
	// identifies the connection end on the counterparty chain associated with a
	// given connection.
	ConnectionID string
	// commitment merkle prefix of the counterparty chain.
	Prefix commitmenttypes.MerklePrefix
}

// NewCounterparty creates a new Counterparty instance.
func NewCounterparty(clientID, connectionID string, prefix commitmenttypes.MerklePrefix) Counterparty {
	return Counterparty{
		ClientID:     clientID,
		ConnectionID: connectionID,
		Prefix:       prefix,
	}
}

// ValidateBasic performs a basic validation check of the identifiers and prefix
func (c Counterparty) ValidateBasic() error {
	if c.ConnectionID != "" {
		if err := host.ConnectionIdentifierValidator(c.ConnectionID); err != nil {
			return errorsmod.Wrap(err, "invalid counterparty connection ID")
		}
	}
	if err := host.ClientIdentifierValidator(c.ClientID); err != nil {
		return errorsmod.Wrap(err, "invalid counterparty client ID")
	}
	if c.Prefix.Empty() {
		return errorsmod.Wrap(ErrInvalidCounterparty, "counterparty prefix cannot be empty")
	}
	return nil
}

// Encode implements scale.Encodeable.
func (c Counterparty) Encode(encoder scale.Encoder) error {
	if err := codec.EncodeString(encoder, c.ClientID); err != nil {
		return err
	}
	if err := codec.EncodeString(encoder, c.ConnectionID); err != nil {
		return err
	}
	return encoder.Encode(c.Prefix.KeyPrefix)
}

// Decode implements scale.Decodeable.
func (c *Counterparty) Decode(decoder scale.Decoder) error {
	clientID, err := codec.DecodeString(decoder)
	if err != nil {
		return err
	}
	connectionID, err := codec.DecodeString(decoder)
	if err != nil {
		return err
	}
	var prefix []byte
	if err := decoder.Decode(&prefix); err != nil {
		return err
	}
	*c = NewCounterparty(clientID, connectionID, commitmenttypes.NewMerklePrefix(prefix))
	return nil
}

// ConnectionEnd defines a stateful object on a chain connected to another
// separate one.
type ConnectionEnd struct {
	// client associated with this connection.
	ClientID string
	// IBC version which can be utilised to determine encodings or protocols for
	// channels or packets utilising this connection.
	Versions []Version
	// current state of the connection end.
	State State
	// counterparty chain associated with this connection.
	Counterparty Counterparty
	// delay period that must pass before a consensus state can be used for
	// packet-verification NOTE: delay period logic is only implemented by some
	// clients.
	DelayPeriod uint64
}

// NewConnectionEnd creates a new ConnectionEnd instance.
func NewConnectionEnd(state State, clientID string, counterparty Counterparty, versions []Version, delayPeriod uint64) ConnectionEnd {
	return ConnectionEnd{
		ClientID:     clientID,
		Versions:     versions,
		State:        state,
		Counterparty: counterparty,
		DelayPeriod:  delayPeriod,
	}
}

// GetState implements the Connection interface
func (c ConnectionEnd) GetState() int32 {
	return int32(c.State)
}

// GetClientID implements the Connection interface
func (c ConnectionEnd) GetClientID() string {
	return c.ClientID
}

// GetDelayPeriod implements the Connection interface
func (c ConnectionEnd) GetDelayPeriod() uint64 {
	return c.DelayPeriod
}

// ValidateBasic implements the Connection interface.
// NOTE: the protocol supports that the connection and client IDs match the
// counterparty's.
func (c ConnectionEnd) ValidateBasic() error {
	if err := host.ClientIdentifierValidator(c.ClientID); err != nil {
		return errorsmod.Wrap(err, "invalid client ID")
	}
	if len(c.Versions) == 0 {
		return errorsmod.Wrap(ibcerrors.ErrInvalidVersion, "empty connection versions")
	}
	for _, version := range c.Versions {
		if err := ValidateVersion(version); err != nil {
			return err
		}
	}
	return c.Counterparty.ValidateBasic()
}

// Encode implements scale.Encodeable.
func (c ConnectionEnd) Encode(encoder scale.Encoder) error {
	if err := codec.EncodeString(encoder, c.ClientID); err != nil {
		return err
	}
	if err := codec.EncodeLength(encoder, len(c.Versions)); err != nil {
		return err
	}
	for _, version := range c.Versions {
		if err := version.Encode(encoder); err != nil {
			return err
		}
	}
	if err := c.State.Encode(encoder); err != nil {
		return err
	}
	if err := c.Counterparty.Encode(encoder); err != nil {
		return err
	}
	return encoder.Encode(c.DelayPeriod)
}

// Decode implements scale.Decodeable.
func (c *ConnectionEnd) Decode(decoder scale.Decoder) error {
	clientID, err := codec.DecodeString(decoder)
	if err != nil {
		return err
	}
	n, err := codec.DecodeLength(decoder, maxVersions)
	if err != nil {
		return err
	}
	versions := make([]Version, n)
	for i := range versions {
		if err := versions[i].Decode(decoder); err != nil {
			return err
		}
	}
	var (
		state        State
		counterparty Counterparty
		delayPeriod  uint64
	)
	if err := state.Decode(decoder); err != nil {
		return err
	}
	if err := counterparty.Decode(decoder); err != nil {
		return err
	}
	if err := decoder.Decode(&delayPeriod); err != nil {
		return err
	}
	*c = NewConnectionEnd(state, clientID, counterparty, versions, delayPeriod)
	return nil
}
