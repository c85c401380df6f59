package types

import (
	"fmt"

	errorsmod "cosmossdk.io/errors"
	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"

	"github.com/ComposableFi/light-clients/internal/codec"
	host "github.com/ComposableFi/light-clients/modules/core/24-host"
)

// maxConnectionHops bounds the number of connection hops decoded for a channel.
const maxConnectionHops = 8

// State defines if a channel is in one of the following states:
// CLOSED, INIT, TRYOPEN, OPEN or UNINITIALIZED.
type State uint8

const (
	// Default State
	UNINITIALIZED State = iota
	// A channel has just started the opening handshake.
	INIT
	// A channel has acknowledged the handshake step on the counterparty chain.
	TRYOPEN
	// A channel has completed the handshake. Open channels are
	// ready to send and receive packets.
	OPEN
	// A channel has been closed and can no longer be used to send or receive
	// packets.
	CLOSED
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
	case CLOSED:
		return "STATE_CLOSED"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Order defines if a channel is ORDERED or UNORDERED
type Order uint8

const (
	// zero-value for channel ordering
	NONE Order = iota
	// packets can be delivered in any order, which may differ from the order in
	// which they were sent.
	UNORDERED
	// packets are delivered exactly in the order which they were sent
	ORDERED
)

func (o Order) String() string {
	switch o {
	case NONE:
		return "ORDER_NONE_UNSPECIFIED"
	case UNORDERED:
		return "ORDER_UNORDERED"
	case ORDERED:
		return "ORDER_ORDERED"
	default:
		return fmt.Sprintf("Order(%d)", uint8(o))
	}
}

// SubsetOf returns true if the order is a subset of the provided order:
// ORDERED is a subset of ORDERED and UNORDERED, UNORDERED only of UNORDERED.
func (o Order) SubsetOf(other Order) bool {
	switch o {
	case ORDERED:
		return other == ORDERED || other == UNORDERED
	case UNORDERED:
		return other == UNORDERED
	default:
		return false
	}
}

// Counterparty defines a channel end counterparty
type Counterparty struct {
	// port on the counterparty chain which owns the other end of the channel.
	PortID string
	// channel end on the counterparty chain
	ChannelID string
}

// NewCounterparty returns a new Counterparty instance
func NewCounterparty(portID, channelID string) Counterparty {
	return Counterparty{
		PortID:    portID,
		ChannelID: channelID,
	}
}

// ValidateBasic performs a basic validation check of the identifiers
func (c Counterparty) ValidateBasic() error {
	if err := host.PortIdentifierValidator(c.PortID); err != nil {
		return errorsmod.Wrap(err, "invalid counterparty port ID")
	}
	if c.ChannelID != "" {
		if err := host.ChannelIdentifierValidator(c.ChannelID); err != nil {
			return errorsmod.Wrap(err, "invalid counterparty channel ID")
		}
	}
	return nil
}

// Channel defines pipeline for exactly-once packet delivery between specific
// modules on separate blockchains, which has at least one end capable of
// sending packets and one end capable of receiving packets.
type Channel struct {
	// current state of the channel end
	State State
	// whether the channel is ordered or unordered
	Ordering Order
	// counterparty channel end
	Counterparty Counterparty
	// list of connection identifiers, in order, along which packets sent on
	// this channel will travel
	ConnectionHops []string
	// opaque channel version, which is agreed upon during the handshake
	Version string
}

// NewChannel creates a new Channel instance
func NewChannel(
	state State, ordering Order, counterparty Counterparty,
	hops []string, version string,
) Channel {
	return Channel{
		State:          state,
		Ordering:       ordering,
		Counterparty:   counterparty,
		ConnectionHops: hops,
		Version:        version,
	}
}

// ValidateBasic performs a basic validation of the channel fields
func (ch Channel) ValidateBasic() error {
	if ch.State == UNINITIALIZED || ch.State > CLOSED {
		return errorsmod.Wrapf(ErrInvalidChannelState, "channel state %s", ch.State)
	}
	if ch.Ordering != ORDERED && ch.Ordering != UNORDERED {
		return errorsmod.Wrap(ErrInvalidChannelOrdering, ch.Ordering.String())
	}
	if len(ch.ConnectionHops) != 1 {
		return errorsmod.Wrap(
			ErrTooManyConnectionHops,
			"current IBC version only supports one connection hop",
		)
	}
	if err := host.ConnectionIdentifierValidator(ch.ConnectionHops[0]); err != nil {
		return errorsmod.Wrap(err, "invalid connection hop ID")
	}
	return ch.Counterparty.ValidateBasic()
}

// Encode implements scale.Encodeable.
func (ch Channel) Encode(encoder scale.Encoder) error {
	if err := encoder.PushByte(byte(ch.State)); err != nil {
		return err
	}
	if err := encoder.PushByte(byte(ch.Ordering)); err != nil {
		return err
	}
	if err := codec.EncodeString(encoder, ch.Counterparty.PortID); err != nil {
		return err
	}
	if err := codec.EncodeString(encoder, ch.Counterparty.ChannelID); err != nil {
		return err
	}
	if err := codec.EncodeStrings(encoder, ch.ConnectionHops); err != nil {
		return err
	}
	return codec.EncodeString(encoder, ch.Version)
}

// Decode implements scale.Decodeable.
func (ch *Channel) Decode(decoder scale.Decoder) error {
	state, err := decoder.ReadOneByte()
	if err != nil {
		return err
	}
	if State(state) > CLOSED {
		return errorsmod.Wrapf(ErrInvalidChannelState, "unknown channel state %d", state)
	}
	ordering, err := decoder.ReadOneByte()
	if err != nil {
		return err
	}
	if Order(ordering) > ORDERED {
		return errorsmod.Wrapf(ErrInvalidChannelOrdering, "unknown channel ordering %d", ordering)
	}
	portID, err := codec.DecodeString(decoder)
	if err != nil {
		return err
	}
	channelID, err := codec.DecodeString(decoder)
	if err != nil {
		return err
	}
	hops, err := codec.DecodeStrings(decoder, maxConnectionHops)
	if err != nil {
		return err
	}
	version, err := codec.DecodeString(decoder)
	if err != nil {
		return err
	}
	*ch = NewChannel(State(state), Order(ordering), NewCounterparty(portID, channelID), hops, version)
	return nil
}
