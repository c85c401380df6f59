package types

import (
	"bytes"
	"fmt"
	"reflect"

	errorsmod "cosmossdk.io/errors"
	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"

	"github.com/ComposableFi/light-clients/internal/codec"
	"github.com/ComposableFi/light-clients/modules/core/exported"
)

// ClientVariant is the SCALE enum index of a light client in the tagged client encoding.
type ClientVariant uint8

const (
	VariantGrandpa    ClientVariant = 0
	VariantBeefy      ClientVariant = 1
	VariantTendermint ClientVariant = 2
	VariantMock       ClientVariant = 3
)

var _ exported.Codec = (*Codec)(nil)

type registration struct {
	variant           ClientVariant
	clientType        string
	newClientState    func() exported.ClientState
	newConsensusState func() exported.ConsensusState
	messages          map[uint8]func() exported.ClientMessage
	messageIndex      map[reflect.Type]uint8
}

// Codec encodes client states, consensus states and client messages as a tagged sum:
// one variant byte followed by the SCALE encoding of the concrete value. Client messages
// carry a second byte selecting the message kind within the variant.
type Codec struct {
	byVariant map[ClientVariant]*registration
	byType    map[string]*registration
}

// NewCodec returns an empty codec. Light client packages add themselves with RegisterClient.
func NewCodec() *Codec {
	return &Codec{
		byVariant: make(map[ClientVariant]*registration),
		byType:    make(map[string]*registration),
	}
}

// RegisterClient registers the client and consensus state constructors of a client variant.
// It panics if the variant or client type is registered twice.
func (c *Codec) RegisterClient(
	variant ClientVariant,
	clientType string,
	newClientState func() exported.ClientState,
	newConsensusState func() exported.ConsensusState,
) {
	if _, ok := c.byVariant[variant]; ok {
		panic(fmt.Sprintf("client variant %d already registered", variant))
	}
	if _, ok := c.byType[clientType]; ok {
		panic(fmt.Sprintf("client type %s already registered", clientType))
	}

	reg := &registration{
		variant:           variant,
		clientType:        clientType,
		newClientState:    newClientState,
		newConsensusState: newConsensusState,
		messages:          make(map[uint8]func() exported.ClientMessage),
		messageIndex:      make(map[reflect.Type]uint8),
	}
	c.byVariant[variant] = reg
	c.byType[clientType] = reg
}

// RegisterClientMessage registers a client message kind under the given index of an already
// registered client type.
func (c *Codec) RegisterClientMessage(clientType string, index uint8, newClientMessage func() exported.ClientMessage) {
	reg, ok := c.byType[clientType]
	if !ok {
		panic(fmt.Sprintf("client type %s not registered", clientType))
	}
	if _, ok := reg.messages[index]; ok {
		panic(fmt.Sprintf("client message %d of %s already registered", index, clientType))
	}

	reg.messages[index] = newClientMessage
	reg.messageIndex[reflect.TypeOf(newClientMessage())] = index
}

// HasClientType returns true if the client type has been registered.
func (c *Codec) HasClientType(clientType string) bool {
	_, ok := c.byType[clientType]
	return ok
}

// MarshalClientState implements exported.Codec.
func (c *Codec) MarshalClientState(clientState exported.ClientState) ([]byte, error) {
	reg, err := c.lookupType(clientState.ClientType())
	if err != nil {
		return nil, err
	}

	return encodeTagged([]byte{byte(reg.variant)}, clientState)
}

// UnmarshalClientState implements exported.Codec.
func (c *Codec) UnmarshalClientState(bz []byte) (exported.ClientState, error) {
	reg, payload, err := c.lookupVariant(bz)
	if err != nil {
		return nil, err
	}

	clientState := reg.newClientState()
	if err := decodeStrict(payload, clientState); err != nil {
		return nil, errorsmod.Wrapf(ErrInvalidClient, "failed to decode %s client state: %v", reg.clientType, err)
	}

	return clientState, nil
}

// MarshalConsensusState implements exported.Codec.
func (c *Codec) MarshalConsensusState(consensusState exported.ConsensusState) ([]byte, error) {
	reg, err := c.lookupType(consensusState.ClientType())
	if err != nil {
		return nil, err
	}

	return encodeTagged([]byte{byte(reg.variant)}, consensusState)
}

// UnmarshalConsensusState implements exported.Codec.
func (c *Codec) UnmarshalConsensusState(bz []byte) (exported.ConsensusState, error) {
	reg, payload, err := c.lookupVariant(bz)
	if err != nil {
		return nil, err
	}

	consensusState := reg.newConsensusState()
	if err := decodeStrict(payload, consensusState); err != nil {
		return nil, errorsmod.Wrapf(ErrInvalidConsensus, "failed to decode %s consensus state: %v", reg.clientType, err)
	}

	return consensusState, nil
}

// MarshalClientMessage implements exported.Codec.
func (c *Codec) MarshalClientMessage(clientMsg exported.ClientMessage) ([]byte, error) {
	reg, err := c.lookupType(clientMsg.ClientType())
	if err != nil {
		return nil, err
	}

	index, ok := reg.messageIndex[reflect.TypeOf(clientMsg)]
	if !ok {
		return nil, errorsmod.Wrapf(ErrInvalidClientMessage, "client message %T not registered for %s", clientMsg, reg.clientType)
	}

	return encodeTagged([]byte{byte(reg.variant), index}, clientMsg)
}

// UnmarshalClientMessage implements exported.Codec.
func (c *Codec) UnmarshalClientMessage(bz []byte) (exported.ClientMessage, error) {
	reg, payload, err := c.lookupVariant(bz)
	if err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, errorsmod.Wrap(ErrInvalidClientMessage, "missing client message kind")
	}

	newClientMessage, ok := reg.messages[payload[0]]
	if !ok {
		return nil, errorsmod.Wrapf(ErrInvalidClientMessage, "unknown %s client message kind %d", reg.clientType, payload[0])
	}

	clientMsg := newClientMessage()
	if err := decodeStrict(payload[1:], clientMsg); err != nil {
		return nil, errorsmod.Wrapf(ErrInvalidClientMessage, "failed to decode %s client message: %v", reg.clientType, err)
	}

	return clientMsg, nil
}

func (c *Codec) lookupType(clientType string) (*registration, error) {
	reg, ok := c.byType[clientType]
	if !ok {
		return nil, errorsmod.Wrapf(ErrClientTypeNotFound, "client type %s not registered", clientType)
	}

	return reg, nil
}

func (c *Codec) lookupVariant(bz []byte) (*registration, []byte, error) {
	if len(bz) == 0 {
		return nil, nil, errorsmod.Wrap(ErrInvalidCodec, "empty encoding")
	}

	variant := ClientVariant(bz[0])
	if variant == VariantTendermint {
		return nil, nil, errorsmod.Wrap(ErrInvalidClientType, "tendermint client variant is not supported")
	}

	reg, ok := c.byVariant[variant]
	if !ok {
		return nil, nil, errorsmod.Wrapf(ErrInvalidCodec, "unknown client variant %d", variant)
	}

	return reg, bz[1:], nil
}

func encodeTagged(tag []byte, value interface{}) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(tag)
	if err := scale.NewEncoder(&buf).Encode(value); err != nil {
		return nil, errorsmod.Wrapf(ErrInvalidCodec, "failed to encode %T: %v", value, err)
	}

	return buf.Bytes(), nil
}

// decodeStrict decodes bz into target and rejects trailing bytes.
func decodeStrict(bz []byte, target interface{}) error {
	return codec.Decode(bz, target)
}

// MustMarshalClientState attempts to encode a ClientState object and returns the
// raw encoded bytes. It panics on error.
func MustMarshalClientState(cdc exported.Codec, clientState exported.ClientState) []byte {
	bz, err := cdc.MarshalClientState(clientState)
	if err != nil {
		panic(fmt.Errorf("failed to encode client state: %w", err))
	}

	return bz
}

// MustUnmarshalClientState attempts to decode and return a ClientState object from
// raw encoded bytes. It panics on error.
func MustUnmarshalClientState(cdc exported.Codec, bz []byte) exported.ClientState {
	clientState, err := cdc.UnmarshalClientState(bz)
	if err != nil {
		panic(fmt.Errorf("failed to decode client state: %w", err))
	}

	return clientState
}

// MustMarshalConsensusState attempts to encode a ConsensusState object and returns the
// raw encoded bytes. It panics on error.
func MustMarshalConsensusState(cdc exported.Codec, consensusState exported.ConsensusState) []byte {
	bz, err := cdc.MarshalConsensusState(consensusState)
	if err != nil {
		panic(fmt.Errorf("failed to encode consensus state: %w", err))
	}

	return bz
}
