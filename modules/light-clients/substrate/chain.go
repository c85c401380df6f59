package substrate

import (
	"fmt"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
)

// RelayChain is the relay chain a light client follows. It selects the trusting period.
type RelayChain uint8

const (
	Polkadot RelayChain = iota
	Kusama
	Rococo
)

const day = 24 * time.Hour

// TrustingPeriod returns a third of the unbonding period of the relay chain.
func (c RelayChain) TrustingPeriod() time.Duration {
	switch c {
	case Polkadot:
		return 28 * day / 3
	default:
		return 7 * day / 3
	}
}

// Validate returns an error for unknown relay chains.
func (c RelayChain) Validate() error {
	if c > Rococo {
		return errorsmod.Wrapf(ErrInvalidChain, "unknown relay chain %d", uint8(c))
	}
	return nil
}

func (c RelayChain) String() string {
	switch c {
	case Polkadot:
		return "polkadot"
	case Kusama:
		return "kusama"
	case Rococo:
		return "rococo"
	default:
		return fmt.Sprintf("RelayChain(%d)", uint8(c))
	}
}

// Encode implements scale.Encodeable.
func (c RelayChain) Encode(encoder scale.Encoder) error {
	return encoder.PushByte(byte(c))
}

// Decode implements scale.Decodeable.
func (c *RelayChain) Decode(decoder scale.Decoder) error {
	b, err := decoder.ReadOneByte()
	if err != nil {
		return err
	}
	chain := RelayChain(b)
	if err := chain.Validate(); err != nil {
		return err
	}
	*c = chain
	return nil
}
