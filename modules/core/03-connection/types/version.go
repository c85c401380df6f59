package types

import (
	"strings"

	errorsmod "cosmossdk.io/errors"
	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"

	"github.com/ComposableFi/light-clients/internal/codec"
)

// maxFeatures bounds the number of features decoded for a single version.
const maxFeatures = 16

var (
	// DefaultIBCVersionIdentifier is the IBC v1.0.0 protocol version identifier
	DefaultIBCVersionIdentifier = "1"

	// DefaultIBCVersion represents the latest supported version of IBC used
	// in connection version negotiation.
	DefaultIBCVersion = NewVersion(DefaultIBCVersionIdentifier, []string{"ORDER_ORDERED", "ORDER_UNORDERED"})
)

// Version defines the versioning scheme used to negotiate the IBC version in
// the connection handshake.
type Version struct {
	// unique version identifier
	Identifier string
	// list of features compatible with the specified identifier
	Features []string
}

// NewVersion returns a new instance of Version.
func NewVersion(identifier string, features []string) Version {
	return Version{
		Identifier: identifier,
		Features:   features,
	}
}

// GetIdentifier implements the VersionI interface
func (version Version) GetIdentifier() string {
	return version.Identifier
}

// GetFeatures implements the VersionI interface
func (version Version) GetFeatures() []string {
	return version.Features
}

// ValidateVersion does basic validation of the version identifier and
// features.
func ValidateVersion(version Version) error {
	if strings.TrimSpace(version.Identifier) == "" {
		return errorsmod.Wrap(ErrInvalidVersion, "version identifier cannot be blank")
	}
	for i, feature := range version.Features {
		if strings.TrimSpace(feature) == "" {
			return errorsmod.Wrapf(ErrInvalidVersion, "feature cannot be blank, index %d", i)
		}
	}

	return nil
}

// Encode implements scale.Encodeable.
func (version Version) Encode(encoder scale.Encoder) error {
	if err := codec.EncodeString(encoder, version.Identifier); err != nil {
		return err
	}
	return codec.EncodeStrings(encoder, version.Features)
}

// Decode implements scale.Decodeable.
func (version *Version) Decode(decoder scale.Decoder) error {
	identifier, err := codec.DecodeString(decoder)
	if err != nil {
		return err
	}
	features, err := codec.DecodeStrings(decoder, maxFeatures)
	if err != nil {
		return err
	}
	*version = NewVersion(identifier, features)
	return nil
}
