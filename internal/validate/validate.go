package validate

import (
	errorsmod "cosmossdk.io/errors"

	host "github.com/ComposableFi/light-clients/modules/core/24-host"
)

// PacketIdentifiers validates that the portID and channelID a packet proof is keyed under are valid identifiers.
func PacketIdentifiers(portID, channelID string) error {
	if err := host.PortIdentifierValidator(portID); err != nil {
		return errorsmod.Wrap(err, "invalid port identifier")
	}

	if err := host.ChannelIdentifierValidator(channelID); err != nil {
		return errorsmod.Wrap(err, "invalid channel identifier")
	}

	return nil
}
