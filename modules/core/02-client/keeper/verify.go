package keeper

import (
	"encoding/binary"
	"math"
	"time"

	errorsmod "cosmossdk.io/errors"
	metrics "github.com/armon/go-metrics"

	"github.com/ComposableFi/light-clients/internal/validate"
	"github.com/ComposableFi/light-clients/modules/core/02-client/types"
	connectiontypes "github.com/ComposableFi/light-clients/modules/core/03-connection/types"
	channeltypes "github.com/ComposableFi/light-clients/modules/core/04-channel/types"
	commitmenttypes "github.com/ComposableFi/light-clients/modules/core/23-commitment/types"
	host "github.com/ComposableFi/light-clients/modules/core/24-host"
	"github.com/ComposableFi/light-clients/modules/core/exported"
	coremetrics "github.com/ComposableFi/light-clients/modules/core/metrics"
)

// VerifyClientState verifies a proof of a client state of the running machine
// stored on the target machine
func (k Keeper) VerifyClientState(
	ctx exported.Context,
	connection connectiontypes.ConnectionEnd,
	height exported.Height,
	proof []byte,
	clientState exported.ClientState,
) error {
	merklePath := commitmenttypes.NewMerklePath(host.FullClientStatePath(connection.Counterparty.ClientID))

	bz, err := k.cdc.MarshalClientState(clientState)
	if err != nil {
		return err
	}

	// skip delay period checks for non-packet processing verification
	if err := k.verifyMembership(ctx, connection, height, 0, 0, proof, merklePath, bz); err != nil {
		return errorsmod.Wrapf(err, "failed client state verification for client (%s)", connection.ClientID)
	}

	return nil
}

// VerifyClientConsensusState verifies a proof of the consensus state of the
// specified client stored on the target machine.
func (k Keeper) VerifyClientConsensusState(
	ctx exported.Context,
	connection connectiontypes.ConnectionEnd,
	height exported.Height,
	consensusHeight exported.Height,
	proof []byte,
	consensusState exported.ConsensusState,
) error {
	merklePath := commitmenttypes.NewMerklePath(host.FullConsensusStatePath(connection.Counterparty.ClientID, consensusHeight))

	bz, err := k.cdc.MarshalConsensusState(consensusState)
	if err != nil {
		return err
	}

	if err := k.verifyMembership(ctx, connection, height, 0, 0, proof, merklePath, bz); err != nil {
		return errorsmod.Wrapf(err, "failed consensus state verification for client (%s)", connection.ClientID)
	}

	return nil
}

// VerifyConnectionState verifies a proof of the connection state of the
// specified connection end stored on the target machine.
func (k Keeper) VerifyConnectionState(
	ctx exported.Context,
	connection connectiontypes.ConnectionEnd,
	height exported.Height,
	proof []byte,
	connectionID string,
	counterpartyConnection connectiontypes.ConnectionEnd, // opposite connection
) error {
	if err := host.ConnectionIdentifierValidator(connectionID); err != nil {
		return err
	}

	merklePath := commitmenttypes.NewMerklePath(host.ConnectionPath(connectionID))

	bz, err := connectiontypes.MarshalConnectionEnd(counterpartyConnection)
	if err != nil {
		return err
	}

	if err := k.verifyMembership(ctx, connection, height, 0, 0, proof, merklePath, bz); err != nil {
		return errorsmod.Wrapf(err, "failed connection state verification for client (%s)", connection.ClientID)
	}

	return nil
}

// VerifyChannelState verifies a proof of the channel state of the specified
// channel end, under the specified port, stored on the target machine.
func (k Keeper) VerifyChannelState(
	ctx exported.Context,
	connection connectiontypes.ConnectionEnd,
	height exported.Height,
	proof []byte,
	portID,
	channelID string,
	channel channeltypes.Channel,
) error {
	if err := validate.PacketIdentifiers(portID, channelID); err != nil {
		return err
	}

	merklePath := commitmenttypes.NewMerklePath(host.ChannelPath(portID, channelID))

	bz, err := channeltypes.MarshalChannel(channel)
	if err != nil {
		return err
	}

	if err := k.verifyMembership(ctx, connection, height, 0, 0, proof, merklePath, bz); err != nil {
		return errorsmod.Wrapf(err, "failed channel state verification for client (%s)", connection.ClientID)
	}

	return nil
}

// VerifyPacketCommitment verifies a proof of an outgoing packet commitment at
// the specified port, specified channel, and specified sequence.
func (k Keeper) VerifyPacketCommitment(
	ctx exported.Context,
	connection connectiontypes.ConnectionEnd,
	height exported.Height,
	proof []byte,
	portID,
	channelID string,
	sequence uint64,
	commitmentBytes []byte,
) error {
	if err := validate.PacketIdentifiers(portID, channelID); err != nil {
		return err
	}

	// get time and block delays
	timeDelay := connection.DelayPeriod
	blockDelay := k.getBlockDelay(connection)

	merklePath := commitmenttypes.NewMerklePath(host.PacketCommitmentPath(portID, channelID, sequence))

	if err := k.verifyMembership(ctx, connection, height, timeDelay, blockDelay, proof, merklePath, commitmentBytes); err != nil {
		return errorsmod.Wrapf(err, "failed packet commitment verification for client (%s)", connection.ClientID)
	}

	return nil
}

// VerifyPacketAcknowledgement verifies a proof of an incoming packet
// acknowledgement at the specified port, specified channel, and specified sequence.
func (k Keeper) VerifyPacketAcknowledgement(
	ctx exported.Context,
	connection connectiontypes.ConnectionEnd,
	height exported.Height,
	proof []byte,
	portID,
	channelID string,
	sequence uint64,
	acknowledgement []byte,
) error {
	if err := validate.PacketIdentifiers(portID, channelID); err != nil {
		return err
	}

	timeDelay := connection.DelayPeriod
	blockDelay := k.getBlockDelay(connection)

	merklePath := commitmenttypes.NewMerklePath(host.PacketAcknowledgementPath(portID, channelID, sequence))

	if err := k.verifyMembership(
		ctx, connection, height, timeDelay, blockDelay,
		proof, merklePath, channeltypes.CommitAcknowledgement(acknowledgement),
	); err != nil {
		return errorsmod.Wrapf(err, "failed packet acknowledgement verification for client (%s)", connection.ClientID)
	}

	return nil
}

// VerifyPacketReceiptAbsence verifies a proof of the absence of an
// incoming packet receipt at the specified port, specified channel, and
// specified sequence.
func (k Keeper) VerifyPacketReceiptAbsence(
	ctx exported.Context,
	connection connectiontypes.ConnectionEnd,
	height exported.Height,
	proof []byte,
	portID,
	channelID string,
	sequence uint64,
) error {
	if err := validate.PacketIdentifiers(portID, channelID); err != nil {
		return err
	}

	timeDelay := connection.DelayPeriod
	blockDelay := k.getBlockDelay(connection)

	merklePath := commitmenttypes.NewMerklePath(host.PacketReceiptPath(portID, channelID, sequence))

	if err := k.verifyNonMembership(ctx, connection, height, timeDelay, blockDelay, proof, merklePath); err != nil {
		return errorsmod.Wrapf(err, "failed packet receipt absence verification for client (%s)", connection.ClientID)
	}

	return nil
}

// VerifyNextSequenceRecv verifies a proof of the next sequence number to be
// received of the specified channel at the specified port.
func (k Keeper) VerifyNextSequenceRecv(
	ctx exported.Context,
	connection connectiontypes.ConnectionEnd,
	height exported.Height,
	proof []byte,
	portID,
	channelID string,
	nextSequenceRecv uint64,
) error {
	if err := validate.PacketIdentifiers(portID, channelID); err != nil {
		return err
	}

	timeDelay := connection.DelayPeriod
	blockDelay := k.getBlockDelay(connection)

	merklePath := commitmenttypes.NewMerklePath(host.NextSequenceRecvPath(portID, channelID))

	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, nextSequenceRecv)

	if err := k.verifyMembership(ctx, connection, height, timeDelay, blockDelay, proof, merklePath, bz); err != nil {
		return errorsmod.Wrapf(err, "failed next sequence receive verification for client (%s)", connection.ClientID)
	}

	return nil
}

// VerifyMembership verifies a proof of value at path for an active client. The path
// must already carry the counterparty prefix.
func (k Keeper) VerifyMembership(
	ctx exported.Context,
	clientID string,
	height exported.Height,
	delayTimePeriod uint64,
	delayBlockPeriod uint64,
	proof []byte,
	path exported.Path,
	value []byte,
) error {
	clientState, clientStore, err := k.getActiveClient(ctx, clientID)
	if err != nil {
		return err
	}

	defer metrics.MeasureSinceWithLabels(
		coremetrics.KeyVerifyMembership,
		time.Now(),
		[]metrics.Label{coremetrics.NewLabel(coremetrics.LabelClientType, clientState.ClientType())},
	)

	if err := clientState.VerifyMembership(ctx, clientStore, k.cdc, height, delayTimePeriod, delayBlockPeriod, proof, path, value); err != nil {
		return errorsmod.Wrapf(err, "failed membership verification for client (%s) at height %s", clientID, height)
	}

	return nil
}

// VerifyNonMembership verifies a proof of the absence of a path for an active client.
func (k Keeper) VerifyNonMembership(
	ctx exported.Context,
	clientID string,
	height exported.Height,
	delayTimePeriod uint64,
	delayBlockPeriod uint64,
	proof []byte,
	path exported.Path,
) error {
	clientState, clientStore, err := k.getActiveClient(ctx, clientID)
	if err != nil {
		return err
	}

	defer metrics.MeasureSinceWithLabels(
		coremetrics.KeyVerifyNonMembership,
		time.Now(),
		[]metrics.Label{coremetrics.NewLabel(coremetrics.LabelClientType, clientState.ClientType())},
	)

	if err := clientState.VerifyNonMembership(ctx, clientStore, k.cdc, height, delayTimePeriod, delayBlockPeriod, proof, path); err != nil {
		return errorsmod.Wrapf(err, "failed non-membership verification for client (%s) at height %s", clientID, height)
	}

	return nil
}

// verifyMembership applies the counterparty prefix of connection to path and verifies
// value against the client of connection.
func (k Keeper) verifyMembership(
	ctx exported.Context,
	connection connectiontypes.ConnectionEnd,
	height exported.Height,
	timeDelay, blockDelay uint64,
	proof []byte,
	path commitmenttypes.MerklePath,
	value []byte,
) error {
	merklePath, err := commitmenttypes.ApplyPrefix(connection.Counterparty.Prefix, path)
	if err != nil {
		return err
	}

	return k.VerifyMembership(ctx, connection.ClientID, height, timeDelay, blockDelay, proof, merklePath, value)
}

func (k Keeper) verifyNonMembership(
	ctx exported.Context,
	connection connectiontypes.ConnectionEnd,
	height exported.Height,
	timeDelay, blockDelay uint64,
	proof []byte,
	path commitmenttypes.MerklePath,
) error {
	merklePath, err := commitmenttypes.ApplyPrefix(connection.Counterparty.Prefix, path)
	if err != nil {
		return err
	}

	return k.VerifyNonMembership(ctx, connection.ClientID, height, timeDelay, blockDelay, proof, merklePath)
}

// getActiveClient returns the client state and store of clientID, which must exist and be active.
func (k Keeper) getActiveClient(ctx exported.Context, clientID string) (exported.ClientState, exported.ClientStore, error) {
	clientState, found := k.GetClientState(clientID)
	if !found {
		return nil, nil, errorsmod.Wrap(types.ErrClientNotFound, clientID)
	}

	clientStore := k.ClientStore(clientID)
	if status := clientState.Status(ctx, clientStore, k.cdc); status != exported.Active {
		return nil, nil, errorsmod.Wrapf(types.ErrClientNotActive, "client (%s) status is %s", clientID, status)
	}

	return clientState, clientStore, nil
}

// getBlockDelay calculates the block delay period from the time delay of the connection
// and the expected time per block.
func (k Keeper) getBlockDelay(connection connectiontypes.ConnectionEnd) uint64 {
	// expectedTimePerBlock should never be zero, however if it is then return a 0 block delay for safety
	// as the expectedTimePerBlock parameter was not set.
	expectedTimePerBlock := uint64(k.expectedTimePerBlock)
	if expectedTimePerBlock == 0 {
		return 0
	}
	// calculate minimum block delay by dividing time delay period
	// by the expected time per block. Round up the block delay.
	timeDelay := connection.DelayPeriod
	return uint64(math.Ceil(float64(timeDelay) / float64(expectedTimePerBlock)))
}
