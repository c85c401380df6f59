package keeper

import (
	metrics "github.com/armon/go-metrics"

	errorsmod "cosmossdk.io/errors"

	"github.com/ComposableFi/light-clients/modules/core/02-client/types"
	"github.com/ComposableFi/light-clients/modules/core/exported"
	coremetrics "github.com/ComposableFi/light-clients/modules/core/metrics"
)

// CreateClient generates a new client identifier and isolated prefix store for the provided client state.
// The client state is responsible for setting any client-specific data in the store via the Initialize method.
// This includes the client state, initial consensus state and any associated metadata.
func (k Keeper) CreateClient(
	ctx exported.Context, clientState exported.ClientState, consensusState exported.ConsensusState,
) (string, error) {
	clientType := clientState.ClientType()
	if clientType == exported.Tendermint {
		return "", errorsmod.Wrapf(types.ErrInvalidClientType, "cannot create client of type: %s", clientType)
	}
	if consensusState.ClientType() != clientType {
		return "", errorsmod.Wrapf(types.ErrInvalidConsensus, "consensus state type %s does not match client type %s", consensusState.ClientType(), clientType)
	}

	if err := clientState.Validate(); err != nil {
		return "", err
	}
	if err := consensusState.ValidateBasic(); err != nil {
		return "", err
	}

	clientID := k.GenerateClientIdentifier(clientType)
	clientStore := k.ClientStore(clientID)

	if err := clientState.Initialize(ctx, k.cdc, clientStore, consensusState); err != nil {
		return "", err
	}

	if status := k.GetClientStatus(ctx, clientID); status != exported.Active {
		return "", errorsmod.Wrapf(types.ErrClientNotActive, "cannot create client (%s) with status %s", clientID, status)
	}

	emitCreateClientEvent(k.logger, clientID, clientType, clientState.GetLatestHeight())

	defer metrics.IncrCounterWithLabels(
		coremetrics.KeyCreateClient,
		1,
		[]metrics.Label{coremetrics.NewLabel(coremetrics.LabelClientType, clientType)},
	)

	return clientID, nil
}

// UpdateClient updates the consensus state and the state root from a provided header.
// Verified misbehaviour, either explicit or detected from a header, freezes the client.
func (k Keeper) UpdateClient(ctx exported.Context, clientID string, clientMsg exported.ClientMessage) error {
	clientState, found := k.GetClientState(clientID)
	if !found {
		return errorsmod.Wrapf(types.ErrClientNotFound, "cannot update client with ID %s", clientID)
	}

	clientStore := k.ClientStore(clientID)

	if status := clientState.Status(ctx, clientStore, k.cdc); status != exported.Active {
		return errorsmod.Wrapf(types.ErrClientNotActive, "cannot update client (%s) with status %s", clientID, status)
	}

	clientType := clientState.ClientType()
	if clientMsg.ClientType() != clientType {
		return errorsmod.Wrapf(types.ErrInvalidClientMessage, "client message of type %s cannot update %s client", clientMsg.ClientType(), clientType)
	}

	clientMsg, err := k.verifyClientMessage(ctx, clientState, clientStore, clientMsg)
	if err != nil {
		return err
	}

	foundMisbehaviour := clientState.CheckForMisbehaviour(ctx, k.cdc, clientStore, clientMsg)
	if foundMisbehaviour {
		if err := clientState.UpdateStateOnMisbehaviour(ctx, k.cdc, clientStore, clientMsg); err != nil {
			return err
		}

		emitSubmitMisbehaviourEvent(k.logger, clientID, clientType)

		defer metrics.IncrCounterWithLabels(
			coremetrics.KeyMisbehaviour,
			1,
			[]metrics.Label{
				coremetrics.NewLabel(coremetrics.LabelClientType, clientType),
				coremetrics.NewLabel(coremetrics.LabelClientID, clientID),
			},
		)

		return nil
	}

	consensusHeights, err := clientState.UpdateState(ctx, k.cdc, clientStore, clientMsg)
	if err != nil {
		return err
	}

	emitUpdateClientEvent(k.logger, clientID, clientType, consensusHeights)

	defer metrics.IncrCounterWithLabels(
		coremetrics.KeyUpdateClient,
		1,
		[]metrics.Label{
			coremetrics.NewLabel(coremetrics.LabelClientType, clientType),
			coremetrics.NewLabel(coremetrics.LabelClientID, clientID),
			coremetrics.NewLabel(coremetrics.LabelUpdateType, types.UpdateTypeHeader),
		},
	)

	return nil
}

// verifyClientMessage verifies clientMsg once. A client that computes the update while
// verifying returns the message carrying it.
func (k Keeper) verifyClientMessage(
	ctx exported.Context, clientState exported.ClientState, clientStore exported.ClientStore, clientMsg exported.ClientMessage,
) (exported.ClientMessage, error) {
	if applier, ok := clientState.(exported.ClientMessageApplier); ok {
		return applier.ApplyClientMessage(ctx, k.cdc, clientStore, clientMsg)
	}
	if err := clientState.VerifyClientMessage(ctx, k.cdc, clientStore, clientMsg); err != nil {
		return nil, err
	}
	return clientMsg, nil
}
