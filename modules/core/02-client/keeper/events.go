package keeper

import (
	"strings"

	"github.com/ChainSafe/log15"

	"github.com/ComposableFi/light-clients/modules/core/02-client/types"
	"github.com/ComposableFi/light-clients/modules/core/exported"
)

// emitCreateClientEvent records the creation of a client in the keeper log
func emitCreateClientEvent(logger log15.Logger, clientID, clientType string, height exported.Height) {
	logger.Info("client created at height",
		types.AttributeKeyClientID, clientID,
		types.AttributeKeyClientType, clientType,
		types.AttributeKeyConsensusHeight, height.String(),
	)
}

// emitUpdateClientEvent records the consensus heights added by a client update
func emitUpdateClientEvent(logger log15.Logger, clientID, clientType string, consensusHeights []exported.Height) {
	heights := make([]string, len(consensusHeights))
	for i, height := range consensusHeights {
		heights[i] = height.String()
	}

	logger.Info("client state updated",
		types.AttributeKeyClientID, clientID,
		types.AttributeKeyClientType, clientType,
		types.AttributeKeyUpdateType, types.UpdateTypeHeader,
		types.AttributeKeyConsensusHeight, strings.Join(heights, ","),
	)
}

// emitSubmitMisbehaviourEvent records a client frozen by misbehaviour
func emitSubmitMisbehaviourEvent(logger log15.Logger, clientID, clientType string) {
	logger.Warn("client frozen due to misbehaviour",
		types.AttributeKeyClientID, clientID,
		types.AttributeKeyClientType, clientType,
		types.AttributeKeyUpdateType, types.UpdateTypeMisbehaviour,
	)
}
