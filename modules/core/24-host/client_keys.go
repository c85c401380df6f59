package host

import (
	"fmt"

	"github.com/ComposableFi/light-clients/modules/core/exported"
)

// KeyClientStorePrefix is the prefix of every client store.
var KeyClientStorePrefix = []byte("clients")

const (
	KeyClientState          = "clientState"
	KeyConsensusStatePrefix = "consensusStates"
)

// FullClientStatePath is the path of the client state of clientID in a counterparty's
// state: "clients/{clientID}/clientState".
func FullClientStatePath(clientID string) string {
	return fmt.Sprintf("%s/%s/%s", KeyClientStorePrefix, clientID, KeyClientState)
}

// FullConsensusStatePath is the path of the consensus state of clientID at height in a
// counterparty's state: "clients/{clientID}/consensusStates/{height}".
func FullConsensusStatePath(clientID string, height exported.Height) string {
	return fmt.Sprintf("%s/%s/%s", KeyClientStorePrefix, clientID, consensusStatePath(height))
}

// ClientStateKey is the key of the client state within a client store.
func ClientStateKey() []byte {
	return []byte(KeyClientState)
}

// ConsensusStateKey is the key of the consensus state at height within a client store.
func ConsensusStateKey(height exported.Height) []byte {
	return []byte(consensusStatePath(height))
}

func consensusStatePath(height exported.Height) string {
	return fmt.Sprintf("%s/%s", KeyConsensusStatePrefix, height)
}
