package keeper

import (
	"encoding/binary"
	"fmt"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/ChainSafe/log15"
	dbm "github.com/tendermint/tm-db"

	"github.com/ComposableFi/light-clients/internal/store"
	"github.com/ComposableFi/light-clients/modules/core/02-client/types"
	host "github.com/ComposableFi/light-clients/modules/core/24-host"
	"github.com/ComposableFi/light-clients/modules/core/exported"
)

// DefaultExpectedTimePerBlock is the relay chain block time used to turn a connection's
// time delay into a block delay.
const DefaultExpectedTimePerBlock = 6 * time.Second

// Keeper represents a type that grants read and write permissions to any client
// state information
type Keeper struct {
	db                   dbm.DB
	cdc                  exported.Codec
	logger               log15.Logger
	expectedTimePerBlock time.Duration
}

// NewKeeper creates a new client Keeper instance over db. Every client type the keeper
// should handle must be registered with cdc.
func NewKeeper(db dbm.DB, cdc exported.Codec, logger log15.Logger) *Keeper {
	return &Keeper{
		db:                   db,
		cdc:                  cdc,
		logger:               logger.New("module", fmt.Sprintf("x/%s/%s", exported.ModuleName, types.SubModuleName)),
		expectedTimePerBlock: DefaultExpectedTimePerBlock,
	}
}

// SetExpectedTimePerBlock overrides DefaultExpectedTimePerBlock.
func (k *Keeper) SetExpectedTimePerBlock(d time.Duration) {
	k.expectedTimePerBlock = d
}

// Logger returns a module-specific logger.
func (k Keeper) Logger() log15.Logger {
	return k.logger
}

// Codec returns the client codec of the keeper.
func (k Keeper) Codec() exported.Codec {
	return k.cdc
}

// GenerateClientIdentifier returns the next client identifier.
func (k Keeper) GenerateClientIdentifier(clientType string) string {
	nextClientSeq := k.GetNextClientSequence()
	clientID := types.FormatClientIdentifier(clientType, nextClientSeq)

	nextClientSeq++
	k.SetNextClientSequence(nextClientSeq)
	return clientID
}

// GetNextClientSequence gets the next client sequence from the store.
func (k Keeper) GetNextClientSequence() uint64 {
	bz := store.NewKVStore(k.db).Get([]byte(types.KeyNextClientSequence))
	if len(bz) == 0 {
		return 0
	}

	return binary.BigEndian.Uint64(bz)
}

// SetNextClientSequence sets the next client sequence to the store.
func (k Keeper) SetNextClientSequence(sequence uint64) {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, sequence)
	store.NewKVStore(k.db).Set([]byte(types.KeyNextClientSequence), bz)
}

// ClientStore returns isolated prefix store for each client so they can read/write in separate
// namespace without being able to read/write other client's data
func (k Keeper) ClientStore(clientID string) exported.ClientStore {
	clientPrefix := []byte(fmt.Sprintf("%s/%s/", host.KeyClientStorePrefix, clientID))
	return store.NewPrefixStore(k.db, clientPrefix)
}

// GetClientState gets a particular client from the store
func (k Keeper) GetClientState(clientID string) (exported.ClientState, bool) {
	bz := k.ClientStore(clientID).Get(host.ClientStateKey())
	if len(bz) == 0 {
		return nil, false
	}

	return types.MustUnmarshalClientState(k.cdc, bz), true
}

// SetClientState sets a particular Client to the store
func (k Keeper) SetClientState(clientID string, clientState exported.ClientState) {
	k.ClientStore(clientID).Set(host.ClientStateKey(), types.MustMarshalClientState(k.cdc, clientState))
}

// GetClientConsensusState gets the stored consensus state from a client at a given height.
func (k Keeper) GetClientConsensusState(clientID string, height exported.Height) (exported.ConsensusState, bool) {
	bz := k.ClientStore(clientID).Get(host.ConsensusStateKey(height))
	if len(bz) == 0 {
		return nil, false
	}

	consensusState, err := k.cdc.UnmarshalConsensusState(bz)
	if err != nil {
		panic(err)
	}
	return consensusState, true
}

// GetLatestClientConsensusState gets the latest consensus state for a specific client.
func (k Keeper) GetLatestClientConsensusState(clientID string) (exported.ConsensusState, bool) {
	clientState, ok := k.GetClientState(clientID)
	if !ok {
		return nil, false
	}
	return k.GetClientConsensusState(clientID, clientState.GetLatestHeight())
}

// GetClientStatus returns the status for a given client. Unknown is returned when the
// client does not exist.
func (k Keeper) GetClientStatus(ctx exported.Context, clientID string) exported.Status {
	clientState, found := k.GetClientState(clientID)
	if !found {
		return exported.Unknown
	}

	return clientState.Status(ctx, k.ClientStore(clientID), k.cdc)
}

// GetClientTimestampAtHeight returns the timestamp in nanoseconds of the consensus state at the given height.
func (k Keeper) GetClientTimestampAtHeight(ctx exported.Context, clientID string, height exported.Height) (uint64, error) {
	clientState, found := k.GetClientState(clientID)
	if !found {
		return 0, errorsmod.Wrapf(types.ErrClientNotFound, "clientID (%s)", clientID)
	}

	return clientState.GetTimestampAtHeight(ctx, k.ClientStore(clientID), k.cdc, height)
}

// IterateConsensusStates iterates the heights of the consensus states stored for a client
// in ascending order.
func (k Keeper) IterateConsensusStates(clientID string, cb func(height exported.Height) (stop bool)) {
	types.IterateConsensusStateAscending(k.ClientStore(clientID), cb)
}
