package types

import (
	"bytes"
	"encoding/binary"
	"time"

	errorsmod "cosmossdk.io/errors"

	host "github.com/ComposableFi/light-clients/modules/core/24-host"
	"github.com/ComposableFi/light-clients/modules/core/exported"
)

// KeyIterateConsensusStatePrefix is the prefix of the big endian iteration keys of
// consensus states.
const KeyIterateConsensusStatePrefix = "iterateConsensusStates"

var (
	// KeyProcessedTime is appended to consensus state key to store the processed time
	KeyProcessedTime = []byte("/processedTime")
	// KeyProcessedHeight is appended to consensus state key to store the processed height
	KeyProcessedHeight = []byte("/processedHeight")
)

func bigEndianHeightBytes(height exported.Height) []byte {
	heightBytes := make([]byte, 16)
	binary.BigEndian.PutUint64(heightBytes, height.GetRevisionNumber())
	binary.BigEndian.PutUint64(heightBytes[8:], height.GetRevisionHeight())
	return heightBytes
}

// GetHeightFromIterationKey takes an iteration key and returns the height that it references
func GetHeightFromIterationKey(iterKey []byte) Height {
	bigEndianBytes := iterKey[len([]byte(KeyIterateConsensusStatePrefix)):]
	revisionBytes := bigEndianBytes[0:8]
	heightBytes := bigEndianBytes[8:]
	revision := binary.BigEndian.Uint64(revisionBytes)
	height := binary.BigEndian.Uint64(heightBytes)
	return NewHeight(revision, height)
}

// SetConsensusMetadata sets context time as processed time and set context height as processed height
// as this is internal light client logic.
// Set iteration key to provide ability for efficient ordered iteration of consensus states.
func SetConsensusMetadata(ctx exported.Context, clientStore exported.ClientStore, height exported.Height) {
	var processedHeight exported.Height = ZeroHeight()
	if ctx.BlockHeight != nil {
		processedHeight = ctx.BlockHeight
	}
	SetConsensusMetadataWithValues(clientStore, height, processedHeight, uint64(ctx.BlockTime.UnixNano()))
}

// SetConsensusMetadataWithValues sets the consensus metadata with the provided values
func SetConsensusMetadataWithValues(
	clientStore exported.ClientStore, height,
	processedHeight exported.Height,
	processedTime uint64,
) {
	SetProcessedTime(clientStore, height, processedTime)
	SetProcessedHeight(clientStore, height, processedHeight)
	SetIterationKey(clientStore, height)
}

// DeleteConsensusMetadata deletes the metadata stored for a particular consensus state.
func DeleteConsensusMetadata(clientStore exported.ClientStore, height exported.Height) {
	clientStore.Delete(ProcessedTimeKey(height))
	clientStore.Delete(ProcessedHeightKey(height))
	clientStore.Delete(IterationKey(height))
}

// SetProcessedTime stores the time at which a header was processed and the corresponding consensus state was created.
// This is useful when validating whether a packet has reached the time specified delay period in the
// client's verification functions
func SetProcessedTime(clientStore exported.ClientStore, height exported.Height, timeNs uint64) {
	key := ProcessedTimeKey(height)
	val := make([]byte, 8)
	binary.BigEndian.PutUint64(val, timeNs)
	clientStore.Set(key, val)
}

// GetProcessedTime gets the time (in nanoseconds) at which this chain received and processed a header.
// This is used to validate that a received packet has passed the time delay period.
func GetProcessedTime(clientStore exported.ClientStore, height exported.Height) (uint64, bool) {
	bz := clientStore.Get(ProcessedTimeKey(height))
	if len(bz) != 8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(bz), true
}

// ProcessedTimeKey returns the key under which the processed time will be stored in the client store.
func ProcessedTimeKey(height exported.Height) []byte {
	return append(host.ConsensusStateKey(height), KeyProcessedTime...)
}

// ProcessedHeightKey returns the key under which the processed height will be stored in the client store.
func ProcessedHeightKey(height exported.Height) []byte {
	return append(host.ConsensusStateKey(height), KeyProcessedHeight...)
}

// SetProcessedHeight stores the height at which a header was processed and the corresponding consensus state was created.
// This is useful when validating whether a packet has reached the specified block delay period in the
// client's verification functions
func SetProcessedHeight(clientStore exported.ClientStore, consHeight, processedHeight exported.Height) {
	key := ProcessedHeightKey(consHeight)
	val := []byte(processedHeight.String())
	clientStore.Set(key, val)
}

// GetProcessedHeight gets the height at which this chain received and processed a header.
// This is used to validate that a received packet has passed the block delay period.
func GetProcessedHeight(clientStore exported.ClientStore, height exported.Height) (Height, bool) {
	bz := clientStore.Get(ProcessedHeightKey(height))
	if bz == nil {
		return Height{}, false
	}
	processedHeight, err := ParseHeight(string(bz))
	if err != nil {
		return Height{}, false
	}
	return processedHeight, true
}

// SetIterationKey stores the consensus state key under a key that is more efficient for ordered iteration
func SetIterationKey(clientStore exported.ClientStore, height exported.Height) {
	key := IterationKey(height)
	val := host.ConsensusStateKey(height)
	clientStore.Set(key, val)
}

// IterationKey returns the key under which the consensus state key will be stored.
// The iteration key is a BigEndian representation of the consensus state key to support efficient iteration.
func IterationKey(height exported.Height) []byte {
	heightBytes := bigEndianHeightBytes(height)
	return append([]byte(KeyIterateConsensusStatePrefix), heightBytes...)
}

// IterateConsensusStateAscending iterates through the consensus states in ascending order. It calls the provided
// callback on each height, until stop=true is returned.
func IterateConsensusStateAscending(clientStore exported.ClientStore, cb func(height exported.Height) (stop bool)) {
	prefix := []byte(KeyIterateConsensusStatePrefix)
	iterator := clientStore.Iterator(prefix, prefixEndBytes(prefix))
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		iterKey := iterator.Key()
		height := GetHeightFromIterationKey(iterKey)
		if cb(height) {
			break
		}
	}
}

// GetPreviousConsensusStateHeight returns the highest consensus state height that is lower than the given height.
func GetPreviousConsensusStateHeight(clientStore exported.ClientStore, height exported.Height) (Height, bool) {
	prefix := []byte(KeyIterateConsensusStatePrefix)
	iterator := clientStore.ReverseIterator(prefix, IterationKey(height))
	defer iterator.Close()

	if !iterator.Valid() {
		return Height{}, false
	}

	return GetHeightFromIterationKey(iterator.Key()), true
}

// GetNextConsensusStateHeight returns the lowest consensus state height that is larger than the given height.
// If the starting height exists in store, the iterator is advanced past it.
func GetNextConsensusStateHeight(clientStore exported.ClientStore, height exported.Height) (Height, bool) {
	prefix := []byte(KeyIterateConsensusStatePrefix)
	iterator := clientStore.Iterator(IterationKey(height), prefixEndBytes(prefix))
	defer iterator.Close()
	if !iterator.Valid() {
		return Height{}, false
	}

	if bytes.Equal(iterator.Value(), host.ConsensusStateKey(height)) {
		iterator.Next()
		if !iterator.Valid() {
			return Height{}, false
		}
	}

	return GetHeightFromIterationKey(iterator.Key()), true
}

// VerifyDelayPeriodPassed will ensure that at least delayTimePeriod amount of time and delayBlockPeriod number of blocks have passed
// since consensus state was submitted before allowing verification to continue.
func VerifyDelayPeriodPassed(ctx exported.Context, store exported.ClientStore, proofHeight exported.Height, delayTimePeriod, delayBlockPeriod uint64) error {
	if delayTimePeriod != 0 {
		processedTime, ok := GetProcessedTime(store, proofHeight)
		if !ok {
			return errorsmod.Wrapf(ErrInvalidClientMetadata, "processed time not found for height: %s", proofHeight)
		}

		currentTimestamp := uint64(ctx.BlockTime.UnixNano())
		validTime := processedTime + delayTimePeriod

		if currentTimestamp < validTime {
			return errorsmod.Wrapf(ErrDelayPeriodNotPassed, "cannot verify packet until time: %d, current time: %d",
				validTime, currentTimestamp)
		}
	}

	if delayBlockPeriod != 0 {
		processedHeight, ok := GetProcessedHeight(store, proofHeight)
		if !ok {
			return errorsmod.Wrapf(ErrInvalidClientMetadata, "processed height not found for height: %s", proofHeight)
		}

		currentHeight := ctx.BlockHeight
		if currentHeight == nil {
			currentHeight = ZeroHeight()
		}
		validHeight := NewHeight(processedHeight.GetRevisionNumber(), processedHeight.GetRevisionHeight()+delayBlockPeriod)

		if currentHeight.LT(validHeight) {
			return errorsmod.Wrapf(ErrDelayPeriodNotPassed, "cannot verify packet until height: %s, current height: %s",
				validHeight, currentHeight)
		}
	}

	return nil
}

// IsExpired reports whether a consensus state with the given timestamp (in nanoseconds) is
// outside the trusting period at the given time.
func IsExpired(timestamp uint64, trustingPeriod time.Duration, now time.Time) bool {
	expirationTime := time.Unix(0, int64(timestamp)).Add(trustingPeriod)
	return !expirationTime.After(now)
}

// prefixEndBytes returns the []byte that would end a range query for all []byte with
// a certain prefix.
func prefixEndBytes(prefix []byte) []byte {
	if len(prefix) == 0 {
		return nil
	}

	end := make([]byte, len(prefix))
	copy(end, prefix)

	for {
		if end[len(end)-1] != byte(255) {
			end[len(end)-1]++
			break
		}

		end = end[:len(end)-1]

		if len(end) == 0 {
			end = nil
			break
		}
	}
	return end
}
