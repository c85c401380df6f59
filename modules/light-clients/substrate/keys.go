package substrate

import (
	"github.com/centrifuge/go-substrate-rpc-client/v4/xxhash"
)

const (
	ParasPallet      = "Paras"
	HeadsStorageItem = "Heads"
)

// Twox128 returns the 128 bit xxhash of data, as used for storage prefixes.
func Twox128(data []byte) []byte {
	hasher := xxhash.New128(nil)
	_, _ = hasher.Write(data)
	return hasher.Sum(nil)
}

// Twox64Concat returns the 64 bit xxhash of data followed by data itself.
func Twox64Concat(data []byte) []byte {
	hasher := xxhash.New64(nil)
	_, _ = hasher.Write(data)
	return append(hasher.Sum(nil), data...)
}

// StoragePrefix returns twox128(pallet) || twox128(item).
func StoragePrefix(pallet, item string) []byte {
	return append(Twox128([]byte(pallet)), Twox128([]byte(item))...)
}

// ParachainHeadsKey returns the relay chain storage key of Paras::Heads(paraID):
// twox128("Paras") || twox128("Heads") || twox64(SCALE(paraID)) || SCALE(paraID).
func ParachainHeadsKey(paraID uint32) []byte {
	return append(StoragePrefix(ParasPallet, HeadsStorageItem), Twox64Concat(MustEncode(paraID))...)
}
