package types

import (
	"github.com/ComposableFi/light-clients/modules/core/exported"
)

// Keccak256 hashes merkle and mmr nodes with the host keccak-256. Nodes are merged
// without sorting, left then right.
type Keccak256 struct {
	host exported.HostFunctions
}

// NewKeccak256 returns a Keccak256 hasher backed by host.
func NewKeccak256(host exported.HostFunctions) Keccak256 {
	return Keccak256{host: host}
}

// Merge hashes the concatenation of two nodes.
func (h Keccak256) Merge(left, right interface{}) interface{} {
	l := left.([]byte)
	r := right.([]byte)
	data := make([]byte, 0, len(l)+len(r))
	data = append(data, l...)
	data = append(data, r...)
	hash := h.host.Keccak256(data)
	return hash[:]
}

// Hash hashes a leaf.
func (h Keccak256) Hash(data []byte) ([]byte, error) {
	hash := h.host.Keccak256(data)
	return hash[:], nil
}
