package types

import (
	errorsmod "cosmossdk.io/errors"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"

	"github.com/ComposableFi/light-clients/modules/core/exported"
	"github.com/ComposableFi/light-clients/modules/light-clients/substrate"
)

// AncestryChain indexes the vote ancestries of a justification by header hash.
type AncestryChain struct {
	headers map[types.H256]substrate.Header
}

// NewAncestryChain builds the chain. The same header given twice is an error.
func NewAncestryChain(host exported.HostFunctions, ancestry []substrate.Header) (AncestryChain, error) {
	chain := AncestryChain{headers: make(map[types.H256]substrate.Header, len(ancestry))}
	for _, header := range ancestry {
		hash, err := substrate.HeaderHash(host, header)
		if err != nil {
			return AncestryChain{}, err
		}
		if _, ok := chain.headers[hash]; ok {
			return AncestryChain{}, errorsmod.Wrapf(ErrInvalidAncestry, "duplicate ancestry header %s", hash.Hex())
		}
		chain.headers[hash] = header
	}
	return chain, nil
}

// Ancestry returns the hashes strictly between base and block, walking parent hashes down
// from block. It fails if block does not descend from base within the chain.
func (c AncestryChain) Ancestry(base, block types.H256) ([]types.H256, error) {
	var route []types.H256
	current := block
	for current != base {
		header, ok := c.headers[current]
		if !ok {
			return nil, errorsmod.Wrapf(ErrInvalidAncestry, "%s is not a descendant of %s", block.Hex(), base.Hex())
		}
		current = header.ParentHash
		route = append(route, current)
	}

	// the last element is base itself
	if len(route) > 0 {
		route = route[:len(route)-1]
	}
	return route, nil
}

// IsEqualOrDescendantOf reports whether block is base or one of its descendants.
func (c AncestryChain) IsEqualOrDescendantOf(base, block types.H256) bool {
	if base == block {
		return true
	}
	_, err := c.Ancestry(base, block)
	return err == nil
}

// Hashes returns the set of header hashes in the chain.
func (c AncestryChain) Hashes() map[types.H256]struct{} {
	hashes := make(map[types.H256]struct{}, len(c.headers))
	for hash := range c.headers {
		hashes[hash] = struct{}{}
	}
	return hashes
}
