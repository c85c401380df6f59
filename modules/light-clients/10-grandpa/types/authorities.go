package types

import (
	"fmt"
	"math"

	errorsmod "cosmossdk.io/errors"
	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"

	"github.com/ComposableFi/light-clients/modules/light-clients/substrate"
)

// AuthorityID is the ed25519 public key of a grandpa voter.
type AuthorityID [32]byte

// Authority is a grandpa voter and its voting weight.
type Authority struct {
	Key    AuthorityID
	Weight uint64
}

// AuthorityList is an ordered list of grandpa voters.
type AuthorityList []Authority

// TotalWeight returns the summed weight of the list.
func (l AuthorityList) TotalWeight() uint64 {
	var total uint64
	for _, authority := range l {
		total += authority.Weight
	}
	return total
}

// Validate checks the list is non empty, weights are positive, keys unique and the total
// weight does not overflow.
func (l AuthorityList) Validate() error {
	if len(l) == 0 {
		return errorsmod.Wrap(ErrInvalidAuthorities, "authority list cannot be empty")
	}

	seen := make(map[AuthorityID]bool, len(l))
	var total uint64
	for i, authority := range l {
		if authority.Weight == 0 {
			return errorsmod.Wrapf(ErrInvalidAuthorities, "authority %d has zero weight", i)
		}
		if seen[authority.Key] {
			return errorsmod.Wrapf(ErrInvalidAuthorities, "duplicate authority %x", authority.Key)
		}
		seen[authority.Key] = true

		if total > math.MaxUint64-authority.Weight {
			return errorsmod.Wrap(ErrInvalidAuthorities, "total weight overflows u64")
		}
		total += authority.Weight
	}

	return nil
}

// AuthoritySet is the set of grandpa voters of a set id.
type AuthoritySet struct {
	ID          uint64
	Authorities AuthorityList
}

// NewAuthoritySet returns an authority set with the given id.
func NewAuthoritySet(id uint64, authorities AuthorityList) AuthoritySet {
	return AuthoritySet{ID: id, Authorities: authorities}
}

// ValidateBasic validates the authority list.
func (s AuthoritySet) ValidateBasic() error {
	return s.Authorities.Validate()
}

// TotalWeight returns the summed weight of all voters.
func (s AuthoritySet) TotalWeight() uint64 {
	return s.Authorities.TotalWeight()
}

// Threshold returns the weight needed to finalize a block, ceil(2W/3)+1.
func (s AuthoritySet) Threshold() uint64 {
	return threshold(s.TotalWeight())
}

// threshold computes ceil(2w/3)+1 without overflowing. With w = 3q+r, ceil(2w/3) = 2q+r.
func threshold(w uint64) uint64 {
	q, r := w/3, w%3
	return 2*q + r + 1
}

// Weight returns the weight of a voter.
func (s AuthoritySet) Weight(key AuthorityID) (uint64, bool) {
	for _, authority := range s.Authorities {
		if authority.Key == key {
			return authority.Weight, true
		}
	}
	return 0, false
}

// Contains reports whether key is a voter of the set.
func (s AuthoritySet) Contains(key AuthorityID) bool {
	_, ok := s.Weight(key)
	return ok
}

// Apply returns the set enacted by change, with the next set id.
func (s AuthoritySet) Apply(change PendingChange) AuthoritySet {
	return AuthoritySet{ID: s.ID + 1, Authorities: change.NextAuthorities}
}

// ScheduledChange is an authority set change announced in a relay header.
type ScheduledChange struct {
	NextAuthorities AuthorityList
	// Delay is the number of blocks after the announcing block at which the change is enacted.
	Delay uint32
}

// ForcedChange is a scheduled change that is enacted without waiting for finality.
type ForcedChange struct {
	// MedianLastFinalized is the median last finalized block reported by the voters.
	MedianLastFinalized uint32
	Change              ScheduledChange
}

// Grandpa consensus log variants, as found in FRNK consensus digests.
const (
	LogScheduledChange = 1
	LogForcedChange    = 2
	LogOnDisabled      = 3
	LogPause           = 4
	LogResume          = 5
)

// ConsensusLog is a decoded grandpa consensus digest. Exactly one of the Is* flags is set.
type ConsensusLog struct {
	IsScheduledChange bool
	AsScheduledChange ScheduledChange
	IsForcedChange    bool
	AsForcedChange    ForcedChange
	IsOnDisabled      bool
	AsOnDisabled      uint64
	IsPause           bool
	AsPause           uint32
	IsResume          bool
	AsResume          uint32
}

// Encode implements scale.Encodeable.
func (l ConsensusLog) Encode(encoder scale.Encoder) error {
	var (
		index byte
		value interface{}
	)
	switch {
	case l.IsScheduledChange:
		index, value = LogScheduledChange, l.AsScheduledChange
	case l.IsForcedChange:
		index, value = LogForcedChange, l.AsForcedChange
	case l.IsOnDisabled:
		index, value = LogOnDisabled, l.AsOnDisabled
	case l.IsPause:
		index, value = LogPause, l.AsPause
	case l.IsResume:
		index, value = LogResume, l.AsResume
	default:
		return fmt.Errorf("consensus log has no variant set")
	}

	if err := encoder.PushByte(index); err != nil {
		return err
	}
	return encoder.Encode(value)
}

// Decode implements scale.Decodeable.
func (l *ConsensusLog) Decode(decoder scale.Decoder) error {
	index, err := decoder.ReadOneByte()
	if err != nil {
		return err
	}

	*l = ConsensusLog{}
	switch index {
	case LogScheduledChange:
		l.IsScheduledChange = true
		return decoder.Decode(&l.AsScheduledChange)
	case LogForcedChange:
		l.IsForcedChange = true
		return decoder.Decode(&l.AsForcedChange)
	case LogOnDisabled:
		l.IsOnDisabled = true
		return decoder.Decode(&l.AsOnDisabled)
	case LogPause:
		l.IsPause = true
		return decoder.Decode(&l.AsPause)
	case LogResume:
		l.IsResume = true
		return decoder.Decode(&l.AsResume)
	default:
		return fmt.Errorf("unknown grandpa consensus log variant %d", index)
	}
}

// NewScheduledChangeDigest returns the FRNK digest item announcing a standard change.
func NewScheduledChangeDigest(change ScheduledChange) substrate.DigestItem {
	log := ConsensusLog{IsScheduledChange: true, AsScheduledChange: change}
	return substrate.NewConsensusDigest(substrate.GrandpaEngineID, substrate.MustEncode(log))
}

// NewForcedChangeDigest returns the FRNK digest item announcing a forced change.
func NewForcedChangeDigest(change ForcedChange) substrate.DigestItem {
	log := ConsensusLog{IsForcedChange: true, AsForcedChange: change}
	return substrate.NewConsensusDigest(substrate.GrandpaEngineID, substrate.MustEncode(log))
}

// ConsensusLogs decodes the grandpa consensus digests of a header in digest order.
func ConsensusLogs(header substrate.Header) ([]ConsensusLog, error) {
	var logs []ConsensusLog
	for _, data := range header.ConsensusDigests(substrate.GrandpaEngineID) {
		var log ConsensusLog
		if err := substrate.Decode(data, &log); err != nil {
			return nil, errorsmod.Wrapf(ErrInvalidConsensusLog, "header %d: %v", header.Number, err)
		}
		logs = append(logs, log)
	}
	return logs, nil
}

// FindScheduledChange returns the first standard change announced by header, if any.
func FindScheduledChange(header substrate.Header) (*ScheduledChange, error) {
	logs, err := ConsensusLogs(header)
	if err != nil {
		return nil, err
	}
	for _, log := range logs {
		if log.IsScheduledChange {
			change := log.AsScheduledChange
			return &change, nil
		}
	}
	return nil, nil
}

// FindForcedChange returns the first forced change announced by header, if any.
func FindForcedChange(header substrate.Header) (*ForcedChange, error) {
	logs, err := ConsensusLogs(header)
	if err != nil {
		return nil, err
	}
	for _, log := range logs {
		if log.IsForcedChange {
			change := log.AsForcedChange
			return &change, nil
		}
	}
	return nil, nil
}

// PendingChange is an announced authority set change that has not been enacted yet.
type PendingChange struct {
	NextAuthorities AuthorityList
	// ActivationHeight is the relay block number at which the change is enacted.
	ActivationHeight uint32
	Forced           bool
}

// OptionalPendingChange is a SCALE Option<PendingChange>.
type OptionalPendingChange struct {
	HasValue bool
	Value    PendingChange
}

// SomePendingChange wraps change in an option.
func SomePendingChange(change PendingChange) OptionalPendingChange {
	return OptionalPendingChange{HasValue: true, Value: change}
}

// Encode implements scale.Encodeable.
func (o OptionalPendingChange) Encode(encoder scale.Encoder) error {
	return encoder.EncodeOption(o.HasValue, o.Value)
}

// Decode implements scale.Decodeable.
func (o *OptionalPendingChange) Decode(decoder scale.Decoder) error {
	*o = OptionalPendingChange{}
	return decoder.DecodeOption(&o.HasValue, &o.Value)
}

// Equal reports whether both lists hold the same voters with the same weights in order.
func (l AuthorityList) Equal(other AuthorityList) bool {
	if len(l) != len(other) {
		return false
	}
	for i := range l {
		if l[i] != other[i] {
			return false
		}
	}
	return true
}
