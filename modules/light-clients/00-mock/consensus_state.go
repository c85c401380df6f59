package mock

import "github.com/ComposableFi/light-clients/modules/core/exported"

var _ exported.ConsensusState = (*ConsensusState)(nil)

// ConsensusState only records the time a mock header was produced at.
type ConsensusState struct {
	Timestamp uint64
}

func (m *ConsensusState) ClientType() string {
	return exported.Mock
}

func (m *ConsensusState) GetRoot() []byte {
	return nil
}

func (m *ConsensusState) GetTimestamp() uint64 {
	return m.Timestamp
}

func (m *ConsensusState) ValidateBasic() error {
	return nil
}
