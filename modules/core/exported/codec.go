package exported

// Codec encodes and decodes the tagged client variants stored by the client keeper.
type Codec interface {
	MarshalClientState(clientState ClientState) ([]byte, error)
	UnmarshalClientState(bz []byte) (ClientState, error)
	MarshalConsensusState(consensusState ConsensusState) ([]byte, error)
	UnmarshalConsensusState(bz []byte) (ConsensusState, error)
	MarshalClientMessage(clientMsg ClientMessage) ([]byte, error)
	UnmarshalClientMessage(bz []byte) (ClientMessage, error)
}
