package types

// Log keys of the client keeper.
const (
	AttributeKeyClientID        = "client_id"
	AttributeKeyClientType      = "client_type"
	AttributeKeyConsensusHeight = "consensus_height"
	AttributeKeyUpdateType      = "update_type"

	UpdateTypeHeader       = "header"
	UpdateTypeMisbehaviour = "misbehaviour"
)
