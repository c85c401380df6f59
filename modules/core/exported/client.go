package exported

// Status represents the status of a client
type Status string

const (
	// ModuleName defines the IBC module name
	ModuleName = "ibc"

	// TypeClientMisbehaviour is the shared evidence misbehaviour type
	TypeClientMisbehaviour string = "client_misbehaviour"

	// Mock is used to indicate that the client is the in-memory mock client used by tests.
	Mock string = "00-mock"

	// Tendermint is used to indicate that the client uses the Tendermint Consensus Algorithm.
	// The variant is reserved in the client codec but has no implementation in this module.
	Tendermint string = "07-tendermint"

	// Grandpa is used to indicate that the client tracks a parachain through GRANDPA
	// finality proofs of its relay chain.
	Grandpa string = "10-grandpa"

	// Beefy is used to indicate that the client tracks a parachain through BEEFY
	// commitments of its relay chain.
	Beefy string = "11-beefy"

	// Active is a status type of a client. An active client is allowed to be used.
	Active Status = "Active"

	// Frozen is a status type of a client. A frozen client is not allowed to be used.
	Frozen Status = "Frozen"

	// Expired is a status type of a client. An expired client is not allowed to be used.
	Expired Status = "Expired"

	// Unknown indicates there was an error in determining the status of a client.
	Unknown Status = "Unknown"
)

// ClientState defines the required common functions for light clients.
type ClientState interface {
	ClientType() string
	GetLatestHeight() Height
	Validate() error

	// Status must return the status of the client. Only Active clients are allowed to process packets.
	Status(ctx Context, clientStore ClientStore, cdc Codec) Status

	// GetTimestampAtHeight must return the timestamp for the consensus state associated with the provided height.
	GetTimestampAtHeight(
		ctx Context,
		clientStore ClientStore,
		cdc Codec,
		height Height,
	) (uint64, error)

	// Initialization function
	// Clients must validate the initial consensus state, and may store any client-specific metadata
	// necessary for correct light client operation
	Initialize(ctx Context, cdc Codec, clientStore ClientStore, consensusState ConsensusState) error

	// VerifyMembership is a generic proof verification method which verifies a proof of the existence of a value at a given CommitmentPath at the specified height.
	// The caller is expected to construct the full CommitmentPath from a CommitmentPrefix and a standardized path (as defined in ICS 24).
	VerifyMembership(
		ctx Context,
		clientStore ClientStore,
		cdc Codec,
		height Height,
		delayTimePeriod uint64,
		delayBlockPeriod uint64,
		proof []byte,
		path Path,
		value []byte,
	) error

	// VerifyNonMembership is a generic proof verification method which verifies the absence of a given CommitmentPath at a specified height.
	// The caller is expected to construct the full CommitmentPath from a CommitmentPrefix and a standardized path (as defined in ICS 24).
	VerifyNonMembership(
		ctx Context,
		clientStore ClientStore,
		cdc Codec,
		height Height,
		delayTimePeriod uint64,
		delayBlockPeriod uint64,
		proof []byte,
		path Path,
	) error

	// VerifyClientMessage must verify a ClientMessage. A ClientMessage could be a Header or Misbehaviour.
	// It must handle each type of ClientMessage appropriately. Calls to CheckForMisbehaviour, UpdateState, and UpdateStateOnMisbehaviour
	// will assume that the content of the ClientMessage has been verified and can be trusted. An error should be returned
	// if the ClientMessage fails to verify.
	VerifyClientMessage(ctx Context, cdc Codec, clientStore ClientStore, clientMsg ClientMessage) error

	// Checks for evidence of a misbehaviour in Header or Misbehaviour type. It assumes the ClientMessage
	// has already been verified.
	CheckForMisbehaviour(ctx Context, cdc Codec, clientStore ClientStore, clientMsg ClientMessage) bool

	// UpdateStateOnMisbehaviour should perform appropriate state changes on a client state given that misbehaviour has been detected and verified
	UpdateStateOnMisbehaviour(ctx Context, cdc Codec, clientStore ClientStore, clientMsg ClientMessage) error

	// UpdateState updates and stores as necessary any associated information for an IBC client, such as the ClientState and corresponding ConsensusState.
	// Upon successful update, a list of consensus heights is returned. It assumes the ClientMessage has already been verified.
	UpdateState(ctx Context, cdc Codec, clientStore ClientStore, clientMsg ClientMessage) ([]Height, error)
}

// ClientMessageApplier is implemented by client states whose header verification computes the
// update. ApplyClientMessage verifies clientMsg like VerifyClientMessage and returns the message
// to pass to CheckForMisbehaviour, UpdateStateOnMisbehaviour and UpdateState, which then reuse the
// verified update instead of verifying the header again.
type ClientMessageApplier interface {
	ApplyClientMessage(ctx Context, cdc Codec, clientStore ClientStore, clientMsg ClientMessage) (ClientMessage, error)
}

// ConsensusState is the state of the consensus process
type ConsensusState interface {
	ClientType() string // Consensus kind

	// GetRoot returns the commitment root of the consensus state,
	// which is used for key-value pair verification.
	GetRoot() []byte

	// GetTimestamp returns the timestamp (in nanoseconds) of the consensus state
	GetTimestamp() uint64

	ValidateBasic() error
}

// ClientMessage is an interface used to update an IBC client.
// The update may be done by a single header or by misbehaviour evidence.
type ClientMessage interface {
	ClientType() string
	ValidateBasic() error
}

// Height is a wrapper interface over clienttypes.Height
// all clients must use the concrete implementation in types
type Height interface {
	IsZero() bool
	LT(Height) bool
	LTE(Height) bool
	EQ(Height) bool
	GT(Height) bool
	GTE(Height) bool
	GetRevisionNumber() uint64
	GetRevisionHeight() uint64
	Increment() Height
	Decrement() (Height, bool)
	String() string
}

// String returns the string representation of a client status.
func (s Status) String() string {
	return string(s)
}
