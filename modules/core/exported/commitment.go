package exported

// Prefix represents the store prefix bytes under which the counterparty keeps its IBC state.
type Prefix interface {
	Bytes() []byte
	Empty() bool
}

// A path is the additional information provided to the verification function.
type Path interface {
	String() string
	Empty() bool
}
