package mock

import (
	errorsmod "cosmossdk.io/errors"

	clienttypes "github.com/ComposableFi/light-clients/modules/core/02-client/types"
	"github.com/ComposableFi/light-clients/modules/core/exported"
)

var (
	_ exported.ClientMessage = (*MockHeader)(nil)
	_ exported.ClientMessage = (*Misbehaviour)(nil)
)

// MockHeader moves the mock client to Height, producing a consensus state with Timestamp.
type MockHeader struct {
	Height    clienttypes.Height
	Timestamp uint64
}

func (m *MockHeader) ClientType() string {
	return exported.Mock
}

func (m *MockHeader) ValidateBasic() error {
	if m.Height.IsZero() {
		return errorsmod.Wrap(ErrInvalidClientMsg, "header height cannot be zero")
	}
	return nil
}

// Misbehaviour is accepted unconditionally and freezes the mock client.
type Misbehaviour struct {
	Height clienttypes.Height
}

func (m *Misbehaviour) ClientType() string {
	return exported.Mock
}

func (m *Misbehaviour) ValidateBasic() error {
	return nil
}
