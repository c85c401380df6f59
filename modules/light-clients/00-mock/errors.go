package mock

import (
	errorsmod "cosmossdk.io/errors"
)

// ModuleName is the codespace of the mock client errors.
const ModuleName = "mock-client"

var ErrInvalidClientMsg = errorsmod.Register(ModuleName, 2, "invalid client message")
