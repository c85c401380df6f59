package errors

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/ComposableFi/light-clients/modules/core/exported"
)

const codespace = exported.ModuleName

// ErrInvalidVersion defines a general error for an invalid version
var ErrInvalidVersion = errorsmod.Register(codespace, 27, "invalid version")
