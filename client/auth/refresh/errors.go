package refresh

import (
	"errors"
	"fmt"
)

// ErrAuthenticationRequired is returned once the session can no longer be renewed.
var ErrAuthenticationRequired = errors.New("authentication required")

// ErrNoRefreshToken reports that no usable refresh token was stored; it matches ErrAuthenticationRequired.
var ErrNoRefreshToken = fmt.Errorf("%w: no refresh token", ErrAuthenticationRequired)
