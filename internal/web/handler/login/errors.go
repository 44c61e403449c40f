package login

import "errors"

// ErrInvalidFormData is shown when the submitted login form cannot be parsed.
var ErrInvalidFormData = errors.New("invalid form data")
