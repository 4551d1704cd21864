package navigator

import "errors"

// Navigation errors. They are local validation failures; the session state
// is left untouched when one is returned.
var (
	ErrInvalidIndex      = errors.New("invalid prompt index")
	ErrJumpBackDenied    = errors.New("jumping back is not allowed in this game")
	ErrJumpForwardDenied = errors.New("jumping forward is not allowed in this game")
	ErrWrongPrompt       = errors.New("choice is not for the current prompt")
	ErrNotImplemented    = errors.New("conditional nextPrompt is not supported; resolve it before play")
)
