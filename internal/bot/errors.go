package bot

import "errors"

var (
	// ErrMalformedCallback is returned when a button payload does not parse as "<action> [<id>]".
	ErrMalformedCallback = errors.New("malformed callback data")
	// ErrRecipeUnavailable wraps any failure of the recipe generator.
	ErrRecipeUnavailable = errors.New("recipe generator unavailable")
)

// userMessage maps a handler error onto the reply shown to the user.
func userMessage(err error) string {
	switch {
	case errors.Is(err, ErrMalformedCallback):
		return msgMalformedCallback
	case errors.Is(err, ErrRecipeUnavailable):
		return msgRecipeFailed
	default:
		return msgInternalError
	}
}
