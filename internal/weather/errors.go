package weather

import "errors"

var (
	ErrInputNotFound    = errors.New("input file not found")
	ErrInputMalformed   = errors.New("input file is not properly formatted")
	ErrOnCooldown       = errors.New("query is on cooldown")
	ErrValidation       = errors.New("invalid query")
	ErrTransportFailure = errors.New("no usable response from the service")
	ErrServiceError     = errors.New("service returned an error")
	// ErrExtractionGap is returned when a document carries no usable time
	// layout at all. A single location missing the target date is filled
	// with NotAvailable instead.
	ErrExtractionGap = errors.New("forecast document has no usable time layout")
)

// UserMessage maps an error from a run to the one line shown to the user.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return "The program has finished."
	case errors.Is(err, ErrInputNotFound):
		return "PROGRAM INTERRUPTED! The locations file could not be found."
	case errors.Is(err, ErrInputMalformed):
		return "PROGRAM INTERRUPTED! The locations file is not properly formatted."
	case errors.Is(err, ErrOnCooldown):
		return "The program is on cooldown. The duration of cooldown is 1 hour from the last completed runtime."
	case errors.Is(err, ErrValidation):
		return "PROGRAM INTERRUPTED! The query could not be built: " + err.Error()
	case errors.Is(err, ErrServiceError):
		return "The weather service returned an error."
	case errors.Is(err, ErrTransportFailure):
		return "The weather service did not respond."
	case errors.Is(err, ErrExtractionGap):
		return "The forecast could not be read from the response."
	default:
		return "PROGRAM INTERRUPTED! " + err.Error()
	}
}
