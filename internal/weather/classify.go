package weather

import "net/http"

// Outcome is the classification of a transport result.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeServiceError
	OutcomeTransportFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeServiceError:
		return "service-error"
	default:
		return "transport-failure"
	}
}

// Err returns the sentinel matching the outcome, nil for success.
func (o Outcome) Err() error {
	switch o {
	case OutcomeSuccess:
		return nil
	case OutcomeServiceError:
		return ErrServiceError
	default:
		return ErrTransportFailure
	}
}

// MarkerFunc reports whether a body carries the service's error marker.
type MarkerFunc func(body []byte) bool

// Classify decides whether a response may advance to extraction.
func Classify(res *RawResponse, marker MarkerFunc) Outcome {
	if res == nil || res.StatusCode != http.StatusOK {
		return OutcomeTransportFailure
	}
	if marker != nil && marker(res.Body) {
		return OutcomeServiceError
	}
	return OutcomeSuccess
}
