package weather

import (
	"context"
	"net/url"
	"time"
)

// Transport performs one outbound GET. A non-nil error means no response was
// obtained at all; non-200 statuses are returned as a RawResponse.
type Transport interface {
	Fetch(ctx context.Context, endpoint string, params url.Values) (*RawResponse, error)
}

// CooldownStore persists the timestamp of the last successful run.
type CooldownStore interface {
	Load() (time.Time, error)
	Save(ts time.Time) error
}
