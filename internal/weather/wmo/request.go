package wmo

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/i474232898/wx-forecast/internal/weather"
)

// DefaultBaseURL serves one JSON document per city id.
const DefaultBaseURL = "https://worldweather.wmo.int/en/json"

// Request is an ordered list of cities to fetch, one GET each.
type Request struct {
	cities  []weather.City
	baseURL string
}

// NewRequest validates the city list. An empty baseURL selects
// DefaultBaseURL.
func NewRequest(cities []weather.City, baseURL string) (*Request, error) {
	if len(cities) == 0 {
		return nil, fmt.Errorf("%w: the request must have at least one city", weather.ErrValidation)
	}
	for _, c := range cities {
		if c.CityID <= 0 {
			return nil, fmt.Errorf("%w: city id %d for %q is not positive", weather.ErrValidation, c.CityID, c.City)
		}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Request{
		cities:  append([]weather.City(nil), cities...),
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Cities returns the cities in request order.
func (r *Request) Cities() []weather.City {
	return append([]weather.City(nil), r.cities...)
}

// URL returns the document address for a city id.
func (r *Request) URL(cityID int) string {
	return r.baseURL + "/" + strconv.Itoa(cityID) + "_en.json"
}

// Batch collects the per-city results of one Send.
type Batch struct {
	// Responses holds successful responses, in request order.
	Responses []*weather.RawResponse
	// Failed is the response that stopped the batch, when one was received.
	Failed *weather.RawResponse
	// FailedCity is the city whose fetch stopped the batch.
	FailedCity *weather.City
}

// Bodies returns the successful response bodies.
func (b *Batch) Bodies() [][]byte {
	out := make([][]byte, 0, len(b.Responses))
	for _, res := range b.Responses {
		out = append(out, res.Body)
	}
	return out
}

// Send fetches every city strictly in order and stops at the first one that
// is not a success. The returned batch always holds the successes collected
// so far; the error wraps weather.ErrTransportFailure or
// weather.ErrServiceError.
func (r *Request) Send(ctx context.Context, t weather.Transport) (*Batch, error) {
	batch := &Batch{Responses: make([]*weather.RawResponse, 0, len(r.cities))}
	for i := range r.cities {
		city := r.cities[i]
		res, err := t.Fetch(ctx, r.URL(city.CityID), nil)
		if err != nil {
			batch.FailedCity = &city
			return batch, fmt.Errorf("%w: city %d (%s): %v", weather.ErrTransportFailure, city.CityID, city.City, err)
		}
		if outcome := weather.Classify(res, HasErrorMarker); outcome != weather.OutcomeSuccess {
			batch.Failed = res
			batch.FailedCity = &city
			return batch, fmt.Errorf("%w: city %d (%s): status %d", outcome.Err(), city.CityID, city.City, res.StatusCode)
		}
		batch.Responses = append(batch.Responses, res)
	}
	return batch, nil
}
