package wmo

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/i474232898/wx-forecast/internal/weather"
)

type scriptedTransport struct {
	urls      []string
	responses map[string]*weather.RawResponse
	errs      map[string]error
}

func (s *scriptedTransport) Fetch(_ context.Context, endpoint string, _ url.Values) (*weather.RawResponse, error) {
	s.urls = append(s.urls, endpoint)
	if err := s.errs[endpoint]; err != nil {
		return nil, err
	}
	if res, ok := s.responses[endpoint]; ok {
		return res, nil
	}
	return &weather.RawResponse{StatusCode: 404, Body: []byte("not found")}, nil
}

var cities = []weather.City{
	{Country: "Japan", City: "Tokyo", CityID: 206},
	{Country: "France", City: "Paris", CityID: 195},
	{Country: "Peru", City: "Lima", CityID: 90},
}

func ok(name string) *weather.RawResponse {
	return &weather.RawResponse{StatusCode: 200, Body: []byte(`{"city":{"cityName":"` + name + `"}}`)}
}

func TestNewRequestValidation(t *testing.T) {
	if _, err := NewRequest(nil, ""); !errors.Is(err, weather.ErrValidation) {
		t.Fatalf("empty request err = %v, want ErrValidation", err)
	}
	if _, err := NewRequest([]weather.City{{City: "Nowhere", CityID: 0}}, ""); !errors.Is(err, weather.ErrValidation) {
		t.Fatalf("zero city id err = %v, want ErrValidation", err)
	}
	r, err := NewRequest(cities, "http://example.test/json/")
	if err != nil {
		t.Fatal(err)
	}
	if got := r.URL(206); got != "http://example.test/json/206_en.json" {
		t.Fatalf("URL() = %q", got)
	}
	def, _ := NewRequest(cities, "")
	if got := def.URL(1); got != DefaultBaseURL+"/1_en.json" {
		t.Fatalf("default URL() = %q", got)
	}
}

func TestSendAllSucceed(t *testing.T) {
	r, _ := NewRequest(cities, "http://wmo.test")
	tr := &scriptedTransport{responses: map[string]*weather.RawResponse{
		r.URL(206): ok("Tokyo"),
		r.URL(195): ok("Paris"),
		r.URL(90):  ok("Lima"),
	}}

	batch, err := r.Send(context.Background(), tr)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(batch.Responses) != 3 || batch.Failed != nil || batch.FailedCity != nil {
		t.Fatalf("batch = %+v", batch)
	}
	want := []string{r.URL(206), r.URL(195), r.URL(90)}
	for i := range want {
		if tr.urls[i] != want[i] {
			t.Fatalf("fetch %d went to %q, want %q", i, tr.urls[i], want[i])
		}
	}
}

func TestSendStopsAtFirstFailure(t *testing.T) {
	r, _ := NewRequest(cities, "http://wmo.test")

	t.Run("bad status", func(t *testing.T) {
		tr := &scriptedTransport{responses: map[string]*weather.RawResponse{r.URL(206): ok("Tokyo")}}
		batch, err := r.Send(context.Background(), tr)
		if !errors.Is(err, weather.ErrTransportFailure) {
			t.Fatalf("err = %v, want ErrTransportFailure", err)
		}
		if len(batch.Responses) != 1 {
			t.Fatalf("collected %d successes, want 1", len(batch.Responses))
		}
		if batch.Failed == nil || batch.Failed.StatusCode != 404 {
			t.Fatalf("Failed = %+v, want the 404 response", batch.Failed)
		}
		if batch.FailedCity == nil || batch.FailedCity.CityID != 195 {
			t.Fatalf("FailedCity = %+v", batch.FailedCity)
		}
		if len(tr.urls) != 2 {
			t.Fatalf("made %d fetches, want 2", len(tr.urls))
		}
	})

	t.Run("no response", func(t *testing.T) {
		tr := &scriptedTransport{errs: map[string]error{r.URL(206): errors.New("dial tcp: timeout")}}
		batch, err := r.Send(context.Background(), tr)
		if !errors.Is(err, weather.ErrTransportFailure) {
			t.Fatalf("err = %v, want ErrTransportFailure", err)
		}
		if len(batch.Responses) != 0 || batch.Failed != nil {
			t.Fatalf("batch = %+v", batch)
		}
	})

	t.Run("service error body", func(t *testing.T) {
		tr := &scriptedTransport{responses: map[string]*weather.RawResponse{
			r.URL(206): ok("Tokyo"),
			r.URL(195): ok("Paris"),
			r.URL(90):  {StatusCode: 200, Body: []byte(`{"message":"unknown city"}`)},
		}}
		batch, err := r.Send(context.Background(), tr)
		if !errors.Is(err, weather.ErrServiceError) {
			t.Fatalf("err = %v, want ErrServiceError", err)
		}
		if len(batch.Bodies()) != 2 {
			t.Fatalf("collected %d bodies, want 2", len(batch.Bodies()))
		}
	})
}
