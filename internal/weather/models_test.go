package weather

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestLocationLatLon(t *testing.T) {
	cases := []struct {
		loc  Location
		want string
	}{
		{Location{Lat: 40.71, Lon: -74.01}, "40.71,-74.01"},
		{Location{Lat: 34, Lon: -118.25}, "34,-118.25"},
		{Location{Lat: -0.5, Lon: 179.999}, "-0.5,179.999"},
	}
	for _, tc := range cases {
		if got := tc.loc.LatLon(); got != tc.want {
			t.Errorf("LatLon() = %q, want %q", got, tc.want)
		}
	}
}

func TestCityKey(t *testing.T) {
	c := City{Country: "Japan", City: "Tokyo", CityID: 1}
	if got, want := c.Key(), `"Japan";"Tokyo"`; got != want {
		t.Fatalf("Key() = %q, want %q", got, want)
	}
}

func TestTargetDateTime(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	now := time.Date(2024, 12, 31, 23, 30, 0, 0, loc)
	got := TargetDateTime(now)
	want := time.Date(2025, 1, 1, 12, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("TargetDateTime() = %v, want %v", got, want)
	}
}

func TestUserMessage(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, "finished"},
		{fmt.Errorf("open cities.csv: %w", ErrInputNotFound), "could not be found"},
		{fmt.Errorf("header: %w", ErrInputMalformed), "not properly formatted"},
		{ErrOnCooldown, "cooldown"},
		{fmt.Errorf("%w: too many pairs", ErrValidation), "too many pairs"},
		{ErrServiceError, "returned an error"},
		{ErrTransportFailure, "did not respond"},
	}
	for _, tc := range cases {
		if got := UserMessage(tc.err); !strings.Contains(got, tc.want) {
			t.Errorf("UserMessage(%v) = %q, want it to contain %q", tc.err, got, tc.want)
		}
	}
}
