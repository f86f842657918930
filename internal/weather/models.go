package weather

import (
	"strconv"
	"time"
)

// NotAvailable is rendered when a location has no value for the target date.
const NotAvailable = "N/A"

// DateLayout is the civil date format used for target dates and report names.
const DateLayout = "2006-01-02"

// Location is a named point queried by coordinates.
type Location struct {
	Name string  `validate:"required"`
	Lat  float64 `validate:"min=-90,max=90"`
	Lon  float64 `validate:"min=-180,max=180"`
}

// Key returns the string matched against the line-break list.
func (l Location) Key() string {
	return l.Name
}

// LatLon renders the pair the way the point-forecast service expects it.
func (l Location) LatLon() string {
	return formatCoord(l.Lat) + "," + formatCoord(l.Lon)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// City is a location queried by its per-city service id.
type City struct {
	Country string `validate:"required"`
	City    string `validate:"required"`
	CityID  int    `validate:"gt=0"`
}

// Key returns the string matched against the line-break list.
func (c City) Key() string {
	return CityKey(c.Country, c.City)
}

// CityKey builds the line-break key for a country/city pair: "Country";"City".
func CityKey(country, city string) string {
	return strconv.Quote(country) + ";" + strconv.Quote(city)
}

// ForecastRow is one line of a report.
type ForecastRow struct {
	Key     string
	Label   string
	MaxTemp string
}

// RawResponse is what the transport returned for one request.
type RawResponse struct {
	URL        string
	StatusCode int
	Body       []byte
}

// TargetDateTime returns noon of the day after now, in now's location.
func TargetDateTime(now time.Time) time.Time {
	d := now.AddDate(0, 0, 1)
	return time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, now.Location())
}
