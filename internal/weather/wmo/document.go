package wmo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/i474232898/wx-forecast/internal/weather"
)

// cityDocument is the part of a per-city forecast document the extractor
// reads.
type cityDocument struct {
	City *struct {
		Member struct {
			MemName string `json:"memName"`
		} `json:"member"`
		CityName string `json:"cityName"`
		Forecast struct {
			ForecastDay []forecastDay `json:"forecastDay"`
		} `json:"forecast"`
	} `json:"city"`
}

type forecastDay struct {
	ForecastDate string     `json:"forecastDate"`
	MaxTemp      flexString `json:"maxTemp"`
}

// flexString accepts either a JSON string or a JSON number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("maxTemp: %w", err)
	}
	*f = flexString(n.String())
	return nil
}

// HasErrorMarker reports whether a body is not a per-city forecast
// document, i.e. not a JSON object carrying a "city" member.
func HasErrorMarker(body []byte) bool {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return true
	}
	raw, ok := doc["city"]
	return !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// Extract reads one city's maximum temperature for targetDate. A missing
// date, or an empty value on that date, yields weather.NotAvailable.
func Extract(body []byte, targetDate time.Time) (weather.ForecastRow, error) {
	var doc cityDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return weather.ForecastRow{}, fmt.Errorf("%w: decode city document: %v", weather.ErrServiceError, err)
	}
	if doc.City == nil {
		return weather.ForecastRow{}, fmt.Errorf("%w: city document has no city", weather.ErrServiceError)
	}

	country := doc.City.Member.MemName
	city := doc.City.CityName
	row := weather.ForecastRow{
		Key:     weather.CityKey(country, city),
		Label:   country + " - " + city,
		MaxTemp: weather.NotAvailable,
	}

	date := targetDate.Format(weather.DateLayout)
	for _, day := range doc.City.Forecast.ForecastDay {
		if strings.TrimSpace(day.ForecastDate) != date {
			continue
		}
		if v := strings.TrimSpace(string(day.MaxTemp)); v != "" {
			row.MaxTemp = v
		}
		break
	}
	return row, nil
}

// ArchiveName derives the archive file name from the request timestamp.
func ArchiveName(requested time.Time) string {
	return requested.UTC().Format("20060102150405") + "_t.json"
}

// ArchiveBody joins per-city documents into one JSON array.
func ArchiveBody(bodies [][]byte) ([]byte, error) {
	raws := make([]json.RawMessage, 0, len(bodies))
	for i, b := range bodies {
		if !json.Valid(b) {
			return nil, fmt.Errorf("document %d is not valid JSON", i)
		}
		raws = append(raws, json.RawMessage(b))
	}
	return json.Marshal(raws)
}
