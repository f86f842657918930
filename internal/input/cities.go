// Package input loads the location lists and the line-break list that drive
// a run.
package input

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/i474232898/wx-forecast/internal/weather"
)

var validate = validator.New()

var (
	locationHeader = []string{"City", "Latitude", "Longitude"}
	cityHeader     = []string{"Country", "City", "CityId"}
)

// open returns a reader over path with any UTF-8 byte order mark removed.
// A missing file maps to weather.ErrInputNotFound.
func open(path string) (*os.File, io.Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", weather.ErrInputNotFound, path)
		}
		return nil, nil, err
	}
	return f, transform.NewReader(f, unicode.BOMOverride(unicode.UTF8.NewDecoder())), nil
}

func readRecords(path string, comma rune, header []string) ([][]string, error) {
	f, r, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = len(header)

	got, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s is empty", weather.ErrInputMalformed, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", weather.ErrInputMalformed, path, err)
	}
	if !equalHeader(got, header) {
		return nil, fmt.Errorf("%w: %s: header %q, want %q", weather.ErrInputMalformed, path,
			strings.Join(got, string(comma)), strings.Join(header, string(comma)))
	}

	var records [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", weather.ErrInputMalformed, path, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func equalHeader(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

// LoadLocations reads a comma-separated file with the header
// City,Latitude,Longitude. Non-numeric or out-of-range coordinates reject
// the whole file.
func LoadLocations(path string) ([]weather.Location, error) {
	records, err := readRecords(path, ',', locationHeader)
	if err != nil {
		return nil, err
	}

	locs := make([]weather.Location, 0, len(records))
	for i, rec := range records {
		line := i + 2
		lat, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: latitude %q is not a number", weather.ErrInputMalformed, path, line, rec[1])
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: longitude %q is not a number", weather.ErrInputMalformed, path, line, rec[2])
		}
		loc := weather.Location{Name: strings.TrimSpace(rec[0]), Lat: lat, Lon: lon}
		if err := validate.Struct(loc); err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", weather.ErrInputMalformed, path, line, err)
		}
		locs = append(locs, loc)
	}
	return locs, nil
}

// LoadCities reads a semicolon-separated file with the header
// Country;City;CityId.
func LoadCities(path string) ([]weather.City, error) {
	records, err := readRecords(path, ';', cityHeader)
	if err != nil {
		return nil, err
	}

	cities := make([]weather.City, 0, len(records))
	for i, rec := range records {
		line := i + 2
		id, err := strconv.Atoi(strings.TrimSpace(rec[2]))
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: city id %q is not a number", weather.ErrInputMalformed, path, line, rec[2])
		}
		c := weather.City{Country: strings.TrimSpace(rec[0]), City: strings.TrimSpace(rec[1]), CityID: id}
		if err := validate.Struct(c); err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", weather.ErrInputMalformed, path, line, err)
		}
		cities = append(cities, c)
	}
	return cities, nil
}
