package input

import (
	"bufio"
	"errors"
	"strings"

	"github.com/i474232898/wx-forecast/internal/weather"
)

// Linebreaks is the set of location keys after which a report gets a blank
// line.
type Linebreaks map[string]struct{}

// Has reports whether key is in the set. A nil set has no keys.
func (l Linebreaks) Has(key string) bool {
	_, ok := l[key]
	return ok
}

// LoadLinebreaks reads one key per line. A missing file yields an empty set;
// blank lines are ignored. Keys are a city name for the national list and
// "Country";"City" for the world list.
func LoadLinebreaks(path string) (Linebreaks, error) {
	f, r, err := open(path)
	if err != nil {
		if errors.Is(err, weather.ErrInputNotFound) {
			return Linebreaks{}, nil
		}
		return nil, err
	}
	defer f.Close()

	set := Linebreaks{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		key := strings.TrimSpace(strings.TrimRight(sc.Text(), "\r"))
		if key == "" {
			continue
		}
		set[key] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return set, nil
}
