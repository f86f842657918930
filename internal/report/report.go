// Package report renders forecast rows into dated text reports.
package report

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/i474232898/wx-forecast/internal/store"
	"github.com/i474232898/wx-forecast/internal/weather"
)

// Report headers for the two variants.
const (
	NationalHeader = "City - Daily Maximum Temperature"
	WorldHeader    = "Country - City - Daily Maximum Temperature"
)

const fileSuffix = "_wx_forecast.txt"

var namePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}_wx_forecast(\(\d+\))?\.txt$`)

var ErrInvalidName = errors.New("invalid report name")

// Breaks tells the writer which rows are followed by a blank line.
type Breaks interface {
	Has(key string) bool
}

// Writer writes reports into one directory.
type Writer struct {
	dir    string
	header string
}

func NewWriter(dir, header string) *Writer {
	return &Writer{dir: dir, header: header}
}

// Dir returns the report directory.
func (w *Writer) Dir() string {
	return w.dir
}

// FileName returns the base report name for a target date.
func FileName(targetDate time.Time) string {
	return targetDate.Format(weather.DateLayout) + fileSuffix
}

// Render builds the report body: header, blank line, one "label - value"
// line per row, and a blank line after every row whose key is in breaks.
func (w *Writer) Render(rows []weather.ForecastRow, breaks Breaks) []byte {
	var b strings.Builder
	b.WriteString(w.header)
	b.WriteString("\n\n")
	for _, row := range rows {
		value := row.MaxTemp
		if value == "" {
			value = weather.NotAvailable
		}
		fmt.Fprintf(&b, "%s - %s\n", row.Label, value)
		if breaks != nil && breaks.Has(row.Key) {
			b.WriteString("\n")
		}
	}
	return []byte(b.String())
}

// Write renders rows and stores them as {date}_wx_forecast.txt, or as the
// next free (1), (2), ... variant when that name is taken.
func (w *Writer) Write(rows []weather.ForecastRow, targetDate time.Time, breaks Breaks) (string, error) {
	return store.SaveUnique(w.dir, FileName(targetDate), w.Render(rows, breaks), store.SchemeSequential)
}

// List returns the report file names in dir, oldest target date first.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}
	names := []string{}
	for _, e := range entries {
		if e.Type().IsRegular() && namePattern.MatchString(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Read returns the content of the named report. Names that are not report
// file names are rejected with ErrInvalidName; absent reports yield
// store.ErrNotFound.
func Read(dir, name string) ([]byte, error) {
	if !namePattern.MatchString(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	b, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: report %s", store.ErrNotFound, name)
		}
		return nil, err
	}
	return b, nil
}
