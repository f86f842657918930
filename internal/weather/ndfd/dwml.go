package ndfd

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"

	"github.com/i474232898/wx-forecast/internal/weather"
)

// dwml is the subset of a Digital Weather Markup Language document the
// extractor reads.
type dwml struct {
	XMLName      xml.Name     `xml:"dwml"`
	CreationDate string       `xml:"head>product>creation-date"`
	TimeLayouts  []timeLayout `xml:"data>time-layout"`
	Parameters   []parameters `xml:"data>parameters"`
}

type timeLayout struct {
	LayoutKey      string   `xml:"layout-key"`
	StartValidTime []string `xml:"start-valid-time"`
}

type parameters struct {
	ApplicableLocation string        `xml:"applicable-location,attr"`
	Temperatures       []temperature `xml:"temperature"`
}

type temperature struct {
	Type       string         `xml:"type,attr"`
	Units      string         `xml:"units,attr"`
	TimeLayout string         `xml:"time-layout,attr"`
	Values     []temperatureV `xml:"value"`
}

type temperatureV struct {
	Nil   string `xml:"nil,attr"`
	Value string `xml:",chardata"`
}

func newDecoder(body []byte) *xml.Decoder {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = charsetReader
	return dec
}

// charsetReader lets documents declared as Latin-1 decode alongside UTF-8.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "utf-8", "utf8", "us-ascii", "ascii":
		return input, nil
	case "iso-8859-1", "iso8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(input), nil
	default:
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
}

// HasErrorMarker reports whether the document contains an <error> element
// anywhere. Markup that stops parsing is scanned up to the failure point.
func HasErrorMarker(body []byte) bool {
	dec := newDecoder(body)
	dec.Strict = false
	for {
		tok, err := dec.Token()
		if err != nil {
			return false
		}
		if se, ok := tok.(xml.StartElement); ok && strings.EqualFold(se.Name.Local, "error") {
			return true
		}
	}
}

// CreationDate returns the document's creation-date, if present.
func CreationDate(body []byte) (time.Time, bool) {
	doc, err := decode(body)
	if err != nil || doc.CreationDate == "" {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339, strings.TrimSpace(doc.CreationDate))
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// ArchiveName derives the archive file name from the creation-date:
// YYYYMMDDHHMMSS_t.xml in UTC, or ERROR.xml when the document has none.
func ArchiveName(body []byte) string {
	ts, ok := CreationDate(body)
	if !ok {
		return "ERROR.xml"
	}
	return ts.UTC().Format("20060102150405") + "_t.xml"
}

// Extract reads the maximum temperature for targetDate at every location, in
// submission order. A location whose time layout lacks the target date gets
// weather.NotAvailable.
func Extract(body []byte, targetDate time.Time, locs []weather.Location) ([]weather.ForecastRow, error) {
	doc, err := decode(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", weather.ErrServiceError, err)
	}
	if len(doc.TimeLayouts) == 0 {
		return nil, weather.ErrExtractionGap
	}

	blocks := maxTemperatureBlocks(doc)
	if len(blocks) != len(locs) {
		return nil, fmt.Errorf("%w: %d temperature blocks for %d locations", weather.ErrServiceError, len(blocks), len(locs))
	}

	layouts := make(map[string]timeLayout, len(doc.TimeLayouts))
	for _, tl := range doc.TimeLayouts {
		layouts[strings.TrimSpace(tl.LayoutKey)] = tl
	}

	date := targetDate.Format(weather.DateLayout)
	rows := make([]weather.ForecastRow, 0, len(locs))
	for i, loc := range locs {
		block := blocks[i]
		tl, ok := layouts[strings.TrimSpace(block.TimeLayout)]
		if !ok {
			tl = doc.TimeLayouts[0]
		}

		value := weather.NotAvailable
		if idx := dateIndex(tl, date); idx >= 0 && idx < len(block.Values) {
			if v := block.Values[idx]; v.Nil != "true" && strings.TrimSpace(v.Value) != "" {
				value = strings.TrimSpace(v.Value)
			}
		}
		rows = append(rows, weather.ForecastRow{Key: loc.Key(), Label: loc.Name, MaxTemp: value})
	}
	return rows, nil
}

// Missing returns the keys of rows whose value is not available.
func Missing(rows []weather.ForecastRow) []string {
	var keys []string
	for _, r := range rows {
		if r.MaxTemp == weather.NotAvailable {
			keys = append(keys, r.Key)
		}
	}
	return keys
}

func decode(body []byte) (*dwml, error) {
	var doc dwml
	if err := newDecoder(body).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty document")
		}
		return nil, fmt.Errorf("decode dwml: %w", err)
	}
	return &doc, nil
}

// maxTemperatureBlocks returns one block per location in document order.
// Documents from a maxt-only query carry untyped blocks, which count too.
func maxTemperatureBlocks(doc *dwml) []temperature {
	var out []temperature
	for _, p := range doc.Parameters {
		for _, t := range p.Temperatures {
			if t.Type == "" || t.Type == "maximum" {
				out = append(out, t)
			}
		}
	}
	return out
}

func dateIndex(tl timeLayout, date string) int {
	for i, raw := range tl.StartValidTime {
		ts, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
		if err != nil {
			// some layouts omit the offset
			ts, err = time.Parse(isoLayout, strings.TrimSpace(raw))
			if err != nil {
				continue
			}
		}
		if ts.Format(weather.DateLayout) == date {
			return i
		}
	}
	return -1
}
