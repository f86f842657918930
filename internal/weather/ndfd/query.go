package ndfd

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/i474232898/wx-forecast/internal/weather"
)

// DefaultEndpoint is the NDFD XML REST client.
const DefaultEndpoint = "https://graphical.weather.gov/xml/sample_products/browser_interface/ndfdXMLclient.php"

// MaxPoints is the largest number of coordinate pairs the service accepts in
// one listLatLon.
const MaxPoints = 200

// Product selects the NDFD product.
type Product string

const (
	ProductGlance     Product = "glance"
	ProductTimeSeries Product = "time-series"
)

// Unit selects the unit system. The zero value leaves it to the service.
type Unit string

const (
	UnitEnglish Unit = "e"
	UnitMetric  Unit = "m"
)

const isoLayout = "2006-01-02T15:04:05"

var (
	coordPattern    = regexp.MustCompile(`^-?\d{1,3}(\.\d*)?$`)
	listLatLonRegex = regexp.MustCompile(`^(-?\d{1,3}(\.\d*)?,-?\d{1,3}(\.\d*)? ){0,199}-?\d{1,3}(\.\d*)?,-?\d{1,3}(\.\d*)?$`)
)

// Query is a validated multiple-point unsummarized data request. It is
// immutable once returned by NewQuery.
type Query struct {
	pairs    []string
	product  Product
	begin    *time.Time
	end      *time.Time
	unit     Unit
	elements []string
}

// Option configures a Query under construction.
type Option func(*Query) error

// NewQuery builds a Query. Any invalid option fails the whole construction
// with an error wrapping weather.ErrValidation.
func NewQuery(opts ...Option) (*Query, error) {
	q := &Query{product: ProductGlance}
	for _, opt := range opts {
		if err := opt(q); err != nil {
			return nil, err
		}
	}
	return q, nil
}

// WithLocations replaces the coordinate list with the locations' pairs, in
// order.
func WithLocations(locs []weather.Location) Option {
	return func(q *Query) error {
		if len(locs) > MaxPoints {
			return fmt.Errorf("%w: %d coordinate pairs exceed the limit of %d", weather.ErrValidation, len(locs), MaxPoints)
		}
		pairs := make([]string, 0, len(locs))
		for _, l := range locs {
			lat, lon := formatPair(l)
			if !coordPattern.MatchString(lat) || !coordPattern.MatchString(lon) {
				return fmt.Errorf("%w: coordinates %q for %q are not properly formatted", weather.ErrValidation, l.LatLon(), l.Name)
			}
			pairs = append(pairs, lat+","+lon)
		}
		q.pairs = pairs
		return nil
	}
}

// WithListLatLon replaces the coordinate list with a pre-formatted
// "lat,lon lat,lon" string. An empty string clears it.
func WithListLatLon(raw string) Option {
	return func(q *Query) error {
		if raw == "" {
			q.pairs = nil
			return nil
		}
		if !listLatLonRegex.MatchString(raw) {
			return fmt.Errorf("%w: the listLatLon string is not properly formatted", weather.ErrValidation)
		}
		q.pairs = strings.Split(raw, " ")
		return nil
	}
}

func WithProduct(p Product) Option {
	return func(q *Query) error {
		switch p {
		case ProductGlance, ProductTimeSeries:
			q.product = p
			return nil
		default:
			return fmt.Errorf("%w: product must be %q or %q, got %q", weather.ErrValidation, ProductTimeSeries, ProductGlance, p)
		}
	}
}

// WithWindow sets begin and end. A zero time leaves that bound unset.
func WithWindow(begin, end time.Time) Option {
	return func(q *Query) error {
		q.begin = optionalTime(begin)
		q.end = optionalTime(end)
		return nil
	}
}

func WithUnit(u Unit) Option {
	return func(q *Query) error {
		switch u {
		case "", UnitEnglish, UnitMetric:
			q.unit = u
			return nil
		default:
			return fmt.Errorf("%w: unit must be %q, %q or empty, got %q", weather.ErrValidation, UnitEnglish, UnitMetric, u)
		}
	}
}

// WithElements replaces the element list. Duplicates collapse to their first
// occurrence.
func WithElements(elements ...string) Option {
	return func(q *Query) error {
		deduped, err := dedupeElements(elements)
		if err != nil {
			return err
		}
		q.elements = deduped
		return nil
	}
}

// AddElements returns a copy of q with elements appended.
func (q *Query) AddElements(elements ...string) (*Query, error) {
	merged := append(append([]string{}, q.elements...), elements...)
	deduped, err := dedupeElements(merged)
	if err != nil {
		return nil, err
	}
	c := q.clone()
	c.elements = deduped
	return c, nil
}

// RemoveElements returns a copy of q without the given elements.
func (q *Query) RemoveElements(elements ...string) *Query {
	drop := make(map[string]bool, len(elements))
	for _, e := range elements {
		drop[e] = true
	}
	c := q.clone()
	c.elements = c.elements[:0:0]
	for _, e := range q.elements {
		if !drop[e] {
			c.elements = append(c.elements, e)
		}
	}
	return c
}

func (q *Query) Product() Product { return q.product }

func (q *Query) Unit() Unit { return q.unit }

// Elements returns the selected elements in first-seen order.
func (q *Query) Elements() []string {
	return append([]string(nil), q.elements...)
}

// ListLatLon returns the space-separated coordinate list.
func (q *Query) ListLatLon() string {
	return strings.Join(q.pairs, " ")
}

// Points returns the number of coordinate pairs.
func (q *Query) Points() int {
	return len(q.pairs)
}

// Params builds the query string sent to the service.
func (q *Query) Params() url.Values {
	v := url.Values{}
	v.Set("listLatLon", q.ListLatLon())
	v.Set("product", string(q.product))
	if q.begin != nil {
		v.Set("begin", q.begin.Format(isoLayout))
	}
	if q.end != nil {
		v.Set("end", q.end.Format(isoLayout))
	}
	if q.unit != "" {
		v.Set("Unit", string(q.unit))
	}
	if q.product == ProductTimeSeries {
		for _, e := range q.elements {
			v.Set(e, e)
		}
	}
	return v
}

func (q *Query) String() string {
	return q.Params().Encode()
}

// Send checks that the query is complete and issues it through t.
func (q *Query) Send(ctx context.Context, t weather.Transport, endpoint string) (*weather.RawResponse, error) {
	if len(q.pairs) == 0 {
		return nil, fmt.Errorf("%w: the query must have coordinates", weather.ErrValidation)
	}
	if q.product == ProductTimeSeries && len(q.elements) == 0 {
		return nil, fmt.Errorf("%w: a time-series query must have at least one element", weather.ErrValidation)
	}
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	res, err := t.Fetch(ctx, endpoint, q.Params())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", weather.ErrTransportFailure, err)
	}
	return res, nil
}

func (q *Query) clone() *Query {
	c := *q
	c.pairs = append([]string(nil), q.pairs...)
	c.elements = append([]string(nil), q.elements...)
	return &c
}

func dedupeElements(elements []string) ([]string, error) {
	seen := make(map[string]bool, len(elements))
	out := make([]string, 0, len(elements))
	for _, e := range elements {
		if !IsValidElement(e) {
			return nil, fmt.Errorf("%w: %q is not a valid NDFD element", weather.ErrValidation, e)
		}
		if seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out, nil
}

func formatPair(l weather.Location) (string, string) {
	pair := l.LatLon()
	lat, lon, _ := strings.Cut(pair, ",")
	return lat, lon
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
