package ndfd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/i474232898/wx-forecast/internal/weather"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	return b
}

var threeCities = []weather.Location{
	{Name: "New York", Lat: 40.71, Lon: -74.01},
	{Name: "Los Angeles", Lat: 34.05, Lon: -118.25},
	{Name: "Chicago", Lat: 41.88, Lon: -87.63},
}

func TestExtract(t *testing.T) {
	body := readFixture(t, "maxt_three_points.xml")

	cases := []struct {
		name string
		date time.Time
		want []string
	}{
		{"first day", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), []string{"71", "80", "60"}},
		{"second day with nil value", time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC), []string{"75", "82", weather.NotAvailable}},
		{"date outside layout", time.Date(2024, 5, 9, 12, 0, 0, 0, time.UTC), []string{weather.NotAvailable, weather.NotAvailable, weather.NotAvailable}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rows, err := Extract(body, tc.date, threeCities)
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if len(rows) != len(threeCities) {
				t.Fatalf("got %d rows, want %d", len(rows), len(threeCities))
			}
			for i, r := range rows {
				if r.Label != threeCities[i].Name || r.Key != threeCities[i].Name {
					t.Errorf("row %d label/key = %q/%q, want %q", i, r.Label, r.Key, threeCities[i].Name)
				}
				if r.MaxTemp != tc.want[i] {
					t.Errorf("row %d value = %q, want %q", i, r.MaxTemp, tc.want[i])
				}
			}
		})
	}
}

func TestExtractLocationCountMismatch(t *testing.T) {
	body := readFixture(t, "maxt_three_points.xml")
	_, err := Extract(body, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), threeCities[:2])
	if !errors.Is(err, weather.ErrServiceError) {
		t.Fatalf("err = %v, want ErrServiceError", err)
	}
}

func TestExtractWithoutTimeLayout(t *testing.T) {
	body := []byte(`<dwml><head><product><creation-date>2024-05-01T14:03:22Z</creation-date></product></head><data></data></dwml>`)
	_, err := Extract(body, time.Now(), threeCities)
	if !errors.Is(err, weather.ErrExtractionGap) {
		t.Fatalf("err = %v, want ErrExtractionGap", err)
	}
}

func TestExtractNotDWML(t *testing.T) {
	_, err := Extract(readFixture(t, "error.xml"), time.Now(), threeCities)
	if !errors.Is(err, weather.ErrServiceError) {
		t.Fatalf("err = %v, want ErrServiceError", err)
	}
}

func TestExtractPerBlockLayouts(t *testing.T) {
	body := []byte(`<?xml version="1.0" encoding="ISO-8859-1"?>
<dwml><data>
<time-layout><layout-key>a</layout-key><start-valid-time>2024-05-02T08:00:00-04:00</start-valid-time></time-layout>
<time-layout><layout-key>b</layout-key><start-valid-time>2024-05-01T08:00:00-07:00</start-valid-time><start-valid-time>2024-05-02T08:00:00-07:00</start-valid-time></time-layout>
<parameters applicable-location="point1"><temperature type="maximum" time-layout="a"><value>70</value></temperature><temperature type="minimum" time-layout="a"><value>50</value></temperature></parameters>
<parameters applicable-location="point2"><temperature type="maximum" time-layout="b"><value>81</value><value>83</value></temperature></parameters>
</data></dwml>`)
	rows, err := Extract(body, time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC), threeCities[:2])
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if rows[0].MaxTemp != "70" || rows[1].MaxTemp != "83" {
		t.Fatalf("rows = %+v", rows)
	}
}

func TestHasErrorMarker(t *testing.T) {
	cases := []struct {
		name string
		body []byte
		want bool
	}{
		{"error document", readFixture(t, "error.xml"), true},
		{"forecast document", readFixture(t, "maxt_three_points.xml"), false},
		{"nested marker", []byte(`<dwml><data><error>bad</error></data></dwml>`), true},
		{"empty", nil, false},
		{"plain text", []byte("Service Unavailable"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := HasErrorMarker(tc.body); got != tc.want {
				t.Fatalf("HasErrorMarker() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCreationDateAndArchiveName(t *testing.T) {
	body := readFixture(t, "maxt_three_points.xml")
	ts, ok := CreationDate(body)
	if !ok {
		t.Fatal("CreationDate() not found")
	}
	if want := time.Date(2024, 5, 1, 14, 3, 22, 0, time.UTC); !ts.Equal(want) {
		t.Fatalf("CreationDate() = %v, want %v", ts, want)
	}
	if got := ArchiveName(body); got != "20240501140322_t.xml" {
		t.Fatalf("ArchiveName() = %q", got)
	}
	if got := ArchiveName(readFixture(t, "error.xml")); got != "ERROR.xml" {
		t.Fatalf("ArchiveName(error) = %q, want ERROR.xml", got)
	}
}

func TestCharsetReader(t *testing.T) {
	body := append([]byte(`<?xml version="1.0" encoding="ISO-8859-1"?><dwml><head><product><creation-date>2024-05-01T14:03:22Z</creation-date><title>M`), 0xe9)
	body = append(body, []byte(`t</title></product></head></dwml>`)...)
	if _, ok := CreationDate(body); !ok {
		t.Fatal("latin-1 document was not decoded")
	}
	if _, err := charsetReader("koi8-r", strings.NewReader("")); err == nil {
		t.Fatal("unsupported charset accepted")
	}
}

func TestMissing(t *testing.T) {
	rows := []weather.ForecastRow{{Key: "a", MaxTemp: "70"}, {Key: "b", MaxTemp: weather.NotAvailable}}
	got := Missing(rows)
	if len(got) != 1 || got[0] != "b" {
		t.Fatalf("Missing() = %v, want [b]", got)
	}
}
