package pipeline

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/i474232898/wx-forecast/internal/report"
	"github.com/i474232898/wx-forecast/internal/store"
)

// Variant selects which forecast service a run queries.
type Variant string

const (
	National Variant = "national"
	World    Variant = "world"
)

// ParseVariant accepts "national" or "world".
func ParseVariant(s string) (Variant, error) {
	switch Variant(s) {
	case National, World:
		return Variant(s), nil
	default:
		return "", fmt.Errorf("unknown variant %q (want national or world)", s)
	}
}

// Layout is where a variant keeps its files.
type Layout struct {
	Inputs         string
	Linebreaks     string
	ArchiveDir     string
	ArchivePattern *regexp.Regexp
	CooldownFile   string
	ReportDir      string
	ReportHeader   string
}

// LayoutFor returns the file layout of v under dataDir and reportDir.
func LayoutFor(v Variant, dataDir, reportDir string) Layout {
	l := Layout{
		Linebreaks: filepath.Join(dataDir, "linebreaks.txt"),
		ReportDir:  reportDir,
	}
	switch v {
	case World:
		l.Inputs = filepath.Join(dataDir, "cities.txt")
		l.ArchiveDir = filepath.Join(dataDir, "json")
		l.ArchivePattern = store.JSONArchivePattern
		l.CooldownFile = filepath.Join(dataDir, "last_query_time_world.txt")
		l.ReportHeader = report.WorldHeader
	default:
		l.Inputs = filepath.Join(dataDir, "cities.csv")
		l.ArchiveDir = filepath.Join(dataDir, "xml")
		l.ArchivePattern = store.XMLArchivePattern
		l.CooldownFile = filepath.Join(dataDir, "last_query_time.txt")
		l.ReportHeader = report.NationalHeader
	}
	return l
}

// Archive opens the variant's archive directory.
func (l Layout) Archive() *store.FileArchive {
	return store.NewArchive(l.ArchiveDir, l.ArchivePattern)
}

// Cooldown opens the variant's cooldown marker.
func (l Layout) Cooldown() *store.CooldownFile {
	return store.NewCooldownFile(l.CooldownFile)
}
