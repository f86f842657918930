// Package pipeline runs one forecast query end to end: load inputs, check
// the cooldown, query, classify, archive, extract and write the report.
package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/wx-forecast/internal/input"
	"github.com/i474232898/wx-forecast/internal/logger"
	"github.com/i474232898/wx-forecast/internal/report"
	"github.com/i474232898/wx-forecast/internal/store"
	"github.com/i474232898/wx-forecast/internal/weather"
	"github.com/i474232898/wx-forecast/internal/weather/ndfd"
	"github.com/i474232898/wx-forecast/internal/weather/wmo"
)

// DefaultRetention is how many archives each directory keeps.
const DefaultRetention = 30

// Options configures a Runner.
type Options struct {
	Transport    weather.Transport
	DataDir      string
	ReportDir    string
	NDFDEndpoint string
	WMOBaseURL   string
	Cooldown     time.Duration
	Retention    int
	Logger       *logger.Logger
	Now          func() time.Time
}

// Result describes what a run left on disk.
type Result struct {
	Variant     Variant
	TargetDate  time.Time
	ReportPath  string
	ArchivePath string
	// ErrorPath is the saved body of a failing world response.
	ErrorPath string
	Pruned    []string
	// Missing lists keys reported as not available.
	Missing []string
}

// Runner executes runs one at a time.
type Runner struct {
	mu        sync.Mutex
	transport weather.Transport
	dataDir   string
	reportDir string
	ndfdURL   string
	wmoURL    string
	window    time.Duration
	retention int
	log       *logger.Logger
	now       func() time.Time
}

func New(opts Options) *Runner {
	r := &Runner{
		transport: opts.Transport,
		dataDir:   opts.DataDir,
		reportDir: opts.ReportDir,
		ndfdURL:   opts.NDFDEndpoint,
		wmoURL:    opts.WMOBaseURL,
		window:    opts.Cooldown,
		retention: opts.Retention,
		log:       opts.Logger,
		now:       opts.Now,
	}
	if r.window <= 0 {
		r.window = store.DefaultCooldown
	}
	if r.retention <= 0 {
		r.retention = DefaultRetention
	}
	if r.log == nil {
		r.log = logger.Nop()
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Layout returns the file layout the runner uses for v.
func (r *Runner) Layout(v Variant) Layout {
	return LayoutFor(v, r.dataDir, r.reportDir)
}

// CooldownStatus returns the stored marker of v and how long the gate stays
// closed from now. A missing marker yields store.ErrNotFound.
func (r *Runner) CooldownStatus(v Variant) (time.Time, time.Duration, error) {
	cooldown := r.Layout(v).Cooldown()
	last, err := cooldown.Load()
	if err != nil {
		return time.Time{}, 0, err
	}
	return last, store.NewCooldownGate(cooldown, r.window).Remaining(r.now()), nil
}

// Run dispatches to the variant's run.
func (r *Runner) Run(ctx context.Context, v Variant) (*Result, error) {
	switch v {
	case National:
		return r.RunNational(ctx)
	case World:
		return r.RunWorld(ctx)
	default:
		return nil, fmt.Errorf("unknown variant %q", v)
	}
}

func (r *Runner) checkCooldown(l Layout, now time.Time) error {
	gate := store.NewCooldownGate(l.Cooldown(), r.window)
	if gate.IsOnCooldown(now) {
		return fmt.Errorf("%w: %s remaining", weather.ErrOnCooldown, gate.Remaining(now).Round(time.Second))
	}
	return nil
}

func (r *Runner) prune(log *logger.Logger, archive *store.FileArchive, res *Result) {
	pruned, err := archive.Prune(r.retention)
	if err != nil {
		log.Warnw("prune archive", "dir", archive.Dir(), "error", err)
	}
	res.Pruned = append(res.Pruned, pruned...)
}

// RunNational queries the point-forecast service for every location in
// cities.csv and writes tomorrow's maximum temperatures.
func (r *Runner) RunNational(ctx context.Context) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l := r.Layout(National)
	log := r.log.With("run_id", uuid.NewString(), "variant", string(National))

	locs, err := input.LoadLocations(l.Inputs)
	if err != nil {
		return nil, err
	}

	now := r.now()
	if err := r.checkCooldown(l, now); err != nil {
		return nil, err
	}

	target := weather.TargetDateTime(now)
	res := &Result{Variant: National, TargetDate: target}
	q, err := ndfd.NewQuery(
		ndfd.WithLocations(locs),
		ndfd.WithProduct(ndfd.ProductTimeSeries),
		ndfd.WithWindow(target, target),
		ndfd.WithElements("maxt"),
	)
	if err != nil {
		return nil, err
	}

	log.Infow("querying", "points", q.Points(), "target", target.Format(weather.DateLayout))
	resp, err := q.Send(ctx, r.transport, r.ndfdURL)
	if err != nil {
		return res, err
	}

	outcome := weather.Classify(resp, ndfd.HasErrorMarker)
	if resp.StatusCode == http.StatusOK {
		archive := l.Archive()
		path, err := archive.Save(ndfd.ArchiveName(resp.Body), resp.Body)
		if err != nil {
			return res, fmt.Errorf("archive response: %w", err)
		}
		res.ArchivePath = path
		log.Infow("archived response", "path", path)
		r.prune(log, archive, res)
	}
	if outcome != weather.OutcomeSuccess {
		log.Errorw("query failed", "outcome", outcome.String(), "status", resp.StatusCode)
		return res, fmt.Errorf("%w: status %d", outcome.Err(), resp.StatusCode)
	}

	stamp, ok := ndfd.CreationDate(resp.Body)
	if !ok {
		log.Warnw("response has no creation-date, using local clock for cooldown")
		stamp = now
	}
	if err := l.Cooldown().Save(stamp); err != nil {
		return res, err
	}

	rows, err := ndfd.Extract(resp.Body, target, locs)
	if err != nil {
		return res, err
	}
	if res.Missing = ndfd.Missing(rows); len(res.Missing) > 0 {
		log.Warnw("target date not found", "locations", res.Missing)
	}

	return res, r.writeReport(log, l, rows, target, res)
}

// RunWorld fetches one document per city in cities.txt, in order, and
// writes tomorrow's maximum temperatures.
func (r *Runner) RunWorld(ctx context.Context) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l := r.Layout(World)
	log := r.log.With("run_id", uuid.NewString(), "variant", string(World))

	cities, err := input.LoadCities(l.Inputs)
	if err != nil {
		return nil, err
	}

	now := r.now()
	if err := r.checkCooldown(l, now); err != nil {
		return nil, err
	}

	requested := now.UTC().Truncate(time.Second)
	target := weather.TargetDateTime(now)
	res := &Result{Variant: World, TargetDate: target}
	req, err := wmo.NewRequest(cities, r.wmoURL)
	if err != nil {
		return nil, err
	}

	log.Infow("querying", "cities", len(cities), "target", target.Format(weather.DateLayout))
	batch, sendErr := req.Send(ctx, r.transport)

	archive := l.Archive()
	if len(batch.Responses) > 0 {
		body, err := wmo.ArchiveBody(batch.Bodies())
		if err != nil {
			return res, fmt.Errorf("archive responses: %w", err)
		}
		path, err := archive.Save(wmo.ArchiveName(requested), body)
		if err != nil {
			return res, fmt.Errorf("archive responses: %w", err)
		}
		res.ArchivePath = path
		log.Infow("archived responses", "path", path, "documents", len(batch.Responses))
		r.prune(log, archive, res)
	}

	if sendErr != nil {
		if batch.Failed != nil && len(batch.Failed.Body) > 0 {
			path, err := archive.SaveSequential("error.txt", batch.Failed.Body)
			if err != nil {
				log.Warnw("save failing body", "error", err)
			} else {
				res.ErrorPath = path
			}
		}
		log.Errorw("query failed", "city", batch.FailedCity, "error", sendErr)
		return res, sendErr
	}

	if err := l.Cooldown().Save(requested); err != nil {
		return res, err
	}

	rows := make([]weather.ForecastRow, 0, len(batch.Responses))
	for _, resp := range batch.Responses {
		row, err := wmo.Extract(resp.Body, target)
		if err != nil {
			return res, err
		}
		if row.MaxTemp == weather.NotAvailable {
			res.Missing = append(res.Missing, row.Key)
		}
		rows = append(rows, row)
	}
	if len(res.Missing) > 0 {
		log.Warnw("target date not found", "cities", res.Missing)
	}

	return res, r.writeReport(log, l, rows, target, res)
}

func (r *Runner) writeReport(log *logger.Logger, l Layout, rows []weather.ForecastRow, target time.Time, res *Result) error {
	breaks, err := input.LoadLinebreaks(l.Linebreaks)
	if err != nil {
		return err
	}
	path, err := report.NewWriter(l.ReportDir, l.ReportHeader).Write(rows, target, breaks)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	res.ReportPath = path
	log.Infow("report written", "path", path, "rows", len(rows))
	return nil
}
