// Package bench runs concurrent latency benchmarks over DNS profiles and
// ranks the outcomes.
package bench

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"dnsjumper/internal/probe"
	"dnsjumper/internal/profile"
	"dnsjumper/internal/storage"
	"dnsjumper/internal/storage/models"
)

// ProgressFunc is called each time a single probe completes during a run.
type ProgressFunc func(completed, total int)

// RunnerConfig holds configuration for the Runner.
type RunnerConfig struct {
	// Workers caps in-flight probes across the whole run, not per profile.
	Workers int64
	// Epsilon is the ranking tie-break window.
	Epsilon time.Duration
}

// Runner orchestrates benchmark runs.
type Runner struct {
	prober probe.Prober
	store  storage.Storage // optional history sink, may be nil
	config RunnerConfig
}

// NewRunner creates a new Runner. store may be nil to skip history recording.
func NewRunner(prober probe.Prober, store storage.Storage, cfg RunnerConfig) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = 10
	}
	if cfg.Epsilon < 0 {
		cfg.Epsilon = 0
	}
	return &Runner{
		prober: prober,
		store:  store,
		config: cfg,
	}
}

// Run probes every server of every profile concurrently, bounded by the
// worker limit, and returns one ranked Report per profile once all probes
// have resolved. Cancelling ctx abandons the run: in-flight probes are
// dropped and no reports are returned.
func (r *Runner) Run(ctx context.Context, profiles []profile.Profile, progress ProgressFunc) ([]*Report, error) {
	runID := uuid.NewString()
	startedAt := time.Now()

	reports := make([]*Report, len(profiles))
	total := 0
	for i, p := range profiles {
		reports[i] = &Report{
			Profile: p,
			Results: make([]probe.Result, len(p.Servers)),
		}
		total += len(p.Servers)
	}

	sem := semaphore.NewWeighted(r.config.Workers)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var completed int

	for pi := range profiles {
		for si, server := range profiles[pi].Servers {
			wg.Add(1)
			go func(pi, si int, server string) {
				defer wg.Done()

				if err := sem.Acquire(ctx, 1); err != nil {
					return
				}
				defer sem.Release(1)

				res := r.prober.Probe(ctx, server)
				reports[pi].Results[si] = res
				r.record(ctx, runID, profiles[pi].Name, res, startedAt)

				mu.Lock()
				completed++
				current := completed
				mu.Unlock()

				if progress != nil {
					progress(current, total)
				}
			}(pi, si, server)
		}
	}

	wg.Wait()

	// All-or-nothing: a cancelled run returns no reports even when some
	// probes already finished.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, report := range reports {
		report.aggregate()
	}
	rank(reports, r.config.Epsilon)
	return reports, nil
}

// record writes one probe outcome to the history sink, best-effort.
func (r *Runner) record(ctx context.Context, runID, profileName string, res probe.Result, at time.Time) {
	if r.store == nil {
		return
	}
	rec := &models.ProbeRecord{
		RunID:       runID,
		ProfileName: profileName,
		Server:      res.Server,
		Status:      string(res.Status),
		Failure:     res.Failure,
		TestedAt:    at,
	}
	if res.OK() {
		ms := int(res.Latency.Milliseconds())
		rec.LatencyMS = &ms
	}
	r.store.RecordProbe(ctx, rec)
}
