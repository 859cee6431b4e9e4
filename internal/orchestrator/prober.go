package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ShayCichocki/crewcal/internal/agent"
	"github.com/ShayCichocki/crewcal/pkg/models"
)

// DefaultProbeConcurrency is the probe fan-out when none is configured.
const DefaultProbeConcurrency = 4

// Prober asks candidate assistants whether they are free.
type Prober struct {
	// Concurrency caps in-flight probes. Values below 1 mean
	// DefaultProbeConcurrency; 1 probes strictly in order.
	Concurrency int
	Logger      *slog.Logger
}

func (p Prober) limit() int {
	if p.Concurrency < 1 {
		return DefaultProbeConcurrency
	}
	return p.Concurrency
}

func (p Prober) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// Probe checks every candidate for hours starting at at. Results are in
// candidate order; a probe that fails carries Err and is never free.
func (p Prober) Probe(ctx context.Context, scope *agent.Scope, candidates []models.Identity, at time.Time, hours float64) []models.ProbeResult {
	results := make([]models.ProbeResult, len(candidates))

	var g errgroup.Group
	g.SetLimit(p.limit())
	for i, candidate := range candidates {
		g.Go(func() error {
			results[i] = p.probeOne(ctx, scope, candidate, at, hours)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (p Prober) probeOne(ctx context.Context, scope *agent.Scope, candidate models.Identity, at time.Time, hours float64) models.ProbeResult {
	result := models.ProbeResult{Identity: candidate}

	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}

	assistant, err := scope.Assistant(candidate.ID)
	if err != nil {
		result.Err = err
		return result
	}

	avail, err := assistant.CheckAvailability(ctx, at, hours)
	if err != nil {
		p.logger().Debug("probe failed", "identity", candidate.ID, "error", err)
		result.Err = err
		return result
	}

	result.Identity = assistant.Identity()
	result.Availability = avail
	p.logger().Debug("probe completed", "identity", candidate.ID, "availability", avail.String())
	return result
}

// FirstFree returns the first free result in order.
func FirstFree(results []models.ProbeResult) (models.ProbeResult, bool) {
	for _, r := range results {
		if r.IsFree() {
			return r, true
		}
	}
	return models.ProbeResult{}, false
}
