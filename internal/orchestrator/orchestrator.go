// Package orchestrator fans out concurrent session workers and aggregates
// their results into a run summary.
package orchestrator

import (
	"context"
	"log"
	"sync"

	"voiceload/internal/config"
	"voiceload/internal/ratelimit"
	"voiceload/internal/recorder"
	"voiceload/internal/session"
	"voiceload/internal/stats"
	"voiceload/internal/transport"
)

// Orchestrator runs one benchmark: N concurrent sessions against one service.
type Orchestrator struct {
	cfg      *config.Config
	client   transport.Client
	recorder *recorder.Recorder
	limiter  *ratelimit.Limiter
}

func New(cfg *config.Config, client transport.Client, rec *recorder.Recorder) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		client:   client,
		recorder: rec,
		limiter:  ratelimit.NewLimiter(cfg.RPS),
	}
}

// Run launches Concurrency workers with indices 0..N-1 and waits for all of
// them. A failed session is logged and never cancels its siblings. After the
// last session finishes the recorder is closed and the summary computed over
// the complete record set.
func (o *Orchestrator) Run(ctx context.Context) (*stats.Summary, error) {
	var wg sync.WaitGroup
	for i := 0; i < o.cfg.Concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer o.recoverPanic(idx)

			w := &session.Worker{
				Index:    idx,
				Config:   o.cfg,
				Client:   o.client,
				Recorder: o.recorder,
				Limiter:  o.limiter,
			}
			if err := w.Run(ctx); err != nil {
				log.Printf("[session %d] ended with error: %v", idx, err)
			}
		}(i)
	}
	wg.Wait()

	if err := o.recorder.Close(); err != nil {
		return nil, err
	}
	return stats.Compute(o.recorder.Records()), nil
}

// recoverPanic keeps a panicking session from taking down the whole run.
func (o *Orchestrator) recoverPanic(idx int) {
	if r := recover(); r != nil {
		log.Printf("[session %d] panic: %v", idx, r)
	}
}
