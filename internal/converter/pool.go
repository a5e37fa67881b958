package converter

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"

	"github.com/ginjaninja78/sepa-direct-debit/internal/config"
)

// Job is one input file with the profile that applies to it.
type Job struct {
	FilePath string
	Profile  *config.CreditorProfile
}

// Pool runs converters on a bounded number of goroutines.
type Pool struct {
	pool            *ants.Pool
	mainConfig      *config.MainConfig
	logger          zerolog.Logger
	options         []Option
	continueOnError bool
}

// NewPool creates a pool sized by mainConfig.MaxConcurrency. opts are passed
// to every Converter.
func NewPool(mainConfig *config.MainConfig, logger zerolog.Logger, opts ...Option) (*Pool, error) {
	pool, err := ants.NewPool(mainConfig.MaxConcurrency)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}

	return &Pool{
		pool:            pool,
		mainConfig:      mainConfig,
		logger:          logger,
		options:         append([]Option{WithLogger(logger)}, opts...),
		continueOnError: mainConfig.ContinueOnError,
	}, nil
}

// Process converts every job and returns the results in job order. Unless
// continue_on_error is set, the first failure cancels the jobs that have not
// started yet.
func (p *Pool) Process(ctx context.Context, jobs []Job) []Result {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]Result, len(jobs))
	var wg sync.WaitGroup

	for i, job := range jobs {
		wg.Add(1)

		err := p.pool.Submit(func() {
			defer wg.Done()

			if err := ctx.Err(); err != nil {
				results[i] = Result{
					FilePath: job.FilePath,
					Profile:  job.Profile.Code,
					Error:    fmt.Errorf("skipped: %w", err),
				}
				return
			}

			results[i] = New(job.FilePath, job.Profile, p.mainConfig, p.options...).Run(ctx)
			if !results[i].Success && !p.continueOnError {
				cancel()
			}
		})

		if err != nil {
			wg.Done()
			p.logger.Error().Err(err).Str("file", job.FilePath).Msg("Failed to submit file to worker pool")
			results[i] = Result{
				FilePath: job.FilePath,
				Profile:  job.Profile.Code,
				Error:    fmt.Errorf("failed to submit to worker pool: %w", err),
			}
		}
	}

	wg.Wait()
	return results
}

// Release shuts the pool down.
func (p *Pool) Release() {
	p.logger.Debug().Int("running_workers", p.pool.Running()).Msg("Shutting down worker pool")
	p.pool.Release()
}
