package generator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/icetype/icetype/internal/schema"
	"github.com/icetype/icetype/pkg/logger"
	"github.com/icetype/icetype/pkg/progress"
)

// Job emits one schema through one dialect into an output directory.
type Job struct {
	Schema  *schema.Schema
	Dialect Dialect
	Output  string
}

// Runner fans schema/dialect jobs over a fixed worker count. Failures are
// logged per job and surface once at the end so a single bad schema does
// not stop the other targets.
type Runner struct {
	workers int
	logger  *logger.Logger
}

func NewRunner(workers int, log *logger.Logger) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{workers: workers, logger: log}
}

func (r *Runner) Run(ctx context.Context, jobs []Job) error {
	if len(jobs) == 0 {
		return nil
	}

	bar := progress.NewBar(int64(len(jobs)), "Generating")
	jobCh := make(chan Job, r.workers*2)

	var failed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				if err := r.emit(job); err != nil {
					failed.Add(1)
					r.logger.Errorf("Generation failed for %s (%s): %v", job.Schema.Name, job.Dialect.Name(), err)
				}
				bar.Increment()
			}
		}()
	}

feed:
	for _, job := range jobs {
		select {
		case jobCh <- job:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobCh)
	wg.Wait()
	bar.Finish()

	if err := ctx.Err(); err != nil {
		return err
	}
	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d of %d files failed to generate", n, len(jobs))
	}
	return nil
}

func (r *Runner) emit(job Job) error {
	statement, err := job.Dialect.CreateTable(job.Schema)
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", job.Schema.Name, err)
	}

	if err := os.MkdirAll(job.Output, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(job.Output, fmt.Sprintf("%s.%s", job.Schema.Name, job.Dialect.FileExtension()))
	if err := os.WriteFile(path, []byte(statement+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	r.logger.Debugf("Generated %s", path)
	return nil
}
