package archive

import (
	"context"
	"log/slog"
	"time"

	"clearcart/internal/catalog"
	"clearcart/internal/logging"
	"clearcart/internal/services"
)

const (
	defaultPollInterval = 5 * time.Second
	defaultMaxAttempts  = 60
)

// Fulfiller orchestrates archive creation for a batch of rendition
// selections and polls the job to a terminal state.
type Fulfiller struct {
	client     API
	downloader Downloader
	logger     *slog.Logger

	pollInterval time.Duration
	maxAttempts  int
}

// FulfillerOption configures a Fulfiller.
type FulfillerOption func(*Fulfiller)

// WithPollInterval overrides the wait between status polls.
func WithPollInterval(interval time.Duration) FulfillerOption {
	return func(f *Fulfiller) {
		if interval > 0 {
			f.pollInterval = interval
		}
	}
}

// WithMaxAttempts overrides the polling attempt bound.
func WithMaxAttempts(attempts int) FulfillerOption {
	return func(f *Fulfiller) {
		if attempts > 0 {
			f.maxAttempts = attempts
		}
	}
}

// WithFulfillerLogger attaches a logger to the fulfiller.
func WithFulfillerLogger(logger *slog.Logger) FulfillerOption {
	return func(f *Fulfiller) {
		if logger != nil {
			f.logger = logging.NewComponentLogger(logger, "archive-fulfiller")
		}
	}
}

// NewFulfiller constructs a Fulfiller around the archive API and a downloader.
func NewFulfiller(client API, downloader Downloader, opts ...FulfillerOption) *Fulfiller {
	f := &Fulfiller{
		client:       client,
		downloader:   downloader,
		logger:       logging.NewNop(),
		pollInterval: defaultPollInterval,
		maxAttempts:  defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fulfill creates an archive job for the selections and polls it to a
// terminal state. On completion every file URL is handed to the downloader
// without waiting for or verifying the individual transfers; a per-file
// failure never fails the batch. A job that fails or outlives the attempt
// bound is a terminal error.
func (f *Fulfiller) Fulfill(ctx context.Context, selections []catalog.RenditionSelection) (Job, error) {
	jobID, err := f.client.Create(ctx, selections)
	if err != nil {
		return Job{}, services.Wrap(services.ErrExternalService, "archive", "create job", "", err)
	}
	f.logger.Info("archive job created",
		logging.String(logging.FieldEventType, "archive_job_created"),
		logging.String(logging.FieldJobID, jobID),
		logging.Int("selections", len(selections)),
	)

	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		job, err := f.client.Status(ctx, jobID)
		if err != nil {
			return Job{}, services.Wrap(services.ErrExternalService, "archive", "poll job", jobID, err)
		}

		switch job.Status {
		case StatusCompleted:
			f.fanOutDownloads(ctx, job)
			f.logger.Info("archive job completed",
				logging.String(logging.FieldEventType, "archive_job_completed"),
				logging.String(logging.FieldJobID, jobID),
				logging.Int("files", len(job.Files)),
				logging.Int("attempts", attempt),
			)
			return job, nil
		case StatusFailed:
			f.logger.Warn("archive job failed",
				logging.String(logging.FieldEventType, "archive_job_failed"),
				logging.String(logging.FieldJobID, jobID),
			)
			return job, services.Wrap(services.ErrExternalService, "archive", "job failed", jobID, nil)
		}

		if attempt == f.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return Job{}, ctx.Err()
		case <-time.After(f.pollInterval):
		}
	}

	f.logger.Warn("archive polling bound exceeded",
		logging.String(logging.FieldEventType, "archive_poll_timeout"),
		logging.String(logging.FieldJobID, jobID),
		logging.Int("attempts", f.maxAttempts),
	)
	return Job{}, services.Wrap(services.ErrTimeout, "archive", "poll job", "attempt bound exceeded", nil)
}

// fanOutDownloads triggers every file without waiting. Started downloads
// survive the caller's cancellation.
func (f *Fulfiller) fanOutDownloads(ctx context.Context, job Job) {
	if f.downloader == nil {
		return
	}
	detached := context.WithoutCancel(ctx)
	for _, fileURL := range job.Files {
		go func(u string) {
			if err := f.downloader.Trigger(detached, u); err != nil {
				f.logger.Warn("file download trigger failed",
					logging.Error(err),
					logging.String(logging.FieldJobID, job.ID),
					logging.String("file_url", u),
				)
			}
		}(fileURL)
	}
}
