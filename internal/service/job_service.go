package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/records-api/internal/apperrors"
	"github.com/records-api/internal/config"
	"github.com/records-api/internal/models"
	"github.com/records-api/internal/repository"
	"github.com/records-api/internal/validation"
	"github.com/rs/zerolog"
)

// jobService runs claimed import jobs on a bounded pool of goroutines
type jobService struct {
	jobRepo       repository.JobRepository
	importService ImportService
	poll          time.Duration
	log           zerolog.Logger

	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	// each slot is one running import
	slots chan struct{}
}

func newJobService(jobRepo repository.JobRepository, cfg config.ImportConfig, log zerolog.Logger) *jobService {
	workers := cfg.Workers
	if workers == 0 {
		workers = workerCount(runtime.NumCPU())
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = 2 * time.Second
	}
	log.Info().Int("workers", workers).Dur("poll", poll).Msg("Initializing import worker pool")

	return &jobService{
		jobRepo: jobRepo,
		poll:    poll,
		log:     log.With().Str("service", "job").Logger(),
		slots:   make(chan struct{}, workers),
	}
}

// workerCount sizes the pool for I/O-bound imports: four per CPU, within [4, 32]
func workerCount(cpus int) int {
	return min(max(cpus*4, 4), 32)
}

// SetImportService sets the import service for job processing
func (s *jobService) SetImportService(importService ImportService) {
	s.importService = importService
}

// StartProcessor requeues jobs a previous run left unfinished, then claims
// pending jobs every poll interval until ctx ends or StopProcessor is called.
func (s *jobService) StartProcessor(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	if n, err := s.jobRepo.RequeueInterrupted(s.ctx); err != nil {
		s.log.Error().Err(err).Msg("Failed to requeue interrupted jobs")
	} else if n > 0 {
		s.log.Warn().Int("jobs", n).Msg("Requeued jobs interrupted by a previous shutdown")
	}

	s.log.Info().Msg("Job processor started")

	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	for {
		s.dispatch()
		select {
		case <-s.ctx.Done():
			s.log.Info().Msg("Job processor stopping")
			return
		case <-ticker.C:
		}
	}
}

// StopProcessor cancels the poll loop and waits for running imports
func (s *jobService) StopProcessor() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cancel()
	s.wg.Wait()
	s.running = false
	s.log.Info().Msg("Job processor stopped")
}

// dispatch claims no more jobs than there are idle slots and starts them.
// A claimed job that cannot start stays in processing until the next
// StartProcessor requeues it.
func (s *jobService) dispatch() {
	idle := cap(s.slots) - len(s.slots)
	if idle == 0 || s.importService == nil {
		return
	}

	jobs, err := s.jobRepo.ClaimPending(s.ctx, idle)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to claim pending jobs")
		return
	}

	for _, job := range jobs {
		select {
		case s.slots <- struct{}{}:
		case <-s.ctx.Done():
			return
		}
		s.wg.Add(1)
		go s.run(job)
	}
}

// run imports one job and frees its slot; a panic fails the job
func (s *jobService) run(job *models.Job) {
	defer s.wg.Done()
	defer func() { <-s.slots }()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Str("job_id", job.ID).Msg("Import panicked")
			job.Status = models.JobStatusFailed
			// the processor context may already be cancelled by StopProcessor
			if err := s.jobRepo.Update(context.WithoutCancel(s.ctx), job); err != nil {
				s.log.Error().Err(err).Str("job_id", job.ID).Msg("Failed to mark job as failed")
			}
		}
	}()

	if job.Type != models.JobTypeImport {
		s.log.Warn().Str("job_id", job.ID).Str("type", string(job.Type)).Msg("No processor for job")
		return
	}

	s.log.Info().Str("job_id", job.ID).Str("resource", job.Resource).Msg("Processing job")
	if err := s.importService.ProcessImport(s.ctx, job); err != nil {
		s.log.Error().Err(err).Str("job_id", job.ID).Msg("Import processing failed")
	}
}

// previewErrors is the number of line errors embedded in a job response
const previewErrors = 100

// GetJob retrieves a job by ID with the first line errors
func (s *jobService) GetJob(ctx context.Context, id string) (*models.JobResponse, error) {
	job, err := s.getJob(ctx, id)
	if err != nil {
		return nil, err
	}

	errors, err := s.jobRepo.GetErrors(ctx, id, previewErrors)
	if err != nil {
		s.log.Error().Err(err).Str("job_id", id).Msg("Failed to get job errors")
	}

	count, err := s.jobRepo.CountErrors(ctx, id)
	if err != nil {
		s.log.Error().Err(err).Str("job_id", id).Msg("Failed to count job errors")
		count = len(errors)
	}

	response := &models.JobResponse{
		Job:        *job,
		Errors:     errors,
		ErrorCount: count,
	}

	if count > 0 {
		response.ErrorReport = "/api/imports/" + job.ID + "/errors"
	}

	return response, nil
}

// GetJobByIdempotencyKey retrieves a job by idempotency key
func (s *jobService) GetJobByIdempotencyKey(ctx context.Context, key string) (*models.Job, error) {
	return s.jobRepo.GetByIdempotencyKey(ctx, key)
}

// GetJobErrors retrieves all line errors for a job
func (s *jobService) GetJobErrors(ctx context.Context, id string) ([]models.ValidationError, error) {
	if _, err := s.getJob(ctx, id); err != nil {
		return nil, err
	}
	errors, err := s.jobRepo.GetErrors(ctx, id, 0)
	if err != nil {
		return nil, apperrors.Storage("get job errors", err)
	}
	return errors, nil
}

func (s *jobService) getJob(ctx context.Context, id string) (*models.Job, error) {
	if !validation.ID(id) {
		return nil, apperrors.InvalidID("job")
	}
	job, err := s.jobRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Storage("get job", err)
	}
	if job == nil {
		return nil, apperrors.NotFound("job")
	}
	return job, nil
}
