// Package job owns the in-memory job registry and the per-job processing
// worker. Jobs are process-lifetime: no persistent store, a TTL sweep purges
// finished jobs together with their rows and payloads.
package job

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/peaklab/peak-importer/internal/peak"
)

// State is the job lifecycle label.
type State string

const (
	StateQueued     State = "queued"
	StateProcessing State = "processing"
	StateDone       State = "done"
	StateError      State = "error"
	StateCancelled  State = "cancelled"
)

// FileState is the per-file lifecycle label.
type FileState string

const (
	FileQueued      FileState = "queued"
	FileProcessing  FileState = "processing"
	FileDone        FileState = "done"
	FileNeedsReview FileState = "needs_review"
	FileError       FileState = "error"
)

// FilterConfig narrows a job to selected companies/platforms. Empty lists
// allow everything. Strict controls how a value the system could not detect
// is treated: pass-through by default, forced review when strict.
type FilterConfig struct {
	Companies []string `json:"companies"`
	Platforms []string `json:"platforms"`
	Strict    bool     `json:"strict"`
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.ToUpper(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Normalize upper-cases and trims the allow-lists.
func (fc FilterConfig) Normalize() FilterConfig {
	return FilterConfig{
		Companies: normalizeList(fc.Companies),
		Platforms: normalizeList(fc.Platforms),
		Strict:    fc.Strict,
	}
}

func unknownValue(v string) bool {
	return v == "" || v == "UNKNOWN"
}

func inList(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// Mismatch applies the allow-lists to a detected company/platform pair.
// A known value must appear in its non-empty allow-list. An unknown value
// fails only in strict mode.
func (fc FilterConfig) Mismatch(company, platform string) (bool, string) {
	company = strings.ToUpper(strings.TrimSpace(company))
	platform = strings.ToUpper(strings.TrimSpace(platform))

	if len(fc.Companies) > 0 {
		if unknownValue(company) {
			if fc.Strict {
				return true, "ไม่สามารถระบุบริษัทได้ (strict filter)"
			}
		} else if !inList(fc.Companies, company) {
			return true, "บริษัท " + company + " ไม่อยู่ในตัวกรองที่เลือก"
		}
	}

	if len(fc.Platforms) > 0 {
		if unknownValue(platform) {
			if fc.Strict {
				return true, "ไม่สามารถระบุแพลตฟอร์มได้ (strict filter)"
			}
		} else if !inList(fc.Platforms, platform) {
			return true, "แพลตฟอร์ม " + platform + " ไม่อยู่ในตัวกรองที่เลือก"
		}
	}

	return false, ""
}

// FileRecord is the per-file status row exposed to polling clients.
type FileRecord struct {
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int       `json:"size"`
	State       FileState `json:"state"`
	Platform    string    `json:"platform"`
	Company     string    `json:"company"`
	Message     string    `json:"message"`
	RowsCount   int       `json:"rows_count"`
}

// Job is the snapshot returned to status pollers.
type Job struct {
	ID             string       `json:"job_id"`
	State          State        `json:"state"`
	Filter         FilterConfig `json:"filter"`
	Files          []FileRecord `json:"files"`
	TotalFiles     int          `json:"total_files"`
	ProcessedFiles int          `json:"processed_files"`
	OKFiles        int          `json:"ok_files"`
	ReviewFiles    int          `json:"review_files"`
	ErrorFiles     int          `json:"error_files"`
	LastError      string       `json:"last_error,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
	FinishedAt     time.Time    `json:"finished_at,omitempty"`
}

type payload struct {
	name        string
	contentType string
	data        []byte
}

type record struct {
	job       Job
	payloads  []payload
	rows      []peak.Row
	cancelled bool
}

// Limits bounds the attachment surface.
type Limits struct {
	MaxFiles     int
	MaxFileBytes int64
}

// DefaultLimits mirrors the upload caps enforced at the HTTP boundary.
func DefaultLimits() Limits {
	return Limits{MaxFiles: 500, MaxFileBytes: 25 << 20}
}

// Attachment and lifecycle errors surfaced to the HTTP layer.
var (
	ErrNotFound       = errors.New("job not found")
	ErrTooManyFiles   = errors.New("too many files attached")
	ErrFileTooLarge   = errors.New("file exceeds size limit")
	ErrEmptyFile      = errors.New("file is empty")
	ErrAlreadyStarted = errors.New("job already started")
	ErrNoFiles        = errors.New("job has no files")
	ErrFinished       = errors.New("job already finished")
)

// Service is the job registry. All job and row mutation happens under mu;
// snapshots returned to callers are copies.
type Service struct {
	mu     sync.RWMutex
	jobs   map[string]*record
	limits Limits
	ttl    time.Duration
	runner *Runner
	logger *zap.Logger
}

// NewService creates the registry. runner may be nil in tests that drive the
// lifecycle manually.
func NewService(runner *Runner, limits Limits, ttl time.Duration, logger *zap.Logger) *Service {
	if limits.MaxFiles <= 0 {
		limits.MaxFiles = DefaultLimits().MaxFiles
	}
	if limits.MaxFileBytes <= 0 {
		limits.MaxFileBytes = DefaultLimits().MaxFileBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		jobs:   make(map[string]*record),
		limits: limits,
		ttl:    ttl,
		runner: runner,
		logger: logger,
	}
}

// Create registers a new queued job and returns its id.
func (s *Service) Create(filter FilterConfig) string {
	id := uuid.NewString()
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[id] = &record{
		job: Job{
			ID:        id,
			State:     StateQueued,
			Filter:    filter.Normalize(),
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	return id
}

// AddFile attaches upload bytes to a queued job.
func (s *Service) AddFile(jobID, name, contentType string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.jobs[jobID]
	if !ok {
		return ErrNotFound
	}
	if rec.job.State != StateQueued {
		return ErrAlreadyStarted
	}
	if len(rec.payloads) >= s.limits.MaxFiles {
		return fmt.Errorf("%w (limit %d)", ErrTooManyFiles, s.limits.MaxFiles)
	}
	if len(data) == 0 {
		return ErrEmptyFile
	}
	if int64(len(data)) > s.limits.MaxFileBytes {
		return fmt.Errorf("%w: %s (%d bytes)", ErrFileTooLarge, name, len(data))
	}

	if name == "" {
		name = "unknown"
	}
	rec.payloads = append(rec.payloads, payload{name: name, contentType: contentType, data: data})
	rec.job.Files = append(rec.job.Files, FileRecord{
		Name:        name,
		ContentType: contentType,
		Size:        len(data),
		State:       FileQueued,
	})
	rec.job.TotalFiles = len(rec.job.Files)
	rec.job.UpdatedAt = time.Now()
	return nil
}

// Start moves a queued job to processing and spawns its worker goroutine.
// Files are processed strictly sequentially inside that one goroutine.
func (s *Service) Start(jobID string) error {
	s.mu.Lock()
	rec, ok := s.jobs[jobID]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	if rec.job.State != StateQueued {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	if len(rec.payloads) == 0 {
		s.mu.Unlock()
		return ErrNoFiles
	}
	rec.job.State = StateProcessing
	rec.job.UpdatedAt = time.Now()
	s.mu.Unlock()

	go s.run(jobID)
	return nil
}

// run executes the per-file pipeline, guarding against a panic escaping the
// file loop itself.
func (s *Service) run(jobID string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("job runner panicked",
				zap.String("job_id", jobID), zap.Any("panic", r))
			s.failJob(jobID, fmt.Sprintf("job runner failure: %v", r))
		}
	}()

	if s.runner == nil {
		s.failJob(jobID, "no runner configured")
		return
	}
	s.runner.Process(s, jobID)
}

// Cancel flags a job as cancelled. The worker observes the flag at the next
// file boundary; done/error jobs are not rewritten.
func (s *Service) Cancel(jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.jobs[jobID]
	if !ok {
		return ErrNotFound
	}
	switch rec.job.State {
	case StateDone, StateError, StateCancelled:
		return ErrFinished
	}
	rec.cancelled = true
	rec.job.State = StateCancelled
	now := time.Now()
	rec.job.UpdatedAt = now
	rec.job.FinishedAt = now
	return nil
}

// Job returns a snapshot of the job record.
func (s *Service) Job(jobID string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.jobs[jobID]
	if !ok {
		return Job{}, false
	}
	return snapshot(rec), true
}

// Rows returns a copy of the job's accumulated rows.
func (s *Service) Rows(jobID string) ([]peak.Row, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.jobs[jobID]
	if !ok {
		return nil, false
	}
	rows := make([]peak.Row, len(rec.rows))
	copy(rows, rec.rows)
	return rows, true
}

func snapshot(rec *record) Job {
	j := rec.job
	j.Files = make([]FileRecord, len(rec.job.Files))
	copy(j.Files, rec.job.Files)
	return j
}

// cancelledFlag reports the cooperative cancellation flag; checked by the
// worker between files.
func (s *Service) cancelledFlag(jobID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.jobs[jobID]
	return ok && rec.cancelled
}

func (s *Service) payloadsOf(jobID string) []payload {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.jobs[jobID]
	if !ok {
		return nil
	}
	out := make([]payload, len(rec.payloads))
	copy(out, rec.payloads)
	return out
}

func (s *Service) filterOf(jobID string) FilterConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.jobs[jobID]
	if !ok {
		return FilterConfig{}
	}
	return rec.job.Filter
}

// updateFile patches one file record in place.
func (s *Service) updateFile(jobID string, idx int, fn func(*FileRecord)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.jobs[jobID]
	if !ok || idx < 0 || idx >= len(rec.job.Files) {
		return
	}
	fn(&rec.job.Files[idx])
	rec.job.UpdatedAt = time.Now()
}

// appendRows adds finished rows and refreshes the aggregate counters from
// the file records so pollers never observe a partial counter set.
func (s *Service) appendRows(jobID string, rows []peak.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.jobs[jobID]
	if !ok {
		return
	}
	rec.rows = append(rec.rows, rows...)
	recount(&rec.job)
	rec.job.UpdatedAt = time.Now()
}

func recount(j *Job) {
	var processed, okf, review, errf int
	for _, f := range j.Files {
		switch f.State {
		case FileDone:
			processed++
			okf++
		case FileNeedsReview:
			processed++
			review++
		case FileError:
			processed++
			errf++
		}
	}
	j.ProcessedFiles = processed
	j.OKFiles = okf
	j.ReviewFiles = review
	j.ErrorFiles = errf
}

// finishJob settles the final state after the file loop. A cancelled job
// stays cancelled.
func (s *Service) finishJob(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.jobs[jobID]
	if !ok {
		return
	}
	if rec.job.State == StateCancelled {
		return
	}
	if rec.job.ErrorFiles == 0 {
		rec.job.State = StateDone
	} else {
		rec.job.State = StateError
	}
	now := time.Now()
	rec.job.UpdatedAt = now
	rec.job.FinishedAt = now
}

func (s *Service) failJob(jobID, lastError string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.jobs[jobID]
	if !ok {
		return
	}
	if rec.job.State == StateCancelled {
		return
	}
	rec.job.State = StateError
	rec.job.LastError = lastError
	now := time.Now()
	rec.job.UpdatedAt = now
	rec.job.FinishedAt = now
}

// CleanupExpired purges finished jobs older than the TTL, rows and payloads
// included. Returns the number of jobs removed. A zero TTL disables cleanup.
func (s *Service) CleanupExpired(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, rec := range s.jobs {
		switch rec.job.State {
		case StateDone, StateError, StateCancelled:
		default:
			continue
		}
		ref := rec.job.FinishedAt
		if ref.IsZero() {
			ref = rec.job.UpdatedAt
		}
		if ref.IsZero() {
			ref = rec.job.CreatedAt
		}
		if now.Sub(ref) > s.ttl {
			delete(s.jobs, id)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Info("purged expired jobs", zap.Int("count", removed))
	}
	return removed
}

// StartSweeper runs the TTL cleanup on a ticker until ctx is done.
func (s *Service) StartSweeper(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.CleanupExpired(time.Now())
			}
		}
	}()
}
