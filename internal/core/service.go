package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/packlist/internal/config"
	"github.com/JonMunkholm/packlist/internal/generate"
	"github.com/JonMunkholm/packlist/internal/logging"
	"github.com/JonMunkholm/packlist/internal/packing"
	"github.com/JonMunkholm/packlist/internal/reconcile"
)

// Service runs the packing list pipeline: normalize, generate, reconcile.
// Submissions are kept in memory so a caller can retry reconciliation.
type Service struct {
	cfg       *config.Config
	generator generate.Generator
	matcher   *reconcile.Matcher
	limiter   *GenerationLimiter

	submissions *submissionStore
	audit       auditLog
}

// NewService creates a new Service. A nil generator runs the configured
// script; a nil matcher is built from cfg.
func NewService(cfg *config.Config, gen generate.Generator, matcher *reconcile.Matcher) *Service {
	if gen == nil {
		gen = generate.NewExec(cfg, nil)
	}
	if matcher == nil {
		matcher = reconcile.NewMatcher(cfg)
	}
	return &Service{
		cfg:         cfg,
		generator:   gen,
		matcher:     matcher,
		limiter:     NewGenerationLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		submissions: newSubmissionStore(MaxRetainedSubmissions),
	}
}

// Limiter exposes the generation limiter for health reporting and shutdown.
func (s *Service) Limiter() *GenerationLimiter {
	return s.limiter
}

// OutputDir is the directory artifacts are written to and served from.
func (s *Service) OutputDir() string {
	return s.matcher.Scanner.Dir
}

// ParsePackingList normalizes an uploaded spreadsheet into items.
func (s *Service) ParsePackingList(ctx context.Context, fileName string, data []byte) (*packing.Result, error) {
	log := logging.WithFields(ctx, "file", fileName, "bytes", len(data))

	if max := s.cfg.Upload.MaxFileSize; max > 0 && int64(len(data)) > max {
		err := fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, len(data), max)
		s.LogAudit(ctx, AuditLogParams{Action: ActionParse, FileName: fileName, Reason: err.Error(), Failed: true})
		return nil, err
	}

	res, err := packing.NormalizeFile(fileName, data, packing.Options{
		HeaderSearchRows: s.cfg.Upload.HeaderSearchRows,
	})
	if err != nil {
		log.Warn("packing list rejected", "error", err)
		s.LogAudit(ctx, AuditLogParams{Action: ActionParse, FileName: fileName, Reason: err.Error(), Failed: true})
		return nil, err
	}

	log.Info("packing list normalized",
		"header_row", res.HeaderRow,
		"rows", res.Stats.Rows,
		"items", len(res.Items),
		"dropped", res.Stats.DroppedTotal(),
	)
	s.LogAudit(ctx, AuditLogParams{Action: ActionParse, FileName: fileName, Items: len(res.Items)})

	return res, nil
}

// Submit hands items to the generator and reconciles the output directory.
//
// Items without an id receive item-<n>. A nil slice is ErrNoItems; an empty
// slice is a valid batch that can only receive the sample. A generator that
// cannot be started stores a failed submission and returns its error. The
// returned submission is valid whenever its id is non-empty.
func (s *Service) Submit(ctx context.Context, items []packing.Item) (Submission, error) {
	if items == nil {
		return Submission{}, ErrNoItems
	}

	now := time.Now()
	sub := &Submission{
		ID:        uuid.New().String(),
		Items:     AssignIDs(items),
		CreatedAt: now,
		UpdatedAt: now,
	}
	log := logging.WithFields(ctx, "submission_id", sub.ID)
	ctx = logging.NewContext(ctx, log)

	if err := s.limiter.Acquire(ctx); err != nil {
		log.Warn("generation slot unavailable", "items", len(sub.Items), "error", err)
		return Submission{}, err
	}
	outcome, genErr := s.generator.Generate(ctx, generate.Request{
		Items:     sub.Items,
		OutputDir: s.OutputDir(),
	})
	s.limiter.Release()

	sub.Outcome = outcome
	if genErr != nil {
		log.Error("generator failed to start", "error", genErr)
		sub.Status = StatusFailed
		sub.Error = genErr.Error()
		s.submissions.put(sub)
		s.LogAudit(ctx, AuditLogParams{
			Action:       ActionSubmit,
			SubmissionID: sub.ID,
			Items:        len(sub.Items),
			Status:       string(sub.Status),
			Reason:       genErr.Error(),
			Failed:       true,
		})
		return *sub, genErr
	}

	report, matchErr := s.matcher.Match(ctx, sub.Items, outcome.Stdout)
	sub.applyReport(report, matchErr)
	s.submissions.put(sub)

	s.auditReconcile(ctx, ActionSubmit, *sub, matchErr)
	log.Info("submission processed", "status", sub.Status, "exit_code", outcome.ExitCode)

	return *sub, matchErr
}

// Reconcile re-scans the output directory for an existing submission and
// re-runs attribution against the stored generator stdout. The generator is
// not run again.
func (s *Service) Reconcile(ctx context.Context, id string) (Submission, error) {
	current, ok := s.submissions.get(id)
	if !ok {
		return Submission{}, fmt.Errorf("%w: %s", ErrSubmissionNotFound, id)
	}

	log := logging.WithFields(ctx, "submission_id", id)
	ctx = logging.NewContext(ctx, log)

	report, matchErr := s.matcher.Match(ctx, current.Items, current.Outcome.Stdout)
	if report == nil && matchErr != nil {
		// Directory unreadable; keep the previous report.
		return current, matchErr
	}

	updated, ok := s.submissions.update(id, func(sub *Submission) {
		sub.applyReport(report, matchErr)
	})
	if !ok {
		return Submission{}, fmt.Errorf("%w: %s", ErrSubmissionNotFound, id)
	}

	s.auditReconcile(ctx, ActionReconcile, updated, matchErr)
	log.Info("submission reconciled", "status", updated.Status, "attempts", updated.Attempts)

	return updated, matchErr
}

// Get returns a stored submission.
func (s *Service) Get(id string) (Submission, error) {
	sub, ok := s.submissions.get(id)
	if !ok {
		return Submission{}, fmt.Errorf("%w: %s", ErrSubmissionNotFound, id)
	}
	return sub, nil
}

// List returns stored submissions, newest first.
func (s *Service) List() []Submission {
	return s.submissions.list()
}

func (s *Service) auditReconcile(ctx context.Context, action AuditAction, sub Submission, err error) {
	params := AuditLogParams{
		Action:       action,
		SubmissionID: sub.ID,
		Items:        len(sub.Items),
		Status:       string(sub.Status),
		Failed:       err != nil || sub.Status == StatusDegraded || sub.Status == StatusUnusable,
	}
	if sub.Report != nil {
		params.Matched = len(sub.Items) - len(sub.Report.Unmatched())
	}
	if err != nil {
		params.Reason = err.Error()
	}
	s.LogAudit(ctx, params)
}

// AssignIDs returns a copy of items where blank ids are replaced by
// item-<n>, n being the 1-based position.
func AssignIDs(items []packing.Item) []packing.Item {
	out := make([]packing.Item, len(items))
	for i, it := range items {
		if it.ID == "" {
			it.ID = packing.ItemID(i + 1)
		}
		out[i] = it
	}
	return out
}
