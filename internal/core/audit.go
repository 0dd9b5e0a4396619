package core

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultAuditLimit is the page size used when a filter sets no limit.
const DefaultAuditLimit = 50

// maxAuditEntries bounds the in-memory trail.
const maxAuditEntries = 1000

// AuditAction represents the type of action being audited.
type AuditAction string

const (
	ActionParse     AuditAction = "parse"
	ActionSubmit    AuditAction = "submit"
	ActionReconcile AuditAction = "reconcile"
)

// AuditSeverity represents the severity level of an audit entry.
type AuditSeverity string

const (
	SeverityLow    AuditSeverity = "low"
	SeverityMedium AuditSeverity = "medium"
	SeverityHigh   AuditSeverity = "high"
)

// AuditEntry represents a single audit log entry.
type AuditEntry struct {
	ID           string        `json:"id"`
	Action       AuditAction   `json:"action"`
	Severity     AuditSeverity `json:"severity"`
	SubmissionID string        `json:"submissionId,omitempty"`
	FileName     string        `json:"fileName,omitempty"`
	IPAddress    string        `json:"ipAddress,omitempty"`
	UserAgent    string        `json:"userAgent,omitempty"`
	Items        int           `json:"items"`
	Matched      int           `json:"matched"`
	Status       string        `json:"status,omitempty"`
	Reason       string        `json:"reason,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// AuditLogParams contains parameters for creating an audit log entry.
type AuditLogParams struct {
	Action       AuditAction
	SubmissionID string
	FileName     string
	Items        int
	Matched      int
	Status       string
	Reason       string
	Failed       bool
}

// determineSeverity returns the appropriate severity for an action.
// Failures and generation runs rank above reads.
func determineSeverity(p AuditLogParams) AuditSeverity {
	switch {
	case p.Failed:
		return SeverityHigh
	case p.Action == ActionParse:
		return SeverityLow
	default:
		return SeverityMedium
	}
}

// auditLog is a bounded, append-only trail.
type auditLog struct {
	mu      sync.RWMutex
	entries []AuditEntry
}

// LogAudit records an entry, filling client details from ctx.
func (s *Service) LogAudit(ctx context.Context, params AuditLogParams) AuditEntry {
	ip, ua := ClientFromContext(ctx)
	entry := AuditEntry{
		ID:           uuid.New().String(),
		Action:       params.Action,
		Severity:     determineSeverity(params),
		SubmissionID: params.SubmissionID,
		FileName:     params.FileName,
		IPAddress:    ip,
		UserAgent:    ua,
		Items:        params.Items,
		Matched:      params.Matched,
		Status:       params.Status,
		Reason:       params.Reason,
		CreatedAt:    time.Now(),
	}

	s.audit.mu.Lock()
	s.audit.entries = append(s.audit.entries, entry)
	if over := len(s.audit.entries) - maxAuditEntries; over > 0 {
		s.audit.entries = append([]AuditEntry(nil), s.audit.entries[over:]...)
	}
	s.audit.mu.Unlock()

	return entry
}

// AuditLogFilter contains filtering options for querying audit logs.
type AuditLogFilter struct {
	SubmissionID string
	Action       AuditAction
	Limit        int
}

// GetAuditLog returns matching entries, newest first.
func (s *Service) GetAuditLog(filter AuditLogFilter) []AuditEntry {
	if filter.Limit <= 0 {
		filter.Limit = DefaultAuditLimit
	}

	s.audit.mu.RLock()
	defer s.audit.mu.RUnlock()

	var out []AuditEntry
	for i := len(s.audit.entries) - 1; i >= 0 && len(out) < filter.Limit; i-- {
		e := s.audit.entries[i]
		if filter.SubmissionID != "" && e.SubmissionID != filter.SubmissionID {
			continue
		}
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		out = append(out, e)
	}
	return out
}
