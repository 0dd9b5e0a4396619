package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/packlist/internal/core"
	"github.com/JonMunkholm/packlist/internal/packing"
	"github.com/JonMunkholm/packlist/internal/reconcile"
)

// multipartOverhead is allowed on top of the file size limit for form
// boundaries and other fields.
const multipartOverhead = 1 << 20

// maxSubmissionBody caps JSON submission bodies.
const maxSubmissionBody = 10 << 20

// ParseResponse is the body returned for an uploaded packing list.
type ParseResponse struct {
	FileName  string            `json:"fileName"`
	HeaderRow int               `json:"headerRow"`
	Columns   packing.HeaderMap `json:"columns"`
	Items     []packing.Item    `json:"items"`
	Stats     packing.Stats     `json:"stats"`
}

// Download links one attributed artifact to the URL serving it.
type Download struct {
	ItemID string         `json:"itemId"`
	Name   string         `json:"name"`
	URL    string         `json:"url"`
	Tier   reconcile.Tier `json:"tier"`
}

// SubmissionResponse is a submission plus download links. Failure is set
// when the pipeline failed after the submission was stored.
type SubmissionResponse struct {
	core.Submission
	Downloads []Download     `json:"downloads"`
	Failure   *ErrorResponse `json:"failure,omitempty"`
}

type submitRequest struct {
	Items []packing.Item `json:"items"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"generation":  s.service.Limiter().Status(),
		"submissions": len(s.service.List()),
	})
}

// handleParsePackingList normalizes an uploaded spreadsheet.
func (s *Server) handleParsePackingList(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			s.respondError(w, r, fmt.Errorf("%w: %v", core.ErrFileTooLarge, err))
			return
		}
		s.respondError(w, r, fmt.Errorf("%w: %v", core.ErrNoFile, err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, core.ErrNoFile)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("read upload: %w", err))
		return
	}

	res, err := s.service.ParsePackingList(withRequestMetadata(r), header.Filename, data)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ParseResponse{
		FileName:  header.Filename,
		HeaderRow: res.HeaderRow,
		Columns:   res.Columns,
		Items:     res.Items,
		Stats:     res.Stats,
	})
}

// handleSubmit runs generation and reconciliation for a batch of items.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSubmissionBody)

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", core.ErrInvalidSubmission, err))
		return
	}

	sub, err := s.service.Submit(withRequestMetadata(r), req.Items)
	s.respondSubmission(w, r, sub, err, http.StatusCreated)
}

func (s *Server) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	sub, err := s.service.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.toResponse(sub, nil))
}

// handleReconcile re-scans the output directory for a stored submission.
func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	sub, err := s.service.Reconcile(withRequestMetadata(r), chi.URLParam(r, "id"))
	s.respondSubmission(w, r, sub, err, http.StatusOK)
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	subs := s.service.List()
	limit := parseIntParam(r, "limit", len(subs))
	if limit < len(subs) {
		subs = subs[:limit]
	}

	out := make([]SubmissionResponse, 0, len(subs))
	for _, sub := range subs {
		out = append(out, s.toResponse(sub, nil))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entries := s.service.GetAuditLog(core.AuditLogFilter{
		SubmissionID: q.Get("submission"),
		Action:       core.AuditAction(q.Get("action")),
		Limit:        parseIntParam(r, "limit", core.DefaultAuditLimit),
	})
	if entries == nil {
		entries = []core.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// respondSubmission writes a pipeline result. A stored submission is always
// returned, with the mapped failure attached when err is set.
func (s *Server) respondSubmission(w http.ResponseWriter, r *http.Request, sub core.Submission, err error, okStatus int) {
	if sub.ID == "" {
		if err == nil {
			err = errors.New("submission not stored")
		}
		s.respondError(w, r, err)
		return
	}

	if err != nil {
		msg := core.MapError(err)
		logError(r, err, msg)
		failure := newErrorResponse(msg)
		writeJSON(w, msg.Status, s.toResponse(sub, &failure))
		return
	}

	writeJSON(w, okStatus, s.toResponse(sub, nil))
}

func (s *Server) toResponse(sub core.Submission, failure *ErrorResponse) SubmissionResponse {
	resp := SubmissionResponse{Submission: sub, Downloads: []Download{}, Failure: failure}
	if sub.Report == nil {
		return resp
	}

	for _, res := range sub.Report.Results {
		for _, a := range res.Artifacts {
			resp.Downloads = append(resp.Downloads, Download{
				ItemID: res.Item.ID,
				Name:   a.Name,
				URL:    "/output/" + url.PathEscape(filepath.Base(a.Path)),
				Tier:   res.Tier,
			})
		}
	}
	return resp
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
