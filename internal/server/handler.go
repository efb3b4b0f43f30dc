package server

import (
	stderrors "errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"resumeforge/internal/document"
	"resumeforge/internal/errors"
	"resumeforge/internal/suggest"
	"resumeforge/internal/tailor"
	"resumeforge/internal/types"
	"resumeforge/internal/utils"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
)

// maxMultipartMemory is how much of a multipart form is held in memory
// before parts spill to temporary files
const maxMultipartMemory = 32 << 20

const bothFilesRequired = "Both resume and job description files are required"

// uploadHandler tailors an uploaded resume to an uploaded job description
// and stores the result for download
func (s *Server) uploadHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.deps.Obs.Tracer("resumeforge.api").Start(r.Context(), "api.upload")
	defer span.End()

	if !s.parseMultipart(w, r) {
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	resume, resumeName, ok := s.formFile(w, r, "resume", bothFilesRequired)
	if !ok {
		return
	}
	job, jobName, ok := s.formFile(w, r, "job_description", bothFilesRequired)
	if !ok {
		return
	}

	if utils.GetFileExtension(resumeName) != ".docx" || !slices.Contains(document.SupportedTextExtensions(), utils.GetFileExtension(jobName)) {
		writeErrorResponse(w, "Invalid file type",
			fmt.Sprintf("Resume must be .docx; job description must be one of %s", strings.Join(jobExtensions(), ", ")),
			http.StatusBadRequest)
		return
	}

	jobText, err := document.ExtractText(jobName, job)
	if err != nil {
		s.writeAppError(w, "Failed to read job description", err)
		return
	}

	span.SetAttributes(
		attribute.Int("request.resume_bytes", len(resume)),
		attribute.Int("request.job_length", len(jobText)),
	)

	result, err := s.deps.Tailor.Tailor(ctx, tailor.Input{
		Resume:         resume,
		JobDescription: jobText,
		Mode:           types.TailorMode(r.FormValue("mode")),
	})
	if err != nil {
		span.RecordError(err)
		s.writeAppError(w, "Failed to tailor resume", err)
		return
	}

	sessionID, err := s.deps.Store.Save(result.Document)
	if err != nil {
		span.RecordError(err)
		s.writeAppError(w, "Failed to save document", err)
		return
	}
	span.SetAttributes(attribute.String("session.id", sessionID))

	writeJSON(w, http.StatusOK, UploadResponse{
		Success:     true,
		SessionID:   sessionID,
		Message:     "Resume tailored successfully",
		DownloadURL: "/download/" + sessionID,
		Mode:        string(result.Report.Mode),
		Stats:       result.Report.Stats,
	})
}

// downloadHandler streams a stored document as an attachment
func (s *Server) downloadHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	file, _, err := s.deps.Store.Open(sessionID)
	if err != nil {
		if errors.CodeOf(err) == errors.ErrCodeSessionNotFound {
			s.metrics.RecordBusinessMetric(r.Context(), "document_downloaded", false)
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "File not found"})
			return
		}
		s.writeAppError(w, "Invalid session", err)
		return
	}
	defer func() { _ = file.Close() }()

	filename := "tailored_resume_" + time.Now().Format("20060102_150405") + ".docx"
	w.Header().Set("Content-Type", document.MIMEType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, file); err != nil {
		s.logger.LogError(err, "Failed to stream document", "session_id", sessionID)
		return
	}
	s.metrics.RecordBusinessMetric(r.Context(), "document_downloaded", true)

	if s.Config.DeleteAfterDownload {
		if err := s.deps.Store.Delete(sessionID); err != nil {
			s.logger.LogError(err, "Failed to delete downloaded document", "session_id", sessionID)
		}
	}
}

// reconstructHandler substitutes the bullets of a replacement text into an
// uploaded resume without calling the model
func (s *Server) reconstructHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.deps.Obs.Tracer("resumeforge.api").Start(r.Context(), "api.reconstruct")
	defer span.End()

	if !s.parseMultipart(w, r) {
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	resume, resumeName, ok := s.formFile(w, r, "resume", "Resume file is required")
	if !ok {
		return
	}
	if utils.GetFileExtension(resumeName) != ".docx" {
		writeErrorResponse(w, "Invalid file type", "Resume must be .docx", http.StatusBadRequest)
		return
	}

	replacement, ok := s.replacementText(w, r)
	if !ok {
		return
	}

	result, err := tailor.Reconstruct(resume, replacement)
	if err != nil {
		span.RecordError(err)
		s.metrics.RecordReconstruction(ctx, types.ModePreserve, false, types.ReconstructionStats{})
		s.writeAppError(w, "Failed to reconstruct resume", err)
		return
	}
	stats := result.Report.Stats
	s.metrics.RecordReconstruction(ctx, types.ModePreserve, true, stats)

	w.Header().Set("Content-Type", document.MIMEType)
	w.Header().Set("Content-Disposition", `attachment; filename="reconstructed_resume.docx"`)
	w.Header().Set("X-Bullets-Substituted", strconv.Itoa(stats.Substituted))
	w.Header().Set("X-Bullets-Dropped", strconv.Itoa(stats.Dropped))
	w.Header().Set("X-Slots-Unfilled", strconv.Itoa(stats.Unfilled))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Document); err != nil {
		s.logger.LogError(err, "Failed to write reconstructed document")
	}
}

// suggestHandler compares resume and job keywords
func (s *Server) suggestHandler(w http.ResponseWriter, r *http.Request) {
	var req SuggestRequest
	if status, err := parseJSONRequest(r, &req); err != nil {
		writeErrorResponse(w, "Invalid request body", err.Error(), status)
		return
	}
	if strings.TrimSpace(req.ResumeText) == "" {
		writeErrorResponse(w, "Missing resume text", "resumeText field is required", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.JobDescription) == "" {
		writeErrorResponse(w, "Missing job description", "jobDescription field is required", http.StatusBadRequest)
		return
	}

	report := suggest.Analyze(req.ResumeText, req.JobDescription, suggest.Options{
		TopN:      s.AppConfig.App.SuggestionsTopN,
		MinLength: s.AppConfig.App.SuggestionsMinLen,
	})
	s.metrics.RecordBusinessMetric(r.Context(), "suggestion_served", true,
		attribute.Float64("suggest.score", report.Score))
	writeJSON(w, http.StatusOK, report)
}

// parseMultipart parses the form and answers the request itself on failure
func (s *Server) parseMultipart(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			writeErrorResponse(w, "Request too large",
				fmt.Sprintf("Request body exceeds %d bytes", maxBytesErr.Limit), http.StatusRequestEntityTooLarge)
			return false
		}
		writeErrorResponse(w, "Invalid multipart form", err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// formFile reads the uploaded file named field, answering with missingTitle
// when the part is absent. A part sent without a filename is an empty file
// selection.
func (s *Server) formFile(w http.ResponseWriter, r *http.Request, field, missingTitle string) ([]byte, string, bool) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if _, sent := r.MultipartForm.Value[field]; sent {
			writeErrorResponse(w, "No files selected", "Select a file for "+field, http.StatusBadRequest)
			return nil, "", false
		}
		writeErrorResponse(w, missingTitle, fmt.Sprintf("multipart field %q is missing", field), http.StatusBadRequest)
		return nil, "", false
	}
	defer func() { _ = file.Close() }()

	if header.Filename == "" {
		writeErrorResponse(w, "No files selected", "Select a file for "+field, http.StatusBadRequest)
		return nil, "", false
	}

	data, err := readPart(file)
	if err != nil {
		s.writeAppError(w, "Failed to read upload", err)
		return nil, "", false
	}
	return data, header.Filename, true
}

// replacementText takes the replacement from a form value or a file part.
// File parts are read as plain line-oriented text whatever their extension,
// so bullet markers reach the reconstructor untouched. A present but empty
// form value is a valid replacement with no bullets.
func (s *Server) replacementText(w http.ResponseWriter, r *http.Request) (string, bool) {
	if values, ok := r.MultipartForm.Value["replacement"]; ok && len(values) > 0 {
		return values[0], true
	}

	file, _, err := r.FormFile("replacement")
	if err != nil {
		writeErrorResponse(w, "Missing replacement",
			"replacement is required as a form value or a text file", http.StatusBadRequest)
		return "", false
	}
	defer func() { _ = file.Close() }()

	data, err := readPart(file)
	if err != nil {
		s.writeAppError(w, "Failed to read upload", err)
		return "", false
	}
	return string(data), true
}

func readPart(file multipart.File) ([]byte, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable, "Failed to read uploaded file", err)
	}
	return data, nil
}

func jobExtensions() []string {
	exts := document.SupportedTextExtensions()
	slices.Sort(exts)
	return exts
}
