package web

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JonMunkholm/protesto/internal/core"
	"github.com/JonMunkholm/protesto/internal/logging"
)

// uploadedFile is a file read from the request, with its declared type.
type uploadedFile struct {
	name      string
	mediaType string
	data      []byte
}

// importResponse is the body of a completed import. StoppedEarly is set
// when persistence aborted; Log still reflects what was committed.
type importResponse struct {
	Log          *core.ImportAuditLog  `json:"log"`
	Report       core.ValidationReport `json:"report"`
	StoppedEarly *ErrorResponse        `json:"stoppedEarly,omitempty"`
}

// handleImport runs one file through its pipeline and returns the audit log.
//
// The file is either the "file" part of a multipart form or the raw request
// body; in the latter case the name comes from the "filename" query
// parameter.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	file, err := s.readUpload(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	result, err := s.service.Import(r.Context(), core.ImportRequest{
		FileName:  file.name,
		MediaType: file.mediaType,
		Data:      file.data,
	})
	if result == nil {
		respondError(w, r, err)
		return
	}

	resp := importResponse{Log: result.Log, Report: result.Report}
	if err != nil {
		logging.FromContext(r.Context()).Warn("import stopped early",
			"import_id", result.Log.ID,
			"error", err,
		)
		msg := core.MapError(err)
		resp.StoppedEarly = &ErrorResponse{Error: msg.Message, Message: msg.Message, Action: msg.Action, Code: msg.Code}
	}
	w.Header().Set("Location", "/api/imports/"+result.Log.ID.String())
	writeJSONStatus(w, http.StatusCreated, resp)
}

// handleValidate decodes and validates a file without persisting it.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	file, err := s.readUpload(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	report, records, err := s.service.Validate(file.mediaType, file.data)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{
		"fileName": file.name,
		"records":  len(records),
		"report":   report,
	})
}

func (s *Server) handleListImports(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		respondError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		respondError(w, r, err)
		return
	}

	logs, err := s.service.ListImports(r.Context(), limit, offset)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{
		"imports": logs,
		"limit":   limit,
		"offset":  offset,
	})
}

func (s *Server) handleGetImport(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "importID"))
	if err != nil {
		respondError(w, r, fmt.Errorf("%w: import id: %v", errBadRequest, err))
		return
	}

	log, err := s.service.GetImport(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, log)
}

// readUpload reads the uploaded file within the configured size limit.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (uploadedFile, error) {
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	declared, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if declared == "multipart/form-data" {
		return readMultipart(r, maxSize)
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return uploadedFile{}, bodyError(err)
	}
	if len(data) == 0 {
		return uploadedFile{}, errNoFile
	}
	name := r.URL.Query().Get("filename")
	return uploadedFile{
		name:      name,
		mediaType: mediaTypeFor(r.Header.Get("Content-Type"), name),
		data:      data,
	}, nil
}

func readMultipart(r *http.Request, maxSize int64) (uploadedFile, error) {
	if err := r.ParseMultipartForm(maxSize); err != nil {
		return uploadedFile{}, bodyError(err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return uploadedFile{}, errNoFile
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return uploadedFile{}, bodyError(err)
	}

	declared := header.Header.Get("Content-Type")
	if override := r.FormValue("type"); override != "" {
		declared = override
	}
	return uploadedFile{
		name:      header.Filename,
		mediaType: mediaTypeFor(declared, header.Filename),
		data:      data,
	}, nil
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("%w: limit is %d bytes", errFileTooLarge, tooLarge.Limit)
	}
	return fmt.Errorf("%w: %v", errBadRequest, err)
}

// mediaTypeFor returns the declared media type, or one inferred from the
// file extension when the client sent none or a generic binary type.
func mediaTypeFor(declared, filename string) string {
	base, _, err := mime.ParseMediaType(declared)
	if err == nil && base != "" && base != "application/octet-stream" {
		return declared
	}
	if guessed := core.MediaTypeForFile(filename); guessed != "" {
		return guessed
	}
	return declared
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", errBadRequest, key)
	}
	return n, nil
}
