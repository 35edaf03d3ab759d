package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/JonMunkholm/hsncheck/internal/extract"
	"github.com/JonMunkholm/hsncheck/internal/ingest"
	"github.com/JonMunkholm/hsncheck/internal/logging"
)

// multipartMemory is how much of a multipart body is held in memory before
// spilling to temp files.
const multipartMemory = 32 << 20

var errNoCodes = errors.New("invalid request: no codes provided")

// codesRequest is the JSON body accepted by the validation endpoints.
type codesRequest struct {
	Code  string   `json:"code,omitempty"`
	Codes []string `json:"codes,omitempty"`
	Text  string   `json:"text,omitempty"`
}

// list flattens the request into codes, in field order.
func (c codesRequest) list() []string {
	var out []string
	if c.Code != "" {
		out = append(out, c.Code)
	}
	out = append(out, c.Codes...)
	if c.Text != "" {
		out = append(out, extract.ParseList(c.Text)...)
	}
	return out
}

// readCodes collects the codes a bulk request asks about. It accepts:
//
//	multipart/form-data   a "file" (.csv/.tsv/.xlsx) or a "codes" text field
//	application/json      {"code": "...", "codes": [...], "text": "..."}
//	form-urlencoded       a "codes" text field
//	anything else         the raw body as a pasted list
//
// ?dedupe=true drops repeats. The body is capped at Upload.MaxFileSize.
func (s *Server) readCodes(w http.ResponseWriter, r *http.Request) ([]string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var codes []string
	switch mediaType {
	case "multipart/form-data":
		var err error
		if codes, err = s.readMultipartCodes(r); err != nil {
			return nil, err
		}

	case "application/json":
		var req codesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, fmt.Errorf("invalid request: %w", err)
		}
		codes = req.list()

	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("invalid request: %w", err)
		}
		codes = extract.ParseList(r.PostForm.Get("codes"))

	default:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, fmt.Errorf("invalid request: %w", err)
		}
		codes = extract.ParseList(string(body))
	}

	if r.URL.Query().Get("dedupe") == "true" {
		codes = extract.Dedupe(codes)
	}
	if len(codes) == 0 {
		return nil, errNoCodes
	}
	return codes, nil
}

// readMultipartCodes reads codes from an uploaded file, falling back to the
// "codes" text field when no file is attached.
func (s *Server) readMultipartCodes(r *http.Request) ([]string, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		text := r.FormValue("codes")
		if strings.TrimSpace(text) == "" {
			return nil, errors.New("no file provided")
		}
		return extract.ParseList(text), nil
	}
	if err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	defer file.Close()

	format, err := ingest.ParseFormat(r.FormValue("format"))
	if err != nil {
		return nil, err
	}

	src := &ingest.ReaderSource{
		Name:     header.Filename,
		Reader:   file,
		MaxBytes: s.cfg.Upload.MaxFileSize,
		Parse:    ingest.ParseOptions{Format: format, Sheet: r.FormValue("sheet")},
	}
	ds, err := src.Fetch(r.Context())
	if err != nil {
		return nil, err
	}

	codes, assignment, err := ingest.CodesFromDataset(ds, ingest.Options{})
	if err != nil {
		return nil, err
	}

	logging.FromContext(r.Context()).Info("bulk file parsed",
		"file", header.Filename,
		"format", ds.Format,
		"encoding", ds.Encoding,
		"assignment", assignment.String(),
		"codes", len(codes),
	)
	return codes, nil
}
