package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/csvdeck/csvdeck/internal/core"
)

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleUpload ingests a CSV file from a multipart form. The form field
// must be named "file"; the body is capped at the configured size.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			badRequest(w, fmt.Sprintf("file exceeds the %d byte limit", maxErr.Limit))
			return
		}
		badRequest(w, "multipart form field 'file' is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	ds, err := s.service.Ingest(r.Context(), data, header.Filename)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"ok":     true,
		"fileId": ds.ID,
	})
}

// handleListRows returns every row of the current dataset. With no
// dataset uploaded the response is an empty array, not an error.
func (s *Server) handleListRows(w http.ResponseWriter, r *http.Request) {
	rows, err := s.service.Rows(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

// handleAppendRow adds a row from a JSON object body.
func (s *Server) handleAppendRow(w http.ResponseWriter, r *http.Request) {
	rec, err := decodeRecord(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	if _, err := s.service.AppendRow(r.Context(), rec); err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleUpdateRow merges a partial JSON object into the row at the
// positional index.
func (s *Server) handleUpdateRow(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	partial, err := decodeRecord(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	if _, err := s.service.UpdateRowAt(r.Context(), index, partial); err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleDeleteRow removes the row at the positional index.
func (s *Server) handleDeleteRow(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	if err := s.service.DeleteRowAt(r.Context(), index); err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleExport streams the current dataset as a CSV attachment.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	name, data, err := s.service.Export(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".csv"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// mergePayload is the JSON body of POST /merge.
type mergePayload struct {
	LeftName  string   `json:"leftName"`
	RightName string   `json:"rightName"`
	On        []string `json:"on"`
	How       string   `json:"how" validate:"omitempty,oneof=inner left right outer"`
	Name      string   `json:"name"`
}

// handleMerge joins two stored datasets into a new one.
func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	var payload mergePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(payload); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			badRequest(w, "how must be one of inner, left, right, outer")
			return
		}
		badRequest(w, "invalid merge request")
		return
	}

	ds, err := s.service.Merge(r.Context(), core.MergeRequest{
		LeftName:  payload.LeftName,
		RightName: payload.RightName,
		On:        payload.On,
		How:       payload.How,
		Name:      payload.Name,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"fileId":   ds.ID,
		"rowCount": ds.RowCount,
	})
}

// pathIndex parses the {index} URL parameter as a non-negative integer.
func pathIndex(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "index")
	index, err := strconv.Atoi(raw)
	if err != nil || index < 0 {
		return 0, fmt.Errorf("index must be a non-negative integer, got %q", raw)
	}
	return index, nil
}

// decodeRecord reads a JSON object body into a Record. Scalar values of
// any JSON type are accepted and coerced to their string form, matching
// how CSV-sourced rows are stored; nested objects and arrays are
// rejected.
func decodeRecord(r *http.Request) (core.Record, error) {
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, errors.New("request body must be a JSON object")
	}

	rec := make(core.Record, len(raw))
	for k, v := range raw {
		sv, err := coerceScalar(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %v", k, err)
		}
		rec[k] = sv
	}
	return rec, nil
}

// coerceScalar renders a decoded JSON value as a cell string. Numbers
// use the shortest representation that round-trips, so integers do not
// grow a trailing ".0".
func coerceScalar(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	case nil:
		return "", nil
	default:
		return "", errors.New("value must be a scalar")
	}
}
