package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"regift/internal/convert"
	"regift/internal/services"
	"regift/internal/timeplan"
)

// maxRequestBody bounds POST bodies; requests are small JSON documents.
const maxRequestBody = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var body ConversionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error(), services.Kind(services.ErrInvalidRequest))
		return
	}

	req := s.toRequest(body)
	start := time.Now()
	path, err := s.converter.Convert(r.Context(), req)
	if err != nil {
		s.writeError(w, statusForError(err), err.Error(), services.Kind(err))
		return
	}
	s.writeJSON(w, http.StatusCreated, ConversionResponse{
		Destination: path,
		ElapsedMS:   time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit", services.Kind(services.ErrInvalidRequest))
			return
		}
		limit = parsed
	}
	items, err := s.history.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error(), "")
		return
	}
	s.writeJSON(w, http.StatusOK, HistoryListResponse{Items: items})
}

func (s *Server) handleHistoryItem(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	item, err := s.history.Describe(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error(), "")
		return
	}
	if item == nil {
		s.writeError(w, http.StatusNotFound, "conversion not found", "")
		return
	}
	s.writeJSON(w, http.StatusOK, item)
}

// toRequest maps the wire body onto a convert.Request, filling the frame
// count and loop count from configuration when the body leaves them out.
func (s *Server) toRequest(body ConversionRequest) convert.Request {
	req := convert.Request{
		Source:       strings.TrimSpace(body.Source),
		Destination:  strings.TrimSpace(body.Destination),
		FrameCount:   body.FrameCount,
		Delay:        secondsToDuration(body.DelaySeconds),
		Start:        timeplan.FromSeconds(body.StartSeconds),
		Duration:     timeplan.FromSeconds(body.DurationSeconds),
		FrameRate:    body.FrameRate,
		LoopCount:    s.cfg.Conversion.LoopCount,
		MaxPixelSize: body.MaxPixelSize,
		Timeout:      secondsToDuration(body.TimeoutSeconds),
	}
	if body.DelaySeconds < 0 {
		req.Delay = -1
	}
	for _, p := range body.TimePointsSeconds {
		req.TimePoints = append(req.TimePoints, timeplan.FromSeconds(p))
	}
	if body.LoopCount != nil {
		req.LoopCount = *body.LoopCount
	}
	if req.FrameCount == 0 && req.FrameRate == 0 && len(req.TimePoints) == 0 {
		req.FrameCount = s.cfg.Conversion.FrameCount
	}
	return req
}

// statusForError maps an error kind to an HTTP status.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrSourceFormatInvalid):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrDestinationUnavailable):
		return http.StatusConflict
	case errors.Is(err, services.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, services.ErrCanceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
