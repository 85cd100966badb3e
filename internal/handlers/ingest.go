package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"assetwatch/internal/models"
)

// IngestHandler accepts metric samples over HTTP and pushes them onto the
// ingest queue
type IngestHandler struct {
	sampleChan  chan<- *models.Sample
	maxBodySize int64
}

// IngestConfig holds configuration for the ingest handler
type IngestConfig struct {
	SampleChan  chan<- *models.Sample
	MaxBodySize int64
}

// NewIngestHandler creates a new ingest handler
func NewIngestHandler(cfg IngestConfig) *IngestHandler {
	maxBodySize := cfg.MaxBodySize
	if maxBodySize == 0 {
		maxBodySize = 10 * 1024 * 1024 // 10MB default
	}

	return &IngestHandler{
		sampleChan:  cfg.SampleChan,
		maxBodySize: maxBodySize,
	}
}

// IngestRequest represents the incoming JSON payload (single or batch)
type IngestRequest struct {
	Sample  *SampleInput  `json:"sample,omitempty"`
	Samples []SampleInput `json:"samples,omitempty"`
}

// SampleInput is the input format for metric samples (string timestamp for
// flexible parsing)
type SampleInput struct {
	AssetID   string                 `json:"asset_id"`
	Kind      string                 `json:"metric_kind"`
	Value     float64                `json:"value"`
	Unit      string                 `json:"unit,omitempty"`
	Timestamp string                 `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// IngestResponse is the response returned to clients
type IngestResponse struct {
	Success  bool          `json:"success"`
	Accepted int           `json:"accepted"`
	Rejected int           `json:"rejected"`
	Errors   []IngestError `json:"errors,omitempty"`
}

// IngestError describes a validation error for a specific sample
type IngestError struct {
	Index   int    `json:"index"`
	AssetID string `json:"asset_id,omitempty"`
	Error   string `json:"error"`
}

// ServeHTTP handles the ingest HTTP request
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType != "application/json" && contentType != "" {
		writeError(w, http.StatusUnsupportedMediaType, "content-type must be application/json")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	samples, err := parseBody(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if len(samples) == 0 {
		writeError(w, http.StatusBadRequest, "no samples provided")
		return
	}

	response := h.enqueueSamples(samples)

	w.Header().Set("Content-Type", "application/json")
	if response.Rejected > 0 && response.Accepted == 0 {
		w.WriteHeader(http.StatusBadRequest)
	} else {
		w.WriteHeader(http.StatusAccepted)
	}
	json.NewEncoder(w).Encode(response)
}

// parseBody parses the JSON body into a slice of SampleInput
func parseBody(body []byte) ([]SampleInput, error) {
	var req IngestRequest
	if err := json.Unmarshal(body, &req); err == nil {
		if len(req.Samples) > 0 {
			return req.Samples, nil
		}
		if req.Sample != nil {
			return []SampleInput{*req.Sample}, nil
		}
	}

	// Try parsing as array of samples
	var samples []SampleInput
	if err := json.Unmarshal(body, &samples); err == nil && len(samples) > 0 {
		return samples, nil
	}

	// Try parsing as single sample
	var single SampleInput
	if err := json.Unmarshal(body, &single); err == nil && single.AssetID != "" {
		return []SampleInput{single}, nil
	}

	return nil, fmt.Errorf("invalid JSON format: expected sample object or array of samples")
}

// enqueueSamples converts, validates, and pushes samples onto the queue
func (h *IngestHandler) enqueueSamples(inputs []SampleInput) IngestResponse {
	response := IngestResponse{
		Success: true,
		Errors:  make([]IngestError, 0),
	}

	for i, input := range inputs {
		sample, err := convertInput(input)
		if err == nil {
			sample.Normalize()
			err = sample.Validate()
		}
		if err != nil {
			response.Errors = append(response.Errors, IngestError{
				Index:   i,
				AssetID: input.AssetID,
				Error:   err.Error(),
			})
			response.Rejected++
			continue
		}

		// Non-blocking send: a full queue rejects instead of stalling
		select {
		case h.sampleChan <- sample:
			response.Accepted++
		default:
			response.Errors = append(response.Errors, IngestError{
				Index:   i,
				AssetID: sample.AssetID,
				Error:   "internal queue full, try again later",
			})
			response.Rejected++
		}
	}

	response.Success = response.Rejected == 0
	return response
}

// convertInput converts SampleInput to a Sample
func convertInput(input SampleInput) (*models.Sample, error) {
	ts, err := models.ParseTimestamp(input.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("timestamp: %w", err)
	}

	return &models.Sample{
		AssetID:   input.AssetID,
		Kind:      models.MetricKind(input.Kind),
		Value:     input.Value,
		Unit:      input.Unit,
		Timestamp: ts,
		Metadata:  input.Metadata,
	}, nil
}

// writeError writes an error response
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
