package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"sensorhub/backend/services/sensor-api/internal/ingest"
	"sensorhub/backend/services/sensor-api/internal/models"
	"sensorhub/backend/services/sensor-api/internal/period"
	"sensorhub/backend/services/sensor-api/internal/service"
)

const uploadField = "file"

// SensorsHandlers serves reading ingest and aggregation endpoints.
type SensorsHandlers struct {
	sensors        *service.SensorsService
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewSensorsHandlers returns handler. maxUploadBytes caps multipart upload bodies.
func NewSensorsHandlers(sensors *service.SensorsService, maxUploadBytes int64, logger *zap.Logger) *SensorsHandlers {
	return &SensorsHandlers{sensors: sensors, maxUploadBytes: maxUploadBytes, logger: logger}
}

// InsertReading handles POST /sensors/data.
func (h *SensorsHandlers) InsertReading(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EquipmentID string   `json:"equipmentId"`
		Timestamp   string   `json:"timestamp"`
		Value       *float64 `json:"value"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.EquipmentID) == "" {
		writeError(w, http.StatusBadRequest, "equipmentId is required")
		return
	}
	if strings.TrimSpace(req.Timestamp) == "" {
		writeError(w, http.StatusBadRequest, "timestamp is required")
		return
	}
	ts, err := ingest.ParseTimestamp(req.Timestamp)
	if err != nil {
		writeError(w, http.StatusBadRequest, "timestamp must be an ISO-8601 date-time")
		return
	}
	if req.Value == nil {
		writeError(w, http.StatusBadRequest, "value is required")
		return
	}

	result, err := h.sensors.InsertReading(r.Context(), models.Reading{
		EquipmentID: req.EquipmentID,
		Timestamp:   ts,
		Value:       *req.Value,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// UploadCSV handles POST /sensors/upload with a multipart "file" field.
func (h *SensorsHandlers) UploadCSV(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}

	file, _, err := r.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
		default:
			writeError(w, http.StatusBadRequest, "file is required")
		}
		return
	}
	defer file.Close()

	payload, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	result, err := h.sensors.UploadCSV(r.Context(), payload)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusAccepted, result)
}

// Average handles GET /sensors/average?equipmentId=&period=.
func (h *SensorsHandlers) Average(w http.ResponseWriter, r *http.Request) {
	equipmentID := r.URL.Query().Get("equipmentId")
	if strings.TrimSpace(equipmentID) == "" {
		writeError(w, http.StatusBadRequest, "equipmentId is required")
		return
	}

	result, err := h.sensors.Average(r.Context(), equipmentID, periodParam(r))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Averages handles GET /sensors/averages?period=.
func (h *SensorsHandlers) Averages(w http.ResponseWriter, r *http.Request) {
	result, err := h.sensors.Averages(r.Context(), periodParam(r))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// StationData handles GET /sensors/{equipmentId}/data?period=.
func (h *SensorsHandlers) StationData(w http.ResponseWriter, r *http.Request) {
	result, err := h.sensors.StationData(r.Context(), r.PathValue("equipmentId"), periodParam(r))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// periodParam falls back to the default window only when the parameter is absent.
func periodParam(r *http.Request) string {
	q := r.URL.Query()
	if !q.Has("period") {
		return period.Default
	}
	return q.Get("period")
}
