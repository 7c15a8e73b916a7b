package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/detector"
)

// AttendanceHandler serves attendance marking and record listing.
type AttendanceHandler struct {
	service *attendance.Service
}

// NewAttendanceHandler creates a new attendance handler.
func NewAttendanceHandler(service *attendance.Service) *AttendanceHandler {
	return &AttendanceHandler{service: service}
}

// MarkRequest is the attendance marking request body.
type MarkRequest struct {
	ImageData string `json:"image_data"` // base64 or data URL
}

// MarkResponse is the outcome of an attendance attempt.
type MarkResponse struct {
	Success    bool    `json:"success"`
	Outcome    string  `json:"outcome"`
	EmployeeID string  `json:"employee_id,omitempty"`
	Name       string  `json:"name,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Timestamp  string  `json:"timestamp,omitempty"`
	Message    string  `json:"message,omitempty"`
}

// RecordResponse represents one attendance record in API responses.
type RecordResponse struct {
	ID         int64   `json:"id"`
	EmployeeID string  `json:"employee_id"`
	Name       string  `json:"name"`
	CheckIn    string  `json:"check_in"`
	CheckOut   *string `json:"check_out"`
}

const timestampLayout = "2006-01-02 15:04:05"

// Mark handles POST /api/attendance: recognize the face in the image and
// apply the check-in/check-out transition.
func (h *AttendanceHandler) Mark(w http.ResponseWriter, r *http.Request) {
	var req MarkRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.ImageData == "" {
		respondError(w, http.StatusBadRequest, "image_data is required")
		return
	}

	image, err := decodeImage(req.ImageData)
	if err != nil {
		respondError(w, http.StatusBadRequest, "image_data is not valid base64")
		return
	}

	result, err := h.service.RecognizeAndLog(r.Context(), image, time.Now())
	switch {
	case err == nil:
		resp := MarkResponse{
			Success:    result.Kind != attendance.ResultAlreadyCompleted,
			Outcome:    result.Kind.String(),
			EmployeeID: result.EmployeeID,
			Name:       result.Name,
			Confidence: result.Confidence,
			Timestamp:  result.Time.Format(timestampLayout),
		}
		if result.Kind == attendance.ResultAlreadyCompleted {
			resp.Message = "Attendance already completed for today"
		}
		respondJSON(w, http.StatusOK, resp)
	case errors.Is(err, detector.ErrNoFaceDetected):
		respondJSON(w, http.StatusOK, MarkResponse{
			Outcome: "no_face_detected",
			Message: "No face detected in the image",
		})
	case errors.Is(err, attendance.ErrNotRecognized):
		respondJSON(w, http.StatusOK, MarkResponse{
			Outcome: "not_recognized",
			Message: "Face not recognized",
		})
	default:
		log.Printf("Error marking attendance: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to mark attendance")
	}
}

// Records handles GET /api/attendance. An optional date parameter
// (YYYY-MM-DD) restricts the listing to one calendar day.
func (h *AttendanceHandler) Records(w http.ResponseWriter, r *http.Request) {
	var day *time.Time
	if dateStr := r.URL.Query().Get("date"); dateStr != "" {
		parsed, err := time.ParseInLocation("2006-01-02", dateStr, time.Local)
		if err != nil {
			respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		day = &parsed
	}

	entries, err := h.service.Records(r.Context(), day)
	if err != nil {
		log.Printf("Error listing attendance records: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list attendance records")
		return
	}

	records := make([]RecordResponse, 0, len(entries))
	for _, e := range entries {
		rec := RecordResponse{
			ID:         e.Record.ID,
			EmployeeID: e.Record.EmployeeID,
			Name:       e.Name,
			CheckIn:    e.Record.CheckIn.Format(timestampLayout),
		}
		if e.Record.CheckOut != nil {
			out := e.Record.CheckOut.Format(timestampLayout)
			rec.CheckOut = &out
		}
		records = append(records, rec)
	}
	respondJSON(w, http.StatusOK, map[string]any{"records": records})
}
