package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/detector"
)

// EmployeesHandler serves enrollment, listing and deletion of employees.
type EmployeesHandler struct {
	service *attendance.Service
}

// NewEmployeesHandler creates a new employees handler.
func NewEmployeesHandler(service *attendance.Service) *EmployeesHandler {
	return &EmployeesHandler{service: service}
}

// EnrollRequest is the enrollment request body.
type EnrollRequest struct {
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
	ImageData  string `json:"image_data"` // base64 or data URL
}

// EmployeeResponse represents an employee in API responses.
type EmployeeResponse struct {
	EmployeeID string    `json:"employee_id"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
}

// Enroll handles POST /api/employees.
func (h *EmployeesHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req EnrollRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.EmployeeID == "" || req.Name == "" || req.ImageData == "" {
		respondError(w, http.StatusBadRequest, "employee_id, name and image_data are required")
		return
	}

	image, err := decodeImage(req.ImageData)
	if err != nil {
		respondError(w, http.StatusBadRequest, "image_data is not valid base64")
		return
	}

	err = h.service.Enroll(r.Context(), req.EmployeeID, req.Name, image)
	switch {
	case err == nil:
		respondJSON(w, http.StatusCreated, map[string]any{
			"success":     true,
			"employee_id": req.EmployeeID,
		})
	case errors.Is(err, detector.ErrNoFaceDetected):
		respondJSON(w, http.StatusOK, map[string]any{
			"success": false,
			"outcome": "no_face_detected",
			"message": "No face detected in the image",
		})
	case errors.Is(err, database.ErrDuplicateEmployee):
		respondError(w, http.StatusConflict, "employee id already exists")
	case errors.Is(err, attendance.ErrInvalidEmployeeID):
		respondError(w, http.StatusBadRequest, "invalid employee id")
	default:
		log.Printf("Error enrolling employee %s: %v", sanitizeForLog(req.EmployeeID), err)
		respondError(w, http.StatusInternalServerError, "enrollment failed")
	}
}

// List handles GET /api/employees. An optional q parameter filters by
// name, ignoring case and diacritics.
func (h *EmployeesHandler) List(w http.ResponseWriter, r *http.Request) {
	employees, err := h.service.Employees(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		log.Printf("Error listing employees: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list employees")
		return
	}

	resp := make([]EmployeeResponse, 0, len(employees))
	for _, emp := range employees {
		resp = append(resp, EmployeeResponse{
			EmployeeID: emp.ID,
			Name:       emp.Name,
			CreatedAt:  emp.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"employees": resp})
}

// Delete handles DELETE /api/employees/{id}. Deletion cascades the
// employee's encoding, attendance records and image archive; deleting a
// missing employee succeeds.
func (h *EmployeesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "employee id is required")
		return
	}

	if err := h.service.DeleteEmployee(r.Context(), id); err != nil {
		log.Printf("Error deleting employee %s: %v", sanitizeForLog(id), err)
		respondError(w, http.StatusInternalServerError, "failed to delete employee")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}
