package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/database/mock"
	"github.com/kozaktomas/face-attendance/internal/detector"
	"github.com/kozaktomas/face-attendance/internal/facestore"
)

// stubDetector maps raw image bytes to canned encodings.
type stubDetector struct {
	faces map[string][]float32
}

func (d *stubDetector) DetectAndEncode(ctx context.Context, image []byte) (*detector.Face, error) {
	enc, ok := d.faces[string(image)]
	if !ok {
		return nil, detector.ErrNoFaceDetected
	}
	return &detector.Face{Encoding: enc, Box: [4]int{0, 10, 10, 0}}, nil
}

type testEnv struct {
	router *chi.Mux
	ledger *mock.Ledger
	store  *facestore.Store
}

// setupRouter builds the service with mock storage and mounts the same
// routes the server uses.
func setupRouter(t *testing.T) *testEnv {
	t.Helper()

	store, err := facestore.Open(filepath.Join(t.TempDir(), "encodings.bin"))
	if err != nil {
		t.Fatalf("failed to open encoding store: %v", err)
	}

	employees := mock.NewEmployeeStore()
	ledger := mock.NewLedger()
	employees.Ledger = ledger
	det := &stubDetector{faces: map[string][]float32{
		"alice-img": {0.1, 0.2, 0.3},
		"noone-img": {9, 9, 9},
	}}

	service := attendance.NewService(employees, ledger, store, det, nil, attendance.Options{
		Threshold: 0.6,
	})

	r := chi.NewRouter()
	employeesHandler := NewEmployeesHandler(service)
	attendanceHandler := NewAttendanceHandler(service)

	r.Get("/api/health", HealthCheck)
	r.Get("/api/employees", employeesHandler.List)
	r.Post("/api/employees", employeesHandler.Enroll)
	r.Delete("/api/employees/{id}", employeesHandler.Delete)
	r.Post("/api/attendance", attendanceHandler.Mark)
	r.Get("/api/attendance", attendanceHandler.Records)

	return &testEnv{router: r, ledger: ledger, store: store}
}

// doJSON performs a request with a JSON body and decodes the JSON response.
func doJSON(t *testing.T, router *chi.Mux, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		if err := json.NewDecoder(rec.Body).Decode(&decoded); err != nil {
			t.Fatalf("response is not valid JSON: %v", err)
		}
	}
	return rec, decoded
}

// imageData base64-encodes fake image bytes the way clients submit them.
func imageData(img string) string {
	return base64.StdEncoding.EncodeToString([]byte(img))
}

// enrollAlice enrolls the canned test employee.
func enrollAlice(t *testing.T, env *testEnv) {
	t.Helper()
	rec, _ := doJSON(t, env.router, http.MethodPost, "/api/employees", EnrollRequest{
		EmployeeID: "emp-1",
		Name:       "Alice",
		ImageData:  imageData("alice-img"),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("failed to enroll test employee: status %d, body %s", rec.Code, rec.Body)
	}
	env.ledger.SetName("emp-1", "Alice")
}
