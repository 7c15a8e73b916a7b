package handlers

import (
	"net/http"
	"testing"
)

func TestEnrollHandler(t *testing.T) {
	env := setupRouter(t)

	rec, body := doJSON(t, env.router, http.MethodPost, "/api/employees", EnrollRequest{
		EmployeeID: "emp-1",
		Name:       "Alice",
		ImageData:  imageData("alice-img"),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %v", rec.Code, body)
	}
	if body["success"] != true {
		t.Errorf("expected success=true, got %v", body)
	}
}

func TestEnrollHandlerNoFace(t *testing.T) {
	env := setupRouter(t)

	rec, body := doJSON(t, env.router, http.MethodPost, "/api/employees", EnrollRequest{
		EmployeeID: "emp-1",
		Name:       "Alice",
		ImageData:  imageData("blank-img"),
	})
	// A faceless photo is a business negative, not an HTTP error.
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["outcome"] != "no_face_detected" {
		t.Errorf("expected no_face_detected outcome, got %v", body)
	}
}

func TestEnrollHandlerDuplicate(t *testing.T) {
	env := setupRouter(t)
	enrollAlice(t, env)

	rec, _ := doJSON(t, env.router, http.MethodPost, "/api/employees", EnrollRequest{
		EmployeeID: "emp-1",
		Name:       "Impostor",
		ImageData:  imageData("alice-img"),
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate id, got %d", rec.Code)
	}
}

func TestEnrollHandlerValidation(t *testing.T) {
	env := setupRouter(t)

	tests := []struct {
		name string
		req  EnrollRequest
	}{
		{"missing fields", EnrollRequest{EmployeeID: "emp-1"}},
		{"bad base64", EnrollRequest{EmployeeID: "emp-1", Name: "Alice", ImageData: "%%%not-base64%%%"}},
		{"bad id", EnrollRequest{EmployeeID: "a/b", Name: "Alice", ImageData: imageData("alice-img")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := doJSON(t, env.router, http.MethodPost, "/api/employees", tt.req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestListEmployeesHandler(t *testing.T) {
	env := setupRouter(t)
	enrollAlice(t, env)

	rec, body := doJSON(t, env.router, http.MethodGet, "/api/employees", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	employees, ok := body["employees"].([]any)
	if !ok || len(employees) != 1 {
		t.Fatalf("expected 1 employee, got %v", body)
	}

	// Name filter.
	rec, body = doJSON(t, env.router, http.MethodGet, "/api/employees?q=bob", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if employees, _ := body["employees"].([]any); len(employees) != 0 {
		t.Errorf("expected no employees for q=bob, got %v", employees)
	}
}

func TestDeleteEmployeeHandler(t *testing.T) {
	env := setupRouter(t)
	enrollAlice(t, env)

	rec, _ := doJSON(t, env.router, http.MethodDelete, "/api/employees/emp-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if env.store.Count() != 0 {
		t.Error("encoding should be removed with the employee")
	}

	// Idempotent: deleting again still succeeds.
	rec, _ = doJSON(t, env.router, http.MethodDelete, "/api/employees/emp-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for repeated delete, got %d", rec.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	env := setupRouter(t)

	rec, body := doJSON(t, env.router, http.MethodGet, "/api/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["status"] != "ok" {
		t.Errorf("unexpected health body %v", body)
	}
}
