// Package attendance implements the enrollment and recognition workflows
// on top of the encoding store, the face matcher, and the check-in/check-out
// ledger.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/kozaktomas/face-attendance/internal/archive"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/detector"
	"github.com/kozaktomas/face-attendance/internal/facestore"
	"github.com/kozaktomas/face-attendance/internal/matcher"
)

// ErrNotRecognized means a face was detected but no enrolled encoding is
// within the matching threshold. A legitimate negative result, not a
// system failure.
var ErrNotRecognized = errors.New("face not recognized")

// ErrInvalidEmployeeID is returned for enrollment ids that are empty or
// unusable as a directory name.
var ErrInvalidEmployeeID = errors.New("invalid employee id")

// ResultKind classifies the outcome of a recognition.
type ResultKind int

const (
	ResultCheckIn ResultKind = iota
	ResultCheckOut
	ResultAlreadyCompleted
)

func (k ResultKind) String() string {
	switch k {
	case ResultCheckOut:
		return "check_out"
	case ResultAlreadyCompleted:
		return "already_completed"
	default:
		return "check_in"
	}
}

// Result is the user-facing outcome of a successful recognition.
type Result struct {
	Kind       ResultKind
	EmployeeID string
	Name       string
	Confidence float64
	Time       time.Time
}

// Options carries the tuning knobs of the service.
type Options struct {
	// Threshold is the maximum euclidean distance for a match
	// (strictly less than).
	Threshold float64
	// IndexCutover is the enrollment count at which the HNSW index is
	// preferred over a linear scan. Ignored when no index is enabled.
	IndexCutover int
	// BlockAfterCompleted makes recognition report "already completed"
	// once the employee has a closed record for the day, instead of
	// opening another check-in/check-out cycle.
	BlockAfterCompleted bool
}

// Service wires the face-attendance core together. All dependencies are
// injected; there is no package-level state.
type Service struct {
	employees database.EmployeeStore
	ledger    database.AttendanceLedger
	store     *facestore.Store
	detector  detector.Detector
	archive   *archive.Archive
	opts      Options
}

// NewService creates the attendance service. The archive may be nil, in
// which case no face images are kept.
func NewService(
	employees database.EmployeeStore,
	ledger database.AttendanceLedger,
	store *facestore.Store,
	det detector.Detector,
	arch *archive.Archive,
	opts Options,
) *Service {
	return &Service{
		employees: employees,
		ledger:    ledger,
		store:     store,
		detector:  det,
		archive:   arch,
		opts:      opts,
	}
}

// Enroll registers a new employee from a face image.
//
// Identity creation runs before the encoding write, so a duplicate
// enrollment attempt can never overwrite an existing employee's encoding.
func (s *Service) Enroll(ctx context.Context, employeeID, name string, image []byte) error {
	if !validEmployeeID(employeeID) {
		return fmt.Errorf("%w: %q", ErrInvalidEmployeeID, employeeID)
	}
	if strings.TrimSpace(name) == "" {
		return errors.New("employee name is required")
	}

	face, err := s.detector.DetectAndEncode(ctx, image)
	if err != nil {
		return err
	}

	if err := s.employees.Create(ctx, database.Employee{ID: employeeID, Name: name}); err != nil {
		return err
	}

	if err := s.store.Put(employeeID, face.Encoding); err != nil {
		// Roll the identity back so a retry is not rejected as a
		// duplicate while no encoding exists.
		if delErr := s.employees.Delete(ctx, employeeID); delErr != nil {
			log.Printf("Warning: failed to roll back employee %s after store failure: %v", employeeID, delErr)
		}
		return fmt.Errorf("storing face encoding: %w", err)
	}

	if s.archive != nil {
		// The archive copy is for audit only; enrollment stands even if
		// it cannot be written.
		if _, err := s.archive.SaveFace(employeeID, image, face.Box); err != nil {
			log.Printf("Warning: failed to archive face image for %s: %v", employeeID, err)
		}
	}
	return nil
}

// RecognizeAndLog matches a live image against the enrolled encodings and
// applies the attendance transition for the matched employee.
func (s *Service) RecognizeAndLog(ctx context.Context, image []byte, now time.Time) (*Result, error) {
	face, err := s.detector.DetectAndEncode(ctx, image)
	if err != nil {
		return nil, err
	}

	employeeID, confidence, ok := s.match(face.Encoding)
	if !ok {
		return nil, ErrNotRecognized
	}

	emp, err := s.employees.Get(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("loading matched employee: %w", err)
	}
	if emp == nil {
		// Stale encoding without an identity; treat as unrecognized.
		log.Printf("Warning: matched encoding for unknown employee %s", employeeID)
		return nil, ErrNotRecognized
	}

	if s.opts.BlockAfterCompleted {
		latest, err := s.ledger.LatestForDay(ctx, employeeID, now)
		if err != nil {
			return nil, fmt.Errorf("checking today's attendance: %w", err)
		}
		if latest != nil && !latest.Open() {
			return &Result{
				Kind:       ResultAlreadyCompleted,
				EmployeeID: emp.ID,
				Name:       emp.Name,
				Confidence: confidence,
				Time:       now,
			}, nil
		}
	}

	transition, err := s.ledger.LogAttendance(ctx, employeeID, now)
	if err != nil {
		return nil, fmt.Errorf("logging attendance: %w", err)
	}

	kind := ResultCheckIn
	if transition.Kind == database.TransitionCheckOut {
		kind = ResultCheckOut
	}
	return &Result{
		Kind:       kind,
		EmployeeID: emp.ID,
		Name:       emp.Name,
		Confidence: confidence,
		Time:       transition.Time,
	}, nil
}

// match finds the nearest enrolled encoding under the threshold. The
// HNSW index only proposes a candidate; the distance check always runs
// against the authoritative store vector, and a proposal that fails it
// falls back to the linear scan.
func (s *Service) match(encoding []float32) (string, float64, bool) {
	candidates := s.store.GetAll()
	if len(candidates) == 0 {
		return "", 0, false
	}

	if ix := s.store.Index(); ix != nil && len(candidates) >= s.opts.IndexCutover {
		if id, _, ok := ix.Search(encoding); ok {
			if vec, enrolled := candidates[id]; enrolled {
				if d := matcher.EuclideanDistance(encoding, vec); d < s.opts.Threshold {
					return id, 1 - d, true
				}
			}
			// The proposal failed verification. The graph can lag the
			// store, so the authoritative scan below decides.
		}
	}

	res, ok := matcher.Match(encoding, candidates, s.opts.Threshold)
	if !ok {
		return "", 0, false
	}
	return res.EmployeeID, res.Confidence, true
}

// DeleteEmployee removes the employee, their attendance records (via the
// ledger's cascade), their stored encoding, and their image archive.
// Idempotent if the employee is already absent.
func (s *Service) DeleteEmployee(ctx context.Context, employeeID string) error {
	if err := s.employees.Delete(ctx, employeeID); err != nil {
		return fmt.Errorf("deleting employee: %w", err)
	}
	if err := s.store.Remove(employeeID); err != nil {
		return fmt.Errorf("removing face encoding: %w", err)
	}
	if s.archive != nil {
		if err := s.archive.Remove(employeeID); err != nil {
			return fmt.Errorf("removing face archive: %w", err)
		}
	}
	return nil
}

// Employees lists enrolled employees, newest first, optionally filtered
// by a case- and diacritic-insensitive name substring.
func (s *Service) Employees(ctx context.Context, query string) ([]database.Employee, error) {
	employees, err := s.employees.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing employees: %w", err)
	}
	if query == "" {
		return employees, nil
	}

	needle := normalizeName(query)
	var filtered []database.Employee
	for _, emp := range employees {
		if strings.Contains(normalizeName(emp.Name), needle) {
			filtered = append(filtered, emp)
		}
	}
	return filtered, nil
}

// Records lists attendance entries, optionally restricted to one day.
func (s *Service) Records(ctx context.Context, day *time.Time) ([]database.AttendanceEntry, error) {
	entries, err := s.ledger.ListRecords(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("listing attendance records: %w", err)
	}
	return entries, nil
}

// validEmployeeID accepts ids that are safe as map keys, SQL values, and
// archive directory names.
func validEmployeeID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
		default:
			return false
		}
	}
	return id != "." && id != ".."
}
