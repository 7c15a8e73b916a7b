// Package mock provides in-memory implementations of the database
// interfaces for testing.
package mock

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// EmployeeStore is an in-memory implementation of database.EmployeeStore.
type EmployeeStore struct {
	mu        sync.RWMutex
	employees map[string]database.Employee

	// Ledger, when set, receives the record cascade on Delete, like the
	// SQL backends' ON DELETE CASCADE foreign key.
	Ledger *Ledger

	// Error injection
	CreateError error
	GetError    error
	ListError   error
	DeleteError error
}

// NewEmployeeStore creates a new mock employee store.
func NewEmployeeStore() *EmployeeStore {
	return &EmployeeStore{employees: make(map[string]database.Employee)}
}

func (m *EmployeeStore) Create(ctx context.Context, emp database.Employee) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.employees[emp.ID]; ok {
		return database.ErrDuplicateEmployee
	}
	if emp.CreatedAt.IsZero() {
		emp.CreatedAt = time.Now()
	}
	m.employees[emp.ID] = emp
	return nil
}

func (m *EmployeeStore) Get(ctx context.Context, id string) (*database.Employee, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	emp, ok := m.employees[id]
	if !ok {
		return nil, nil
	}
	return &emp, nil
}

func (m *EmployeeStore) List(ctx context.Context) ([]database.Employee, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	employees := make([]database.Employee, 0, len(m.employees))
	for _, emp := range m.employees {
		employees = append(employees, emp)
	}
	sort.Slice(employees, func(i, j int) bool {
		if !employees[i].CreatedAt.Equal(employees[j].CreatedAt) {
			return employees[i].CreatedAt.After(employees[j].CreatedAt)
		}
		return employees[i].ID < employees[j].ID
	})
	return employees, nil
}

func (m *EmployeeStore) Delete(ctx context.Context, id string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	m.mu.Lock()
	delete(m.employees, id)
	m.mu.Unlock()
	if m.Ledger != nil {
		m.Ledger.DeleteRecords(id)
	}
	return nil
}

// Count returns the number of stored employees.
func (m *EmployeeStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.employees)
}

// Ledger is an in-memory implementation of database.AttendanceLedger.
// It applies the same transition function as the real backends.
type Ledger struct {
	mu      sync.Mutex
	nextID  int64
	records []database.AttendanceRecord
	names   map[string]string

	// Error injection
	LogError    error
	LatestError error
	ListError   error
}

// NewLedger creates a new mock attendance ledger.
func NewLedger() *Ledger {
	return &Ledger{nextID: 1, names: make(map[string]string)}
}

// SetName registers an employee name for ListRecords joins.
func (m *Ledger) SetName(employeeID, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names[employeeID] = name
}

func (m *Ledger) LogAttendance(ctx context.Context, employeeID string, now time.Time) (*database.Transition, error) {
	if m.LogError != nil {
		return nil, m.LogError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	latest := m.latestLocked(employeeID, now)
	transition := &database.Transition{
		Kind: database.NextTransition(latest),
		Time: now,
	}

	switch transition.Kind {
	case database.TransitionCheckOut:
		out := now
		latest.CheckOut = &out
		transition.Record = *latest
	case database.TransitionCheckIn:
		rec := database.AttendanceRecord{
			ID:         m.nextID,
			EmployeeID: employeeID,
			CheckIn:    now,
		}
		m.nextID++
		m.records = append(m.records, rec)
		transition.Record = rec
	}
	return transition, nil
}

func (m *Ledger) LatestForDay(ctx context.Context, employeeID string, day time.Time) (*database.AttendanceRecord, error) {
	if m.LatestError != nil {
		return nil, m.LatestError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	latest := m.latestLocked(employeeID, day)
	if latest == nil {
		return nil, nil
	}
	rec := *latest
	return &rec, nil
}

// latestLocked returns a pointer into the records slice so LogAttendance
// can mutate the open record in place.
func (m *Ledger) latestLocked(employeeID string, day time.Time) *database.AttendanceRecord {
	start, end := database.DayBounds(day)
	var latest *database.AttendanceRecord
	for i := range m.records {
		rec := &m.records[i]
		if rec.EmployeeID != employeeID {
			continue
		}
		if rec.CheckIn.Before(start) || !rec.CheckIn.Before(end) {
			continue
		}
		if latest == nil || rec.CheckIn.After(latest.CheckIn) || (rec.CheckIn.Equal(latest.CheckIn) && rec.ID > latest.ID) {
			latest = rec
		}
	}
	return latest
}

func (m *Ledger) ListRecords(ctx context.Context, day *time.Time) ([]database.AttendanceEntry, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var entries []database.AttendanceEntry
	for _, rec := range m.records {
		if day != nil {
			start, end := database.DayBounds(*day)
			if rec.CheckIn.Before(start) || !rec.CheckIn.Before(end) {
				continue
			}
		}
		if _, ok := m.names[rec.EmployeeID]; !ok {
			continue
		}
		entries = append(entries, database.AttendanceEntry{
			Record: rec,
			Name:   m.names[rec.EmployeeID],
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Record.CheckIn.Equal(entries[j].Record.CheckIn) {
			return entries[i].Record.CheckIn.After(entries[j].Record.CheckIn)
		}
		return entries[i].Record.ID > entries[j].Record.ID
	})
	return entries, nil
}

// DeleteRecords removes all records for the employee, mirroring the
// cascade behavior of the SQL backends.
func (m *Ledger) DeleteRecords(employeeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.records[:0]
	for _, rec := range m.records {
		if rec.EmployeeID != employeeID {
			kept = append(kept, rec)
		}
	}
	m.records = kept
	delete(m.names, employeeID)
}

// RecordCount returns the number of stored attendance records.
func (m *Ledger) RecordCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
