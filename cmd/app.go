package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/archive"
	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/postgres"
	"github.com/kozaktomas/face-attendance/internal/database/sqlite"
	"github.com/kozaktomas/face-attendance/internal/detector"
	"github.com/kozaktomas/face-attendance/internal/facestore"
)

// app bundles the wired dependencies shared by all commands.
type app struct {
	cfg     *config.Config
	service *attendance.Service
	store   *facestore.Store
	closeDB func() error
}

// newApp loads configuration and wires the attendance service. The
// PostgreSQL backend is used when DATABASE_URL is set, SQLite otherwise.
func newApp(ctx context.Context) (*app, error) {
	cfg := config.Load()

	var (
		employees database.EmployeeStore
		ledger    database.AttendanceLedger
		closeDB   func() error
	)
	if cfg.Database.URL != "" {
		pool, err := postgres.NewPool(ctx, &cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connecting to PostgreSQL: %w", err)
		}
		employees, ledger, closeDB = pool, pool, pool.Close
	} else {
		db, err := sqlite.Open(ctx, cfg.Database.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("opening SQLite database: %w", err)
		}
		employees, ledger, closeDB = db, db, db.Close
	}

	store, err := facestore.Open(cfg.Store.Path)
	if err != nil {
		_ = closeDB()
		return nil, fmt.Errorf("opening encoding store: %w", err)
	}

	det, err := detector.NewClient(cfg.Encoder.URL, cfg.Encoder.Dim)
	if err != nil {
		_ = closeDB()
		return nil, err
	}

	var arch *archive.Archive
	if cfg.Archive.Dir != "" {
		arch, err = archive.New(cfg.Archive.Dir)
		if err != nil {
			_ = closeDB()
			return nil, fmt.Errorf("creating face archive: %w", err)
		}
	}

	service := attendance.NewService(employees, ledger, store, det, arch, attendance.Options{
		Threshold:           cfg.Matcher.Threshold,
		IndexCutover:        cfg.Matcher.IndexCutover,
		BlockAfterCompleted: cfg.Attendance.BlockAfterCompleted,
	})

	return &app{cfg: cfg, service: service, store: store, closeDB: closeDB}, nil
}

// enableIndex builds or loads the HNSW face index. A failure is not
// fatal; matching falls back to the linear scan.
func (a *app) enableIndex() {
	path := a.cfg.Store.IndexPath
	if path != "" {
		fmt.Printf("Loading face index from %s...\n", path)
	} else {
		fmt.Println("Building in-memory face index...")
	}
	if err := a.store.EnableIndex(path); err != nil {
		fmt.Printf("Warning: failed to build face index: %v\n", err)
		fmt.Println("Matching will use a linear scan (slower)")
		return
	}
	if path != "" {
		fmt.Printf("Face index ready with %d encodings (persisted to %s)\n", a.store.Index().Count(), path)
	} else {
		fmt.Printf("Face index built with %d encodings (in-memory only)\n", a.store.Index().Count())
	}
}

func (a *app) close() {
	if err := a.closeDB(); err != nil {
		fmt.Printf("Warning: closing database: %v\n", err)
	}
}
