package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed matching.yaml
var matchingYAML []byte

type Config struct {
	Encoder    EncoderConfig
	Matcher    MatcherConfig
	Database   DatabaseConfig
	Store      StoreConfig
	Archive    ArchiveConfig
	Attendance AttendanceConfig
}

type EncoderConfig struct {
	URL string // face encoder service endpoint (e.g., http://localhost:8000)
	Dim int    // encoding dimensionality, defaults to 128
}

type MatcherConfig struct {
	// Threshold is the maximum euclidean distance for a match. A query
	// whose nearest enrolled encoding is at distance >= Threshold is
	// reported as not recognized.
	Threshold float64
	// IndexCutover is the enrollment count above which the HNSW index
	// is consulted instead of a linear scan.
	IndexCutover int
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL; when empty the SQLite path is used
	SQLitePath   string // path to the SQLite database file (default attendance.db)
	MaxOpenConns int    // maximum open connections (default 25)
	MaxIdleConns int    // maximum idle connections (default 5)
}

type StoreConfig struct {
	Path      string // path to the encodings file (default data/encodings.bin)
	IndexPath string // optional path to persist the HNSW index; empty means in-memory only
}

type ArchiveConfig struct {
	Dir string // directory for per-employee face image archives (default data/known_faces)
}

type AttendanceConfig struct {
	// BlockAfterCompleted makes recognition report "already completed"
	// once an employee has a closed record for the day, instead of
	// opening a new check-in/check-out cycle.
	BlockAfterCompleted bool
}

type matchingDefaults struct {
	Matching struct {
		Threshold    float64 `yaml:"threshold"`
		Dim          int     `yaml:"dim"`
		IndexCutover int     `yaml:"index_cutover"`
	} `yaml:"matching"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// envBool reads an environment variable as a boolean flag.
func envBool(key string, defaultVal bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return defaultVal
	}
	return b
}

// envStr reads an environment variable with a fallback default.
func envStr(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	var defaults matchingDefaults
	if err := yaml.Unmarshal(matchingYAML, &defaults); err != nil {
		// This is an embedded file so this error should never happen in practice.
		panic("failed to unmarshal embedded matching.yaml: " + err.Error())
	}

	return &Config{
		Encoder: EncoderConfig{
			URL: os.Getenv("ENCODER_URL"),
			Dim: envInt("ENCODER_DIM", defaults.Matching.Dim),
		},
		Matcher: MatcherConfig{
			Threshold:    envFloat("FACE_MATCH_THRESHOLD", defaults.Matching.Threshold),
			IndexCutover: envInt("FACE_INDEX_CUTOVER", defaults.Matching.IndexCutover),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			SQLitePath:   envStr("SQLITE_PATH", "attendance.db"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Store: StoreConfig{
			Path:      envStr("ENCODING_STORE_PATH", "data/encodings.bin"),
			IndexPath: os.Getenv("FACE_INDEX_PATH"),
		},
		Archive: ArchiveConfig{
			Dir: envStr("FACE_ARCHIVE_DIR", "data/known_faces"),
		},
		Attendance: AttendanceConfig{
			BlockAfterCompleted: envBool("ATTENDANCE_BLOCK_COMPLETED", false),
		},
	}
}
