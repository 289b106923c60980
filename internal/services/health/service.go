package health

import (
	"context"
	"time"
)

const pingTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Report is the health payload. OK is false only when a required dependency is down.
type Report struct {
	OK     bool              `json:"ok"`
	Checks map[string]string `json:"checks"`
}

// Service encapsulates health-related checks.
type Service struct {
	db         Pinger
	generation bool
}

// NewService constructs a health service. A nil db means installations are kept in memory.
func NewService(db Pinger, generation bool) *Service {
	return &Service{db: db, generation: generation}
}

// Status pings the database and reports which rewrite path is active.
func (s *Service) Status(ctx context.Context) Report {
	report := Report{OK: true, Checks: map[string]string{}}
	if s == nil {
		return report
	}

	switch {
	case s.db == nil:
		report.Checks["database"] = "memory"
	default:
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := s.db.PingContext(pingCtx); err != nil {
			report.OK = false
			report.Checks["database"] = "error: " + err.Error()
		} else {
			report.Checks["database"] = "ok"
		}
	}

	if s.generation {
		report.Checks["suggestions"] = "llm"
	} else {
		report.Checks["suggestions"] = "fallback"
	}
	return report
}
