package application

import (
	"context"
	"time"

	"github.com/ericfisherdev/codeguardian/internal/domain/port/driven"
)

// Health states reported by HealthService.
const (
	HealthOK       = "ok"
	HealthDegraded = "degraded"
	HealthDisabled = "disabled"
)

// ComponentHealth is the state of one dependency.
type ComponentHealth struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HealthReport is the combined state of the process and its dependencies.
type HealthReport struct {
	Status     string            `json:"status"`
	Time       time.Time         `json:"time"`
	Components []ComponentHealth `json:"components"`
}

// HealthService reports whether the session store is reachable and which
// optional integrations are configured.
type HealthService struct {
	store    driven.Pinger
	reviewer bool
	oauth    bool
	timeout  time.Duration
}

// NewHealthService creates a HealthService. store may be nil when sessions
// are kept in memory only.
func NewHealthService(store driven.Pinger, reviewerEnabled, oauthEnabled bool) *HealthService {
	return &HealthService{store: store, reviewer: reviewerEnabled, oauth: oauthEnabled, timeout: 2 * time.Second}
}

// Check builds a health report. The overall status is degraded only when a
// required component fails; disabled integrations do not count.
func (s *HealthService) Check(ctx context.Context) HealthReport {
	report := HealthReport{Status: HealthOK, Time: time.Now().UTC()}

	if s.store != nil {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		c := ComponentHealth{Name: "session_store", Status: HealthOK}
		if err := s.store.Ping(ctx); err != nil {
			c.Status, c.Error = HealthDegraded, err.Error()
			report.Status = HealthDegraded
		}
		report.Components = append(report.Components, c)
	}

	report.Components = append(report.Components,
		optional("code_review", s.reviewer),
		optional("github_oauth", s.oauth),
	)
	return report
}

func optional(name string, enabled bool) ComponentHealth {
	if enabled {
		return ComponentHealth{Name: name, Status: HealthOK}
	}
	return ComponentHealth{Name: name, Status: HealthDisabled}
}
