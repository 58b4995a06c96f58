package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/codeguardian/internal/application"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthService_Check(t *testing.T) {
	tests := []struct {
		name       string
		store      pingFunc
		reviewer   bool
		oauth      bool
		wantStatus string
		wantParts  map[string]string
	}{
		{
			name:       "all healthy",
			store:      func(context.Context) error { return nil },
			reviewer:   true,
			oauth:      true,
			wantStatus: application.HealthOK,
			wantParts: map[string]string{
				"session_store": application.HealthOK,
				"code_review":   application.HealthOK,
				"github_oauth":  application.HealthOK,
			},
		},
		{
			name:       "store unreachable",
			store:      func(context.Context) error { return errors.New("disk I/O error") },
			reviewer:   true,
			wantStatus: application.HealthDegraded,
			wantParts: map[string]string{
				"session_store": application.HealthDegraded,
				"code_review":   application.HealthOK,
				"github_oauth":  application.HealthDisabled,
			},
		},
		{
			name:       "integrations disabled still ok",
			store:      func(context.Context) error { return nil },
			wantStatus: application.HealthOK,
			wantParts: map[string]string{
				"session_store": application.HealthOK,
				"code_review":   application.HealthDisabled,
				"github_oauth":  application.HealthDisabled,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := application.NewHealthService(tt.store, tt.reviewer, tt.oauth)

			report := svc.Check(context.Background())

			assert.Equal(t, tt.wantStatus, report.Status)
			assert.False(t, report.Time.IsZero())
			got := make(map[string]string)
			for _, c := range report.Components {
				got[c.Name] = c.Status
			}
			assert.Equal(t, tt.wantParts, got)
		})
	}
}

func TestHealthService_Check_NoStore(t *testing.T) {
	svc := application.NewHealthService(nil, false, false)

	report := svc.Check(context.Background())

	assert.Equal(t, application.HealthOK, report.Status)
	require.Len(t, report.Components, 2)
	assert.Equal(t, "code_review", report.Components[0].Name)
}

func TestHealthService_Check_ReportsError(t *testing.T) {
	svc := application.NewHealthService(pingFunc(func(context.Context) error {
		return errors.New("database is closed")
	}), false, false)

	report := svc.Check(context.Background())

	require.NotEmpty(t, report.Components)
	assert.Equal(t, "database is closed", report.Components[0].Error)
}
