package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

func TestStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		svc        *Service
		wantOK     bool
		wantChecks map[string]string
	}{
		{
			name:       "memory store without generator",
			svc:        NewService(nil, false),
			wantOK:     true,
			wantChecks: map[string]string{"database": "memory", "suggestions": "fallback"},
		},
		{
			name:       "database up",
			svc:        NewService(stubPinger{}, true),
			wantOK:     true,
			wantChecks: map[string]string{"database": "ok", "suggestions": "llm"},
		},
		{
			name:       "database down",
			svc:        NewService(stubPinger{err: errors.New("connection refused")}, true),
			wantOK:     false,
			wantChecks: map[string]string{"database": "error: connection refused", "suggestions": "llm"},
		},
		{
			name:       "nil service",
			svc:        nil,
			wantOK:     true,
			wantChecks: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			report := tt.svc.Status(context.Background())
			assert.Equal(t, tt.wantOK, report.OK)
			assert.Equal(t, tt.wantChecks, report.Checks)
		})
	}
}
