package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-doc-keeper/internal/config"
	"github.com/MKhiriev/go-doc-keeper/internal/logger"
	"github.com/MKhiriev/go-doc-keeper/internal/metrics"
	"github.com/MKhiriev/go-doc-keeper/internal/service"
)

func TestNewHandlers(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.ServerConfig
		wantErr error
	}{
		{name: "http address configured", cfg: config.ServerConfig{HTTPAddress: ":8080"}},
		{name: "no address", cfg: config.ServerConfig{}, wantErr: errNoHandlersAreCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewHandlers(&service.Services{}, metrics.New(), tt.cfg, logger.Nop())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, h)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, h.HTTP)
		})
	}
}
