package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{
				"-a", "127.0.0.1:9090", "-m", ":9100", "-d", "db", "-s", "secret",
				"-t", "5", "-b", "12", "-u", "root", "-p", "pw",
			},
			expected: &Config{
				EndpointAddrGRPC:            "127.0.0.1:9090",
				MetricsAddr:                 ":9100",
				DatabaseDSN:                 "db",
				SecretKey:                   "secret",
				AccessTokenValidityDuration: 5 * time.Minute,
				BcryptCost:                  12,
				AdminUserName:               "root",
				AdminPassword:               "pw",
			},
		},
		{
			name: "foreign flags are ignored",
			args: []string{"-c", "cfg.json", "-x", "1", "-d", "db"},
			expected: &Config{
				DatabaseDSN: "db",
			},
		},
		{
			name:        "bad int panics",
			args:        []string{"-t", "soon"},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config, tt.args) })
				return
			}

			require.NotPanics(t, func() { parseFlags(config, tt.args) })
			assert.Empty(t, cmp.Diff(config, tt.expected))
		})
	}
}
