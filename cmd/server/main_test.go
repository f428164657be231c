package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T, dir string) {
	t.Helper()
	t.Setenv("CSRF_SECRET", "secret")
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("DATABASE_PATH", filepath.Join(dir, "test.db"))
	t.Setenv("CATALOG_PATH", filepath.Join(dir, "catalog.yaml"))
	t.Setenv("STAGE_POLICY", "")
}

func TestRunReturnsStartupErrors(t *testing.T) {
	tests := []struct {
		name string
		prep func(t *testing.T, dir string)
		want string
	}{
		{
			name: "missing csrf secret",
			prep: func(t *testing.T, _ string) { t.Setenv("CSRF_SECRET", "") },
			want: "CSRF_SECRET",
		},
		{
			name: "unknown stage policy",
			prep: func(t *testing.T, _ string) { t.Setenv("STAGE_POLICY", "sideways") },
			want: "config",
		},
		{
			name: "broken catalog",
			prep: func(t *testing.T, dir string) {
				require.NoError(t, os.WriteFile(filepath.Join(dir, "catalog.yaml"), []byte("stages: ["), 0o644))
			},
			want: "catalog",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			setEnv(t, dir)
			tt.prep(t, dir)

			err := run(zerolog.Nop())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
