package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/metaschema/pkg/types"
)

type env struct {
	configDir string
	dataDir   string
}

func newEnv(t *testing.T) env {
	t.Helper()
	for _, key := range []string{"METASCHEMA_BACKEND", "METASCHEMA_CACHE_DRIVER", "METASCHEMA_DATA_DIR", "METASCHEMA_LOG_LEVEL"} {
		t.Setenv(key, "")
	}
	root := t.TempDir()
	return env{configDir: filepath.Join(root, "config"), dataDir: filepath.Join(root, "data")}
}

func (e env) run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir}, args...)
	code := Run(full, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestVersion(t *testing.T) {
	e := newEnv(t)
	code, out, _ := e.run(t, "version")
	assert.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "metaschema v")
	assert.Contains(t, out, modulePath)
}

func TestInit(t *testing.T) {
	e := newEnv(t)

	code, out, errOut := e.run(t, "init")
	require.Equal(t, exitSuccess, code, errOut)
	assert.Contains(t, out, "metaschema initialized")
	assert.FileExists(t, filepath.Join(e.configDir, "config.yaml"))
	assert.FileExists(t, filepath.Join(e.dataDir, "fields.jsonl"))
	assert.FileExists(t, filepath.Join(e.dataDir, "metaschema.db"))

	data, err := os.ReadFile(filepath.Join(e.configDir, "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "backend: sqlite")
	assert.Contains(t, string(data), "data_dir: "+e.dataDir)

	code, _, errOut = e.run(t, "init")
	assert.Equal(t, exitSuccess, code, "init is repeatable: %s", errOut)
}

func TestResolve(t *testing.T) {
	e := newEnv(t)

	code, out, errOut := e.run(t, "resolve", "--tenant", "7", "--asset-type", "video")
	require.Equal(t, exitSuccess, code, errOut)

	var schema types.ResolvedSchema
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	var keys []string
	for _, f := range schema.Fields {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"usage_rights", "expiration_date", "quality_rating", "caption"}, keys)

	code, uncached, errOut := e.run(t, "resolve", "--tenant", "7", "--asset-type", "video", "--no-cache")
	require.Equal(t, exitSuccess, code, errOut)
	assert.JSONEq(t, out, uncached)
}

func TestUploadAndCanEdit(t *testing.T) {
	e := newEnv(t)

	code, out, errOut := e.run(t, "upload", "--tenant", "7", "--brand", "2", "--category", "5", "--role", "admin")
	require.Equal(t, exitSuccess, code, errOut)
	var form types.UploadSchema
	require.NoError(t, json.Unmarshal([]byte(out), &form))
	var groups []string
	for _, g := range form.Groups {
		groups = append(groups, g.Key)
		for _, f := range g.Fields {
			require.NotNil(t, f.CanEdit, f.Key)
			assert.True(t, *f.CanEdit, f.Key)
		}
	}
	assert.Equal(t, []string{"creative", "general", "rights"}, groups)

	code, out, errOut = e.run(t, "can-edit", "--tenant", "7", "--role", "owner", "--field", "1,4", "--field", "99")
	require.Equal(t, exitSuccess, code, errOut)
	assert.JSONEq(t, `{"1":true,"4":false,"99":false}`, out)
}

func TestInvalidate(t *testing.T) {
	e := newEnv(t)

	code, out, errOut := e.run(t, "invalidate", "--tenant", "7", "--brand", "2")
	require.Equal(t, exitSuccess, code, errOut)
	assert.Contains(t, out, "7:2:-:image")

	code, out, _ = e.run(t, "invalidate", "--all")
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "all cached schemas")
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, e env)
		args  []string
		want  int
	}{
		{name: "missing tenant", args: []string{"resolve"}, want: exitUserError},
		{name: "category without brand", args: []string{"resolve", "--tenant", "7", "--category", "5"}, want: exitUserError},
		{name: "unknown asset type", args: []string{"resolve", "--tenant", "7", "--asset-type", "audio"}, want: exitUserError},
		{name: "upload without category", args: []string{"upload", "--tenant", "7"}, want: exitUserError},
		{name: "can-edit without fields", args: []string{"can-edit", "--tenant", "7", "--role", "editor"}, want: exitUserError},
		{name: "unknown command", args: []string{"frobnicate"}, want: exitUserError},
		{name: "bad flag value", args: []string{"resolve", "--tenant", "seven"}, want: exitUserError},
		{name: "bad log level", args: []string{"--log-level", "loud", "resolve", "--tenant", "7"}, want: exitUserError},
		{
			name:  "redis cache from env without address",
			setup: func(t *testing.T, e env) { t.Setenv("METASCHEMA_CACHE_DRIVER", "redis") },
			args:  []string{"resolve", "--tenant", "7"},
			want:  exitUserError,
		},
		{
			name: "unreachable postgres",
			setup: func(t *testing.T, e env) {
				require.NoError(t, os.MkdirAll(e.configDir, 0o755))
				require.NoError(t, os.WriteFile(filepath.Join(e.configDir, "config.yaml"),
					[]byte("backend: postgres\ndsn: postgres://dam@127.0.0.1:1/dam?sslmode=disable&connect_timeout=1\n"), 0o644))
			},
			args: []string{"resolve", "--tenant", "7"},
			want: exitSysError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			if tt.setup != nil {
				tt.setup(t, e)
			}
			code, _, errOut := e.run(t, tt.args...)
			assert.Equal(t, tt.want, code, errOut)
			assert.Contains(t, errOut, "Error:")
		})
	}
}
