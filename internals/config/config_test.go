package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PRMS_CREDENTIALS_DIR", t.TempDir())

	cfg, err := load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NilError(t, err)
	assert.Equal(t, cfg.APIURL, "http://localhost:5001/api")
	assert.Equal(t, cfg.Timeout, 10*time.Second)
	assert.Equal(t, cfg.DefaultDoctorID, 1)
	assert.Assert(t, cfg.VerifyCert)
	assert.Assert(t, cfg.IsDev())
}

func TestLoadFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PRMS_CREDENTIALS_DIR", dir)
	t.Setenv("PRMS_API_URL", "https://prms.example.org/api")
	t.Setenv("PRMS_TIMEOUT", "3s")
	t.Setenv("PRMS_DEFAULT_DOCTOR_ID", "7")
	t.Setenv("PRMS_ENV", "production")

	cfg, err := load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NilError(t, err)
	assert.Equal(t, cfg.APIURL, "https://prms.example.org/api")
	assert.Equal(t, cfg.Timeout, 3*time.Second)
	assert.Equal(t, cfg.DefaultDoctorID, 7)
	assert.Equal(t, cfg.CredentialsDir, dir)
	assert.Assert(t, !cfg.IsDev())
}

func TestLoadFromEnvFile(t *testing.T) {
	t.Setenv("PRMS_CREDENTIALS_DIR", t.TempDir())
	envFile := filepath.Join(t.TempDir(), "test.env")
	err := os.WriteFile(envFile, []byte("PRMS_API_URL=http://10.0.0.2:5001/api\nPRMS_LOG_LEVEL=debug\n"), 0o600)
	assert.NilError(t, err)

	cfg, err := load(envFile)
	assert.NilError(t, err)
	assert.Equal(t, cfg.APIURL, "http://10.0.0.2:5001/api")
	assert.Equal(t, cfg.LogLevel, "debug")
}

func TestLoadRejectsUnreadableEnvFile(t *testing.T) {
	t.Setenv("PRMS_CREDENTIALS_DIR", t.TempDir())

	// a directory exists but cannot be read as a file
	_, err := load(t.TempDir())
	assert.ErrorContains(t, err, "read ")
}

func TestValidate(t *testing.T) {
	cfg := &Config{APIURL: "http://x", Timeout: time.Second, DefaultDoctorID: 0}
	assert.ErrorContains(t, cfg.Validate(), "PRMS_DEFAULT_DOCTOR_ID")

	cfg = &Config{APIURL: "", Timeout: time.Second, DefaultDoctorID: 1}
	assert.ErrorContains(t, cfg.Validate(), "PRMS_API_URL")

	cfg = &Config{APIURL: "http://x", Timeout: 0, DefaultDoctorID: 1}
	assert.ErrorContains(t, cfg.Validate(), "PRMS_TIMEOUT")
}
