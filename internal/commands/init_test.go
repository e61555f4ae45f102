package commands_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hisabpati/hisab/internal/config"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary once for all tests.
	tmpDir, err := os.MkdirTemp("", "hisab-test-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmpDir)

	binaryPath = filepath.Join(tmpDir, "hisab")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../../cmd/hisab")
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic("failed to build binary: " + err.Error())
	}

	os.Exit(m.Run())
}

func runHisab(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(), "HISAB_LOG_LEVEL=error")
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// initBooks creates a company in a temp dir and returns its config path.
func initBooks(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	out, err := runHisab(t, "init", dir, "--name", "Acme Traders", "--id", "acme", "--owner", "u1")
	require.NoError(t, err, out)
	return filepath.Join(dir, config.FileName)
}

func TestInit_Config(t *testing.T) {
	cfgPath := initBooks(t)

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "Acme Traders", cfg.Company.Name)
	assert.Equal(t, "acme", cfg.Company.ID)
	assert.Equal(t, "u1", cfg.Company.Owner)
	assert.Equal(t, "01-01", cfg.Fiscal.YearStart)
	assert.NoError(t, cfg.Validate())
}

func TestInit_CreatesStore(t *testing.T) {
	cfgPath := initBooks(t)
	dir := filepath.Dir(cfgPath)

	_, err := os.Stat(filepath.Join(dir, "hisab.db"))
	require.NoError(t, err, "database should exist")

	info, err := os.Stat(filepath.Join(dir, "logs"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestInit_SeedsChart(t *testing.T) {
	cfgPath := initBooks(t)

	out, err := runHisab(t, "account", "list", "--config", cfgPath)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Finished Goods")
	assert.Contains(t, out, "180001")
}

func TestInit_RefusesExisting(t *testing.T) {
	cfgPath := initBooks(t)

	out, err := runHisab(t, "init", filepath.Dir(cfgPath), "--name", "Other")
	require.Error(t, err)
	assert.Contains(t, out, "already exists")
}

func TestInit_BadFiscalStart(t *testing.T) {
	out, err := runHisab(t, "init", t.TempDir(), "--name", "Acme", "--fiscal-start", "13-40")
	require.Error(t, err)
	assert.Contains(t, out, "YearStart")
}

func TestInit_ActivityLog(t *testing.T) {
	cfgPath := initBooks(t)

	data, err := os.ReadFile(filepath.Join(filepath.Dir(cfgPath), "logs", "activity-log.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "timestamp,company,actor,action")
	assert.Contains(t, string(data), "acme,u1,init")
}
