package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
backtest:
  symbols: ["600000", "sz000001"]
  start: "2023-01-01"
  end: "2023-12-31"
  engine:
    initial_capital: 500000
    costs:
      commission_rate: 0.0005
strategy:
  name: ma-cross
  params:
    short_window: 10
    long_window: 30
journal:
  type: sqlite
  db_path: runs.db
log_level: debug
`

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFromFile(writeConfig(t, "cfg.yaml", sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"600000", "sz000001"}, cfg.Backtest.Symbols)
	assert.Equal(t, 500000.0, cfg.Backtest.Engine.InitialCapital)
	assert.Equal(t, 0.0005, cfg.Backtest.Engine.Costs.CommissionRate)
	assert.Equal(t, "ma-cross", cfg.Strategy.Name)
	assert.Equal(t, 10.0, cfg.Strategy.Params["short_window"])
	assert.Equal(t, "sqlite", cfg.Journal.Type)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadJSONFallback(t *testing.T) {
	t.Parallel()

	body := `{
	  "backtest": {"symbols": ["600000"], "engine": {"initial_capital": 1000000, "sizing": {"mode": "signal", "shares": 100}, "fill_at": "close", "funds": "clip", "freq": "daily"}},
	  "strategy": {"name": "noop"}
	}`
	cfg, err := LoadFromFile(writeConfig(t, "cfg.json", body))
	require.NoError(t, err)
	assert.Equal(t, "noop", cfg.Strategy.Name)
}

func TestLoadRejectsBadSymbol(t *testing.T) {
	t.Parallel()

	body := `
backtest:
  symbols: ["not-a-symbol"]
strategy:
  name: noop
`
	_, err := LoadFromFile(writeConfig(t, "cfg.yaml", body))
	assert.Error(t, err)
}

func TestLoadRejectsUnknownStrategy(t *testing.T) {
	t.Parallel()

	body := `
backtest:
  symbols: ["600000"]
strategy:
  name: does-not-exist
`
	_, err := LoadFromFile(writeConfig(t, "cfg.yaml", body))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown strategy")
}

func TestValidateWindow(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Backtest.Symbols = []string{"600000"}
	cfg.Backtest.Start = "2023-12-31"
	cfg.Backtest.End = "2023-01-01"
	assert.Error(t, cfg.Validate())

	cfg.Backtest.Start = "2023-01-01"
	cfg.Backtest.End = "2023-12-31"
	assert.NoError(t, cfg.Validate())

	start, end, err := cfg.Backtest.Window()
	require.NoError(t, err)
	assert.Equal(t, 2023, start.Year())
	assert.Equal(t, 12, int(end.Month()))
}

func TestSaveRoundTrip(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Backtest.Symbols = []string{"600000"}

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Backtest.Symbols, loaded.Backtest.Symbols)
	assert.Equal(t, cfg.Strategy.Name, loaded.Strategy.Name)
}

func TestJournalValidation(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Backtest.Symbols = []string{"600000"}

	cfg.Journal = JournalConfig{Type: "sqlite"}
	assert.Error(t, cfg.Validate())

	cfg.Journal = JournalConfig{Type: "csv", RunsFile: "r.csv"}
	assert.Error(t, cfg.Validate())

	cfg.Journal = JournalConfig{Type: "csv", RunsFile: "r.csv", TradesFile: "t.csv", EquityFile: "e.csv"}
	assert.NoError(t, cfg.Validate())
}
