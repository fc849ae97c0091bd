package cli

import (
	"bytes"
	"context"
	"decisionbacktester/internal/store"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type fixture struct {
	dataDir string
	outDir  string
	dbPath  string
	config  string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	for _, key := range []string{"BACKTEST_DATABASE_URL", "BACKTEST_DATA_DIR", "BACKTEST_RESULTS_DB", "BACKTEST_WORKERS", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(key, "")
	}
	root := t.TempDir()
	f := fixture{
		dataDir: filepath.Join(root, "data"),
		outDir:  filepath.Join(root, "out"),
		dbPath:  filepath.Join(root, "db", "runs.db"),
		config:  filepath.Join(root, "backtest.yaml"),
	}
	writeTicker(t, f.dataDir, "AAPL", 100, 1)
	writeTicker(t, f.dataDir, "MSFT", 300, -2)

	cfg := fmt.Sprintf("source:\n  kind: csv\n  dir: %s\nresults_db: %s\noutput_dir: %s\nshow_progress: false\nlog:\n  level: ERROR\n",
		f.dataDir, f.dbPath, f.outDir)
	if err := os.WriteFile(f.config, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	return f
}

func writeTicker(t *testing.T, dir, ticker string, start, step float64) {
	t.Helper()
	tickerDir := filepath.Join(dir, ticker)
	if err := os.MkdirAll(tickerDir, 0o755); err != nil {
		t.Fatal(err)
	}
	day0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var prices strings.Builder
	prices.WriteString("date,close\n")
	for i := 0; i < 30; i++ {
		price := start + step*float64(i) + float64(i%3)
		fmt.Fprintf(&prices, "%s,%.2f\n", day0.AddDate(0, 0, i).Format("2006-01-02"), price)
	}
	decisions := fmt.Sprintf("date,action\n%s,BUY\n%s,HOLD\n%s,SELL\n%s,BUY\n%s,SELL\n",
		day0.AddDate(0, 0, 1).Format("2006-01-02"),
		day0.AddDate(0, 0, 5).Format("2006-01-02"),
		day0.AddDate(0, 0, 10).Format("2006-01-02"),
		day0.AddDate(0, 0, 15).Format("2006-01-02"),
		day0.AddDate(0, 0, 25).Format("2006-01-02"),
	)

	if err := os.WriteFile(filepath.Join(tickerDir, "prices.csv"), []byte(prices.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tickerDir, "decisions.csv"), []byte(decisions), 0o644); err != nil {
		t.Fatal(err)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRunCommand(t *testing.T) {
	f := newFixture(t)

	out, err := execute(t, "run", "--config", f.config)
	if err != nil {
		t.Fatalf("run error = %v\n%s", err, out)
	}
	for _, want := range []string{"AAPL", "MSFT", "Reports saved to", "recorded in"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	s, err := store.Open(f.dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	runs, err := s.ListRuns(context.Background(), 0)
	if err != nil || len(runs) != 1 || runs[0].Tickers != 2 {
		t.Fatalf("ListRuns() = %+v, %v", runs, err)
	}

	runDir := filepath.Join(f.outDir, runs[0].ID.String())
	for _, name := range []string{"bundle.json", "report.md", "AAPL_equity.csv", "MSFT_ledger.csv"} {
		if _, err := os.Stat(filepath.Join(runDir, name)); err != nil {
			t.Errorf("missing export %s: %v", name, err)
		}
	}

	out, err = execute(t, "runs", "--config", f.config)
	if err != nil || !strings.Contains(out, runs[0].ID.String()) {
		t.Fatalf("runs = %q, %v", out, err)
	}

	out, err = execute(t, "report", runs[0].ID.String(), "--config", f.config)
	if err != nil || !strings.Contains(out, "MSFT") {
		t.Fatalf("report = %q, %v", out, err)
	}

	out, err = execute(t, "report", runs[0].ID.String(), "--ticker", "aapl", "--config", f.config)
	if err != nil {
		t.Fatalf("report --ticker error = %v", err)
	}
	if !strings.HasPrefix(out, "date,price,shares,cash,position_value,total_equity\n") {
		t.Fatalf("report --ticker = %q", out)
	}
}

func TestRunCommand_SelectedTickersNoStore(t *testing.T) {
	f := newFixture(t)

	out, err := execute(t, "run", "msft", "NOPE", "--no-store", "--config", f.config)
	if err != nil {
		t.Fatalf("run error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "NOPE") || strings.Contains(out, "recorded in") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if _, err := os.Stat(f.dbPath); !os.IsNotExist(err) {
		t.Errorf("results db written with --no-store: %v", err)
	}
}

func TestRunCommand_Errors(t *testing.T) {
	f := newFixture(t)

	if _, err := execute(t, "run", "--data-dir", t.TempDir(), "--config", f.config); err == nil {
		t.Error("empty data dir should fail")
	}
	if _, err := execute(t, "run", "NOPE", "--no-store", "--config", f.config); err == nil {
		t.Error("a run with no completed ticker should fail")
	}
	if _, err := execute(t, "run", "--source", "s3", "--config", f.config); err == nil {
		t.Error("unknown source should fail")
	}
	if _, err := execute(t, "report", "not-a-uuid", "--config", f.config); err == nil {
		t.Error("invalid run id should fail")
	}
	if _, err := execute(t, "report", "6ba7b810-9dad-11d1-80b4-00c04fd430c8", "--config", f.config); err == nil {
		t.Error("unknown run should fail")
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil || !strings.Contains(out, "backtester "+Version) {
		t.Fatalf("version = %q, %v", out, err)
	}
}
