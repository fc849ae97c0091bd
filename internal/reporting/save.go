package reporting

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	bundleFile   = "bundle.json"
	markdownFile = "report.md"
)

// SaveBundle writes every export of b under dir/<run id>/ and returns the
// directory it created.
func SaveBundle(dir string, b *Bundle) (string, error) {
	runDir := filepath.Join(dir, b.RunID.String())
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	if err := writeFile(filepath.Join(runDir, bundleFile), func(w io.Writer) error {
		return WriteJSON(w, b)
	}); err != nil {
		return "", err
	}
	if err := writeFile(filepath.Join(runDir, markdownFile), func(w io.Writer) error {
		return WriteMarkdown(w, b)
	}); err != nil {
		return "", err
	}

	for _, r := range b.Results {
		name := safeName(r.Ticker)
		if err := writeFile(filepath.Join(runDir, name+"_equity.csv"), func(w io.Writer) error {
			return WriteEquityCSV(w, r.Curve)
		}); err != nil {
			return "", err
		}
		if err := writeFile(filepath.Join(runDir, name+"_ledger.csv"), func(w io.Writer) error {
			return WriteLedgerCSV(w, r.Ledger)
		}); err != nil {
			return "", err
		}
	}
	return runDir, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// safeName keeps tickers such as BRK/B or ^GSPC usable as file names.
func safeName(ticker string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', '^':
			return '_'
		}
		return r
	}, ticker)
}
