// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: report.go — Harness result files
//
// Purpose:
//   - Writes one JSON document per run: benchmark-result.<scenario>.json
//   - Reads it back for comparison tooling and tests.
//
// Notes:
//   - Encoding goes through sonnet, a drop-in encoding/json replacement.
//   - Files are written to a temp name and renamed so readers never see a
//     partial document.
// ─────────────────────────────────────────────────────────────────────────────

package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sugawarayuuta/sonnet"

	"onetomany/constants"
	"onetomany/harness"
)

// FileName returns the result file name for scenario.
func FileName(scenario string) string {
	return fmt.Sprintf(constants.DefaultReportPattern, scenario)
}

// Save writes rep as indented JSON into dir and returns the file path.
func Save(dir string, rep harness.Report) (string, error) {
	data, err := sonnet.MarshalIndent(rep, "", "  ")
	if err != nil {
		return "", fmt.Errorf("report: encode: %w", err)
	}
	data = append(data, '\n')

	path := filepath.Join(dir, FileName(rep.Scenario))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("report: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("report: rename %s: %w", path, err)
	}
	return path, nil
}

// Load decodes a result file written by Save.
func Load(path string) (harness.Report, error) {
	var rep harness.Report
	data, err := os.ReadFile(path)
	if err != nil {
		return rep, fmt.Errorf("report: read %s: %w", path, err)
	}
	if err := sonnet.Unmarshal(data, &rep); err != nil {
		return rep, fmt.Errorf("report: decode %s: %w", path, err)
	}
	return rep, nil
}
