// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: debug.go — Cold-path diagnostic logging (alloc-light)
//
// Purpose:
//   - Logs consumer lifecycle, affinity failures, harness phases and report
//     persistence errors without pulling a formatter into the hot path.
//
// Notes:
//   - Avoids fmt.Sprintf; one concatenation per line.
//   - The ring core never logs; only drivers and tooling call into here.
//
// ⚠️ Never invoke in hot loops; use only in failure diagnostics.
// ─────────────────────────────────────────────────────────────────────────────

package debug

import "onetomany/utils"

// DropError logs "<prefix>: <err>" to stderr, or just the prefix when err
// is nil (used as a cheap trace tag).
//
//go:nosplit
//go:inline
func DropError(prefix string, err error) {
	if err != nil {
		utils.PrintWarning(prefix + ": " + err.Error() + "\n")
		return
	}
	utils.PrintWarning(prefix + "\n")
}

// DropMessage logs "<prefix>: <message>" to stderr.
//
//go:nosplit
//go:inline
func DropMessage(prefix, message string) {
	utils.PrintWarning(prefix + ": " + message + "\n")
}
