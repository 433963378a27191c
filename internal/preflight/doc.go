// Package preflight provides readiness checks for the cabinet directories
// and remote services vpxmerge depends on.
//
// The CLI "check" command runs RunAll and renders the results; "scan" and
// "vbs" run the directory checks before touching any table. Remote checks
// are gated by their config toggles and disabled features are skipped.
package preflight
