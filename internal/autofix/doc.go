// Package autofix rewrites Windows-only constructs in a table script so it
// runs under the standalone player.
//
// Every rule is additive: a triggering line is comment-prefixed and, where a
// value is still needed, followed by a synthesized replacement. No line is
// ever deleted, so the output maps line-for-line back to the input. Line
// endings are preserved and lines that are already comments are left alone.
package autofix
