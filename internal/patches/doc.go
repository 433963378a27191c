// Package patches looks up standalone-compatible table scripts in a GitHub
// repository laid out as one folder per table.
//
// Folder selection reuses the token-overlap stage of the identification
// resolver so "JP's Medieval Madness" finds "Medieval Madness (Williams 1997)".
// Directory listings are cached per process; downloads are written
// atomically.
package patches
