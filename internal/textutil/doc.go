// Package textutil provides the name canonicalization used to match table titles
// across naming schemes, plus filename sanitization.
//
// The primary use cases are:
//   - Normalizing display names into a lower-case, punctuation-free canonical form
//   - Producing word-sorted forms that ignore word order and stop-words
//   - Folding index keys (case and whitespace only)
//   - Scoring token overlap between two keys
//   - Sanitizing filenames and path segments for safe filesystem use
//
// Every function is pure and safe for concurrent use.
package textutil
