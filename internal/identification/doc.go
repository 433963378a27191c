// Package identification resolves a table's free-form name against reference
// indexes built from other naming schemes (local asset folders, the metadata
// feed, the patch repository).
//
// Resolution happens in two steps. Candidates over-generates rewrites of the
// display name (annotation stripped, author prefix moved, edition suffix
// dropped, plural and article toggles) because no single canonical form
// survives the naming drift between community sources. A Resolver then scores
// the candidates against an immutable Index: exact key hits first, then token
// overlap, then substring containment for single-word keys.
//
// Nothing in this package performs IO or holds mutable state, so one Index can
// be shared by any number of goroutines.
package identification
