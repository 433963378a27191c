// Package audit inspects table files and reports what each table needs.
//
// Table runs the phases for a single file: script extraction, script facts,
// name identity, metadata feed resolution, local asset lookups, patch lookup
// and an autofix preview. Collaborator failures are recorded on the Report
// and never stop later phases. Batch fans Table out over a bounded worker
// pool, keeps input order and aggregates a Summary.
package audit
