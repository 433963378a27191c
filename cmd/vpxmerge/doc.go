// Package main hosts the vpxmerge CLI entrypoint and command graph.
//
// The Cobra-based command tree wires configuration, logging and the remote
// collaborators (metadata feed, patch repository) into the internal
// packages, then renders their results as terminal tables or JSON. Keep the
// commands thin: behaviour belongs in internal/audit, internal/export and the
// packages they call.
package main
