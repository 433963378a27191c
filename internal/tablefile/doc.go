// Package tablefile recovers the embedded automation script from a pinball
// table container.
//
// Containers are either compound documents (the .vpx format, a set of named
// streams) or plain script files (.vbs). For compound documents every stream
// that is not a known structural stream is searched for a script marker; a
// hit is only accepted when the bytes following it look like text, which
// filters out image and sound streams that happen to contain the marker
// bytes. The accepted span is widened backwards to the start of the text run
// and trimmed of trailing terminator and padding bytes.
//
// Extraction is a pure transform over an in-memory buffer. ReadFile is the
// only function that touches the filesystem.
package tablefile
