// Package feedcache persists remote feed responses in SQLite so repeated runs
// can issue conditional requests instead of downloading the metadata feed and
// repository listings again.
//
// Bodies are stored zstd-compressed together with their ETag and timestamps.
// The database runs in WAL mode with a busy timeout, and writes retry briefly
// on SQLITE_BUSY. A sibling lock file serializes refreshes across processes so
// two concurrent audits never download the same feed twice.
package feedcache
