// Package vpsdb provides the client for the Virtual Pinball Spreadsheet
// database, the community feed that assigns every physical machine a stable
// id and lists the table, backglass and ROM releases made for it.
//
// The feed is a single JSON document. The client revalidates it with ETag
// conditional requests and keeps the last body in a Store (normally the
// feedcache package) so offline runs keep working. Catalog wraps the decoded
// games with the lookup indexes the audit uses to resolve table names and ROM
// codes to feed ids.
package vpsdb
