// Package store provides append-only JSONL log stores for the three
// record categories: token usage, latency traces, and errors. Each append
// is one atomic write of a complete line, so independent producers can
// append concurrently without corrupting each other's records. Files are
// owner read/write only and directories owner-access only; that is a hard
// invariant because logged content may include sensitive operational
// context.
package store
