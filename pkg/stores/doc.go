// Package stores persists workflow run history in SQLite. Every workflow
// execution attempt becomes one run row keyed by its trace id, with an
// append-only step event log underneath it. The history is queryable after
// the environment record itself has moved on or been deleted, which is what
// makes failed attempts diagnosable later.
package stores
