// Package repository provides the file-backed implementation of
// environment.Repository. Each environment is persisted as a single JSON
// document at {data_dir}/{name}/environment.json, written atomically via a
// temp file and rename. A lock file next to the document gives cross-process
// exclusion for the duration of a workflow.
package repository
