// Package progress holds the taskpulse data model and the capability
// interfaces the pipeline is written against.
//
// The three ports model the external services a run depends on:
//
//	CommitSource       lists commits unique to a branch and returns diffs
//	CompletionService  answers a system+user prompt with free text
//	TabularStore       reads and writes A1-addressed cell ranges
//
// Adapters live in internal/github, internal/gitlocal, internal/llm and
// internal/sheets. In-memory fakes live in progresstest.
package progress
