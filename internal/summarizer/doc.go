// Package summarizer turns commit diffs into short natural-language
// descriptions through a completion service.
//
// Each matched commit is summarized independently. Failures never abort the
// task: an empty diff becomes the "empty diff" sentinel without a service
// call, and any other failure becomes an inline error string. Summaries are
// then folded into one text block per task, in matched-commit order:
//
//	Commit 1a2b3c4:
//	Added validation for empty passwords on the login form.
//
//	Commit 5d6e7f8:
//	empty diff
//
// Diffs pass through a secrets.Scrubber and are capped at MaxDiffBytes
// before leaving the process.
package summarizer
