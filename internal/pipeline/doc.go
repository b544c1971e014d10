// Package pipeline runs a progress review: read tasks, match commits from
// every configured repository, summarize each matched commit, predict
// progress per task, and write all results in one final batch.
//
// Execution is sequential. Failures stay local to the stage that hit them:
//
//   - a repository that cannot be listed contributes zero commits
//   - a diff or summary failure becomes inline text in the task summary
//   - a prediction failure becomes the task's verdict text
//   - a write failure is logged and reported
//
// Only a task-source failure ends the run early, and then nothing is written.
package pipeline
