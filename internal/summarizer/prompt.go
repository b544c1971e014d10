package summarizer

import "fmt"

const systemPrompt = "You are a senior software engineer reviewing Git commits."

const promptTemplate = `You are an expert code reviewer. Analyze the following Git commit diff and summarize what the developer has done.

Task: "%s"

Diff:
%s

Provide a concise summary in 1-3 sentences.`

func buildPrompt(taskName, diff string) string {
	return fmt.Sprintf(promptTemplate, taskName, diff)
}
