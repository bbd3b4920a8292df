package questions

import "fmt"

// BuildPrompt embeds the summary in the flashcard instruction.
func BuildPrompt(summary string, count int) string {
	return fmt.Sprintf(`Based on this summary

%s

Generate %d basic questions that can be answered from the summary, for a reviewer, in JSON format. Each question must be paired with a corresponding answer, and each answer should be only 1-2 words.

Respond with valid JSON in exactly this shape:
{"questions": [{"question": "...", "answer": "..."}]}`, summary, count)
}
