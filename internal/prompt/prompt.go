// Package prompt composes the text handed to the language model: a fixed
// system instruction, the retrieved context, an optional conversation
// history, and the question, in that order.
package prompt

import "strings"

const instruction = `You are an empathetic and emotionally intelligent AI assistant. Respond to the following question with both factual accuracy and emotional awareness.
Consider the user's potential emotional state and provide a warm, understanding response while maintaining professionalism.`

const guidelines = `Guidelines for your response:
1. Be empathetic and understanding
2. Acknowledge the user's perspective
3. Provide factual information in a warm, engaging way
4. Use appropriate emotional tone based on the question
5. If the question seems emotional or personal, respond with extra care and sensitivity`

// Assemble builds the full prompt. Context chunks are joined by newlines in
// the order the retriever returned them. History is a reserved slot for
// prior conversation turns; callers currently always pass it empty.
func Assemble(contexts []string, history []string, question string) string {
	var b strings.Builder
	b.WriteString(instruction)
	b.WriteString("\n\nContext from documents:\n")
	b.WriteString(strings.Join(contexts, "\n"))
	b.WriteString("\n\n")
	if len(history) > 0 {
		b.WriteString(strings.Join(history, "\n"))
		b.WriteString("\n\n")
	}
	b.WriteString("Current question: ")
	b.WriteString(question)
	b.WriteString("\n\n")
	b.WriteString(guidelines)
	b.WriteString("\n\nAnswer:")
	return b.String()
}
