package query

import (
	"fmt"
	"strings"

	"github.com/askdocs/askdocs/internal/domain"
)

// systemPrompt pins the model to the supplied context: no outside
// knowledge, explicit admission when the answer is absent.
const systemPrompt = `You are a helpful assistant that answers questions about uploaded documents. ` +
	`Answer using ONLY the content of the reference documents provided in the prompt. ` +
	`Never cite articles, sections, regulations, or facts that do not appear in those documents, ` +
	`and never fall back on outside or general knowledge. ` +
	`Pay attention to each document's title (the === name === header) and prefer content from the document ` +
	`the question is about. ` +
	`If the user asks to see a passage in full, reproduce it completely and verbatim. ` +
	`If the reference documents do not contain the answer, do not guess; reply that the provided ` +
	`documents do not cover it and suggest uploading a relevant document.`

// buildUserPrompt renders the grounding instructions, the assembled
// context blocks, the selected memory turns as Q/A pairs, and the
// verbatim question into a single prompt.
func buildUserPrompt(question, docContext string, turns []domain.Turn) string {
	var sb strings.Builder

	sb.WriteString("Answer the question using the reference documents below.\n")
	sb.WriteString("Guidelines:\n")
	sb.WriteString("1. Use only the content of the reference documents.\n")
	sb.WriteString("2. Resolve references like \"this\", \"that\", \"the above\" against the documents and the previous conversation.\n")
	sb.WriteString("3. Preserve the order of any step-by-step material.\n")
	sb.WriteString("4. If the documents do not contain the answer, say so explicitly instead of guessing.\n")
	sb.WriteString("5. For follow-up questions about something answered earlier, use the previous conversation context.\n")

	sb.WriteString("\nReference documents:")
	sb.WriteString(docContext)

	if len(turns) > 0 {
		sb.WriteString("\n\nPrevious conversation context:\n")
		for _, t := range turns {
			fmt.Fprintf(&sb, "Q: %s\nA: %s\n\n", t.Question, t.Answer)
		}
	}

	fmt.Fprintf(&sb, "\nQuestion: %s\n\nAnswer:", question)
	return sb.String()
}
