package service

import (
	"fmt"
	"strings"

	"github.com/daivikpurani/AI-Tutor/database"
)

// tutorSystemPrompt is the fixed persona and grounding instruction sent as the
// system message on every query.
const tutorSystemPrompt = `You are an intelligent AI tutor helping a student learn from their uploaded course materials. Your role is to:

1. Provide clear, accurate explanations of educational concepts
2. Base your answers on the provided course material excerpts when available
3. Break down complex concepts into simpler parts, with examples and analogies
4. Be patient, supportive, and encouraging, and invite further questions

Guidelines:
- Always ground your responses in the provided excerpts when they are relevant
- If the excerpts are insufficient, clearly say so and give general guidance
- Never invent claims about the course content that the excerpts do not support
- Maintain academic accuracy while staying accessible`

// noContextInstruction replaces the excerpt block when retrieval found nothing,
// so the model knows the answer is ungrounded.
const noContextInstruction = `No relevant excerpts were found in the uploaded course materials for this question. Answer from general knowledge, tell the student that their materials do not cover this topic, and do not fabricate claims about the course content.`

// buildTutorPrompt assembles the user-turn prompt: retrieved excerpts tagged
// with their source filename (or the ungrounded instruction), then the question.
func buildTutorPrompt(question string, contexts []database.ScoredChunk) string {
	var b strings.Builder
	if len(contexts) == 0 {
		b.WriteString(noContextInstruction)
		b.WriteString("\n\n")
	} else {
		b.WriteString("Relevant course material:\n\n")
		for i, sc := range contexts {
			fmt.Fprintf(&b, "Excerpt %d (from %s):\n%s\n\n", i+1, sc.Chunk.Metadata.DocumentFilename, sc.Chunk.Text)
		}
	}
	b.WriteString("Student's question: ")
	b.WriteString(question)
	b.WriteString("\n\nPlease provide a helpful, educational response that addresses the student's question.")
	return b.String()
}

var fallbackOpenings = []string{
	"Great question about '%s'!",
	"Excellent question! '%s' is an important topic.",
	"I'd be happy to help with '%s'.",
	"Interesting question about '%s'!",
}

var fallbackClosings = []string{
	"\n\nThis concept is important because it forms the foundation for more advanced topics.",
	"\n\nUnderstanding this will help you with related concepts in your studies.",
	"\n\nThis topic often appears in exams and practical applications.",
	"\n\nMastering this concept will make future learning much easier.",
}

// fallbackAnswer is the deterministic templated response used when the
// generation model is unavailable. Variant selection depends only on the
// question, so retries produce identical text.
func fallbackAnswer(question string, contextCount int) string {
	var contextInfo string
	if contextCount > 0 {
		contextInfo = fmt.Sprintf("I found %d relevant sections in your course materials that address this topic.", contextCount)
	} else {
		contextInfo = "I don't have specific information about this topic in your uploaded materials."
	}
	opening := fmt.Sprintf(fallbackOpenings[len(question)%len(fallbackOpenings)], question)
	closing := fallbackClosings[len(question)%len(fallbackClosings)]
	return opening + " " + contextInfo + closing
}
