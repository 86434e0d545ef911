package llm

import (
	"fmt"
	"strings"
)

// librarianSystemPrompt frames the model as a cataloging expert. The two
// hard constraints matter: pseudonyms stay pseudonyms and provided author
// names are never rewritten.
const librarianSystemPrompt = `You are an expert librarian with vast knowledge of books, series, and authors across all genres. You have decades of experience organizing library collections and maintaining book metadata.

Your task is to analyze book information and use your EXTENSIVE KNOWLEDGE to:
1. Identify the complete series information
2. Determine correct book order
3. Clean up and standardize titles
4. Fill in missing author information

IMPORTANT:
- Do not just repeat the provided data
- Never replace pseudonyms with real names
- Keep author names exactly as provided
- Use your knowledge of:
  - Book series across all genres
  - Common author naming patterns
  - Standard series structures
  - Publishing conventions
  - Literary works and their organization

Return ONLY a JSON object with your expert analysis.`

// PromptInput carries the evidence shown to the model: the folder context
// of the entry and the metadata recovered so far. Empty metadata values are
// rendered too, so the model sees what is missing.
type PromptInput struct {
	Path        string
	Files       []string
	Title       string
	Author      string
	Series      string
	SeriesIndex string
}

func buildUserPrompt(input PromptInput) string {
	var b strings.Builder
	b.WriteString("As an expert librarian, analyze this book's information and apply your extensive knowledge.\n\n")
	if len(input.Files) > 0 {
		b.WriteString("DIRECTORY CONTENTS:\n")
		if input.Path != "" {
			fmt.Fprintf(&b, "Path: %s\n", input.Path)
		}
		b.WriteString("Files:\n")
		for _, file := range input.Files {
			fmt.Fprintf(&b, "- %s\n", file)
		}
		b.WriteString("\n")
	}
	b.WriteString("CURRENT METADATA:\n")
	fmt.Fprintf(&b, "title: %s\n", input.Title)
	fmt.Fprintf(&b, "author: %s\n", input.Author)
	fmt.Fprintf(&b, "series: %s\n", input.Series)
	fmt.Fprintf(&b, "series_index: %s\n", input.SeriesIndex)
	b.WriteString("\n")
	b.WriteString("Based on the directory contents and current metadata, please provide complete book information.")
	return b.String()
}
