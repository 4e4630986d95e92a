package summariser

import "fmt"

// Prompt renders the instruction sent to chat-style backends, which take no
// explicit minimum length.
func Prompt(req Request) string {
	return fmt.Sprintf(`Summarise the following podcast transcript excerpt in plain prose.
Use between %d and %d words. Do not add information that is not in the excerpt.

EXCERPT:
%s

SUMMARY:`, req.MinLength, req.MaxLength, req.Text)
}
