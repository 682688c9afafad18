package formctx

import "strings"

// extractFrontmatter splits a document of the form:
//
//	---
//	form_id: ...
//	---
//	# Markdown body
//
// returning the YAML between the fences. ok is false when the document has
// no leading "---" fence.
func extractFrontmatter(doc string) (yamlBody string, ok bool) {
	trimmed := strings.TrimLeft(doc, "\n")
	if !strings.HasPrefix(trimmed, "---") {
		return "", false
	}

	rest := trimmed[3:]
	rest = strings.TrimPrefix(rest, "\n")

	end := strings.Index(rest, "\n---")
	if end == -1 {
		return "", false
	}

	return rest[:end], true
}

// bodyAfterFrontmatter returns the markdown body following the closing
// "---" fence, or the whole document when there is no frontmatter.
func bodyAfterFrontmatter(doc string) string {
	trimmed := strings.TrimLeft(doc, "\n")
	if !strings.HasPrefix(trimmed, "---") {
		return doc
	}

	rest := trimmed[3:]
	rest = strings.TrimPrefix(rest, "\n")

	end := strings.Index(rest, "\n---")
	if end == -1 {
		return doc
	}

	afterFence := rest[end+len("\n---"):]
	return strings.TrimPrefix(afterFence, "\n")
}
