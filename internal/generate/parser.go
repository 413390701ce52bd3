package generate

import (
	"fmt"
	"regexp"
	"strings"
)

// The model is asked for a fixed output contract but does not always honor
// it. Parsing tries the contract headings first, then progressively looser
// shapes, and finally synthesizes safe defaults so the caller always gets a
// sendable email.

var subjectSectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)\*\*SUBJECT LINE:\*\*\s*(.*?)(?:\*\*EMAIL BODY:|\z)`),
	regexp.MustCompile(`(?is)\*\*Subject[^:]*:\*\*\s*(.*?)(?:\*\*Email|\z)`),
	regexp.MustCompile(`(?is)Subject[^:\n]*:\s*(.*?)(?:Email[^:\n]*:|\z)`),
}

var bodySectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)\*\*EMAIL BODY:\*\*\s*(.*)\z`),
	regexp.MustCompile(`(?is)\*\*Email[^:]*:\*\*\s*(.*)\z`),
	regexp.MustCompile(`(?is)\bEmail[^:\n]*:\s*(.*)\z`),
}

var (
	optionLineRe   = regexp.MustCompile(`(?i)^Option\s*\d+\s*[:.]?\s*(.+)$`)
	numberedRe     = regexp.MustCompile(`^\d+[.)]\s*(.+)$`)
	greetingRe     = regexp.MustCompile(`(?is)(?:Dear|Hi|Hello)\s+[^,\n]+,.*\z`)
	greetingWordRe = regexp.MustCompile(`(?i)\b(?:Dear|Hi|Hello)\b`)
)

// parseCompletion splits a raw completion into subject options and a body,
// falling back to synthesized defaults when the text does not match any
// expected shape.
func parseCompletion(raw string, contact ContactData) Result {
	subjects := extractSubjects(raw)
	if len(subjects) == 0 {
		subjects = []string{fallbackSubject(contact)}
	}

	body := extractBody(raw)
	if !usableBody(body) {
		body = fallbackBody(contact)
	}

	return Result{SubjectOptions: subjects, Body: body}
}

func extractSubjects(raw string) []string {
	for _, re := range subjectSectionPatterns {
		m := re.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		if subjects := subjectsFromSection(m[1]); len(subjects) > 0 {
			return subjects
		}
	}

	// No heading at all. Some completions open with bare subject lines
	// before the greeting; take those if they look like subjects.
	var subjects []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if greetingWordRe.MatchString(line) || strings.HasPrefix(line, "**") {
			break
		}
		if s, ok := cleanSubject(line); ok {
			subjects = append(subjects, s)
			if len(subjects) == 3 {
				break
			}
		}
	}
	return subjects
}

func subjectsFromSection(section string) []string {
	var subjects []string
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		candidate := line
		if m := optionLineRe.FindStringSubmatch(line); m != nil {
			candidate = m[1]
		} else if m := numberedRe.FindStringSubmatch(line); m != nil {
			candidate = m[1]
		} else {
			candidate = strings.TrimPrefix(candidate, "- ")
			candidate = strings.TrimPrefix(candidate, "• ")
		}
		if s, ok := cleanSubject(candidate); ok {
			subjects = append(subjects, s)
			if len(subjects) == 3 {
				break
			}
		}
	}
	return subjects
}

// cleanSubject strips wrapping quotes and markdown emphasis and enforces
// the 10-100 character window that filters out headings and fragments.
func cleanSubject(s string) (string, bool) {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	s = strings.Trim(s, "*")
	s = strings.TrimSpace(s)
	if len(s) < 10 || len(s) > 100 {
		return "", false
	}
	return s, true
}

func extractBody(raw string) string {
	for _, re := range bodySectionPatterns {
		if m := re.FindStringSubmatch(raw); m != nil {
			if body := strings.TrimSpace(m[1]); body != "" {
				return body
			}
		}
	}

	// No body heading. A greeting marks where the letter starts.
	if m := greetingRe.FindString(raw); m != "" {
		return strings.TrimSpace(m)
	}

	// Last resort before synthesis: drop the subject section and keep
	// whatever remains.
	stripped := raw
	for _, re := range subjectSectionPatterns {
		if loc := re.FindStringIndex(stripped); loc != nil {
			stripped = stripped[:loc[0]] + stripped[loc[1]:]
			break
		}
	}
	return strings.TrimSpace(stripped)
}

// usableBody rejects bodies that are too short, still carry contract
// headings, or lack a greeting.
func usableBody(body string) bool {
	if len(body) < 50 {
		return false
	}
	upper := strings.ToUpper(body)
	if strings.Contains(upper, "**SUBJECT") || strings.Contains(upper, "SUBJECT LINE:") {
		return false
	}
	return greetingWordRe.MatchString(body)
}

func fallbackSubject(contact ContactData) string {
	university := contact.University
	if university == "" {
		university = "your institution"
	}
	return fmt.Sprintf("Partnership opportunity with %s", university)
}

func fallbackBody(contact ContactData) string {
	name := contact.Name
	if name == "" {
		name = "there"
	}
	product := contact.ProductName
	if product == "" {
		product = "our platform"
	}
	university := contact.University
	if university == "" {
		university = "your institution"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", name)
	fmt.Fprintf(&b, "I hope this message finds you well. I wanted to introduce %s and explore how we could support international students at %s.\n\n", product, university)
	b.WriteString("Would you be open to a short call to discuss a potential collaboration?\n\n")
	b.WriteString("Best regards,")
	if contact.SenderName != "" {
		b.WriteString("\n" + contact.SenderName)
	}
	if contact.SenderSignature != "" {
		b.WriteString("\n" + contact.SenderSignature)
	}
	return b.String()
}
