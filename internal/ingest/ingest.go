// Package ingest parses uploaded CSV contact lists into validated contacts.
//
// Parsing is a pure function over the input text: a fatal problem (missing
// header column, row cap exceeded, nothing valid left) aborts the whole parse
// with a ValidationError, while individually bad rows are skipped and counted.
package ingest

import (
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/ignite/outreach/internal/domain"
)

// MaxRows caps the number of accepted data rows per upload.
const MaxRows = 1000

// Canonical column names. The header row must contain all six, matched
// case-insensitively and whitespace-insensitively.
var requiredColumns = []string{"country", "states/city", "name", "designation", "mail", "university"}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidationError is fatal to the whole ingestion call. Row is 1-based over
// the raw input (header = row 1); 0 means the error is not tied to a row.
type ValidationError struct {
	Row    int
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
	}
	return e.Reason
}

// Result is the outcome of a successful parse.
type Result struct {
	Contacts []domain.Contact
	Skipped  int
}

// Parse converts raw CSV text into an ordered contact list plus a skipped-row
// count. Rows missing a required field or carrying a malformed email are
// skipped, not fatal; a header missing any required column aborts before any
// row is parsed.
func Parse(content string) (*Result, error) {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) < 2 {
		return nil, &ValidationError{Reason: "CSV must contain a header row and at least one data row"}
	}

	headers := splitLine(lines[0])
	for i := range headers {
		headers[i] = strings.ToLower(strings.TrimSpace(headers[i]))
	}

	colIndex, err := mapColumns(headers)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for i := 1; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			res.Skipped++
			continue
		}

		fields := splitLine(line)
		// Right-pad short rows, truncate long ones to header width.
		for len(fields) < len(headers) {
			fields = append(fields, "")
		}
		fields = fields[:len(headers)]

		c, ok := buildContact(fields, colIndex)
		if !ok {
			log.Printf("[ingest] skipping row %d: missing required field or bad email", i+1)
			res.Skipped++
			continue
		}

		res.Contacts = append(res.Contacts, c)
		if len(res.Contacts) > MaxRows {
			return nil, &ValidationError{Row: i + 1, Reason: fmt.Sprintf("maximum %d rows allowed per batch", MaxRows)}
		}
	}

	if len(res.Contacts) == 0 {
		return nil, &ValidationError{Reason: "no valid contacts found in CSV"}
	}

	log.Printf("[ingest] parsed %d contacts (%d skipped)", len(res.Contacts), res.Skipped)
	return res, nil
}

// mapColumns resolves each canonical column to a header index. Matching is
// fuzzy: the header, lowered and with whitespace removed, must contain the
// canonical name similarly normalized.
func mapColumns(headers []string) (map[string]int, error) {
	idx := make(map[string]int, len(requiredColumns))
	for _, required := range requiredColumns {
		want := strings.ReplaceAll(required, " ", "")
		found := -1
		for i, h := range headers {
			if strings.Contains(strings.ReplaceAll(h, " ", ""), want) {
				found = i
				break
			}
		}
		if found == -1 {
			return nil, &ValidationError{
				Row:    1,
				Reason: fmt.Sprintf("missing required column %q (found: %s)", required, strings.Join(headers, ", ")),
			}
		}
		idx[required] = found
	}
	return idx, nil
}

func buildContact(fields []string, colIndex map[string]int) (domain.Contact, bool) {
	get := func(col string) string {
		return strings.TrimSpace(fields[colIndex[col]])
	}

	c := domain.Contact{
		Country:     get("country"),
		Region:      get("states/city"),
		Name:        get("name"),
		Designation: get("designation"),
		Email:       get("mail"),
		University:  get("university"),
	}

	allEmpty := c.Country == "" && c.Region == "" && c.Name == "" &&
		c.Designation == "" && c.Email == "" && c.University == ""
	if allEmpty {
		return domain.Contact{}, false
	}

	// country, states/city and name are required; the rest are optional.
	if c.Country == "" || c.Region == "" || c.Name == "" {
		return domain.Contact{}, false
	}

	if c.Email != "" && !emailRegex.MatchString(c.Email) {
		return domain.Contact{}, false
	}

	return c, true
}

// splitLine splits one CSV line on commas, honoring quoting. Quotes escape by
// doubling; commas inside quotes do not split fields. Fields are trimmed.
func splitLine(line string) []string {
	var result []string
	var current strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				current.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case ch == ',' && !inQuotes:
			result = append(result, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(ch)
		}
	}
	result = append(result, strings.TrimSpace(current.String()))
	return result
}
