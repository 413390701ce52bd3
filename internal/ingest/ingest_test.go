package ingest

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

const header = "Country,States/City,Name,Designation,Mail,University"

func TestParseSingleRow(t *testing.T) {
	content := header + "\n" + "USA,CA,Jane Doe,Dean,jane@x.edu,Stanford"

	res, err := Parse(content)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(res.Contacts) != 1 {
		t.Fatalf("contacts = %d, want 1", len(res.Contacts))
	}
	if res.Skipped != 0 {
		t.Fatalf("skipped = %d, want 0", res.Skipped)
	}

	c := res.Contacts[0]
	if c.Country != "USA" || c.Region != "CA" || c.Name != "Jane Doe" {
		t.Errorf("required fields wrong: %+v", c)
	}
	if c.Designation != "Dean" || c.Email != "jane@x.edu" || c.University != "Stanford" {
		t.Errorf("optional fields wrong: %+v", c)
	}
}

func TestParseMissingColumn(t *testing.T) {
	content := "Country,States/City,Designation,Mail,University\nUSA,CA,Dean,jane@x.edu,Stanford"

	_, err := Parse(content)
	if err == nil {
		t.Fatal("expected error for missing name column")
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if !strings.Contains(ve.Reason, `"name"`) {
		t.Errorf("reason = %q, should name the missing column", ve.Reason)
	}
}

func TestParseHeaderFuzzyMatch(t *testing.T) {
	// Case and spacing variations must still match canonical columns.
	content := " COUNTRY , states / city ,NAME,Designation, MAIL ,University\n" +
		"India,Mumbai,Raj Patel,Director,raj@uni.ac.in,IIT Bombay"

	res, err := Parse(content)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(res.Contacts) != 1 {
		t.Fatalf("contacts = %d, want 1", len(res.Contacts))
	}
	if res.Contacts[0].Region != "Mumbai" {
		t.Errorf("region = %q", res.Contacts[0].Region)
	}
}

func TestParseSkipsInvalidRows(t *testing.T) {
	tests := []struct {
		name string
		row  string
	}{
		{"empty name", "USA,CA,,Dean,jane@x.edu,Stanford"},
		{"empty country", ",CA,Jane,Dean,jane@x.edu,Stanford"},
		{"empty region", "USA,,Jane,Dean,jane@x.edu,Stanford"},
		{"bad email", "USA,CA,Jane,Dean,not-an-email,Stanford"},
		{"all fields empty", ",,,,,"},
		{"blank line", "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := header + "\nUSA,NY,Valid Person,Dean,ok@x.edu,NYU\n" + tt.row

			res, err := Parse(content)
			if err != nil {
				t.Fatalf("parse should not be fatal: %v", err)
			}
			if len(res.Contacts) != 1 {
				t.Fatalf("contacts = %d, want 1", len(res.Contacts))
			}
			if res.Skipped != 1 {
				t.Fatalf("skipped = %d, want 1", res.Skipped)
			}
		})
	}
}

func TestParseCountInvariant(t *testing.T) {
	// N data rows with k invalid rows yields exactly N-k contacts and k skipped.
	var sb strings.Builder
	sb.WriteString(header + "\n")
	const n, k = 20, 7
	for i := 0; i < n-k; i++ {
		fmt.Fprintf(&sb, "USA,CA,Person %d,Dean,p%d@x.edu,Stanford\n", i, i)
	}
	for i := 0; i < k; i++ {
		sb.WriteString("USA,CA,,Dean,bad@x.edu,Stanford\n")
	}

	res, err := Parse(sb.String())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(res.Contacts) != n-k {
		t.Errorf("contacts = %d, want %d", len(res.Contacts), n-k)
	}
	if res.Skipped != k {
		t.Errorf("skipped = %d, want %d", res.Skipped, k)
	}
}

func TestParseQuotedFields(t *testing.T) {
	content := header + "\n" +
		`"USA","San Francisco, CA","Doe, Jane","Dean of ""Admissions""",jane@x.edu,Stanford`

	res, err := Parse(content)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	c := res.Contacts[0]
	if c.Region != "San Francisco, CA" {
		t.Errorf("region = %q, comma inside quotes must not split", c.Region)
	}
	if c.Name != "Doe, Jane" {
		t.Errorf("name = %q", c.Name)
	}
	if c.Designation != `Dean of "Admissions"` {
		t.Errorf("designation = %q, doubled quotes must unescape", c.Designation)
	}
}

func TestParsePadsAndTruncates(t *testing.T) {
	content := header + "\n" +
		"USA,CA,Short Row\n" + // 3 fields, padded to 6
		"USA,CA,Long Row,Dean,long@x.edu,Stanford,extra,fields" // 8 fields, truncated

	res, err := Parse(content)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(res.Contacts) != 2 {
		t.Fatalf("contacts = %d, want 2", len(res.Contacts))
	}
	if res.Contacts[0].Email != "" {
		t.Errorf("padded row email = %q, want empty", res.Contacts[0].Email)
	}
	if res.Contacts[1].University != "Stanford" {
		t.Errorf("truncated row university = %q", res.Contacts[1].University)
	}
}

func TestParseEmptyEmailIsOptional(t *testing.T) {
	content := header + "\nUSA,CA,Jane Doe,Dean,,Stanford"

	res, err := Parse(content)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(res.Contacts) != 1 || res.Skipped != 0 {
		t.Fatalf("contacts=%d skipped=%d", len(res.Contacts), res.Skipped)
	}
}

func TestParseRowCap(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(header + "\n")
	for i := 0; i <= MaxRows; i++ {
		fmt.Fprintf(&sb, "USA,CA,Person %d,Dean,p%d@x.edu,Stanford\n", i, i)
	}

	_, err := Parse(sb.String())
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for row cap, got %v", err)
	}
}

func TestParseNoValidRows(t *testing.T) {
	content := header + "\nUSA,CA,,Dean,jane@x.edu,Stanford"

	_, err := Parse(content)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError when zero rows survive, got %v", err)
	}
}

func TestParseHeaderOnly(t *testing.T) {
	if _, err := Parse(header); err == nil {
		t.Fatal("expected error for header-only input")
	}
}
