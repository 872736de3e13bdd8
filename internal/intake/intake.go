// Package intake turns user input into ordered parse requests.
//
// Three sources feed a batch: multi-line text, an imported file (plain text
// or a spreadsheet) and employee records from the HRIS directory. Text and
// files go through the same line rule: split on newlines, trim, drop blank
// lines, keep order and duplicates.
package intake

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"addrparser/internal/domain"
)

// bom is the UTF-8 byte order mark some editors prepend to text exports.
const bom = "\ufeff"

// SplitLines applies the manual-text rule to text. Lines are NFC-normalized
// so that decomposed Vietnamese diacritics compare equal to composed ones.
func SplitLines(text string) []string {
	text = strings.TrimPrefix(text, bom)
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, norm.NFC.String(line))
	}
	return out
}

// FromText returns one raw-address request per non-blank line of text.
func FromText(text string) []domain.ParseRequest {
	return FromLines(SplitLines(text))
}

// FromLines wraps already-split lines as raw-address requests.
func FromLines(lines []string) []domain.ParseRequest {
	reqs := make([]domain.ParseRequest, 0, len(lines))
	for _, l := range lines {
		reqs = append(reqs, domain.ParseRequest{RawAddress: l})
	}
	return reqs
}

// FromEmployees returns one employee request per record, in directory order.
// Records are copied so later changes to emps do not leak into requests.
func FromEmployees(emps []domain.Employee) []domain.ParseRequest {
	reqs := make([]domain.ParseRequest, 0, len(emps))
	for i := range emps {
		emp := emps[i]
		reqs = append(reqs, domain.ParseRequest{Employee: &emp})
	}
	return reqs
}
