package utils

import (
	"fmt"
	"regexp"
	"strings"
)

// AmountRun is one candidate row of monetary tokens found near a label.
type AmountRun struct {
	// LabelLine is the line index where the label matched.
	LabelLine int
	// Line is the line index the tokens were read from.
	Line int
	// Tokens holds the raw monetary tokens, in column order.
	Tokens []string
}

// LocateFailure reports that a label produced zero candidates. Ambiguity is
// not a failure at this layer: all candidates are returned and the caller
// records the downgraded confidence.
type LocateFailure struct {
	Label  string
	Reason string
}

func (f *LocateFailure) Error() string {
	return fmt.Sprintf("locate %q: %s", f.Label, f.Reason)
}

// LocateAmountRuns finds every occurrence of label in the extracted text
// and scans the window lines following each occurrence for the first run
// of arity monetary tokens. One candidate is produced per occurrence;
// callers prefer the first candidate directly following the label and
// mark the figure ambiguous when the label matched more than once with a
// qualifying run.
func LocateAmountRuns(text string, label *regexp.Regexp, window, arity int) ([]AmountRun, *LocateFailure) {
	lines := splitRepairedLines(text)

	var labelLines []int
	for i, line := range lines {
		if label.MatchString(line) {
			labelLines = append(labelLines, i)
		}
	}
	if len(labelLines) == 0 {
		return nil, &LocateFailure{Label: label.String(), Reason: "label not found"}
	}

	var runs []AmountRun
	for _, li := range labelLines {
		for j := li; j <= li+window && j < len(lines); j++ {
			hay := lines[j]
			if j == li {
				// only look past the label on its own line
				loc := label.FindStringIndex(hay)
				hay = hay[loc[1]:]
			}
			toks := MonetaryToken.FindAllString(hay, -1)
			if len(toks) >= arity {
				runs = append(runs, AmountRun{LabelLine: li, Line: j, Tokens: toks[:arity]})
				break
			}
		}
	}
	if len(runs) == 0 {
		return nil, &LocateFailure{Label: label.String(), Reason: fmt.Sprintf("no run of %d monetary tokens within %d lines", arity, window)}
	}
	return runs, nil
}

// splitRepairedLines splits text into lines, rejoining a line that the PDF
// text layer wrapped in the middle of a grouped number (the previous line
// ends with a digit-comma).
func splitRepairedLines(text string) []string {
	raw := strings.Split(text, "\n")
	var lines []string
	for _, l := range raw {
		trimmed := strings.TrimRight(l, " \t")
		if n := len(lines); n > 0 {
			prev := lines[n-1]
			if len(prev) >= 2 && strings.HasSuffix(prev, ",") && isDigit(prev[len(prev)-2]) {
				lines[n-1] = prev + " " + strings.TrimLeft(trimmed, " \t")
				continue
			}
		}
		lines = append(lines, trimmed)
	}
	return lines
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// ColumnSpec names a spreadsheet column by its top-level group label and
// its sub-label; Top is empty for single-level columns.
type ColumnSpec struct {
	Top string
	Sub string
}

// FlattenHeader collapses a multi-row header band into one logical key per
// column. Blank or merged top-level cells (including the "Unnamed: N" and
// "NaN" placeholders merged cells leave behind) are forward-filled from
// the nearest non-blank cell to their left, then the levels are joined.
func FlattenHeader(headerRows [][]string) []string {
	width := 0
	for _, row := range headerRows {
		if len(row) > width {
			width = len(row)
		}
	}

	keys := make([]string, width)
	for level, row := range headerRows {
		carry := ""
		for col := 0; col < width; col++ {
			cell := ""
			if col < len(row) {
				cell = normalizeHeaderCell(row[col])
			}
			if level < len(headerRows)-1 {
				// forward-fill group labels across the columns they span
				if cell == "" {
					cell = carry
				} else {
					carry = cell
				}
			}
			if cell == "" {
				continue
			}
			if keys[col] == "" {
				keys[col] = cell
			} else {
				keys[col] = keys[col] + "|" + cell
			}
		}
	}
	return keys
}

// LocateColumns resolves the canonical column index for each requested
// (top-level, sub-level) pair. The returned map holds every column that
// was found; a non-nil failure lists the ones that were not.
func LocateColumns(headerRows [][]string, specs []ColumnSpec) (map[ColumnSpec]int, *LocateFailure) {
	keys := FlattenHeader(headerRows)

	index := make(map[string]int, len(keys))
	for col, key := range keys {
		if key == "" {
			continue
		}
		if _, seen := index[key]; !seen {
			index[key] = col
		}
	}

	found := make(map[ColumnSpec]int, len(specs))
	var missing []string
	for _, spec := range specs {
		key := normalizeHeaderCell(spec.Sub)
		if top := normalizeHeaderCell(spec.Top); top != "" {
			key = top + "|" + key
		}
		if col, ok := index[key]; ok {
			found[spec] = col
		} else {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return found, &LocateFailure{Label: strings.Join(missing, ", "), Reason: "column not found in header band"}
	}
	return found, nil
}

var headerSpaces = regexp.MustCompile(`\s+`)

func normalizeHeaderCell(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "nan" || strings.HasPrefix(s, "unnamed") {
		return ""
	}
	return headerSpaces.ReplaceAllString(s, " ")
}
