// Package catalog loads the declarative SOP rule catalog consumed by the
// rule engine. The catalog is read once at process start and shared
// immutably; a default catalog ships embedded in the binary and can be
// replaced by an external file.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/auditstack/gst-return-scrutiny/dto"
)

//go:embed catalog.json
var defaultCatalog []byte

// Load parses the rule catalog at path, falling back to the embedded
// default when path is empty.
func Load(path string) ([]dto.Rule, error) {
	data := defaultCatalog
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read rule catalog: %w", err)
		}
	}

	var rules []dto.Rule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse rule catalog: %w", err)
	}
	if err := validate(rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func validate(rules []dto.Rule) error {
	if len(rules) == 0 {
		return fmt.Errorf("rule catalog is empty")
	}
	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		if r.ID == "" {
			return fmt.Errorf("rule catalog contains a rule without an id")
		}
		if seen[r.ID] {
			return fmt.Errorf("duplicate rule id %s", r.ID)
		}
		seen[r.ID] = true

		switch r.Kind {
		case dto.CompareDifference, dto.CompareRatio:
			if r.Left.TableRef == "" || r.Right.TableRef == "" {
				return fmt.Errorf("rule %s: %s rules need both sides", r.ID, r.Kind)
			}
		case dto.CompareSetPresence:
			if r.Left.DocType == "" {
				return fmt.Errorf("rule %s: set_presence rules need a left document type", r.ID)
			}
		default:
			return fmt.Errorf("rule %s: unknown comparison kind %q", r.ID, r.Kind)
		}
		if r.Tolerance.IsNegative() {
			return fmt.Errorf("rule %s: tolerance must not be negative", r.ID)
		}
	}
	return nil
}
