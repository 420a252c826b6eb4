// Package validate provides shared validation functions.
package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/wreckit/internal/core/item"
)

// Title validates that an item title produces a usable id slug.
func Title(title string) error {
	if strings.TrimSpace(title) == "" {
		return errors.New("title is required")
	}
	if item.Slugify(title) == "" {
		return errors.New("title must contain at least one letter or digit")
	}
	return nil
}

// TitleField returns a criterio validator for titles.
func TitleField(field, title string) error {
	return criterio.Run(field, title, Title)
}

// PriorityHint validates an optional priority hint.
func PriorityHint(p item.PriorityHint) error {
	if !p.IsValid() {
		return fmt.Errorf("unknown priority %q, try low, medium, high or critical", p)
	}
	return nil
}
