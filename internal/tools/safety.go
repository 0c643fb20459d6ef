package tools

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/giantswarm/mcp-apstra/internal/apstra"
)

// ConfirmationWords are the accepted values of a confirmation argument,
// compared case-insensitively after trimming.
var ConfirmationWords = []string{"yes", "y", "confirm", "apply"}

// RequireConfirmation returns a ValidationError unless confirmation is one
// of ConfirmationWords. operation names the guarded action in the message.
func RequireConfirmation(operation, confirmation string) error {
	word := cases.Fold().String(strings.TrimSpace(confirmation))
	if slices.Contains(ConfirmationWords, word) {
		return nil
	}

	if word == "" {
		return apstra.NewValidationError("%s requires explicit confirmation: set %s to one of %s",
			cases.Title(language.English).String(operation), ParamConfirmation, strings.Join(ConfirmationWords, ", "))
	}
	return apstra.NewValidationError("%s was not confirmed: %s must be one of %s",
		cases.Title(language.English).String(operation), ParamConfirmation, strings.Join(ConfirmationWords, ", "))
}
