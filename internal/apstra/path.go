package apstra

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// API path templates. Each %s is an identifier that must go through Path.
const (
	PathBlueprints             = "/api/blueprints"
	PathBlueprint              = "/api/blueprints/%s"
	PathBlueprintNodes         = "/api/blueprints/%s/nodes"
	PathBlueprintVirtualNets   = "/api/blueprints/%s/virtual-networks"
	PathBlueprintSecurityZones = "/api/blueprints/%s/security-zones"
	PathBlueprintConfigAudits  = "/api/blueprints/%s/config-audits"
	PathBlueprintAnomalies     = "/api/blueprints/%s/anomalies"
	PathSystemGoldenConfig     = "/api/systems/%s/golden-config"
)

// apiPrefix is the required prefix of every request path.
const apiPrefix = "/api/"

// identifierPattern is the set of characters accepted in blueprint and
// system identifiers. Apstra uses UUIDs, MAC-derived serials and short
// labels, all of which fit.
var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9._~:-]+$`)

// maxIdentifierLength bounds identifiers so a runaway argument cannot
// produce an unbounded URL.
const maxIdentifierLength = 256

// ValidateIdentifier checks that id is safe to splice into a URL path.
// The field name is used in the error message.
func ValidateIdentifier(field, id string) error {
	if strings.TrimSpace(id) == "" {
		return NewValidationError("%s is required", field)
	}
	if len(id) > maxIdentifierLength {
		return NewValidationError("%s must be at most %d characters", field, maxIdentifierLength)
	}
	if !identifierPattern.MatchString(id) {
		return NewValidationError("%s contains invalid characters (allowed: letters, digits and . _ ~ : -)", field)
	}
	if strings.Trim(id, ".") == "" {
		return NewValidationError("%s must not be a relative path segment", field)
	}
	return nil
}

// Path expands a path template with validated, escaped identifiers.
// Identifiers are named "id" in errors; use PathFor to name them.
func Path(template string, ids ...string) (string, error) {
	fields := make([]string, len(ids))
	for i := range fields {
		fields[i] = "id"
	}
	return PathFor(template, fields, ids...)
}

// PathFor is like Path but names each identifier for validation messages.
func PathFor(template string, fields []string, ids ...string) (string, error) {
	if len(fields) != len(ids) {
		return "", fmt.Errorf("path template %q: %d field names for %d identifiers", template, len(fields), len(ids))
	}

	escaped := make([]any, len(ids))
	for i, id := range ids {
		if err := ValidateIdentifier(fields[i], id); err != nil {
			return "", err
		}
		escaped[i] = url.PathEscape(id)
	}

	path := fmt.Sprintf(template, escaped...)
	if !strings.HasPrefix(path, apiPrefix) {
		return "", NewValidationError("path %q must start with %s", path, apiPrefix)
	}
	return path, nil
}

// BlueprintPath is a shortcut for templates with a single blueprint_id.
func BlueprintPath(template, blueprintID string) (string, error) {
	return PathFor(template, []string{"blueprint_id"}, blueprintID)
}

// SystemPath is a shortcut for templates with a single system_id.
func SystemPath(template, systemID string) (string, error) {
	return PathFor(template, []string{"system_id"}, systemID)
}
