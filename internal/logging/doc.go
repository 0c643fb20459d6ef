// Package logging provides structured logging utilities for the mcp-apstra application.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Structured logging with slog behind the Logger interface
//   - Consistent attribute naming (tool, blueprint_id, status_code, error_kind)
//   - Host/URL sanitization so controller addresses are not leaked
//   - Token masking
//
// # Usage Patterns
//
//	logger.Info("golden config applied",
//	    logging.Operation("apply_system_golden_config"),
//	    logging.System("sys1"))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("apstra client configured",
//	    logging.Host(creds.BaseURL()),
//	    slog.String("token", logging.SanitizeToken(token)))
//
// # Security Considerations
//
//   - Apstra controller URLs have IP addresses redacted
//   - API tokens are never logged directly
package logging
