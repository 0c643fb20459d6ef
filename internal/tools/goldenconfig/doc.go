// Package goldenconfig provides apply_system_golden_config, the only tool
// that changes state in Apstra.
//
// The tool is registered as mutating, so servers started with --read-only do
// not expose it. Each call requires a confirmation argument whose value is
// one of tools.ConfirmationWords; anything else fails with a ValidationError
// before a request is sent.
package goldenconfig
