// Package blueprint provides the read-only blueprint tools:
//
//   - list_blueprints: GET /api/blueprints
//   - get_blueprint_details: GET /api/blueprints/{blueprint_id}
//   - get_system_details: GET /api/blueprints/{blueprint_id}/nodes?type=system
//   - get_virtual_networks: GET /api/blueprints/{blueprint_id}/virtual-networks
//   - get_security_zones: GET /api/blueprints/{blueprint_id}/security-zones
//   - get_config_audits: GET /api/blueprints/{blueprint_id}/config-audits
//
// Each tool makes exactly one request and returns the Apstra response body
// unchanged.
package blueprint
