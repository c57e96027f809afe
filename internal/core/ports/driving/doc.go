// Package driving holds the ports the CLI and daemon call into: the sync
// coordinator and the periodic scheduler. Implementations live in
// internal/core/services.
package driving
