// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The SyncCoordinator is the entry point. It runs one sync lane at a time,
// executing the maintenance, action replay, story and metadata phases in a
// fixed order while a KeepAliveGuard tracks outstanding work.
package services
