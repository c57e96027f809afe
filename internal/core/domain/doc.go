// Package domain defines the core business entities for feedsync.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - FeedSet: The unit over which stories are paginated
//   - Story, Feed, Folder, SocialFeed: Synced content
//   - ReadingAction: A queued local mutation awaiting remote replay
//   - ActivationMode: Which received stories may be surfaced
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
