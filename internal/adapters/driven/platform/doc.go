// Package platform implements the environment ports of the sync service:
// connectivity, foreground activity and change notification.
package platform
