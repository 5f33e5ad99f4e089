// Package protocol defines the payloads exchanged between the lookup widget
// runtime and the resolve/search/add endpoints, plus the small URL helpers both
// sides agree on.
package protocol
