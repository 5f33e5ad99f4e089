// Package dom is the in-memory document model the widget runtime reads and
// writes: identifier inputs, their display links, search panels, select
// options, popup windows, focus and alerts.
//
// It mirrors the per-field markup contract of the lookup widget. A Document
// can be assembled in code or parsed from rendered form markup with ParsePage.
// Like a browser DOM it is not safe for concurrent use; the runtime only
// touches it from its event loop.
package dom
