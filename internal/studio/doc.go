// Package studio owns an edit session over one image: the loaded source, the
// adjustment settings, the filter stack, the paint and overlay editors, the
// capped-resolution preview and the native-resolution export on commit.
//
// A Session is the explicit state that a UI (or the MCP server) passes
// operations to. Preview renders are synchronous and cheap because they run
// on the preview buffer. Commits run the same edit at native resolution on a
// background goroutine and hand the encoded PNG to the external Uploader and
// VersionStore collaborators. A failed commit leaves the session untouched so
// it can be retried without redoing the edit.
package studio
