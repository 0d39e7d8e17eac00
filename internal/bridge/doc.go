// Package bridge talks to the REAPER bridge extension through a shared
// directory used as a single-slot mailbox.
//
// A command is written to command.json; the extension answers in
// response.json. Stale files are removed before every write and the response
// is removed once read, so at most one exchange is in flight. Callers
// serialize access with Lock when more than one process may share the
// directory.
package bridge
