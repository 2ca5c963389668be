// Package git keeps local clones of the registered subrepos current.
//
// Sync clones a subrepo into the workspace when no clone exists and otherwise
// fetches origin and fast-forwards the checked out branch. Failures are
// returned as classified errors so callers can map them to exit codes and
// decide whether a retry makes sense.
package git
