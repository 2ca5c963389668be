// Package workspace manages the directory that holds subrepo clones.
//
// Persistent mode uses the configured clone directory, so later runs only pull
// (clone-if-absent, pull-if-present). Ephemeral mode creates a timestamped
// temporary directory (e.g. subdocs-20261016-122336) for `aggregate --fresh`
// and removes it on Cleanup.
package workspace
