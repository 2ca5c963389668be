// Package aggregate pulls every registered subrepo and mirrors its
// per-locale documentation into the main docs tree.
//
// For each subrepo, in registry order: sync the clone, then for each locale
// remove <docs>/<locale>/_subrepos/<name>, copy <clone>/docs/<locale> into it
// and rewrite shared-asset references, and finally refresh
// <docs>/_static/<name> from <clone>/docs/_static. A missing locale subtree is
// skipped with a warning; a git failure aborts the run.
package aggregate
