// Package markdown holds the byte-level editing and asset-reference analysis
// shared by the rewrite and check steps. Content is never re-rendered: edits
// are applied as byte-range replacements so untouched text stays identical.
package markdown
