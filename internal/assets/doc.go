// Package assets verifies physical presence of danmaku files.
//
// The catalog records a web path and comment count per episode; presence
// requires the referenced file to genuinely exist on disk so stale catalog
// rows never skip a download. Any check that cannot be completed reports
// "not present".
package assets
