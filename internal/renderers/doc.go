// Package renderers provides bookmark renderers.
//
// Renderers are pure: the same bookmark and the same local media paths always
// produce byte-identical output, so re-running a sync rewrites files unchanged.
package renderers
