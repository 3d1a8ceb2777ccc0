// Package textutil sanitizes free-form names (channel titles, video ids) so
// they can be used as single path segments in the sidecar cache.
package textutil
