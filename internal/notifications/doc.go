// Package notifications publishes indexing pass summaries to ntfy.
//
// When no topic is configured NewService returns a no-op implementation, so
// callers never need to check whether notifications are enabled. Clean passes
// are only announced when notify_success is set; partial, failed, and
// cancelled passes always are.
package notifications
