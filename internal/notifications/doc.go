// Package notifications sends ntfy push notifications for resolution
// events. Without a configured topic a noop implementation is used.
package notifications
