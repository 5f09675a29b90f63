// Package webhook receives Emby notifications and drives resolution.
//
// The HTTP server accepts library-add and playback-start events, parses
// them into Notifications, runs the resolver, and enqueues a search task
// when no danmaku asset is present. Irrelevant events are acknowledged and
// dropped; a malformed body is the only client error.
package webhook
