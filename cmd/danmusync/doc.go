// Command danmusync is the CLI for the danmaku resolution service. It runs
// the daemon in the foreground, inspects the search task queue, performs
// one-shot resolutions, and manages configuration.
package main
