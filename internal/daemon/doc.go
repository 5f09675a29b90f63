// Package daemon wires configuration, stores, the resolver, and the webhook
// server into a single-instance background service.
package daemon
