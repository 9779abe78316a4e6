// Package link multiplexes concurrent logical conversations over one APT byte
// stream. A Conn owns the transport: a single read loop decodes frames and
// publishes them to a Registry of per-identity broadcast channels, while any
// number of goroutines issue commands and await correlated responses through
// Request.
//
// The decode loop never blocks on a slow consumer, outbound writes are
// serialized, and a fatal decode error fails every in-flight waiter on the
// connection.
package link
