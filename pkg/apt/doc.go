// Package apt implements the wire format of the Thorlabs APT device-control
// protocol: message identities, the fixed six-byte header, short and long
// message packing, and a frame decoder that turns a raw byte stream into a
// sequence of validated messages.
//
// Message identities and wire lengths are defined in messages.toml and
// compiled into lookup tables (tables_gen.go) by cmd/aptgen. Run `go generate`
// in this package after editing the table.
package apt
