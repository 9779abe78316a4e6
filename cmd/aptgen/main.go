// Command aptgen compiles the APT protocol definition table (messages.toml)
// into Go lookup tables: identity constants, identity to wire length, and
// identity to response-channel slot. It is invoked by go:generate in pkg/apt.
//
// A malformed table (duplicate identity, non-positive fixed length) is a
// build-time failure: aptgen exits non-zero and writes nothing.
package main

import (
	"flag"
	"log"
	"os"
)

var (
	input  = flag.String("in", "messages.toml", "Protocol table to compile")
	output = flag.String("out", "tables_gen.go", "Generated Go source file")
)

func main() {
	flag.Parse()

	t, err := loadTable(*input)
	if err != nil {
		log.Fatalf("aptgen: %v", err)
	}

	src, err := t.render(*input)
	if err != nil {
		log.Fatalf("aptgen: %v", err)
	}

	if err := os.WriteFile(*output, src, 0o644); err != nil {
		log.Fatalf("aptgen: writing %s: %v", *output, err)
	}
}
