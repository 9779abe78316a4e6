package main

import (
	"bytes"
	"fmt"
	"go/format"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// headerSize is the fixed APT header size; no message can be shorter.
const headerSize = 6

// entry is one row of the protocol table.
type entry struct {
	Name     string `toml:"name"`
	ID       string `toml:"id"`
	Length   int    `toml:"length"`
	Variable bool   `toml:"variable"`
	Channel  string `toml:"channel"`

	identity uint16 // parsed from ID during validation
}

// table is the parsed protocol definition table.
type table struct {
	Messages []*entry `toml:"message"`
}

// loadTable reads and validates a protocol table. Any malformed row is an
// error; the generator fails the build rather than emitting a corrupt table.
func loadTable(path string) (*table, error) {
	var t table
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := t.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &t, nil
}

func (t *table) validate() error {
	if len(t.Messages) == 0 {
		return fmt.Errorf("table contains no messages")
	}

	names := make(map[string]bool, len(t.Messages))
	ids := make(map[uint16]string, len(t.Messages))

	for _, e := range t.Messages {
		if e.Name == "" {
			return fmt.Errorf("message %q: missing name", e.ID)
		}
		if names[e.Name] {
			return fmt.Errorf("duplicate message name %q", e.Name)
		}
		names[e.Name] = true

		id, err := parseIdentity(e.ID)
		if err != nil {
			return fmt.Errorf("message %q: %w", e.Name, err)
		}
		if prev, dup := ids[id]; dup {
			return fmt.Errorf("duplicate identity %s: %q and %q", e.ID, prev, e.Name)
		}
		ids[id] = e.Name
		e.identity = id

		switch {
		case e.Variable && e.Length != 0:
			return fmt.Errorf("message %q: length and variable are mutually exclusive", e.Name)
		case !e.Variable && e.Length <= 0:
			return fmt.Errorf("message %q: fixed length must be positive, got %d", e.Name, e.Length)
		case !e.Variable && e.Length < headerSize:
			return fmt.Errorf("message %q: fixed length %d is shorter than the %d-byte header", e.Name, e.Length, headerSize)
		}
	}

	return nil
}

// parseIdentity parses a two-byte hex identity such as "0x0443".
func parseIdentity(s string) (uint16, error) {
	raw, ok := strings.CutPrefix(strings.ToLower(s), "0x")
	if !ok {
		return 0, fmt.Errorf("identity %q: missing 0x prefix", s)
	}
	v, err := strconv.ParseUint(raw, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("identity %q: %w", s, err)
	}
	return uint16(v), nil
}

// constName converts a table row name such as "MOT_MOVE_HOME" into the
// exported identity constant "MsgMotMoveHome".
func constName(name string) string {
	var b strings.Builder
	b.WriteString("Msg")
	for _, part := range strings.Split(strings.ToLower(name), "_") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

// render emits the lookup tables as gofmt-formatted Go source.
func (t *table) render(input string) ([]byte, error) {
	rows := make([]*entry, len(t.Messages))
	copy(rows, t.Messages)
	sort.Slice(rows, func(i, j int) bool { return rows[i].identity < rows[j].identity })

	channels := make([]string, 0)
	seen := make(map[string]bool)
	for _, e := range rows {
		if e.Channel != "" && !seen[e.Channel] {
			seen[e.Channel] = true
			channels = append(channels, e.Channel)
		}
	}
	sort.Strings(channels)
	slots := make(map[string]uint16, len(channels))
	for i, name := range channels {
		slots[name] = uint16(i)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// Code generated by aptgen from %s. DO NOT EDIT.\n\n", input)
	fmt.Fprintf(&buf, "package apt\n\n")

	fmt.Fprintf(&buf, "// Message identities from the protocol table.\nconst (\n")
	for _, e := range rows {
		fmt.Fprintf(&buf, "\t%s Identity = 0x%04X\n", constName(e.Name), e.identity)
	}
	fmt.Fprintf(&buf, ")\n\n")

	fmt.Fprintf(&buf, "// lengthVariable marks identities whose wire length is carried in the message\n// header rather than the protocol table.\nconst lengthVariable = -1\n\n")

	fmt.Fprintf(&buf, "// wireLengths maps each identity to its total wire length in bytes.\nvar wireLengths = map[Identity]int{\n")
	for _, e := range rows {
		if e.Variable {
			fmt.Fprintf(&buf, "\t%s: lengthVariable,\n", constName(e.Name))
		} else {
			fmt.Fprintf(&buf, "\t%s: %d,\n", constName(e.Name), e.Length)
		}
	}
	fmt.Fprintf(&buf, "}\n\n")

	fmt.Fprintf(&buf, "// channelNames lists the response-channel slots, indexed by slot number.\nvar channelNames = []string{\n")
	for _, name := range channels {
		fmt.Fprintf(&buf, "\t%q,\n", name)
	}
	fmt.Fprintf(&buf, "}\n\n")

	fmt.Fprintf(&buf, "// channelSlots maps response identities to their channel slot.\nvar channelSlots = map[Identity]uint16{\n")
	for _, name := range channels {
		for _, e := range rows {
			if e.Channel == name {
				fmt.Fprintf(&buf, "\t%s: %d,\n", constName(e.Name), slots[name])
			}
		}
	}
	fmt.Fprintf(&buf, "}\n")

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("formatting generated source: %w", err)
	}
	return src, nil
}
