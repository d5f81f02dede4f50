// Package pegasus implements the PEGASUS binary container format: segment
// layout, load-command framing, and the linker that assembles a set of
// named (vmaddr, vmsize, bytes) segments plus symbols and an entrypoint
// register set into a single image.
package pegasus

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// PageSize is the page granularity of PEGASUS virtual memory: every
// segment's virtual base address is a multiple of PageSize.
const PageSize = 0x100

// PageFloor rounds addr down to the nearest page boundary.
func PageFloor(addr int) int { return addr &^ (PageSize - 1) }

// PageCeil rounds addr up to the nearest page boundary.
func PageCeil(addr int) int { return PageFloor(addr + PageSize - 1) }

// SegmentDesc describes one segment entry of a Layout.
type SegmentDesc struct {
	Name     string   // always leading "@"
	Prot     string   // subset of "rwx"
	VMAddr   *int     // fixed virtual base page address, or nil for automatic placement
	VMSize   *int     // fixed virtual size, or nil to size from content
	Emit     bool     // whether this segment is written into the file image
	Header   bool     // whether this is the PEGASUS header segment
	Sections []string // informational; section-name globs routed into this segment
}

// Layout is the external configuration naming the ordered list
// of segments a program may populate, which segment receives code with no
// explicit ".segment" directive, and which symbol names are tried (in
// order) as the program entrypoint.
type Layout struct {
	Default     string
	Segments    []SegmentDesc
	Entrypoints []string
}

func intp(v int) *int { return &v }

// DefaultLayout is the standard program layout: a header segment at
// page 1, a code segment, a constant-data
// segment, a read-write data segment collecting both the default section
// and ".ZEROINIT", a fixed-address stack, and a non-emitted high system
// segment.
func DefaultLayout() Layout {
	return Layout{
		Default: "@TEXT",
		Segments: []SegmentDesc{
			{Name: "@PEG", Prot: "r", VMAddr: intp(0x0100), Emit: true, Header: true},
			{Name: "@TEXT", Prot: "rx", Emit: true},
			{Name: "@CONST", Prot: "r", Emit: true},
			{Name: "@DATA", Prot: "rw", Emit: true, Sections: []string{"*", ".ZEROINIT"}},
			{Name: "@STACK", Prot: "rw", VMAddr: intp(0xFA00), VMSize: intp(0x400), Emit: true},
			{Name: "@SYS", Prot: "x", VMAddr: intp(0xFF00), Emit: false},
		},
		Entrypoints: []string{"@start"},
	}
}

// ParseLayout decodes a Layout from its JSON form, the format the CLI's
// --layout option accepts. "emit" defaults to true when absent, and
// "vmaddr" and "vmsize" accept either a JSON number or a base-prefixed
// string such as "0xFA00".
func ParseLayout(data []byte) (Layout, error) {
	type segJSON struct {
		Name     string          `json:"name"`
		Prot     string          `json:"prot"`
		VMAddr   json.RawMessage `json:"vmaddr"`
		VMSize   json.RawMessage `json:"vmsize"`
		Emit     *bool           `json:"emit"`
		Header   bool            `json:"header"`
		Sections []string        `json:"sections"`
	}
	type layoutJSON struct {
		Default     string    `json:"default"`
		Segments    []segJSON `json:"segments"`
		Entrypoints []string  `json:"entrypoints"`
	}

	var raw layoutJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return Layout{}, fmt.Errorf("pegasus: invalid layout: %w", err)
	}
	if len(raw.Segments) == 0 {
		return Layout{}, fmt.Errorf("pegasus: layout declares no segments")
	}

	out := Layout{Default: raw.Default, Entrypoints: raw.Entrypoints}
	for _, s := range raw.Segments {
		desc := SegmentDesc{
			Name:     s.Name,
			Prot:     s.Prot,
			Emit:     s.Emit == nil || *s.Emit,
			Header:   s.Header,
			Sections: s.Sections,
		}
		var err error
		if desc.VMAddr, err = parseAddrField(s.VMAddr); err != nil {
			return Layout{}, fmt.Errorf("pegasus: segment %q vmaddr: %w", s.Name, err)
		}
		if desc.VMSize, err = parseAddrField(s.VMSize); err != nil {
			return Layout{}, fmt.Errorf("pegasus: segment %q vmsize: %w", s.Name, err)
		}
		out.Segments = append(out.Segments, desc)
	}
	return out, nil
}

// parseAddrField accepts a JSON number, a base-prefixed string, or an
// absent value.
func parseAddrField(raw json.RawMessage) (*int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return &n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("expected a number or string, got %s", raw)
	}
	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return nil, err
	}
	n = int(v)
	return &n, nil
}

func decodeProt(prot string) byte {
	var bits byte
	for i, c := range "rwx" {
		for _, p := range prot {
			if p == c {
				bits |= 1 << uint(i)
			}
		}
	}
	return bits
}
