package pegasus

import (
	"bytes"
	"testing"
)

func TestPackLestring(t *testing.T) {
	cases := []struct {
		in   string
		want []byte
	}{
		{"", []byte{0x00}},
		{"test", []byte{0xf4, 0xe5, 0xf3, 't'}},
	}
	for _, c := range cases {
		got := packLestring(c.in)
		if !bytes.Equal(got, c.want) {
			t.Errorf("packLestring(%q) = % x, want % x", c.in, got, c.want)
		}
	}
}

func TestPageCeilFloor(t *testing.T) {
	if PageCeil(0x0100) != 0x0100 {
		t.Errorf("PageCeil(0x100) = %#x, want 0x100", PageCeil(0x0100))
	}
	if PageCeil(0x0101) != 0x0200 {
		t.Errorf("PageCeil(0x101) = %#x, want 0x200", PageCeil(0x0101))
	}
	if PageFloor(0x01FF) != 0x0100 {
		t.Errorf("PageFloor(0x1ff) = %#x, want 0x100", PageFloor(0x01FF))
	}
}

func TestP8Range(t *testing.T) {
	if _, err := p8(255); err != nil {
		t.Errorf("p8(255) unexpected error: %v", err)
	}
	if _, err := p8(-1); err != nil {
		t.Errorf("p8(-1) unexpected error: %v", err)
	}
	if _, err := p8(256); err == nil {
		t.Errorf("p8(256) expected range error")
	}
}

// TestLinkMinimal exercises the full layout -> data pipeline, restricted to
// the linker's half: the header's magic and arch bytes match what was
// supplied.
func TestLinkMinimal(t *testing.T) {
	layout := DefaultLayout()
	l := NewLinker(layout)
	hsize, err := l.PrecomputeHeaderSize(true)
	if err != nil {
		t.Fatalf("PrecomputeHeaderSize: %v", err)
	}
	if hsize <= 0 {
		t.Fatalf("PrecomputeHeaderSize returned %d, want > 0", hsize)
	}

	textBase := PageCeil(0x0100 + hsize)
	if err := l.AddSegment("@TEXT", textBase, 2, []byte{0xFF, 0xFF}); err != nil {
		t.Fatalf("AddSegment: %v", err)
	}
	l.AddEntrypoint(map[string]uint16{"PC": uint16(textBase)})
	l.AddSymbol("start", uint16(textBase))

	data, err := l.LinkBinary()
	if err != nil {
		t.Fatalf("LinkBinary: %v", err)
	}
	if !bytes.Equal(data[:8], Magic[:]) {
		t.Errorf("header magic = % x, want % x", data[:8], Magic[:])
	}
	if string(data[8:12]) != DefaultArch {
		t.Errorf("header arch = %q, want %q", data[8:12], DefaultArch)
	}
}

// decodeLestring reads one lestring from the front of b, returning the
// string and the number of bytes consumed.
func decodeLestring(b []byte) (string, int) {
	if len(b) > 0 && b[0] == 0x00 {
		return "", 1
	}
	var out []byte
	for i := 0; i < len(b); i++ {
		c := b[i]
		if c&0x80 != 0 {
			out = append(out, c&0x7F)
			continue
		}
		out = append(out, c)
		return string(out), i + 1
	}
	return string(out), len(b)
}

type decodedCmd struct {
	typ     uint16
	payload []byte
}

func decodeCmds(t *testing.T, image []byte) []decodedCmd {
	t.Helper()
	if len(image) < 14 {
		t.Fatalf("image too short: %d bytes", len(image))
	}
	count := int(image[12]) | int(image[13])<<8
	cmds := make([]decodedCmd, 0, count)
	off := 14
	for i := 0; i < count; i++ {
		size := int(image[off]) | int(image[off+1])<<8
		typ := uint16(image[off+2]) | uint16(image[off+3])<<8
		cmds = append(cmds, decodedCmd{typ, image[off+4 : off+size]})
		off += size
	}
	return cmds
}

// TestHeaderCommandRoundTrip decodes a linked image's load commands and
// checks that they reproduce the segment set handed to the linker: every
// emitting segment gets exactly one segment command (the non-emitting
// "@SYS" gets none), plus one symbol table and one entrypoint command.
func TestHeaderCommandRoundTrip(t *testing.T) {
	l := NewLinker(DefaultLayout())
	if err := l.AddSegment("@TEXT", 0x0200, 2, []byte{0xFF, 0xFF}); err != nil {
		t.Fatalf("AddSegment: %v", err)
	}
	l.AddEntrypoint(map[string]uint16{"PC": 0x0200})
	l.AddSymbol("start", 0x0200)

	data, err := l.LinkBinary()
	if err != nil {
		t.Fatalf("LinkBinary: %v", err)
	}

	cmds := decodeCmds(t, data)
	var segNames []string
	var entrypoints, symtabs int
	for _, c := range cmds {
		switch c.typ {
		case uint16(cmdSegment):
			name, _ := decodeLestring(c.payload[5:])
			segNames = append(segNames, name)
		case uint16(cmdEntrypoint):
			entrypoints++
		case uint16(cmdSymbols):
			symtabs++
		}
	}
	want := []string{"@PEG", "@TEXT", "@CONST", "@DATA", "@STACK"}
	if len(segNames) != len(want) {
		t.Fatalf("segment commands = %v, want %v", segNames, want)
	}
	for i, n := range want {
		if segNames[i] != n {
			t.Errorf("segment command %d = %q, want %q", i, segNames[i], n)
		}
	}
	if entrypoints != 1 || symtabs != 1 {
		t.Errorf("entrypoint/symtab commands = %d/%d, want 1/1", entrypoints, symtabs)
	}
}

// TestHeaderSegmentCommand checks that the header's own segment command
// reflects the rebuilt header contents: at least one present page and no
// absent pages.
func TestHeaderSegmentCommand(t *testing.T) {
	l := NewLinker(DefaultLayout())
	if err := l.AddSegment("@TEXT", 0x0200, 1, []byte{0xFF}); err != nil {
		t.Fatalf("AddSegment: %v", err)
	}
	data, err := l.LinkBinary()
	if err != nil {
		t.Fatalf("LinkBinary: %v", err)
	}
	cmds := decodeCmds(t, data)
	if len(cmds) == 0 || cmds[0].typ != uint16(cmdSegment) {
		t.Fatalf("first command is not a segment command")
	}
	p := cmds[0].payload
	vpage, present, absent := p[0], p[2], p[3]
	if vpage != 0x01 {
		t.Errorf("header virtual page = %#x, want 0x01", vpage)
	}
	if present < 1 {
		t.Errorf("header present pages = %d, want >= 1", present)
	}
	if absent != 0 {
		t.Errorf("header absent pages = %d, want 0", absent)
	}
}

// TestEntrypointDefaults checks the register defaults: A5 carries the
// fixed sentinel, RA the fixed return address, and SP/FP fall back to the
// top of the "@STACK" segment when the layout declares one.
func TestEntrypointDefaults(t *testing.T) {
	l := NewLinker(DefaultLayout())
	if err := l.AddSegment("@TEXT", 0x0200, 1, []byte{0xFF}); err != nil {
		t.Fatalf("AddSegment: %v", err)
	}
	l.AddEntrypoint(map[string]uint16{"PC": 0x0200})
	data, err := l.LinkBinary()
	if err != nil {
		t.Fatalf("LinkBinary: %v", err)
	}

	var entry []byte
	for _, c := range decodeCmds(t, data) {
		if c.typ == uint16(cmdEntrypoint) {
			entry = c.payload
		}
	}
	if entry == nil {
		t.Fatal("no entrypoint command in image")
	}
	reg := func(i int) uint16 { return uint16(entry[2*i]) | uint16(entry[2*i+1])<<8 }
	// Order: A0..A5, S0..S2, FP, SP, RA, RD, PC, DPC.
	if got := reg(5); got != 0xEA23 {
		t.Errorf("A5 = %#x, want 0xEA23", got)
	}
	if got := reg(11); got != 0xFF00 {
		t.Errorf("RA = %#x, want 0xFF00", got)
	}
	wantSP := uint16(0xFA00 + 0x400 - 2)
	if got := reg(10); got != wantSP {
		t.Errorf("SP = %#x, want %#x", got, wantSP)
	}
	if got := reg(9); got != wantSP {
		t.Errorf("FP = %#x, want %#x", got, wantSP)
	}
	if got := reg(13); got != 0x0200 {
		t.Errorf("PC = %#x, want 0x0200", got)
	}
}

func TestParseLayout(t *testing.T) {
	data := []byte(`{
		"default": "@ROM",
		"segments": [
			{"name": "@ROM", "prot": "rx", "vmaddr": "0x1000"},
			{"name": "@ROMDATA", "prot": "r", "vmsize": 256},
			{"name": "@SYS", "prot": "x", "vmaddr": 65280, "emit": false}
		],
		"entrypoints": ["@reset"]
	}`)
	l, err := ParseLayout(data)
	if err != nil {
		t.Fatalf("ParseLayout: %v", err)
	}
	if l.Default != "@ROM" || len(l.Segments) != 3 {
		t.Fatalf("layout = %+v", l)
	}
	if l.Segments[0].VMAddr == nil || *l.Segments[0].VMAddr != 0x1000 {
		t.Errorf("vmaddr string form not parsed: %+v", l.Segments[0])
	}
	if !l.Segments[0].Emit {
		t.Errorf("emit should default to true")
	}
	if l.Segments[1].VMSize == nil || *l.Segments[1].VMSize != 256 {
		t.Errorf("vmsize number form not parsed: %+v", l.Segments[1])
	}
	if l.Segments[2].Emit {
		t.Errorf("explicit \"emit\": false not honored")
	}
	if len(l.Entrypoints) != 1 || l.Entrypoints[0] != "@reset" {
		t.Errorf("entrypoints = %v", l.Entrypoints)
	}

	if _, err := ParseLayout([]byte(`{"segments": []}`)); err == nil {
		t.Error("empty segment list should be rejected")
	}
}

func TestRelocationCommand(t *testing.T) {
	l := NewLinker(DefaultLayout())
	if err := l.AddSegment("@TEXT", 0x0200, 1, []byte{0xFF}); err != nil {
		t.Fatalf("AddSegment: %v", err)
	}
	l.AddSymbol("target", 0x0204)
	if err := l.AddRelocation("target", 0x10); err != nil {
		t.Fatalf("AddRelocation: %v", err)
	}
	if err := l.AddRelocation("missing", 0); err == nil {
		t.Error("AddRelocation with an unknown symbol should fail")
	}
	data, err := l.LinkBinary()
	if err != nil {
		t.Fatalf("LinkBinary: %v", err)
	}
	var relocs []byte
	for _, c := range decodeCmds(t, data) {
		if c.typ == uint16(cmdRelocs) {
			relocs = c.payload
		}
	}
	if relocs == nil {
		t.Fatal("no relocation command in image")
	}
	if count := int(relocs[0]) | int(relocs[1])<<8; count != 1 {
		t.Fatalf("relocation count = %d, want 1", count)
	}
	symIndex := int(relocs[2]) | int(relocs[3])<<8
	fileOff := int(relocs[4]) | int(relocs[5])<<8
	if symIndex != 0 || fileOff != 0x10 {
		t.Errorf("relocation = (%d, %#x), want (0, 0x10)", symIndex, fileOff)
	}
}
