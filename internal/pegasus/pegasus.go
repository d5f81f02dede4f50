package pegasus

import (
	"encoding/binary"
	"fmt"
)

// Magic is the 8-byte PEGASUS file header magic: a non-ASCII sentinel byte
// followed by the literal "PEGASUS".
var Magic = [8]byte{0xE4, 'P', 'E', 'G', 'A', 'S', 'U', 'S'}

// DefaultArch is the architecture tag this assembler/linker targets.
const DefaultArch = "EAR3"

// cmdPad and symPad are the distinct padding sentinel bytes used to even
// out, respectively, a load command's total size and an individual symbol
// table entry's size.
const (
	cmdPad byte = 0xEA
	symPad byte = 0xE3
)

type cmdType uint16

const (
	cmdSegment    cmdType = 1
	cmdEntrypoint cmdType = 2
	cmdSymbols    cmdType = 3
	cmdRelocs     cmdType = 4
)

func le16(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

// p8 packs x into a single byte, failing if x does not fit an 8-bit
// signed-or-unsigned value.
func p8(x int) (byte, error) {
	if x>>8 != 0 && x>>8 != -1 {
		return 0, fmt.Errorf("value %d does not fit in 8 bits", x)
	}
	return byte(x), nil
}

// p16 packs x into a little-endian 16-bit field, failing if it does not
// fit.
func p16(x int) ([]byte, error) {
	if x>>16 != 0 && x>>16 != -1 {
		return nil, fmt.Errorf("value %d does not fit in 16 bits", x)
	}
	return le16(uint16(x)), nil
}

// packLestring encodes s as a "lestring": every byte has its high bit set
// except the last, which is emitted unmodified; the empty string encodes
// as the single byte 0x00.
func packLestring(s string) []byte {
	if len(s) == 0 {
		return []byte{0x00}
	}
	out := make([]byte, len(s))
	for i := 0; i < len(s)-1; i++ {
		out[i] = s[i] | 0x80
	}
	out[len(s)-1] = s[len(s)-1]
	return out
}

func cmdHeader(typ cmdType, payload []byte) []byte {
	size := 4 + len(payload)
	pad := size%2 != 0
	if pad {
		size++
	}
	buf := make([]byte, 0, size)
	buf = append(buf, le16(uint16(size))...)
	buf = append(buf, le16(uint16(typ))...)
	buf = append(buf, payload...)
	if pad {
		buf = append(buf, cmdPad)
	}
	return buf
}

// Segment is one named, page-aligned, protection-tagged region of the
// PEGASUS virtual address space.
type Segment struct {
	Name       string
	Prot       string
	VPage      int // virtual page number (vmaddr / PageSize), set by the Linker
	FilePage   int // 0 until assigned by Layout
	VMSize     int // virtual extent; 0 means "derive from Contents"
	Contents   []byte
	ShouldEmit bool
	IsHeader   bool

	symbols []*Symbol // symbols created via Add, fixed up at Layout time
}

// Add appends data to the segment and optionally returns a Symbol bound
// to the offset at which it was written.
func (s *Segment) Add(data []byte, name string) *Symbol {
	offset := len(s.Contents)
	s.Contents = append(s.Contents, data...)
	if name == "" {
		return nil
	}
	sym := &Symbol{Name: name, seg: s, offset: offset, bound: true}
	s.symbols = append(s.symbols, sym)
	return sym
}

func (s *Segment) effectiveVMSize() int {
	if s.VMSize > 0 {
		return s.VMSize
	}
	return len(s.Contents)
}

func trimTrailingZeros(b []byte) []byte {
	n := len(b)
	for n > 0 && b[n-1] == 0 {
		n--
	}
	return b[:n]
}

// Symbol names a value: either a literal or a location within a Segment,
// resolved (fixed up) once the segment's final virtual page is known.
type Symbol struct {
	Name  string
	Value uint16

	seg    *Segment
	offset int
	bound  bool
}

func (s *Symbol) fixup() {
	if s.bound {
		s.Value = uint16(s.seg.VPage*PageSize + s.offset)
	}
}

func (s *Symbol) data() []byte {
	s.fixup()
	buf := append(le16(s.Value), packLestring(s.Name)...)
	if len(buf)%2 != 0 {
		buf = append(buf, symPad)
	}
	return buf
}

// SymbolTable is the PEGASUS Symbols load command (type 3).
type SymbolTable struct {
	Syms []*Symbol
}

// Add registers a named value in the symbol table.
func (t *SymbolTable) Add(name string, value uint16) *Symbol {
	s := &Symbol{Name: name, Value: value}
	t.Syms = append(t.Syms, s)
	return s
}

// AddBound registers a symbol whose value tracks a segment offset.
func (t *SymbolTable) AddBound(s *Symbol) { t.Syms = append(t.Syms, s) }

func (t *SymbolTable) cmd() []byte {
	payload := le16(uint16(len(t.Syms)))
	for _, s := range t.Syms {
		payload = append(payload, s.data()...)
	}
	return cmdHeader(cmdSymbols, payload)
}

// entrypointOrder is the fixed 15-register order of the Entrypoint load
// command: every general register except ZERO.
var entrypointOrder = []string{
	"A0", "A1", "A2", "A3", "A4", "A5",
	"S0", "S1", "S2",
	"FP", "SP", "RA", "RD", "PC", "DPC",
}

// Entrypoint is the PEGASUS Entrypoint load command (type 2): the initial
// register values the VM must load before executing.
type Entrypoint struct {
	lits map[string]uint16
	syms map[string]*Symbol
}

// NewEntrypoint returns an Entrypoint with this repository's defaults: A5 loaded
// with a fixed sentinel, RA with a fixed return-to-monitor address, and
// every other register zero until overridden.
func NewEntrypoint() *Entrypoint {
	return &Entrypoint{
		lits: map[string]uint16{"A5": 0xEA23, "RA": 0xFF00},
		syms: map[string]*Symbol{},
	}
}

// Set assigns a literal value to a named entrypoint register.
func (e *Entrypoint) Set(reg string, value uint16) { e.lits[reg] = value }

// SetSymbol assigns a segment-relative symbol value to a named entrypoint
// register, resolved at Layout time.
func (e *Entrypoint) SetSymbol(reg string, sym *Symbol) { e.syms[reg] = sym }

// Has reports whether reg has been explicitly assigned (literal or
// symbolic).
func (e *Entrypoint) Has(reg string) bool {
	_, lit := e.lits[reg]
	_, sym := e.syms[reg]
	return lit || sym
}

func (e *Entrypoint) cmd() []byte {
	payload := make([]byte, 0, 30)
	for _, reg := range entrypointOrder {
		var v uint16
		if sym, ok := e.syms[reg]; ok {
			sym.fixup()
			v = sym.Value
		} else if lit, ok := e.lits[reg]; ok {
			v = lit
		}
		payload = append(payload, le16(v)...)
	}
	return cmdHeader(cmdEntrypoint, payload)
}

// Relocation is one entry of a RelocTable.
type Relocation struct {
	SymIndex   uint16
	FileOffset uint16
}

// RelocTable is the PEGASUS Relocs load command (type 4). It is never
// auto-generated: it is only emitted when the caller adds relocations.
type RelocTable struct {
	Relocs []Relocation
}

func (t *RelocTable) cmd() []byte {
	payload := le16(uint16(len(t.Relocs)))
	for _, r := range t.Relocs {
		payload = append(payload, le16(r.SymIndex)...)
		payload = append(payload, le16(r.FileOffset)...)
	}
	return cmdHeader(cmdRelocs, payload)
}

func segmentCmd(s *Segment) ([]byte, error) {
	vpage, err := p8(s.VPage)
	if err != nil {
		return nil, err
	}
	filePage, err := p8(s.FilePage)
	if err != nil {
		return nil, err
	}
	trimmed := trimTrailingZeros(s.Contents)
	totalPages := (s.effectiveVMSize() + PageSize - 1) / PageSize
	presentPages := (len(trimmed) + PageSize - 1) / PageSize
	absentPages := totalPages - presentPages
	if s.IsHeader {
		presentPages = totalPages
		absentPages = 0
	}
	pp, err := p8(presentPages)
	if err != nil {
		return nil, err
	}
	ap, err := p8(absentPages)
	if err != nil {
		return nil, err
	}
	payload := []byte{vpage, filePage, pp, ap, decodeProt(s.Prot)}
	payload = append(payload, packLestring(s.Name)...)
	return cmdHeader(cmdSegment, payload), nil
}

// Pegasus assembles a complete container image from a header segment,
// zero or more data segments, a symbol table, an optional entrypoint, and
// an optional relocation table.
type Pegasus struct {
	Arch string

	header   *Segment
	segments []*Segment
	symtab   *SymbolTable
	entry    *Entrypoint
	relocs   *RelocTable
}

// NewPegasus constructs an empty container targeting the given
// architecture tag (4 bytes; this repository's default is "EAR3").
func NewPegasus(arch string) *Pegasus {
	return &Pegasus{Arch: arch, symtab: &SymbolTable{}}
}

// AddSegment registers a non-header segment to be emitted. Segments are
// serialized in the order they are added.
func (p *Pegasus) AddSegment(s *Segment) error {
	if s.IsHeader {
		if p.header != nil {
			return fmt.Errorf("pegasus: only one header segment is allowed")
		}
		p.header = s
		return nil
	}
	p.segments = append(p.segments, s)
	return nil
}

// SetSymbolTable replaces the container's symbol table.
func (p *Pegasus) SetSymbolTable(t *SymbolTable) { p.symtab = t }

// SetEntrypoint attaches an Entrypoint command to the container.
func (p *Pegasus) SetEntrypoint(e *Entrypoint) { p.entry = e }

// SetRelocations attaches a RelocTable command to the container.
func (p *Pegasus) SetRelocations(t *RelocTable) { p.relocs = t }

// HeaderCmdsSize computes the load-command byte count the header segment
// must hold, without requiring final segment addresses: every command's
// size depends only on segment names, symbol names, and whether an
// entrypoint/reloc table is present — not on the values they resolve to.
// This lets the assembler learn how many pages the header will occupy
// before the header's own contents (and hence later segments' base
// addresses) are laid out.
func (p *Pegasus) HeaderCmdsSize() (int, error) {
	total := 0
	allSegs := p.segments
	if p.header != nil {
		allSegs = append([]*Segment{p.header}, allSegs...)
	}
	for _, s := range allSegs {
		if !s.IsHeader && !s.ShouldEmit {
			continue
		}
		cmd, err := segmentCmd(s)
		if err != nil {
			return 0, err
		}
		total += len(cmd)
	}
	if len(p.symtab.Syms) > 0 {
		total += len(p.symtab.cmd())
	}
	if p.entry != nil {
		total += len(p.entry.cmd())
	}
	if p.relocs != nil && len(p.relocs.Relocs) > 0 {
		total += len(p.relocs.cmd())
	}
	return total, nil
}

// layout assigns file pages to every segment and builds the header
// segment's contents (magic, arch, command count, and every load
// command), in the order: segment commands (header first, then the rest
// in declaration order), symbol table, entrypoint, relocations. Segments
// with emit disabled get neither a file page nor a load command.
func (p *Pegasus) layout() error {
	if p.header == nil {
		return fmt.Errorf("pegasus: no header segment registered")
	}

	// Size the header before laying anything out: a command's byte
	// length depends only on names and counts, never on the page values
	// it will carry.
	cmdsSize, err := p.HeaderCmdsSize()
	if err != nil {
		return err
	}
	headerSize := len(Magic) + 4 + 2 + cmdsSize
	if p.header.VMSize < headerSize {
		p.header.VMSize = headerSize
	}

	allSegs := append([]*Segment{p.header}, p.segments...)
	filePage := 0
	for _, s := range allSegs {
		s.FilePage = filePage
		if !s.IsHeader && !s.ShouldEmit {
			continue
		}
		trimmed := trimTrailingZeros(s.Contents)
		pages := (len(trimmed) + PageSize - 1) / PageSize
		if s.IsHeader {
			pages = (s.effectiveVMSize() + PageSize - 1) / PageSize
		}
		if pages == 0 && !s.IsHeader {
			continue // fully-empty segments occupy no file page
		}
		filePage += pages
	}

	var cmds [][]byte
	for _, s := range allSegs {
		if !s.IsHeader && !s.ShouldEmit {
			continue
		}
		cmd, err := segmentCmd(s)
		if err != nil {
			return err
		}
		cmds = append(cmds, cmd)
	}
	if len(p.symtab.Syms) > 0 {
		cmds = append(cmds, p.symtab.cmd())
	}
	if p.entry != nil {
		cmds = append(cmds, p.entry.cmd())
	}
	if p.relocs != nil && len(p.relocs.Relocs) > 0 {
		cmds = append(cmds, p.relocs.cmd())
	}

	var body []byte
	body = append(body, Magic[:]...)
	archBytes := [4]byte{}
	copy(archBytes[:], p.Arch)
	body = append(body, archBytes[:]...)
	body = append(body, le16(uint16(len(cmds)))...)
	for _, c := range cmds {
		body = append(body, c...)
	}
	p.header.Contents = body
	return nil
}

// Data serializes the final PEGASUS image: the header segment followed
// by every emitting segment, each padded to its page boundary, with
// fully-empty segments dropped entirely.
func (p *Pegasus) Data() ([]byte, error) {
	if err := p.layout(); err != nil {
		return nil, err
	}

	allSegs := append([]*Segment{p.header}, p.segments...)
	var out []byte
	for _, s := range allSegs {
		if !s.IsHeader && !s.ShouldEmit {
			continue
		}
		trimmed := trimTrailingZeros(s.Contents)
		if len(trimmed) == 0 && !s.IsHeader {
			continue
		}
		out = append(out, trimmed...)
		if pad := PageSize - len(trimmed)%PageSize; pad != PageSize {
			out = append(out, make([]byte, pad)...)
		}
	}
	return out, nil
}
