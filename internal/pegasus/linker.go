package pegasus

import (
	"fmt"
	"io"
)

// Linker composes the segments produced by an assembler run, a symbol
// table, and an entrypoint register set into a final PEGASUS image.
type Linker struct {
	layout   Layout
	segments map[string]*Segment
	order    []string
	symtab   *SymbolTable
	entry    *Entrypoint
	relocs   *RelocTable
	trace    io.Writer // verbose output; nil disables it
}

// NewLinker constructs a Linker whose segment set is fixed by layout.
func NewLinker(layout Layout) *Linker {
	l := &Linker{
		layout:   layout,
		segments: map[string]*Segment{},
		symtab:   &SymbolTable{},
	}
	for _, sd := range layout.Segments {
		s := &Segment{Name: sd.Name, Prot: sd.Prot, ShouldEmit: sd.Emit, IsHeader: sd.Header}
		if sd.VMSize != nil {
			s.VMSize = *sd.VMSize
		}
		if sd.VMAddr != nil {
			s.VPage = *sd.VMAddr / PageSize
		}
		l.segments[sd.Name] = s
		l.order = append(l.order, sd.Name)
	}
	return l
}

// PrecomputeHeaderSize returns the byte size the header segment's load
// commands will occupy, without requiring final segment addresses or the
// final symbol/entrypoint set (see Pegasus.HeaderCmdsSize), letting the
// assembler learn how many pages the header needs before laying out the
// segment that follows it.
func (l *Linker) PrecomputeHeaderSize(withEntrypoint bool) (int, error) {
	peg := NewPegasus(DefaultArch)
	for _, name := range l.order {
		s := l.segments[name]
		placeholder := &Segment{Name: s.Name, Prot: s.Prot, IsHeader: s.IsHeader, ShouldEmit: s.ShouldEmit, VMSize: s.VMSize}
		if err := peg.AddSegment(placeholder); err != nil {
			return 0, err
		}
	}
	peg.SetSymbolTable(l.symtab)
	if withEntrypoint {
		peg.SetEntrypoint(NewEntrypoint())
	}
	cmdsSize, err := peg.HeaderCmdsSize()
	if err != nil {
		return 0, err
	}
	return len(Magic) + 4 + 2 + cmdsSize, nil
}

// AddSegment supplies the assembled contents of a declared segment. vmaddr
// must be page-aligned.
func (l *Linker) AddSegment(name string, vmaddr, vmsize int, data []byte) error {
	s, ok := l.segments[name]
	if !ok {
		return fmt.Errorf("pegasus: unknown segment %q", name)
	}
	if vmaddr%PageSize != 0 {
		return fmt.Errorf("pegasus: segment %q vmaddr %#x is not page-aligned", name, vmaddr)
	}
	s.VPage = vmaddr / PageSize
	s.VMSize = vmsize
	s.Contents = data
	return nil
}

// AddEntrypoint registers the initial register values for the Entrypoint
// command. If SP is not explicitly given and the layout declares a
// "@STACK" segment, SP defaults to the top of that segment (and FP
// defaults to SP if not given).
func (l *Linker) AddEntrypoint(regs map[string]uint16) {
	e := NewEntrypoint()
	for reg, v := range regs {
		e.Set(reg, v)
	}
	if !e.Has("SP") {
		if stack, ok := l.segments["@STACK"]; ok {
			top := stack.VPage*PageSize + stack.effectiveVMSize() - 2
			e.Set("SP", uint16(top))
			if !e.Has("FP") {
				e.Set("FP", uint16(top))
			}
		}
	}
	l.entry = e
}

// AddSymbol registers a named value in the output symbol table.
func (l *Linker) AddSymbol(name string, value uint16) {
	l.symtab.Add(name, value)
}

// AddRelocation registers a relocation entry against a previously added
// symbol, applied at the given byte offset of the output file. This is
// never called automatically; it exists purely for
// callers that need it.
func (l *Linker) AddRelocation(symbolName string, offset int) error {
	idx := -1
	for i, s := range l.symtab.Syms {
		if s.Name == symbolName {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("pegasus: unknown symbol %q in relocation", symbolName)
	}
	if l.relocs == nil {
		l.relocs = &RelocTable{}
	}
	l.relocs.Relocs = append(l.relocs.Relocs, Relocation{SymIndex: uint16(idx), FileOffset: uint16(offset)})
	return nil
}

// SetTrace directs per-segment layout trace output to w; nil (the
// default) disables it.
func (l *Linker) SetTrace(w io.Writer) {
	l.trace = w
}

func (l *Linker) log(format string, args ...any) {
	if l.trace != nil {
		fmt.Fprintf(l.trace, format, args...)
		fmt.Fprintf(l.trace, "\n")
	}
}

// LinkBinary emits every registered segment, the symbol table, the
// entrypoint (if any), and the relocation table (if any) as a single
// PEGASUS image.
func (l *Linker) LinkBinary() ([]byte, error) {
	peg := NewPegasus(DefaultArch)
	for _, name := range l.order {
		if err := peg.AddSegment(l.segments[name]); err != nil {
			return nil, err
		}
	}
	peg.SetSymbolTable(l.symtab)
	if l.entry != nil {
		peg.SetEntrypoint(l.entry)
	}
	if l.relocs != nil {
		peg.SetRelocations(l.relocs)
	}
	data, err := peg.Data()
	if err != nil {
		return nil, err
	}
	for _, name := range l.order {
		s := l.segments[name]
		if !s.IsHeader && !s.ShouldEmit {
			continue
		}
		l.log("%-10s vpage=%02X filepage=%02X prot=%s len=%d", s.Name, s.VPage, s.FilePage, s.Prot, len(s.Contents))
	}
	l.log("image: %d bytes, %d symbols", len(data), len(l.symtab.Syms))
	return data, nil
}
