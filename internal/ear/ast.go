package ear

// Item is one parsed line of a source file: a label, an equate, a
// directive, or (via pseudoGroup/Instruction) something that emits bytes.
type Item interface {
	Loc() Location
}

// Emittable is an Item that occupies space in the output segment. Pass 1
// calls Len to advance the location cursor; pass 2 calls Assemble once
// every symbol is known.
type Emittable interface {
	Item
	Len() (int, error)
	Assemble(r resolver, here, dpc int) ([]byte, error)
}

// Label defines a symbol equal to the current HERE address.
type Label struct {
	LocV Location
	Name string
}

func (i *Label) Loc() Location { return i.LocV }

// Equate defines a symbol bound to a lazily-evaluated expression rather
// than an address.
type Equate struct {
	LocV Location
	Name string
	Expr *expr
}

func (i *Equate) Loc() Location { return i.LocV }

// DirLoc implements ".loc PCExpr[, DPCExpr]": resets HERE (and optionally
// DPC) to new values.
type DirLoc struct {
	LocV Location
	PC   *expr
	DPC  *expr // nil: DPC unchanged
}

func (i *DirLoc) Loc() Location { return i.LocV }

// DirAlign implements ".align Expr": rounds HERE up to the next multiple
// of Expr. The skipped-over bytes stay zero in the segment buffer.
type DirAlign struct {
	LocV  Location
	Align *expr
}

func (i *DirAlign) Loc() Location { return i.LocV }

// DirSegment implements ".segment NAME": all following items until the
// next ".segment" (or end of file) are routed into the named output
// segment.
type DirSegment struct {
	LocV Location
	Name string
}

func (i *DirSegment) Loc() Location { return i.LocV }

// DirScope implements ".scope": starts a new local-name scope that runs to
// the next ".scope" or end of segment. Scopes form a growing sequence, not
// a push/pop stack — there is no matching "end scope" directive.
type DirScope struct {
	LocV Location
}

func (i *DirScope) Loc() Location { return i.LocV }

// DirExport implements ".export NAME[, EXTERNALNAME]". ExternalName
// defaults to Name when no second operand was given; HasExternalName
// records whether one was, since the export-name restriction on local and
// special labels is waived when the caller supplies an explicit external
// name.
type DirExport struct {
	LocV            Location
	Name            string
	ExternalName    string
	HasExternalName bool
}

func (i *DirExport) Loc() Location { return i.LocV }

// DirImport implements ".import PATH": splice another source file in at
// this point, subject to the search path and idempotency rules.
type DirImport struct {
	LocV Location
	Path string
}

func (i *DirImport) Loc() Location { return i.LocV }

// DirAssert implements ".assert Expr1 CMP Expr2[, MESSAGE]": a pass-2-only
// check with no size footprint.
type DirAssert struct {
	LocV    Location
	Lhs     *expr
	Cmp     string // one of "==" "!=" "<" "<=" ">" ">="
	Rhs     *expr
	Message string
}

func (i *DirAssert) Loc() Location { return i.LocV }

// DirData implements ".db" (Width==1) and ".dw" (Width==2): a list of
// expressions, each emitted as a little-endian value of the given width.
type DirData struct {
	LocV   Location
	Width  int
	Values []*expr
}

func (i *DirData) Loc() Location { return i.LocV }

func (i *DirData) Len() (int, error) { return len(i.Values) * i.Width, nil }

func (i *DirData) Assemble(r resolver, here, dpc int) ([]byte, error) {
	out := make([]byte, 0, len(i.Values)*i.Width)
	pos := here
	for _, v := range i.Values {
		ir := &itemResolver{r: r, here: pos, length: i.Width, dpc: dpc}
		val, err := evalTo(v, ir, i.Width*8)
		if err != nil {
			return nil, err
		}
		out = append(out, byte(val))
		if i.Width == 2 {
			out = append(out, byte(val>>8))
		}
		pos += i.Width * (1 + dpc)
	}
	return out, nil
}

// DirLEString implements ".lestring TEXT": the text is packed using the
// high-bit-terminated lestring encoding used elsewhere for PEGASUS symbol
// names, available here as a general data directive. The
// packed length always equals len(Text) (or 1 for an empty string).
type DirLEString struct {
	LocV Location
	Text string
}

func (i *DirLEString) Loc() Location { return i.LocV }

func (i *DirLEString) Len() (int, error) {
	if i.Text == "" {
		return 1, nil
	}
	return len(i.Text), nil
}

func (i *DirLEString) Assemble(r resolver, here, dpc int) ([]byte, error) {
	return leStringBytes(i.Text), nil
}

// leStringBytes packs s the same way internal/pegasus.packLestring does:
// every byte but the last has its high bit set; the last byte is emitted
// unmodified (an empty string becomes the single byte 0x00).
func leStringBytes(s string) []byte {
	if s == "" {
		return []byte{0x00}
	}
	b := []byte(s)
	out := make([]byte, len(b))
	for i := 0; i < len(b)-1; i++ {
		out[i] = b[i] | 0x80
	}
	out[len(b)-1] = b[len(b)-1]
	return out
}

// pseudoGroup wraps the one or more real Instructions a pseudo-instruction
// lowers to. Its Len/Assemble simply
// sequence the sub-instructions; the auto symbols ("@", "@PC@") each
// sub-instruction sees are computed relative to its own position within
// the group, not the group's start, so that e.g. ADR's embedded ADD sees
// the PC immediately following it.
type pseudoGroup struct {
	LocV Location
	Subs []*Instruction
}

func (p *pseudoGroup) Loc() Location { return p.LocV }

func (p *pseudoGroup) Len() (int, error) {
	total := 0
	for _, s := range p.Subs {
		l, err := s.Len()
		if err != nil {
			return 0, err
		}
		total += l
	}
	return total, nil
}

func (p *pseudoGroup) Assemble(r resolver, here, dpc int) ([]byte, error) {
	var out []byte
	pos := here
	for _, s := range p.Subs {
		l, err := s.Len()
		if err != nil {
			return nil, err
		}
		b, err := s.Assemble(r, pos, dpc)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
		pos += l * (1 + dpc)
	}
	return out, nil
}
