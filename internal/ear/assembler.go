// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ear

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/earasm/earasm/internal/pegasus"
)

// pageSize and pageCeil mirror pegasus.PageSize/PageCeil at EAR virtual
// address granularity.
const pageSize = 0x100

func pageCeil(addr int) int {
	return (addr + pageSize - 1) &^ (pageSize - 1)
}

// symbolEntry is a bound Symbol: either a Label,
// whose Value/CallDPC are fixed the moment it's bound in pass 1, or an
// Equate, whose Expr is evaluated lazily (and memoized by the expr node
// itself) the first time something asks for its value.
type symbolEntry struct {
	name    string
	loc     Location
	isLabel bool
	value   int
	calldpc int
	expr    *expr
}

func isAutoName(name string) bool {
	switch name {
	case "@", "@@", "@PC@", "@DPC@", "@AFTER@", "@END@":
		return true
	}
	return false
}

// isSpecialName reports a reserved suffix: every auto name and every
// segment-base/segment-end global label ends with "@", so this check
// alone is what guards them against user redefinition.
func isSpecialName(name string) bool {
	return strings.HasSuffix(name, "@") || strings.HasSuffix(name, "$")
}

func isLocalName(name string) bool {
	return strings.HasPrefix(name, "@.") || strings.HasPrefix(name, "$.")
}

// exportEntry is one ".export NAME[, EXTERNALNAME]" recorded by a Context;
// resolved to a concrete address only once assembly has finished (the
// referenced label may be defined later in the same segment).
type exportEntry struct {
	externalName string
	labelName    string
	loc          Location
}

// Context holds the per-segment state threaded through the two-pass
// assembly: a running location cursor (HERE/DPC/PC/
// MAX_ADDR), the local/global/auto symbol tables, and the list of AST
// items routed into this segment.
type Context struct {
	Name     string
	Prot     string
	VMAddr   *int
	VMSize   int
	Emit     bool
	Header   bool
	Sections []string

	items    []Item
	outItems []Item

	autoSymbols   map[string]*symbolEntry
	globalSymbols map[string]*symbolEntry
	scopes        []map[string]*symbolEntry
	scopeNumber   int

	exports []exportEntry

	vmaddr    int
	here      int
	dpc       int
	pc        int
	maxAddr   int
	afterAddr int

	asm *Assembler
}

func newContext(desc pegasus.SegmentDesc, asm *Assembler) *Context {
	c := &Context{
		Name:          desc.Name,
		Prot:          desc.Prot,
		VMSize:        0,
		Emit:          desc.Emit,
		Header:        desc.Header,
		Sections:      desc.Sections,
		autoSymbols:   map[string]*symbolEntry{},
		globalSymbols: map[string]*symbolEntry{},
		asm:           asm,
	}
	if desc.VMAddr != nil {
		c.VMAddr = desc.VMAddr
	}
	if desc.VMSize != nil {
		c.VMSize = *desc.VMSize
	}
	return c
}

// addAsmItem routes one parsed item into the segment, handling ".export"
// immediately (it has no size footprint and needs no pass-1 ordering).
func (c *Context) addAsmItem(item Item) error {
	if exp, ok := item.(*DirExport); ok {
		if !exp.HasExternalName {
			if isLocalName(exp.Name) {
				return &NameError{exp.LocV, exp.Name, "cannot export a local label"}
			}
			if isSpecialName(exp.Name) {
				return &NameError{exp.LocV, exp.Name, "cannot export a special label"}
			}
		}
		c.addExport(exportEntry{externalName: exp.ExternalName, labelName: exp.Name, loc: exp.LocV})
		return nil
	}
	c.items = append(c.items, item)
	return nil
}

func (c *Context) newScope() {
	m := map[string]*symbolEntry{}
	c.scopes = append(c.scopes, m)
	c.scopeNumber = len(c.scopes) - 1
}

func (c *Context) nextScope() {
	c.scopeNumber++
}

func (c *Context) currentScope() map[string]*symbolEntry {
	return c.scopes[c.scopeNumber]
}

// setLoc resets HERE (and, if given, DPC).
func (c *Context) setLoc(here int, dpc *int) {
	c.here = here
	if dpc != nil {
		c.dpc = *dpc
	}
	if here > c.maxAddr {
		c.maxAddr = here
	}
}

// setItemLen takes the byte length of the item about to be (or just)
// processed, computes PC (one past its last byte), and grows
// VMSize/@AFTER@ if this item reaches further than any previous one.
func (c *Context) setItemLen(curlen int) {
	c.pc = c.here + curlen*(1+c.dpc)
	if curlen > 0 {
		bytesTillEnd := 1 + (curlen-1)*(1+c.dpc)
		newEnd := c.here - c.vmaddr + bytesTillEnd
		if newEnd > c.VMSize {
			c.VMSize = newEnd
		}
		c.afterAddr = c.here + bytesTillEnd
	}
}

// afterAddr backs the "@AFTER@" auto name: the address directly after the
// last byte emitted so far, used by Assembler.AddInput's injected
// ".loc @AFTER@, 0" to resume each segment where a previous input left it.
// (declared alongside the other cursor fields in Context for clarity)

func (c *Context) advance(numbytes *int) {
	if numbytes == nil {
		c.setLoc(c.pc, &c.dpc)
	} else {
		c.setLoc(c.here+*numbytes*(c.dpc+1), nil)
	}
}

// addAutoLabel binds a synthetic auto-name symbol directly, bypassing the
// reserved-name and duplicate checks that guard user-defined symbols.
func (c *Context) addAutoLabel(name string, value, calldpc int) {
	c.autoSymbols[name] = &symbolEntry{name: name, isLabel: true, value: value, calldpc: calldpc}
}

// addGlobalLabel binds a synthetic global symbol (segment-base and
// segment-end labels) directly into this context's global table and
// forwards it to the assembler-wide table.
func (c *Context) addGlobalLabel(name string, value, calldpc int) error {
	sym := &symbolEntry{name: name, isLabel: true, value: value, calldpc: calldpc}
	c.globalSymbols[name] = sym
	if c.asm != nil {
		return c.asm.addGlobalSymbol(sym)
	}
	return nil
}

// addUserSymbol binds a user-defined Label or Equate, enforcing the
// reserved-name, scope-routing, and no-redefinition rules.
func (c *Context) addUserSymbol(name string, loc Location, isLabel bool, ex *expr) error {
	if isAutoName(name) || isSpecialName(name) {
		return &NameError{loc, name, "cannot redefine a reserved or auto symbol"}
	}
	entry := &symbolEntry{name: name, loc: loc, isLabel: isLabel, expr: ex}
	if isLabel {
		entry.value = c.here
		entry.calldpc = c.dpc
	}
	if isLocalName(name) {
		m := c.currentScope()
		if _, exists := m[name]; exists {
			return &NameError{loc, name, "symbol already defined in this scope"}
		}
		m[name] = entry
		return nil
	}
	if _, exists := c.globalSymbols[name]; exists {
		return &NameError{loc, name, "symbol already defined"}
	}
	c.globalSymbols[name] = entry
	if c.asm != nil {
		return c.asm.addGlobalSymbol(entry)
	}
	return nil
}

func (c *Context) addExport(e exportEntry) { c.exports = append(c.exports, e) }

// resolvedExports resolves every recorded export to its final (externalName,
// value) pair. Called only after assembly, once every label has a value.
func (c *Context) resolvedExports() ([]namedValue, error) {
	out := make([]namedValue, 0, len(c.exports))
	for _, e := range c.exports {
		v, _, known, err := c.resolveValue(e.labelName)
		if err != nil {
			return nil, err
		}
		if !known {
			return nil, &NameError{e.loc, e.labelName, "exported symbol never resolved"}
		}
		out = append(out, namedValue{e.externalName, v})
	}
	return out, nil
}

type namedValue struct {
	Name  string
	Value int
}

// resolveValue implements the resolver interface (expr.go) and the symbol
// lookup order: a ".DPC@" call-DPC suffix first, then auto names, local
// scope, this segment's global table, and the assembler-global table.
func (c *Context) resolveValue(name string) (int, bool, bool, error) {
	if strings.HasSuffix(name, ".DPC@") {
		base := name[:len(name)-len(".DPC@")]
		return c.resolveCallDPC(base)
	}

	switch name {
	case "@":
		return c.here, true, true, nil
	case "@@":
		return c.vmaddr, true, true, nil
	case "@PC@":
		return c.pc, true, true, nil
	case "@DPC@":
		return c.dpc, false, true, nil
	case "@AFTER@":
		return c.afterAddr, true, true, nil
	case "@END@":
		return c.maxAddr, true, true, nil
	}

	if isLocalName(name) {
		sym, ok := c.currentScope()[name]
		if !ok {
			return 0, false, false, &NameError{Location{}, name, "undefined local symbol"}
		}
		return c.symbolValue(sym)
	}

	if sym, ok := c.globalSymbols[name]; ok {
		return c.symbolValue(sym)
	}
	if c.asm != nil {
		return c.asm.resolve(name)
	}
	return 0, false, false, &NameError{Location{}, name, "undefined symbol"}
}

func (c *Context) symbolValue(sym *symbolEntry) (int, bool, bool, error) {
	if sym.isLabel {
		return sym.value, true, true, nil
	}
	ok, err := sym.expr.eval(c)
	if err != nil {
		return 0, false, false, err
	}
	if !ok {
		return 0, false, false, nil
	}
	return sym.expr.value, false, true, nil
}

func (c *Context) resolveCallDPC(name string) (int, bool, bool, error) {
	var sym *symbolEntry
	switch {
	case isAutoName(name):
		sym = c.autoSymbols[name]
	case isLocalName(name):
		sym = c.currentScope()[name]
	default:
		sym = c.globalSymbols[name]
		if sym == nil && c.asm != nil {
			if g, ok := c.asm.globalSymbols[name]; ok {
				sym = g
			}
		}
	}
	if sym == nil || !sym.isLabel {
		return 0, false, false, &NameError{Location{}, name, "not a label; has no call-DPC"}
	}
	return sym.calldpc, false, true, nil
}

// rewind resets the scope cursor and location cursor to the start of pass
// 2: the scope SEQUENCE built during pass 1 is
// replayed (via nextScope, never rebuilt) rather than pushed/popped again.
func (c *Context) rewind() {
	c.scopeNumber = -1
	c.nextScope()
	c.setLoc(c.vmaddr, nil)
	c.afterAddr = c.vmaddr
}

// prepare assigns this segment's concrete base address and initializes
// its cursor and auto-label set.
func (c *Context) prepare(nextaddr int) {
	if c.VMAddr != nil {
		c.vmaddr = *c.VMAddr
	} else {
		c.vmaddr = pageCeil(nextaddr)
	}
	c.maxAddr = c.vmaddr
	c.scopes = nil
	c.newScope()
	c.setLoc(c.vmaddr, intp(0))
	c.afterAddr = c.vmaddr
	c.addAutoLabel("@", c.vmaddr, 0)
	c.addAutoLabel("@PC@", c.vmaddr, 0)
	c.addAutoLabel("@DPC@", 0, 0)
	c.addAutoLabel("@AFTER@", c.vmaddr, 0)
	c.addAutoLabel("@END@", c.vmaddr, 0)
}

func intp(v int) *int { return &v }

// computeInternalLabels is pass 1 over this segment's item list: it fixes
// the segment's base address, binds every label/equate, replays location
// directives, and asks every emitting item its length, returning the
// virtual address immediately after the segment's content.
func (c *Context) computeInternalLabels(nextaddr int) (int, error) {
	c.prepare(nextaddr)

	// "@@" is per-segment; only the "<segname>@" alias is visible globally.
	c.addAutoLabel("@@", c.vmaddr, 0)
	if err := c.addGlobalLabel(c.Name+"@", c.vmaddr, 0); err != nil {
		return 0, err
	}

	var out []Item
	for _, item := range c.items {
		switch it := item.(type) {
		case *DirScope:
			c.newScope()
			out = append(out, it)

		case *DirLoc:
			ok, newPC, err := evalDirective(it.PC, c)
			if err != nil {
				return 0, err
			}
			if !ok {
				return 0, &NameError{it.LocV, "", ".loc target not resolvable in pass 1"}
			}
			var newDPC *int
			if it.DPC != nil {
				okd, v, err := evalDirective(it.DPC, c)
				if err != nil {
					return 0, err
				}
				if !okd {
					return 0, &NameError{it.LocV, "", ".loc dpc not resolvable in pass 1"}
				}
				newDPC = &v
			}
			c.setLoc(newPC, newDPC)
			out = append(out, it)

		case *DirAlign:
			ok, align, err := evalDirective(it.Align, c)
			if err != nil {
				return 0, err
			}
			if !ok || align <= 0 {
				return 0, &ValueError{it.LocV, "alignment must be a resolvable positive constant"}
			}
			newPC := (c.here + align - 1) / align * align
			c.setLoc(newPC, nil)
			out = append(out, it)

		case *DirAssert:
			out = append(out, it)

		case *DirSegment:
			return 0, fmt.Errorf("ear: internal error: .segment directive reached Context %q", c.Name)

		case *Label:
			if err := c.addUserSymbol(it.Name, it.LocV, true, nil); err != nil {
				return 0, err
			}

		case *Equate:
			if err := c.addUserSymbol(it.Name, it.LocV, false, it.Expr); err != nil {
				return 0, err
			}

		default:
			em, ok := item.(Emittable)
			if !ok {
				return 0, fmt.Errorf("ear: unhandled item type %T", item)
			}
			curlen, err := em.Len()
			if err != nil {
				return 0, err
			}
			c.setItemLen(curlen)
			nextaddr = c.here + 1 + (curlen-1)*(1+c.dpc)
			c.advance(nil)
			out = append(out, item)
		}
	}

	c.addAutoLabel("@END@", c.maxAddr, c.dpc)
	if err := c.addGlobalLabel(c.Name+".END@", c.maxAddr, c.dpc); err != nil {
		return 0, err
	}

	c.items = nil
	c.outItems = out
	c.rewind()

	return max(nextaddr, c.vmaddr+c.VMSize), nil
}

// evalDirective evaluates a ".loc"/".align" operand expression directly
// against the Context (no itemResolver wrapper: these directives have no
// byte length of their own, so "@"/"@PC@" must mean the Context's own live
// cursor, not a per-item-relative one).
func evalDirective(e *expr, r resolver) (bool, int, error) {
	ok, err := e.eval(r)
	if err != nil {
		return false, 0, err
	}
	if !ok {
		return false, 0, nil
	}
	return true, e.value, nil
}

// assemble is pass 2 over this segment: replay ".scope"/".loc"/".align"
// side effects, check every ".assert", and assemble every emitting item
// into a byte buffer covering vmaddr..vmaddr+VMSize.
func (c *Context) assemble() ([]byte, error) {
	data := make([]byte, c.VMSize)
	for _, item := range c.outItems {
		switch it := item.(type) {
		case *DirScope:
			c.nextScope()

		case *DirLoc:
			ok, newPC, err := evalDirective(it.PC, c)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, &NameError{it.LocV, "", ".loc target not resolvable"}
			}
			var newDPC *int
			if it.DPC != nil {
				okd, v, err := evalDirective(it.DPC, c)
				if err != nil {
					return nil, err
				}
				if !okd {
					return nil, &NameError{it.LocV, "", ".loc dpc not resolvable"}
				}
				newDPC = &v
			}
			c.setLoc(newPC, newDPC)

		case *DirAlign:
			ok, align, err := evalDirective(it.Align, c)
			if err != nil {
				return nil, err
			}
			if !ok || align <= 0 {
				return nil, &ValueError{it.LocV, "alignment must be a resolvable positive constant"}
			}
			newPC := (c.here + align - 1) / align * align
			c.setLoc(newPC, nil)

		case *DirAssert:
			if err := c.checkAssert(it); err != nil {
				return nil, err
			}

		default:
			em := item.(Emittable)
			curlen, err := em.Len()
			if err != nil {
				return nil, err
			}
			c.setItemLen(curlen)
			assembled, err := em.Assemble(c, c.here, c.dpc)
			if err != nil {
				return nil, err
			}
			if len(assembled) != curlen {
				return nil, fmt.Errorf("ear: internal error: %T assembled to %d bytes, predicted %d", item, len(assembled), curlen)
			}
			c.asm.srcmap.record(c.here, item.Loc())
			start := c.here - c.vmaddr
			step := 1 + c.dpc
			for i, b := range assembled {
				data[start+i*step] = b
			}
			c.advance(nil)
		}
	}
	return trimTrailingZeros(data), nil
}

func (c *Context) checkAssert(d *DirAssert) error {
	okL, lhs, err := evalDirective(d.Lhs, c)
	if err != nil {
		return err
	}
	okR, rhs, err := evalDirective(d.Rhs, c)
	if err != nil {
		return err
	}
	if !okL || !okR {
		return &NameError{d.LocV, "", ".assert operand not resolvable"}
	}
	var ok bool
	switch d.Cmp {
	case "==":
		ok = lhs == rhs
	case "!=":
		ok = lhs != rhs
	case "<":
		ok = lhs < rhs
	case "<=":
		ok = lhs <= rhs
	case ">":
		ok = lhs > rhs
	case ">=":
		ok = lhs >= rhs
	default:
		return fmt.Errorf("ear: unknown comparison operator %q", d.Cmp)
	}
	if !ok {
		return &AssertionFailure{d.LocV, fmt.Sprintf("%d %s %d", lhs, d.Cmp, rhs)}
	}
	return nil
}

func trimTrailingZeros(data []byte) []byte {
	n := len(data)
	for n > 0 && data[n-1] == 0 {
		n--
	}
	return data[:n]
}

// Assembler is the top-level driver: it owns every
// segment's Context, the search-path list used to resolve ".import", the
// idempotency set of already-imported files, and the assembler-global
// symbol table shared across all segments.
type Assembler struct {
	layout        pegasus.Layout
	searchPaths   []string
	dumpSymbols   io.Writer
	defaultSeg    string
	segments      []*Context
	segmap        map[string]*Context
	imported      map[string]bool
	globalSymbols map[string]*symbolEntry
	srcmap        *SourceMap
	trace         io.Writer // verbose output; nil disables it
}

// New constructs an Assembler whose segment set is fixed by layout.
// searchPaths are consulted (in order, after the importing file's own
// directory) when resolving ".import" targets. dumpSymbols, if non-nil,
// receives one line per global Label (auto names ending in "@" excepted,
// exported or not) as pass 1 of Assemble binds it, implementing the CLI's
// "--dump-symbols" option.
func New(layout pegasus.Layout, searchPaths []string, dumpSymbols io.Writer) (*Assembler, error) {
	a := &Assembler{
		layout:        layout,
		searchPaths:   searchPaths,
		dumpSymbols:   dumpSymbols,
		segmap:        map[string]*Context{},
		imported:      map[string]bool{},
		globalSymbols: map[string]*symbolEntry{},
		srcmap:        &SourceMap{},
	}
	for _, desc := range layout.Segments {
		seg := newContext(desc, a)
		a.segments = append(a.segments, seg)
		a.segmap[seg.Name] = seg
	}
	if len(a.segments) == 0 {
		return nil, fmt.Errorf("ear: layout declares no segments")
	}
	a.defaultSeg = layout.Default
	if a.defaultSeg == "" {
		a.defaultSeg = a.segments[0].Name
	}
	return a, nil
}

// SetTrace directs per-pass trace output to w; nil (the default) disables
// it.
func (a *Assembler) SetTrace(w io.Writer) {
	a.trace = w
}

// In trace mode, log a string.
func (a *Assembler) log(format string, args ...any) {
	if a.trace != nil {
		fmt.Fprintf(a.trace, format, args...)
		fmt.Fprintf(a.trace, "\n")
	}
}

// In trace mode, log a series of bytes with starting address.
func (a *Assembler) logBytes(addr int, b []byte) {
	if a.trace != nil {
		for i, n := 0, len(b); i < n; i += 8 {
			j := i + 8
			if j > n {
				j = n
			}
			a.log("%04X-*%s", addr+i, byteString(b[i:j]))
		}
	}
}

// In trace mode, log a section header.
func (a *Assembler) logSection(name string) {
	if a.trace != nil {
		fmt.Fprintln(a.trace, strings.Repeat("-", len(name)+6))
		fmt.Fprintf(a.trace, "-- %s --\n", name)
		fmt.Fprintln(a.trace, strings.Repeat("-", len(name)+6))
	}
}

const hexDigits = "0123456789ABCDEF"

// byteString returns a hexadecimal string representation of a byte slice.
func byteString(b []byte) string {
	if len(b) < 1 {
		return ""
	}
	s := make([]byte, len(b)*3-1)
	i, j := 0, 0
	for n := len(b) - 1; i < n; i, j = i+1, j+3 {
		s[j+0] = hexDigits[b[i]>>4]
		s[j+1] = hexDigits[b[i]&0x0f]
		s[j+2] = ' '
	}
	s[j+0] = hexDigits[b[i]>>4]
	s[j+1] = hexDigits[b[i]&0x0f]
	return string(s)
}

func (a *Assembler) addGlobalSymbol(sym *symbolEntry) error {
	if _, exists := a.globalSymbols[sym.name]; exists {
		return &NameError{sym.loc, sym.name, "cannot redefine global symbol"}
	}
	a.globalSymbols[sym.name] = sym
	if a.dumpSymbols == nil || strings.HasSuffix(sym.name, "@") || !sym.isLabel {
		return nil
	}
	fmt.Fprintf(a.dumpSymbols, "%s = 0x%X\n", sym.name, sym.value)
	return nil
}

func (a *Assembler) resolve(name string) (int, bool, bool, error) {
	sym, ok := a.globalSymbols[name]
	if !ok {
		return 0, false, false, &NameError{Location{}, name, "undefined symbol"}
	}
	if sym.isLabel {
		return sym.value, true, true, nil
	}
	ok2, err := sym.expr.eval(a)
	if err != nil || !ok2 {
		return 0, false, false, err
	}
	return sym.expr.value, false, true, nil
}

// resolveValue lets the Assembler itself satisfy the resolver interface,
// used when an Equate's defining expression (bound in one segment) is
// evaluated from another segment's context.
func (a *Assembler) resolveValue(name string) (int, bool, bool, error) {
	return a.resolve(name)
}

// search resolves an ".import" filename against the importer's own
// directory first, then each configured search path in order, mirroring
// Assembler.search.
func (a *Assembler) search(filename, cwd string) (string, error) {
	relpath := filename
	if cwd != "" {
		relpath = filepath.Join(cwd, filename)
	}
	if info, err := os.Stat(relpath); err == nil && !info.IsDir() {
		return filepath.Clean(relpath), nil
	}
	for _, dir := range a.searchPaths {
		full := filepath.Join(dir, filename)
		if info, err := os.Stat(full); err == nil && !info.IsDir() {
			return filepath.Clean(full), nil
		}
	}
	return "", fmt.Errorf("could not find import file in search path: %s (cwd=%q)", filename, cwd)
}

// AddInput parses asmstr and routes its items into their segments. filename
// (empty for anonymous/stdin input) both tags diagnostics and, when
// non-empty, guards re-entrant ".import" against double-inclusion via its
// absolute path.
func (a *Assembler) AddInput(asmstr, filename string) error {
	var asmdir string
	if filename != "" {
		asmdir = filepath.Dir(filename)
		abs, err := filepath.Abs(filename)
		if err != nil {
			return err
		}
		if a.imported[abs] {
			return nil
		}
		a.imported[abs] = true
	}

	items, err := parseSource(asmstr, filename)
	if err != nil {
		return err
	}

	for _, seg := range a.segments {
		zero := 0
		if err := seg.addAsmItem(&DirLoc{PC: &expr{op: opIdentifier, identifier: "@AFTER@"}, DPC: &expr{op: opNumber, value: zero, evaluated: true}}); err != nil {
			return err
		}
	}

	curseg := a.defaultSeg
	for _, item := range items {
		switch it := item.(type) {
		case *DirSegment:
			if _, ok := a.segmap[it.Name]; !ok {
				return &NameError{it.LocV, it.Name, "segment not defined in layout"}
			}
			curseg = it.Name

		case *DirImport:
			importPath, err := a.search(it.Path, asmdir)
			if err != nil {
				return &ImportError{it.LocV, it.Path}
			}
			if a.imported[importPath] {
				continue
			}
			contents, err := os.ReadFile(importPath)
			if err != nil {
				return &ImportError{it.LocV, it.Path}
			}
			if err := a.AddInput(string(contents), importPath); err != nil {
				return err
			}

		default:
			if err := a.segmap[curseg].addAsmItem(item); err != nil {
				return err
			}
		}
	}
	return nil
}

// SegmentResult is one entry of Assemble's return value: a fully assembled
// segment ready to hand to the linker.
type SegmentResult struct {
	Name   string
	VMAddr int
	VMSize int
	Data   []byte
}

// Assemble runs both passes over every segment and returns the assembled
// result of each, in layout order.
func (a *Assembler) Assemble() ([]SegmentResult, error) {
	a.srcmap = &SourceMap{}
	a.logSection("Pass 1")
	nextaddr := 0
	for _, seg := range a.segments {
		if seg.VMAddr != nil {
			nextaddr = *seg.VMAddr
		}
		var err error
		nextaddr, err = seg.computeInternalLabels(nextaddr)
		if err != nil {
			return nil, err
		}
		a.log("%-10s base=%04X vmsize=%d items=%d", seg.Name, seg.vmaddr, seg.VMSize, len(seg.outItems))
		nextaddr = pageCeil(nextaddr)
	}

	a.logSection("Pass 2")
	results := make([]SegmentResult, 0, len(a.segments))
	for _, seg := range a.segments {
		data, err := seg.assemble()
		if err != nil {
			return nil, err
		}
		if len(data) > 0 {
			a.log("%s:", seg.Name)
			a.logBytes(seg.vmaddr, data)
		}
		results = append(results, SegmentResult{Name: seg.Name, VMAddr: seg.vmaddr, VMSize: seg.VMSize, Data: data})
	}
	return results, nil
}

// Exports returns every (external name, resolved value) pair recorded by
// any segment's ".export" directives, across all segments, in segment
// declaration order. Must be called after Assemble.
func (a *Assembler) Exports() ([]namedValue, error) {
	var out []namedValue
	for _, seg := range a.segments {
		ex, err := seg.resolvedExports()
		if err != nil {
			return nil, err
		}
		out = append(out, ex...)
	}
	return out, nil
}

// ResolveEntrypoint tries each layout-declared entrypoint name in order,
// returning the first that resolves (its PC value and call-DPC), per the
// "entrypoints" list of the layout configuration.
func (a *Assembler) ResolveEntrypoint() (pc int, dpc int, ok bool) {
	for _, name := range a.layout.Entrypoints {
		sym, found := a.globalSymbols[name]
		if !found || !sym.isLabel {
			continue
		}
		return sym.value, sym.calldpc, true
	}
	return 0, 0, false
}
