// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ear

// stmtParser turns one source file's cleaned line stream into a list of
// Items. One instance is used per parseSource call; its embedded
// exprParser is reused across every constexpr/vallist/vy sub-expression on
// every line.
//
// The grammar is hand-written recursive descent, organized as a
// line-oriented parser; one physical line may hold several statements,
// e.g. "@loop: MOV R1, R2". Label, equate, and segment names keep their
// leading sigil ('@' or '$'), since every consumer (isLocalName, Context's
// scope maps, pegasus.SegmentDesc.Name) expects it to be present.
type stmtParser struct {
	file string
	ep   exprParser
}

// parseSource is the package's sole entry point into this file; it is
// Assembler.AddInput's one compile-time dependency.
func parseSource(asmstr, filename string) ([]Item, error) {
	p := &stmtParser{file: filename}
	p.ep.file = filename

	var items []Item
	for _, line := range splitLines(asmstr) {
		for {
			line = line.skipSpace()
			if line.empty() {
				break
			}
			item, remain, err := p.parseStatement(line)
			if err != nil {
				return nil, err
			}
			if item != nil {
				items = append(items, item)
			}
			line = remain
		}
	}
	return items, nil
}

func (p *stmtParser) parseStatement(line span) (Item, span, error) {
	switch {
	case line.headChar('@'):
		return p.parseLabelDef(line)
	case line.headChar('$'):
		return p.parseEquateDef(line)
	case line.headChar('.'):
		return p.parseDirective(line)
	default:
		return p.parseInstruction(line)
	}
}

//
// labels, equates
//

func (p *stmtParser) parseLabelDef(line span) (Item, span, error) {
	loc := locAt(p.file, line)
	name, remain, ok := consumeSigilName(line)
	if !ok {
		return nil, line, &SyntaxError{loc, "expected label name"}
	}
	remain = remain.skipSpace()
	if !remain.headChar(':') {
		return nil, remain, &SyntaxError{locAt(p.file, remain), "expected ':' after label name"}
	}
	return &Label{LocV: loc, Name: name}, remain.skip(1), nil
}

func (p *stmtParser) parseEquateDef(line span) (Item, span, error) {
	loc := locAt(p.file, line)
	name, remain, ok := consumeSigilName(line)
	if !ok {
		return nil, line, &SyntaxError{loc, "expected equate name"}
	}
	remain = remain.skipSpace()
	if !remain.hasPrefix(":=") {
		return nil, remain, &SyntaxError{locAt(p.file, remain), "expected ':=' after equate name"}
	}
	remain = remain.skip(2).skipSpace()
	e, remain2, err := p.ep.parse(remain)
	if err != nil {
		return nil, remain2, err
	}
	return &Equate{LocV: loc, Name: name, Expr: e}, remain2, nil
}

//
// directives
//

func (p *stmtParser) parseDirective(line span) (Item, span, error) {
	loc := locAt(p.file, line)
	rest := line.skip(1) // '.'
	word, remain := rest.splitWhile(identifierChar)
	if word.empty() {
		return nil, remain, &SyntaxError{loc, "expected directive name after '.'"}
	}
	switch word.text {
	case "db":
		return p.parseDirData(loc, remain, 1)
	case "dw":
		return p.parseDirData(loc, remain, 2)
	case "lestring":
		return p.parseDirLEString(loc, remain)
	case "loc":
		return p.parseDirLoc(loc, remain)
	case "align":
		return p.parseDirAlign(loc, remain)
	case "segment":
		return p.parseDirSegment(loc, remain)
	case "scope":
		return &DirScope{LocV: loc}, remain, nil
	case "export":
		return p.parseDirExport(loc, remain)
	case "import":
		return p.parseDirImport(loc, remain)
	case "assert":
		return p.parseDirAssert(loc, remain)
	default:
		return nil, remain, &SyntaxError{loc, "unknown directive ." + word.text}
	}
}

func (p *stmtParser) parseDirData(loc Location, rest span, width int) (Item, span, error) {
	rest = rest.skipSpace()
	if rest.headChar('"') {
		s, remain, err := p.parseStringExpr(rest)
		if err != nil {
			return nil, remain, err
		}
		values := make([]*expr, len(s))
		for i := 0; i < len(s); i++ {
			values[i] = &expr{op: opNumber, value: int(s[i]), evaluated: true, loc: loc}
		}
		return &DirData{LocV: loc, Width: width, Values: values}, remain, nil
	}
	values, remain, err := p.parseExprList(rest)
	if err != nil {
		return nil, remain, err
	}
	return &DirData{LocV: loc, Width: width, Values: values}, remain, nil
}

func (p *stmtParser) parseDirLEString(loc Location, rest span) (Item, span, error) {
	rest = rest.skipSpace()
	s, remain, err := p.parseStringExpr(rest)
	if err != nil {
		return nil, remain, err
	}
	return &DirLEString{LocV: loc, Text: s}, remain, nil
}

func (p *stmtParser) parseDirLoc(loc Location, rest span) (Item, span, error) {
	rest = rest.skipSpace()
	pc, remain, err := p.ep.parse(rest)
	if err != nil {
		return nil, remain, err
	}
	d := &DirLoc{LocV: loc, PC: pc}
	after := remain.skipSpace()
	if after.headChar(',') {
		after = after.skip(1).skipSpace()
		dpc, remain2, err := p.ep.parse(after)
		if err != nil {
			return nil, remain2, err
		}
		d.DPC = dpc
		return d, remain2, nil
	}
	return d, remain, nil
}

func (p *stmtParser) parseDirAlign(loc Location, rest span) (Item, span, error) {
	rest = rest.skipSpace()
	align, remain, err := p.ep.parse(rest)
	if err != nil {
		return nil, remain, err
	}
	return &DirAlign{LocV: loc, Align: align}, remain, nil
}

func (p *stmtParser) parseDirSegment(loc Location, rest span) (Item, span, error) {
	rest = rest.skipSpace()
	name, remain, err := p.parseLabelRefName(rest)
	if err != nil {
		return nil, remain, err
	}
	return &DirSegment{LocV: loc, Name: name}, remain, nil
}

func (p *stmtParser) parseDirExport(loc Location, rest span) (Item, span, error) {
	rest = rest.skipSpace()
	name, remain, err := p.parseLabelRefName(rest)
	if err != nil {
		return nil, remain, err
	}
	d := &DirExport{LocV: loc, Name: name, ExternalName: name}
	after := remain.skipSpace()
	if after.headChar(',') {
		after = after.skip(1).skipSpace()
		ext, remain2, err := p.parseStringExpr(after)
		if err != nil {
			return nil, remain2, err
		}
		d.ExternalName = ext
		d.HasExternalName = true
		return d, remain2, nil
	}
	return d, remain, nil
}

func (p *stmtParser) parseDirImport(loc Location, rest span) (Item, span, error) {
	rest = rest.skipSpace()
	path, remain, err := p.parseStringExpr(rest)
	if err != nil {
		return nil, remain, err
	}
	return &DirImport{LocV: loc, Path: path}, remain, nil
}

func (p *stmtParser) parseDirAssert(loc Location, rest span) (Item, span, error) {
	rest = rest.skipSpace()
	lhs, remain, err := p.ep.parse(rest)
	if err != nil {
		return nil, remain, err
	}
	remain = remain.skipSpace()
	cmp, remain2, err := p.parseCmpOp(remain)
	if err != nil {
		return nil, remain2, err
	}
	remain2 = remain2.skipSpace()
	rhs, remain3, err := p.ep.parse(remain2)
	if err != nil {
		return nil, remain3, err
	}
	d := &DirAssert{LocV: loc, Lhs: lhs, Cmp: cmp, Rhs: rhs}
	after := remain3.skipSpace()
	if after.headChar(',') {
		after = after.skip(1).skipSpace()
		msg, remain4, err := p.parseStringExpr(after)
		if err != nil {
			return nil, remain4, err
		}
		d.Message = msg
		return d, remain4, nil
	}
	return d, remain3, nil
}

func (p *stmtParser) parseCmpOp(line span) (string, span, error) {
	for _, op := range []string{"==", "!=", "<=", ">=", "<", ">"} {
		if line.hasPrefix(op) {
			return op, line.skip(len(op)), nil
		}
	}
	return "", line, &SyntaxError{locAt(p.file, line), "expected comparison operator"}
}

//
// strings
//

// parseStringExpr implements "stringexpr : STRING | stringexpr PLUS STRING":
// one or more double-quoted literals joined by '+'.
func (p *stmtParser) parseStringExpr(line span) (string, span, error) {
	s, remain, err := p.parseStringLiteral(line)
	if err != nil {
		return "", remain, err
	}
	for {
		next := remain.skipSpace()
		if !next.headChar('+') {
			break
		}
		next = next.skip(1).skipSpace()
		if !next.headChar('"') {
			break
		}
		s2, remain2, err := p.parseStringLiteral(next)
		if err != nil {
			return "", remain2, err
		}
		s += s2
		remain = remain2
	}
	return s, remain, nil
}

// parseStringLiteral accepts the escapes of parseCharLiteral (expr.go),
// with \" in place of \': \\, \", \0, \a, \f, \v, \t, \r, \n.
func (p *stmtParser) parseStringLiteral(line span) (string, span, error) {
	loc := locAt(p.file, line)
	if !line.headChar('"') {
		return "", line, &SyntaxError{loc, "expected string literal"}
	}
	rest := line.skip(1)
	var b []byte
	for {
		if rest.empty() {
			return "", rest, &LexicalError{locAt(p.file, rest), "unterminated string literal"}
		}
		c := rest.text[0]
		if c == '"' {
			return string(b), rest.skip(1), nil
		}
		if c == '\\' {
			if len(rest.text) < 2 {
				return "", rest, &LexicalError{locAt(p.file, rest), "invalid escape in string literal"}
			}
			var v byte
			switch rest.text[1] {
			case '\\':
				v = '\\'
			case '"':
				v = '"'
			case '0':
				v = 0
			case 'a':
				v = 7
			case 'f':
				v = 12
			case 'v':
				v = 11
			case 't':
				v = 9
			case 'r':
				v = 13
			case 'n':
				v = 10
			default:
				return "", rest, &LexicalError{locAt(p.file, rest), "unknown escape in string literal"}
			}
			b = append(b, v)
			rest = rest.skip(2)
			continue
		}
		b = append(b, c)
		rest = rest.skip(1)
	}
}

func (p *stmtParser) parseExprList(line span) ([]*expr, span, error) {
	e, remain, err := p.ep.parse(line)
	if err != nil {
		return nil, remain, err
	}
	out := []*expr{e}
	for {
		next := remain.skipSpace()
		if !next.headChar(',') {
			break
		}
		next = next.skip(1).skipSpace()
		e2, remain2, err := p.ep.parse(next)
		if err != nil {
			return nil, remain2, err
		}
		out = append(out, e2)
		remain = remain2
	}
	return out, remain, nil
}

//
// registers, control registers, labelrefs, regsets
//

// parseRegWord consumes a bare register word (no leading '!'); allowDPC
// gates whether "DPC" itself is an acceptable spelling here (reg_normal)
// or not (ry_normal). On failure it returns the untouched input.
func parseRegWord(line span, allowDPC bool) (Register, span, bool) {
	word, remain := line.splitWhile(identifierChar)
	if word.empty() {
		return 0, line, false
	}
	reg, ok := registerNames[word.text]
	if !ok || (reg == DPC && !allowDPC) {
		return 0, line, false
	}
	return reg, remain, true
}

// parseReg implements "reg : reg_normal | reg_cross" (DPC allowed, '!'
// cross marker allowed).
func (p *stmtParser) parseReg(line span) (regOperand, span, error) {
	loc := locAt(p.file, line)
	if line.headChar('!') {
		reg, remain, ok := parseRegWord(line.skip(1), true)
		if !ok {
			return regOperand{}, line, &SyntaxError{loc, "expected register name"}
		}
		return regOperand{reg: reg, cross: true}, remain, nil
	}
	reg, remain, ok := parseRegWord(line, true)
	if !ok {
		return regOperand{}, line, &SyntaxError{loc, "expected register name"}
	}
	return regOperand{reg: reg}, remain, nil
}

// parseRy implements "ry : ry_normal | reg_cross" (DPC excluded unless
// cross-tagged), used only by SWP's operands.
func (p *stmtParser) parseRy(line span) (regOperand, span, error) {
	loc := locAt(p.file, line)
	if line.headChar('!') {
		reg, remain, ok := parseRegWord(line.skip(1), true)
		if !ok {
			return regOperand{}, line, &SyntaxError{loc, "expected register name"}
		}
		return regOperand{reg: reg, cross: true}, remain, nil
	}
	reg, remain, ok := parseRegWord(line, false)
	if !ok {
		return regOperand{}, line, &SyntaxError{loc, "expected register name"}
	}
	return regOperand{reg: reg}, remain, nil
}

// parseVy implements "vy : vy_normal | reg_cross": a plain ry_normal
// register, a constexpr, or (only when '!'-tagged) any register including
// DPC.
func (p *stmtParser) parseVy(line span) (value16, span, error) {
	loc := locAt(p.file, line)
	if line.headChar('!') {
		reg, remain, ok := parseRegWord(line.skip(1), true)
		if !ok {
			return value16{}, line, &SyntaxError{loc, "expected register name"}
		}
		return value16{isReg: true, reg: regOperand{reg: reg, cross: true}}, remain, nil
	}
	if line.headIs(isAlpha) {
		if reg, remain, ok := parseRegWord(line, false); ok {
			return value16{isReg: true, reg: regOperand{reg: reg}}, remain, nil
		}
	}
	e, remain, err := p.ep.parse(line)
	if err != nil {
		return value16{}, remain, err
	}
	return value16{expr: e}, remain, nil
}

// parseVyNormal implements "vy_normal : ry_normal | constexpr" (no cross
// registers at all), used by BRA/FCA's explicit and implied forms.
func (p *stmtParser) parseVyNormal(line span) (value16, span, error) {
	if line.headIs(isAlpha) {
		if reg, remain, ok := parseRegWord(line, false); ok {
			return value16{isReg: true, reg: regOperand{reg: reg}}, remain, nil
		}
	}
	e, remain, err := p.ep.parse(line)
	if err != nil {
		return value16{}, remain, err
	}
	return value16{expr: e}, remain, nil
}

// parseCReg implements "creg : creg_normal | creg_cross": a '!' cross
// marker tags the control register as belonging to the second bank, the
// same way it does for plain registers.
func (p *stmtParser) parseCReg(line span) (value16, span, error) {
	loc := locAt(p.file, line)
	cross := false
	rest := line
	if rest.headChar('!') {
		cross = true
		rest = rest.skip(1)
	}
	word, remain := rest.splitWhile(identifierChar)
	cr, ok := controlRegisterNames[word.text]
	if !ok {
		return value16{}, line, &SyntaxError{loc, "expected control register name"}
	}
	return value16{isCR: true, cr: cr, crCross: cross}, remain, nil
}

// parseLabelRefName implements "labelref : LABEL", returning the raw
// sigil-bearing name for directives (.segment, .export) that need the
// string rather than an expression node.
func (p *stmtParser) parseLabelRefName(line span) (string, span, error) {
	loc := locAt(p.file, line)
	if !line.headChar('@') {
		return "", line, &SyntaxError{loc, "expected label name"}
	}
	name, remain, _ := consumeSigilName(line)
	return name, remain, nil
}

func (p *stmtParser) parseLabelRef(line span) (*expr, span, error) {
	loc := locAt(p.file, line)
	name, remain, err := p.parseLabelRefName(line)
	if err != nil {
		return nil, remain, err
	}
	return &expr{op: opIdentifier, identifier: name, loc: loc}, remain, nil
}

// parseRegset implements "regset : regset_normal | regset_cross",
// "regset_normal : LBRACE regrangelist RBRACE", and "regrange :
// reg_normal DASH reg_normal | reg_normal", expanding ranges and
// de-duplicating members.
func (p *stmtParser) parseRegset(line span) ([]regOperand, span, error) {
	loc := locAt(p.file, line)
	cross := false
	rest := line
	if rest.headChar('!') {
		cross = true
		rest = rest.skip(1)
	}
	if !rest.headChar('{') {
		return nil, line, &SyntaxError{loc, "expected '{'"}
	}
	rest = rest.skip(1).skipSpace()

	seen := map[Register]bool{}
	var out []regOperand
	for {
		lo, r1, ok := parseRegWord(rest, true)
		if !ok {
			return nil, rest, &SyntaxError{locAt(p.file, rest), "expected register name"}
		}
		hi := lo
		r1w := r1.skipSpace()
		if r1w.headChar('-') {
			r2 := r1w.skip(1).skipSpace()
			hiReg, r3, ok := parseRegWord(r2, true)
			if !ok {
				return nil, r2, &SyntaxError{locAt(p.file, r2), "expected register name"}
			}
			if hiReg < lo {
				return nil, rest, &SyntaxError{locAt(p.file, rest), "register range high bound can't be lower than low bound"}
			}
			hi, rest = hiReg, r3
		} else {
			rest = r1w
		}
		for reg := lo; reg <= hi; reg++ {
			if !seen[reg] {
				seen[reg] = true
				out = append(out, regOperand{reg: reg, cross: cross})
			}
		}
		rest = rest.skipSpace()
		if rest.headChar(',') {
			rest = rest.skip(1).skipSpace()
			continue
		}
		break
	}
	if !rest.headChar('}') {
		return nil, rest, &SyntaxError{locAt(p.file, rest), "expected '}'"}
	}
	return out, rest.skip(1), nil
}

//
// instruction mnemonics and condition codes
//

var pseudoMnemonics = map[string]bool{
	"RET": true, "DEC": true, "NEG": true, "INV": true,
	"ADR": true, "SWP": true, "ADC": true, "SBC": true,
}

var directiveNames = map[string]bool{
	"db": true, "dw": true, "lestring": true, "loc": true,
	"align": true, "segment": true, "scope": true, "export": true,
	"import": true, "assert": true,
}

func isKnownMnemonic(m string) bool {
	if _, ok := opcodeTable[m]; ok {
		return true
	}
	return pseudoMnemonics[m]
}

// ccWords is the user-facing condition-code-suffix word table: every
// spelling a ".CC" source suffix may use. "SP" is deliberately absent;
// isa.go's conditionCodes/conditionInverses tables still carry it
// internally (paired with "AL"), but it is never a legal explicit ".SP"
// suffix in source.
var ccWords = map[string]string{
	"EQ": "EQ", "ZR": "EQ",
	"NE": "NE", "NZ": "NE",
	"GT": "GT",
	"LE": "LE",
	"LT": "LT", "CC": "LT",
	"GE": "GE", "CS": "GE",
	"AL": "AL",
	"NG": "NG",
	"PS": "PS",
	"BG": "BG",
	"SE": "SE",
	"SM": "SM",
	"BE": "BE",
	"OD": "OD",
	"EV": "EV",
}

func (p *stmtParser) parseInstruction(line span) (Item, span, error) {
	loc := locAt(p.file, line)
	word, rest := line.splitWhile(identifierChar)
	if word.empty() {
		return nil, line, &SyntaxError{loc, "expected instruction"}
	}
	mnemonic := word.text
	flags := flagDefault

	// Strip a trailing F/Y/N toggle-flags/force-flags suffix
	// (e.g. "MOVF", "ADDY", "SUBN").
	if !isKnownMnemonic(mnemonic) && len(mnemonic) == 4 {
		base := mnemonic[:3]
		if isKnownMnemonic(base) {
			switch mnemonic[3] {
			case 'F':
				mnemonic, flags = base, flagToggle
			case 'Y':
				mnemonic, flags = base, flagForceYes
			case 'N':
				mnemonic, flags = base, flagForceNo
			}
		}
	}
	if !isKnownMnemonic(mnemonic) {
		return nil, rest, &SyntaxError{loc, "unknown mnemonic " + word.text}
	}

	cc := "AL"
	ccProbe := rest.skipSpace()
	if ccProbe.headChar('.') {
		ccLoc := locAt(p.file, ccProbe)
		ccProbe2 := ccProbe.skip(1).skipSpace()
		ccWord, ccRemain := ccProbe2.splitWhile(identifierChar)
		if name, ok := ccWords[ccWord.text]; ok {
			cc = name
			rest = ccRemain
		} else if !directiveNames[ccWord.text] {
			// A directive starting right after a bare mnemonic belongs
			// to the next statement; anything else is a bad suffix.
			return nil, ccRemain, &SyntaxError{ccLoc, "unknown condition code ." + ccWord.text}
		}
	}
	rest = rest.skipSpace()

	switch mnemonic {
	case "ADD", "SUB", "MLU", "MLS", "DVU", "DVS", "XOR", "AND", "ORR":
		return p.parseRxyFamily(loc, mnemonic, cc, flags, rest)
	case "SHL", "SRU", "SRS":
		return p.parseShiftFamily(loc, mnemonic, cc, flags, rest)
	case "MOV", "CMP":
		return p.parseMovCmp(loc, mnemonic, cc, flags, rest)
	case "RDC":
		return p.parseRdc(loc, cc, flags, rest)
	case "WRC":
		return p.parseWrc(loc, cc, flags, rest)
	case "LDW", "LDB":
		return p.parseLoad(loc, mnemonic, cc, flags, rest)
	case "STW", "STB":
		return p.parseStore(loc, mnemonic, cc, flags, rest)
	case "BRA", "FCA":
		return p.parseBraFca(loc, mnemonic, cc, flags, rest)
	case "BRR", "FCR":
		return p.parseBrrFcr(loc, mnemonic, cc, flags, rest)
	case "RDB":
		return p.parseRdb(loc, cc, flags, rest)
	case "WRB":
		return p.parseWrb(loc, cc, flags, rest)
	case "PSH", "POP":
		return p.parsePshPop(loc, mnemonic, cc, flags, rest)
	case "INC":
		return p.parseIncDec(loc, "INC", cc, flags, rest)
	case "BPT", "HLT", "NOP":
		return &Instruction{LocV: loc, Mnemonic: mnemonic, CC: cc, Flags: flags}, rest, nil
	case "RET":
		return lowerRet(loc, cc), rest, nil
	case "DEC":
		return p.parseIncDec(loc, "DEC", cc, flags, rest)
	case "NEG", "INV":
		return p.parseNegInv(loc, mnemonic, cc, flags, rest)
	case "ADR":
		return p.parseAdr(loc, cc, flags, rest)
	case "SWP":
		return p.parseSwp(loc, cc, flags, rest)
	case "ADC", "SBC":
		return p.parseAdcSbc(loc, mnemonic == "ADC", cc, rest)
	default:
		return nil, rest, &SyntaxError{loc, "unhandled mnemonic " + mnemonic}
	}
}

//
// generic Rxy operand family: ADD/SUB/MLU/MLS/DVU/DVS/XOR/AND/ORR/ADC/SBC
//

// parseRdxyOperands implements the three "rdxy" operand shapes: "Rx, Vy",
// "Rd, Rx, Vy", and "Rdx:Rd, Rx, Vy" (with the Rdx/Rd cross-consistency
// check).
func (p *stmtParser) parseRdxyOperands(rest span) (rdx, rd *regOperand, rx regOperand, vy value16, remain span, err error) {
	first, r1, err := p.parseReg(rest)
	if err != nil {
		return nil, nil, regOperand{}, value16{}, r1, err
	}
	r1w := r1.skipSpace()

	if r1w.headChar(':') {
		r2 := r1w.skip(1).skipSpace()
		rdReg, r3, err := p.parseReg(r2)
		if err != nil {
			return nil, nil, regOperand{}, value16{}, r3, err
		}
		if rdReg.cross && !first.cross {
			return nil, nil, regOperand{}, value16{}, r3, &SyntaxError{locAt(p.file, r2), "Rdx and Rd can only both be cross or both be normal"}
		}
		if first.cross {
			rdReg.cross = true
		}
		r3 = r3.skipSpace()
		if !r3.headChar(',') {
			return nil, nil, regOperand{}, value16{}, r3, &SyntaxError{locAt(p.file, r3), "expected ','"}
		}
		r4 := r3.skip(1).skipSpace()
		rxReg, r5, err := p.parseReg(r4)
		if err != nil {
			return nil, nil, regOperand{}, value16{}, r5, err
		}
		r5 = r5.skipSpace()
		if !r5.headChar(',') {
			return nil, nil, regOperand{}, value16{}, r5, &SyntaxError{locAt(p.file, r5), "expected ','"}
		}
		r6 := r5.skip(1).skipSpace()
		vyv, r7, err := p.parseVy(r6)
		if err != nil {
			return nil, nil, regOperand{}, value16{}, r7, err
		}
		rdxCopy, rdCopy := first, rdReg
		return &rdxCopy, &rdCopy, rxReg, vyv, r7, nil
	}

	if !r1w.headChar(',') {
		return nil, nil, regOperand{}, value16{}, r1w, &SyntaxError{locAt(p.file, r1w), "expected ','"}
	}
	r2 := r1w.skip(1).skipSpace()
	second, r3, err := p.parseVy(r2)
	if err != nil {
		return nil, nil, regOperand{}, value16{}, r3, err
	}
	r3w := r3.skipSpace()
	if second.isReg && r3w.headChar(',') {
		r4 := r3w.skip(1).skipSpace()
		vyv, r5, err := p.parseVy(r4)
		if err != nil {
			return nil, nil, regOperand{}, value16{}, r5, err
		}
		rdCopy := first
		return nil, &rdCopy, second.reg, vyv, r5, nil
	}
	return nil, nil, first, second, r3, nil
}

func (p *stmtParser) parseRxyFamily(loc Location, mnemonic, cc string, flags flagMode, rest span) (Item, span, error) {
	rdx, rd, rx, vy, remain, err := p.parseRdxyOperands(rest)
	if err != nil {
		return nil, remain, err
	}
	if rdx != nil && !opcodeTable[mnemonic].allowsRdx {
		return nil, remain, &SyntaxError{loc, mnemonic + " does not allow an Rdx operand"}
	}
	if rdx != nil && rd != nil && rdx.reg == rd.reg && rdx.cross == rd.cross {
		return nil, remain, &SyntaxError{loc, "Rdx cannot be the same as Rd"}
	}
	in := &Instruction{LocV: loc, Mnemonic: mnemonic, CC: cc, Flags: flags, HasRx: true, Rx: rx, HasVy: true, Vy: vy}
	if rd != nil {
		in.HasRd, in.Rd = true, *rd
	}
	if rdx != nil {
		in.HasRdx, in.Rdx = true, *rdx
	}
	return in, remain, nil
}

func (p *stmtParser) parseAdcSbc(loc Location, isAdd bool, cc string, rest span) (Item, span, error) {
	rdx, rd, rx, vy, remain, err := p.parseRdxyOperands(rest)
	if err != nil {
		return nil, remain, err
	}
	if rdx != nil {
		return nil, remain, &SyntaxError{loc, "ADC/SBC do not support a wide Rdx destination"}
	}
	group, err := lowerAdcSbc(loc, isAdd, cc, rd, rx, vy)
	if err != nil {
		return nil, remain, err
	}
	return group, remain, nil
}

//
// SHL/SRU/SRS: V8 variant of the Rxy family, no Rdx
//

func (p *stmtParser) parseShiftFamily(loc Location, mnemonic, cc string, flags flagMode, rest span) (Item, span, error) {
	first, r1, err := p.parseReg(rest)
	if err != nil {
		return nil, r1, err
	}
	r1w := r1.skipSpace()
	if !r1w.headChar(',') {
		return nil, r1w, &SyntaxError{locAt(p.file, r1w), "expected ','"}
	}
	r2 := r1w.skip(1).skipSpace()

	if secondReg, r2b, regErr := p.parseReg(r2); regErr == nil {
		if r2bw := r2b.skipSpace(); r2bw.headChar(',') {
			r3 := r2bw.skip(1).skipSpace()
			v8, r4, err := p.parseVy(r3)
			if err != nil {
				return nil, r4, err
			}
			return &Instruction{LocV: loc, Mnemonic: mnemonic, CC: cc, Flags: flags,
				HasRd: true, Rd: first, HasRx: true, Rx: secondReg, HasV8: true, V8: v8}, r4, nil
		}
	}
	v8, r3, err := p.parseVy(r2)
	if err != nil {
		return nil, r3, err
	}
	return &Instruction{LocV: loc, Mnemonic: mnemonic, CC: cc, Flags: flags,
		HasRx: true, Rx: first, HasV8: true, V8: v8}, r3, nil
}

//
// MOV/CMP, RDC, WRC
//

func (p *stmtParser) parseMovCmp(loc Location, mnemonic, cc string, flags flagMode, rest span) (Item, span, error) {
	rx, r1, err := p.parseReg(rest)
	if err != nil {
		return nil, r1, err
	}
	r1w := r1.skipSpace()
	if !r1w.headChar(',') {
		return nil, r1w, &SyntaxError{locAt(p.file, r1w), "expected ','"}
	}
	r2 := r1w.skip(1).skipSpace()
	vy, r3, err := p.parseVy(r2)
	if err != nil {
		return nil, r3, err
	}
	return &Instruction{LocV: loc, Mnemonic: mnemonic, CC: cc, Flags: flags, HasRx: true, Rx: rx, HasVy: true, Vy: vy}, r3, nil
}

func (p *stmtParser) parseRdc(loc Location, cc string, flags flagMode, rest span) (Item, span, error) {
	rx, r1, err := p.parseReg(rest)
	if err != nil {
		return nil, r1, err
	}
	r1w := r1.skipSpace()
	if !r1w.headChar(',') {
		return nil, r1w, &SyntaxError{locAt(p.file, r1w), "expected ','"}
	}
	r2 := r1w.skip(1).skipSpace()
	vy, r3, err := p.parseCReg(r2)
	if err != nil {
		return nil, r3, err
	}
	return &Instruction{LocV: loc, Mnemonic: "RDC", CC: cc, Flags: flags, HasRx: true, Rx: rx, HasVy: true, Vy: vy}, r3, nil
}

// parseWrc implements "insn : mn_wrc creg COMMA reg" whose operand keys
// are, despite appearances, set as Rx=creg and Vy=reg: the control
// register being written sits in the Rx slot and the plain register
// supplying the value sits in Vy.
func (p *stmtParser) parseWrc(loc Location, cc string, flags flagMode, rest span) (Item, span, error) {
	crv, r1, err := p.parseCReg(rest)
	if err != nil {
		return nil, r1, err
	}
	r1w := r1.skipSpace()
	if !r1w.headChar(',') {
		return nil, r1w, &SyntaxError{locAt(p.file, r1w), "expected ','"}
	}
	r2 := r1w.skip(1).skipSpace()
	ry, r3, err := p.parseReg(r2)
	if err != nil {
		return nil, r3, err
	}
	crAsRx := regOperand{reg: Register(crv.cr), cross: crv.crCross}
	return &Instruction{LocV: loc, Mnemonic: "WRC", CC: cc, Flags: flags,
		HasRx: true, Rx: crAsRx, HasVy: true, Vy: value16{isReg: true, reg: ry}}, r3, nil
}

//
// LDW/LDB, STW/STB
//

func (p *stmtParser) parseLoad(loc Location, mnemonic, cc string, flags flagMode, rest span) (Item, span, error) {
	rx, r1, err := p.parseReg(rest)
	if err != nil {
		return nil, r1, err
	}
	r1w := r1.skipSpace()
	if !r1w.headChar(',') {
		return nil, r1w, &SyntaxError{locAt(p.file, r1w), "expected ','"}
	}
	r2 := r1w.skip(1).skipSpace()
	if !r2.headChar('[') {
		return nil, r2, &SyntaxError{locAt(p.file, r2), "expected '['"}
	}
	r3 := r2.skip(1).skipSpace()

	if rd, r3b, regErr := p.parseReg(r3); regErr == nil {
		r3bw := r3b.skipSpace()
		switch {
		case r3bw.headChar('+'):
			r4 := r3bw.skip(1).skipSpace()
			vy, r5, err := p.parseVy(r4)
			if err != nil {
				return nil, r5, err
			}
			r5 = r5.skipSpace()
			if !r5.headChar(']') {
				return nil, r5, &SyntaxError{locAt(p.file, r5), "expected ']'"}
			}
			return &Instruction{LocV: loc, Mnemonic: mnemonic, CC: cc, Flags: flags,
				HasRd: true, Rd: rd, HasRx: true, Rx: rx, HasVy: true, Vy: vy}, r5.skip(1), nil

		case r3bw.headChar('-'):
			r4 := r3bw.skip(1).skipSpace()
			ce, r5, err := p.ep.parse(r4)
			if err != nil {
				return nil, r5, err
			}
			r5 = r5.skipSpace()
			if !r5.headChar(']') {
				return nil, r5, &SyntaxError{locAt(p.file, r5), "expected ']'"}
			}
			neg := &expr{op: opNeg, child0: ce, loc: loc}
			return &Instruction{LocV: loc, Mnemonic: mnemonic, CC: cc, Flags: flags,
				HasRd: true, Rd: rd, HasRx: true, Rx: rx, HasVy: true, Vy: value16{expr: neg}}, r5.skip(1), nil
		}
	}

	vy, r4, err := p.parseVy(r3)
	if err != nil {
		return nil, r4, err
	}
	r4 = r4.skipSpace()
	if !r4.headChar(']') {
		return nil, r4, &SyntaxError{locAt(p.file, r4), "expected ']'"}
	}
	return &Instruction{LocV: loc, Mnemonic: mnemonic, CC: cc, Flags: flags,
		HasRx: true, Rx: rx, HasVy: true, Vy: vy}, r4.skip(1), nil
}

// parseStore implements STW/STB's three addressing forms. Its
// Rd-minus-constexpr form does NOT negate the offset, unlike the load
// form's equivalent.
func (p *stmtParser) parseStore(loc Location, mnemonic, cc string, flags flagMode, rest span) (Item, span, error) {
	if !rest.headChar('[') {
		return nil, rest, &SyntaxError{locAt(p.file, rest), "expected '['"}
	}
	r1 := rest.skip(1).skipSpace()

	if rd, r1b, regErr := p.parseReg(r1); regErr == nil {
		r1bw := r1b.skipSpace()
		switch {
		case r1bw.headChar('+'):
			r2 := r1bw.skip(1).skipSpace()
			vy, r3, err := p.parseVy(r2)
			if err != nil {
				return nil, r3, err
			}
			r3 = r3.skipSpace()
			if !r3.headChar(']') {
				return nil, r3, &SyntaxError{locAt(p.file, r3), "expected ']'"}
			}
			r4 := r3.skip(1).skipSpace()
			if !r4.headChar(',') {
				return nil, r4, &SyntaxError{locAt(p.file, r4), "expected ','"}
			}
			r5 := r4.skip(1).skipSpace()
			rx, r6, err := p.parseReg(r5)
			if err != nil {
				return nil, r6, err
			}
			return &Instruction{LocV: loc, Mnemonic: mnemonic, CC: cc, Flags: flags,
				HasRd: true, Rd: rd, HasRx: true, Rx: rx, HasVy: true, Vy: vy}, r6, nil

		case r1bw.headChar('-'):
			r2 := r1bw.skip(1).skipSpace()
			ce, r3, err := p.ep.parse(r2)
			if err != nil {
				return nil, r3, err
			}
			r3 = r3.skipSpace()
			if !r3.headChar(']') {
				return nil, r3, &SyntaxError{locAt(p.file, r3), "expected ']'"}
			}
			r4 := r3.skip(1).skipSpace()
			if !r4.headChar(',') {
				return nil, r4, &SyntaxError{locAt(p.file, r4), "expected ','"}
			}
			r5 := r4.skip(1).skipSpace()
			rx, r6, err := p.parseReg(r5)
			if err != nil {
				return nil, r6, err
			}
			return &Instruction{LocV: loc, Mnemonic: mnemonic, CC: cc, Flags: flags,
				HasRd: true, Rd: rd, HasRx: true, Rx: rx, HasVy: true, Vy: value16{expr: ce}}, r6, nil
		}
	}

	vy, r2, err := p.parseVy(r1)
	if err != nil {
		return nil, r2, err
	}
	r2 = r2.skipSpace()
	if !r2.headChar(']') {
		return nil, r2, &SyntaxError{locAt(p.file, r2), "expected ']'"}
	}
	r3 := r2.skip(1).skipSpace()
	if !r3.headChar(',') {
		return nil, r3, &SyntaxError{locAt(p.file, r3), "expected ','"}
	}
	r4 := r3.skip(1).skipSpace()
	rx, r5, err := p.parseReg(r4)
	if err != nil {
		return nil, r5, err
	}
	return &Instruction{LocV: loc, Mnemonic: mnemonic, CC: cc, Flags: flags,
		HasRx: true, Rx: rx, HasVy: true, Vy: vy}, r5, nil
}

//
// BRA/FCA, BRR/FCR
//

func (p *stmtParser) parseBraFca(loc Location, mnemonic, cc string, flags flagMode, rest span) (Item, span, error) {
	// An explicit first operand may name any register including DPC
	// ("BRA DPC, R4" spells out the implied form); the Vy operand may not.
	if rxReg, r1, ok := parseRegWord(rest, true); ok {
		r1w := r1.skipSpace()
		if r1w.headChar(',') {
			r2 := r1w.skip(1).skipSpace()
			vy, r3, err := p.parseVyNormal(r2)
			if err != nil {
				return nil, r3, err
			}
			return &Instruction{LocV: loc, Mnemonic: mnemonic, CC: cc, Flags: flags,
				HasRx: true, Rx: regOperand{reg: rxReg}, HasVy: true, Vy: vy}, r3, nil
		}
	}
	vy, remain, err := p.parseVyNormal(rest)
	if err != nil {
		return nil, remain, err
	}
	return &Instruction{LocV: loc, Mnemonic: mnemonic, CC: cc, Flags: flags, HasVy: true, Vy: vy}, remain, nil
}

func (p *stmtParser) parseBrrFcr(loc Location, mnemonic, cc string, flags flagMode, rest span) (Item, span, error) {
	label, remain, err := p.parseLabelRef(rest)
	if err != nil {
		return nil, remain, err
	}
	return &Instruction{LocV: loc, Mnemonic: mnemonic, CC: cc, Flags: flags, Label: label}, remain, nil
}

//
// RDB, WRB
//

func (p *stmtParser) parseRdb(loc Location, cc string, flags flagMode, rest span) (Item, span, error) {
	rx, r1, err := p.parseReg(rest)
	if err != nil {
		return nil, r1, err
	}
	r1w := r1.skipSpace()
	if !r1w.headChar(',') {
		return &Instruction{LocV: loc, Mnemonic: "RDB", CC: cc, Flags: flags, HasRx: true, Rx: rx}, r1w, nil
	}
	r2 := r1w.skip(1).skipSpace()
	if !r2.headChar('(') {
		return nil, r2, &SyntaxError{locAt(p.file, r2), "expected '('"}
	}
	r3 := r2.skip(1).skipSpace()
	port, r4, err := p.ep.parse(r3)
	if err != nil {
		return nil, r4, err
	}
	r4 = r4.skipSpace()
	if !r4.headChar(')') {
		return nil, r4, &SyntaxError{locAt(p.file, r4), "expected ')'"}
	}
	return &Instruction{LocV: loc, Mnemonic: "RDB", CC: cc, Flags: flags,
		HasRx: true, Rx: rx, HasPort: true, Port: port}, r4.skip(1), nil
}

func (p *stmtParser) parseWrb(loc Location, cc string, flags flagMode, rest span) (Item, span, error) {
	if rest.headChar('(') {
		r1 := rest.skip(1).skipSpace()
		port, r2, err := p.ep.parse(r1)
		if err != nil {
			return nil, r2, err
		}
		r2 = r2.skipSpace()
		if !r2.headChar(')') {
			return nil, r2, &SyntaxError{locAt(p.file, r2), "expected ')'"}
		}
		r3 := r2.skip(1).skipSpace()
		if !r3.headChar(',') {
			return nil, r3, &SyntaxError{locAt(p.file, r3), "expected ','"}
		}
		r4 := r3.skip(1).skipSpace()
		v8, r5, err := p.parseVy(r4)
		if err != nil {
			return nil, r5, err
		}
		return &Instruction{LocV: loc, Mnemonic: "WRB", CC: cc, Flags: flags,
			HasPort: true, Port: port, HasV8: true, V8: v8}, r5, nil
	}
	v8, remain, err := p.parseVy(rest)
	if err != nil {
		return nil, remain, err
	}
	return &Instruction{LocV: loc, Mnemonic: "WRB", CC: cc, Flags: flags, HasV8: true, V8: v8}, remain, nil
}

//
// PSH/POP
//

func (p *stmtParser) parsePshPop(loc Location, mnemonic, cc string, flags flagMode, rest span) (Item, span, error) {
	if rd, r1, err := p.parseReg(rest); err == nil {
		r1w := r1.skipSpace()
		if r1w.headChar(',') {
			r2 := r1w.skip(1).skipSpace()
			if regs, r3, err := p.parseRegset(r2); err == nil {
				return &Instruction{LocV: loc, Mnemonic: mnemonic, CC: cc, Flags: flags,
					HasRegRd: true, RegRd: rd, Regset: regs}, r3, nil
			}
		}
	}
	regs, remain, err := p.parseRegset(rest)
	if err != nil {
		return nil, remain, err
	}
	return &Instruction{LocV: loc, Mnemonic: mnemonic, CC: cc, Flags: flags, Regset: regs}, remain, nil
}

//
// INC, and the DEC pseudo-instruction that shares its operand shapes
//

func (p *stmtParser) parseIncDec(loc Location, which, cc string, flags flagMode, rest span) (Item, span, error) {
	first, r1, err := p.parseReg(rest)
	if err != nil {
		return nil, r1, err
	}
	r1w := r1.skipSpace()
	if !r1w.headChar(',') {
		return p.finishIncDec(loc, which, cc, flags, nil, first, nil), r1w, nil
	}
	r2 := r1w.skip(1).skipSpace()

	if secondReg, r2b, regErr := p.parseReg(r2); regErr == nil {
		if r2bw := r2b.skipSpace(); r2bw.headChar(',') {
			r4 := r2bw.skip(1).skipSpace()
			simm, r5, err := p.ep.parse(r4)
			if err != nil {
				return nil, r5, err
			}
			rd := first
			return p.finishIncDec(loc, which, cc, flags, &rd, secondReg, simm), r5, nil
		}
	}
	simm, r3, err := p.ep.parse(r2)
	if err != nil {
		return nil, r3, err
	}
	return p.finishIncDec(loc, which, cc, flags, nil, first, simm), r3, nil
}

// finishIncDec builds the real INC instruction for both "which" values.
// DEC is never emitted directly: it lowers into INC with the SImm4
// negated, defaulting to 1 when omitted, and is always wrapped in a
// pseudoGroup so assembler.go can treat it uniformly with the other
// pseudo-instructions.
func (p *stmtParser) finishIncDec(loc Location, which, cc string, flags flagMode, rd *regOperand, rx regOperand, simm4 *expr) Item {
	if which == "INC" {
		in := &Instruction{LocV: loc, Mnemonic: "INC", CC: cc, Flags: flags, HasRx: true, Rx: rx, SImm4: simm4}
		if rd != nil {
			in.HasRd, in.Rd = true, *rd
		}
		return in
	}
	base := simm4
	if base == nil {
		base = &expr{op: opNumber, value: 1, evaluated: true, loc: loc}
	}
	in := &Instruction{LocV: loc, Mnemonic: "INC", CC: cc, Flags: flags, HasRx: true, Rx: rx,
		SImm4: &expr{op: opNeg, child0: base, loc: loc}}
	if rd != nil {
		in.HasRd, in.Rd = true, *rd
	}
	return &pseudoGroup{LocV: loc, Subs: []*Instruction{in}}
}

//
// NEG/INV, ADR, SWP, ADC/SBC, RET: the remaining pseudo-instructions
//

func (p *stmtParser) parseNegInv(loc Location, mnemonic, cc string, flags flagMode, rest span) (Item, span, error) {
	rx, remain, err := p.parseReg(rest)
	if err != nil {
		return nil, remain, err
	}
	var sub *Instruction
	if mnemonic == "NEG" {
		// NEG.cc Rx -> SUB.cc Rx, ZERO, Rx
		sub = &Instruction{LocV: loc, Mnemonic: "SUB", CC: cc, Flags: flags,
			HasRd: true, Rd: rx, HasRx: true, Rx: regOperand{reg: ZERO},
			HasVy: true, Vy: value16{isReg: true, reg: rx}}
	} else {
		// INV.cc Rx -> XOR.cc Rx, -1
		sub = &Instruction{LocV: loc, Mnemonic: "XOR", CC: cc, Flags: flags,
			HasRx: true, Rx: rx,
			HasVy: true, Vy: value16{expr: &expr{op: opNumber, value: -1, evaluated: true, loc: loc}}}
	}
	return &pseudoGroup{LocV: loc, Subs: []*Instruction{sub}}, remain, nil
}

func (p *stmtParser) parseAdr(loc Location, cc string, flags flagMode, rest span) (Item, span, error) {
	rx, r1, err := p.parseReg(rest)
	if err != nil {
		return nil, r1, err
	}
	r1w := r1.skipSpace()
	if !r1w.headChar(',') {
		return nil, r1w, &SyntaxError{locAt(p.file, r1w), "expected ','"}
	}
	r2 := r1w.skip(1).skipSpace()
	target, r3, err := p.ep.parse(r2)
	if err != nil {
		return nil, r3, err
	}
	// ADR.cc Rx, target -> ADD.cc Rx, PC, target - @PC@
	vy := &expr{op: opSub, child0: target, child1: &expr{op: opIdentifier, identifier: "@PC@"}, loc: loc}
	sub := &Instruction{LocV: loc, Mnemonic: "ADD", CC: cc, Flags: flags,
		HasRd: true, Rd: rx, HasRx: true, Rx: regOperand{reg: PC},
		HasVy: true, Vy: value16{expr: vy}}
	return &pseudoGroup{LocV: loc, Subs: []*Instruction{sub}}, r3, nil
}

func (p *stmtParser) parseSwp(loc Location, cc string, flags flagMode, rest span) (Item, span, error) {
	ra, r1, err := p.parseRy(rest)
	if err != nil {
		return nil, r1, err
	}
	r1w := r1.skipSpace()
	if !r1w.headChar(',') {
		return nil, r1w, &SyntaxError{locAt(p.file, r1w), "expected ','"}
	}
	r2 := r1w.skip(1).skipSpace()
	rb, r3, err := p.parseRy(r2)
	if err != nil {
		return nil, r3, err
	}
	return lowerSwp(loc, cc, flags, ra, rb), r3, nil
}

// lowerRet replaces "RET.cc" with "BRA.cc RD, RA".
func lowerRet(loc Location, cc string) *pseudoGroup {
	sub := &Instruction{LocV: loc, Mnemonic: "BRA", CC: cc,
		HasRx: true, Rx: regOperand{reg: RD}, HasVy: true, Vy: value16{isReg: true, reg: regOperand{reg: RA}}}
	return &pseudoGroup{LocV: loc, Subs: []*Instruction{sub}}
}

// lowerSwp replaces "SWP.cc Ra, Rb" with three XORs. The first two
// force flag-writing off whenever cc isn't AL; only the last XOR carries
// the caller's real toggle/force-flags suffix.
func lowerSwp(loc Location, cc string, flags flagMode, ra, rb regOperand) *pseudoGroup {
	helperFlags := flagDefault
	if cc != "AL" {
		helperFlags = flagForceNo
	}
	return &pseudoGroup{LocV: loc, Subs: []*Instruction{
		{LocV: loc, Mnemonic: "XOR", CC: cc, Flags: helperFlags, HasRx: true, Rx: ra, HasVy: true, Vy: value16{isReg: true, reg: rb}},
		{LocV: loc, Mnemonic: "XOR", CC: cc, Flags: helperFlags, HasRx: true, Rx: rb, HasVy: true, Vy: value16{isReg: true, reg: ra}},
		{LocV: loc, Mnemonic: "XOR", CC: cc, Flags: flags, HasRx: true, Rx: ra, HasVy: true, Vy: value16{isReg: true, reg: rb}},
	}}
}

// lowerAdcSbc lowers ADC/SBC: when Rd coincides with Ra it emits the
// 2-instruction form (INC/DEC.CS Ra; ADD/SUB Ra, Vb); otherwise the
// 4-instruction form that first zeroes Rd.
// A non-"AL" outer condition prepends a BRR that skips the whole fixed
// sequence when the condition is false, since none of the constituent
// instructions themselves carry the user's condition code.
func lowerAdcSbc(loc Location, isAdd bool, cc string, rd *regOperand, ra regOperand, vb value16) (*pseudoGroup, error) {
	addSubMn := "ADD"
	incDecSImm4 := 1
	if !isAdd {
		addSubMn = "SUB"
		incDecSImm4 = -1
	}
	simm4 := &expr{op: opNumber, value: incDecSImm4, evaluated: true, loc: loc}

	var subs []*Instruction
	if rd == nil || (rd.reg == ra.reg && rd.cross == ra.cross) {
		subs = []*Instruction{
			{LocV: loc, Mnemonic: "INC", CC: "CS", HasRx: true, Rx: ra, SImm4: simm4},
			{LocV: loc, Mnemonic: addSubMn, CC: "AL", HasRx: true, Rx: ra, HasVy: true, Vy: vb},
		}
	} else {
		subs = []*Instruction{
			{LocV: loc, Mnemonic: "MOV", CC: "AL", HasRx: true, Rx: *rd, HasVy: true, Vy: value16{isReg: true, reg: regOperand{reg: ZERO}}},
			{LocV: loc, Mnemonic: "INC", CC: "CS", HasRx: true, Rx: *rd, SImm4: simm4},
			{LocV: loc, Mnemonic: "ADD", CC: "AL", HasRx: true, Rx: *rd, HasVy: true, Vy: value16{isReg: true, reg: ra}},
			{LocV: loc, Mnemonic: addSubMn, CC: "AL", HasRx: true, Rx: *rd, HasVy: true, Vy: vb},
		}
	}

	if cc != "AL" {
		total := 0
		for _, s := range subs {
			l, err := s.Len()
			if err != nil {
				return nil, err
			}
			total += l
		}
		inv, ok := conditionInverses[cc]
		if !ok {
			return nil, &NameError{loc, cc, "unknown condition code"}
		}
		guard := &Instruction{LocV: loc, Mnemonic: "BRR", CC: inv, Label: &expr{
			op:     opAdd,
			child0: &expr{op: opIdentifier, identifier: "@PC@"},
			child1: &expr{op: opNumber, value: total, evaluated: true},
			loc:    loc,
		}}
		subs = append([]*Instruction{guard}, subs...)
	}
	return &pseudoGroup{LocV: loc, Subs: subs}, nil
}
