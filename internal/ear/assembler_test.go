// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ear

import (
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/earasm/earasm/internal/pegasus"
)

// assembleSegment runs code through a fresh Assembler and returns the
// lowercase hex encoding of the named segment's assembled bytes.
func assembleSegment(code, segment string) (string, error) {
	a, err := New(pegasus.DefaultLayout(), nil, nil)
	if err != nil {
		return "", err
	}
	if err := a.AddInput(code, "test"); err != nil {
		return "", err
	}
	results, err := a.Assemble()
	if err != nil {
		return "", err
	}
	for _, r := range results {
		if r.Name == segment {
			return hex.EncodeToString(r.Data), nil
		}
	}
	return "", errors.New("segment " + segment + " not produced")
}

func assemble(code string) (string, error) {
	return assembleSegment(code, "@TEXT")
}

func checkASM(t *testing.T, code, expected string) {
	t.Helper()
	got, err := assemble(code)
	if err != nil {
		t.Fatalf("assemble(%q): %v", code, err)
	}
	if got != expected {
		t.Errorf("assemble(%q):\n got: %s\n exp: %s", code, got, expected)
	}
}

func checkASMError(t *testing.T, code string) {
	t.Helper()
	if _, err := assemble(code); err == nil {
		t.Errorf("assemble(%q): expected an error, got none", code)
	}
}

// checkASMEquiv asserts that two source fragments assemble to the same
// bytes, which keeps pseudo-instruction lowering and prefix-combination
// coverage robust to the exact byte layout as long as both sides share an
// encoder.
func checkASMEquiv(t *testing.T, a, b string) {
	t.Helper()
	ga, err := assemble(a)
	if err != nil {
		t.Fatalf("assemble(%q): %v", a, err)
	}
	gb, err := assemble(b)
	if err != nil {
		t.Fatalf("assemble(%q): %v", b, err)
	}
	if ga != gb {
		t.Errorf("assemble(%q) = %s, assemble(%q) = %s, want equal", a, ga, b, gb)
	}
}

func TestBareInstructions(t *testing.T) {
	checkASM(t, "NOP", "ff")
	checkASM(t, "BPT", "fd")
	checkASM(t, "HLT", "fe")
}

// TestConditionSuffixes covers the low end (EQ, index 0, no prefix byte at
// all) and the high end (NG, index 8, which crosses into the PREFIX_XC
// range) of the condition-code encoding.
func TestConditionSuffixes(t *testing.T) {
	checkASM(t, "NOP.EQ", "1f")
	checkASM(t, "NOP.NG", "c01f")
}

func TestAddImmHex(t *testing.T) {
	checkASM(t, "ADD R3, 0x1234", "e03f3412")
}

func TestNumericLiteralBases(t *testing.T) {
	checkASM(t, "ADD R3, 1025", "e03f0104")
	checkASM(t, "ADD R3, 0o755", "e03fed01")
	checkASM(t, "ADD R3, 0b1011010011110001", "e03ff1b4")
	checkASM(t, "ADD R3, -10", "e03ff6ff")
}

// TestAddSubFoldToIncDec covers the ADD/SUB -> INC/DEC constant fold: a
// constant in [-8,-1] or [1,8] takes the short encoding, zero stays on the
// long form (SImm4 cannot express it).
func TestAddSubFoldToIncDec(t *testing.T) {
	checkASMEquiv(t, "ADD R3, 2", "INC R3, 2")
	checkASMEquiv(t, "ADD R3, 1", "INC R3")
	checkASMEquiv(t, "ADD R3, -2", "DEC R3, 2")
	checkASMEquiv(t, "SUB R3, 2", "DEC R3, 2")
	checkASM(t, "ADD R4, 0\n.db 0x11", "e04f000011")
}

func TestFlagSuffixes(t *testing.T) {
	checkASM(t, "XOR R3, R4", "e634")
	checkASM(t, "XOR.GE R3, R4", "a634")
	checkASM(t, "XORF R3, R4", "c1e634")
	checkASM(t, "XORF.GE R3, R4", "c1a634")
	checkASM(t, "CMP R3, R4", "ed34")
	checkASM(t, "CMP.GE R3, R4", "ad34")
	// CMP writes flags under every condition, so forcing yes is a no-op
	// and forcing no inserts the toggle prefix.
	checkASMEquiv(t, "CMPY.GE R3, R4", "CMP.GE R3, R4")
	checkASM(t, "CMPN.GE R3, R4", "c1ad34")
}

func TestConditionAliases(t *testing.T) {
	checkASMEquiv(t, "NOP.ZR", "NOP.EQ")
	checkASMEquiv(t, "NOP.NZ", "NOP.NE")
	checkASMEquiv(t, "NOP.AL", "NOP")
}

// TestIncZero covers INC/DEC's zero special case, which re-encodes as a
// plain ADD/SUB with a ZERO operand rather than through packSImm4 (SImm4
// has no representation for zero).
func TestIncZero(t *testing.T) {
	checkASMEquiv(t, "INC R4, 0", "ADD R4, ZERO")
}

func TestRxy16RegisterRegister(t *testing.T) {
	checkASM(t, "ADD R3, R4", "e034")
	checkASM(t, "ADD R8, R3, R4", "d8e034")
	checkASM(t, "ADD S0, A1, R10", "d7e02a")
}

func TestLoadStore(t *testing.T) {
	checkASM(t, "LDW R4, [R5]", "f045")
	checkASM(t, "LDW R4, [0xabcd]", "f04fcdab")
	checkASM(t, "LDW R4, [R5 + R6]", "d5f046")
	checkASM(t, "LDW R4, [R5 + 0xabcd]", "d5f04fcdab")
	checkASM(t, "LDW R4, [R5 - 0xabcd]", "d5f04f3354")
	checkASM(t, "STW [R4], R5", "f154")
	checkASM(t, "STB [R4], R5", "f354")
	checkASM(t, "STB [R4 + R5], R6", "d4f365")
}

func TestBranch(t *testing.T) {
	checkASM(t, "BRA RD, RA", "f4dc")
	checkASM(t, "BRR @", "f5fdff")
	checkASM(t, "FCR @", "f7fdff")
	checkASM(t, "@here: BRR @here", "f5fdff")
	checkASM(t, "@.1: BRR @.1", "f5fdff")
	checkASMEquiv(t, "BRA R4", "BRA DPC, R4")
}

func TestImpliedOperands(t *testing.T) {
	checkASMEquiv(t, "RDB R4", "RDB R4, (0)")
	checkASMEquiv(t, "WRB R4", "WRB (0), R4")
	checkASMEquiv(t, "WRB 0x0a", "WRB (0), 0x0a")
	checkASMEquiv(t, "INC R4", "INC R4, 1")
	checkASMEquiv(t, "DEC R4", "DEC R4, 1")
}

func TestPorts(t *testing.T) {
	checkASM(t, "RDB R3, (6)", "f836")
	checkASM(t, "WRB (13), R9", "f9d9")
}

func TestRegset(t *testing.T) {
	checkASM(t, "PSH {R2-R4, R6, R8-FP, RA, RD}", "fa5c37")
	checkASM(t, "POP {R2-R4, R6, R8-FP, PC, DPC}", "fb5cc7")
}

func TestIncDec(t *testing.T) {
	checkASM(t, "INC R4, 8", "fc47")
	checkASM(t, "INC R4, -8", "fc48")
	checkASM(t, "INC R3, R4, 2", "d3fc41")
}

func TestControlRegisters(t *testing.T) {
	checkASM(t, "RDC R4, MEMBASE_R", "ee48")
	checkASM(t, "WRC MEMBASE_R, R4", "ef84")
}

func TestShiftUses8BitImmediate(t *testing.T) {
	checkASM(t, "SHL R4, R5", "e945")
	checkASM(t, "SHL R4, 8", "e94f08")
	checkASM(t, "SHL R4, R5, R6", "d4e956")
	checkASM(t, "SHL R4, R5, 8", "d4e95f08")
}

func TestWideDestinationMultiply(t *testing.T) {
	checkASM(t, "MLU R5, R6", "e256")
	checkASM(t, "MLU R4, R5, R6", "d4e256")
	checkASM(t, "MLU R3:R4, R5, R6", "d4d3e256")
	// Only the multiply/divide family takes a wide destination pair, and
	// the pair's halves must differ.
	checkASMError(t, "ADD R3:R4, R5, R6")
	checkASMError(t, "MLU R4:R4, R5, R6")
}

// checkCrossPrefix asserts that a crossed
// operand form must assemble to exactly the ordered prefix bytes followed
// by the plain form's bytes, not merely "something different".
func checkCrossPrefix(t *testing.T, crossed, plain string, prefixes ...byte) {
	t.Helper()
	gotCrossed, err := assemble(crossed)
	if err != nil {
		t.Fatalf("assemble(%q): %v", crossed, err)
	}
	gotPlain, err := assemble(plain)
	if err != nil {
		t.Fatalf("assemble(%q): %v", plain, err)
	}
	want := hex.EncodeToString(prefixes) + gotPlain
	if gotCrossed != want {
		t.Errorf("assemble(%q) = %s, want %s (prefixes + assemble(%q))", crossed, gotCrossed, want, plain)
	}
}

// TestCrossPrefixes: a leading '!' crosses the operand it prefixes,
// emitting the matching prefix byte ahead of the otherwise-identical
// plain encoding.
func TestCrossPrefixes(t *testing.T) {
	checkCrossPrefix(t, "MOV R1, !R2", "MOV R1, R2", prefixXY)
	checkCrossPrefix(t, "ADD R1, !R2, !R3", "ADD R1, R2, R3", prefixXX, prefixXY)
	checkCrossPrefix(t, "RDC A0, !MEMBASE_R", "RDC A0, MEMBASE_R", prefixXY)
	checkCrossPrefix(t, "LDW R1, [!R2]", "LDW R1, [R2]", prefixXY)
	checkCrossPrefix(t, "STW [!R1], !R2", "STW [R1], R2", prefixXX, prefixXY)
	checkCrossPrefix(t, "MOV !R1, R2", "MOV R1, R2", prefixXX)
	checkCrossPrefix(t, "ADD !R1, R2, R3", "ADD R1, R2, R3", prefixXZ)
	checkCrossPrefix(t, "WRC !MEMBASE_R, A0", "WRC MEMBASE_R, A0", prefixXX)
	checkCrossPrefix(t, "LDW !R1, [R2]", "LDW R1, [R2]", prefixXX)
	checkCrossPrefix(t, "ADD !R1, !R2", "ADD R1, R2", prefixXX, prefixXY)
	checkASM(t, "MOV R1, !DPC", "c3ec1f")
}

func TestCrossRegsets(t *testing.T) {
	checkCrossPrefix(t, "PSH !{R2-R15}", "PSH {R2-R15}", prefixXY)
	checkCrossPrefix(t, "PSH R1, !{R2-R15}", "PSH {R2-R15}", prefixXY, prefixDR(R1))
	checkCrossPrefix(t, "PSH !R1, !{R2-R15}", "PSH {R2-R15}", prefixXY, prefixXZ, prefixDR(R1))
	checkCrossPrefix(t, "POP !{R2-R15}", "POP {R2-R15}", prefixXY)
	checkASMEquiv(t, "PSH {R2-R2}", "PSH {R2}")
}

// RET/NEG/INV/ADR/SWP/ADC/SBC/DEC are not real opcodes; each lowers to
// one or more real instructions, so the only portable assertion is that
// the pseudo form and its hand-written expansion assemble identically.
func TestPseudoInstructionLowering(t *testing.T) {
	checkASMEquiv(t, "RET", "BRA RD, RA")
	checkASMEquiv(t, "DEC R4, 3", "INC R4, -3")
	checkASMEquiv(t, "NEG R4", "SUB R4, ZERO, R4")
	checkASMEquiv(t, "INV R4", "XOR R4, R4, -1")
}

func TestSwpLowering(t *testing.T) {
	checkASMEquiv(t, "SWP R4, R5", "XOR R4, R5\nXOR R5, R4\nXOR R4, R5")
	checkASMEquiv(t, "SWPF R4, R5", "XOR R4, R5\nXOR R5, R4\nXORF R4, R5")
	checkASMEquiv(t, "SWP.GE R4, R5", "XOR.GE R4, R5\nXOR.GE R5, R4\nXOR.GE R4, R5")
	checkASMEquiv(t, "SWPF.GE R4, R5", "XOR.GE R4, R5\nXOR.GE R5, R4\nXORF.GE R4, R5")
}

func TestAdrLowering(t *testing.T) {
	checkASMEquiv(t, "@here: ADR R4, @here", "@here: ADD R4, PC, @here - @PC@")
}

func TestAdcSbcLowering(t *testing.T) {
	checkASMEquiv(t, "ADC R4, R5", "INC.CS R4\nADD R4, R5")
	checkASMEquiv(t, "SBC R4, R5", "DEC.CS R4\nSUB R4, R5")
	checkASMEquiv(t, "ADC R4, R5, 6",
		"MOV R4, ZERO\nINC.CS R4\nADD R4, R5\nADD R4, 6")
	checkASMEquiv(t, "ADC.EQ R4, R5",
		"BRR.NE @.after\nADC R4, R5\n@.after:")
	checkASMEquiv(t, "SBC.EQ R4, R5, R6",
		"BRR.NE @.after\nMOV R4, ZERO\nDEC.CS R4\nADD R4, R5\nSUB R4, R6\n@.after:")
}

func TestDataDirectives(t *testing.T) {
	checkASM(t, ".db 0x42", "42")
	checkASM(t, ".db 0x42, 0xca, 0xfe, 0xba, 0xbe", "42cafebabe")
	checkASM(t, `.db "hello"`, "68656c6c6f")
	checkASM(t, ".db 'A' + 1", "42")
	checkASM(t, `.db '\n'`, "0a")
	checkASM(t, ".dw -2", "feff")
	checkASM(t, ".db 3+4+5", "0c")
	checkASM(t, ".db 5/2", "02")
	checkASM(t, `.lestring "hi"`, "e869")
}

func TestDotLoc(t *testing.T) {
	checkASM(t, ".loc 0x1200\n@farlabel:.loc @@\n.dw @farlabel", "0012")
}

func TestDotLocDPCStride(t *testing.T) {
	checkASM(t, ".loc @, 1\n.db \"hello\"", "680065006c006c006f")
}

// TestDPCResetAcrossInputs checks the ".loc @AFTER@, 0" injection that
// precedes every added input: the first input leaves the segment cursor
// mid-stride with DPC=1; the second must resume directly after its last
// byte with DPC back at zero.
func TestDPCResetAcrossInputs(t *testing.T) {
	a, err := New(pegasus.DefaultLayout(), nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.AddInput(".loc @, 1\nADD R2, R3, R4\nRET", "in1"); err != nil {
		t.Fatalf("AddInput: %v", err)
	}
	if err := a.AddInput("NOP\nNOP", "in2"); err != nil {
		t.Fatalf("AddInput: %v", err)
	}
	results, err := a.Assemble()
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	for _, r := range results {
		if r.Name == "@TEXT" {
			if got := hex.EncodeToString(r.Data); got != "d200e0003400f400dcffff" {
				t.Errorf("@TEXT = %s, want d200e0003400f400dcffff", got)
			}
		}
	}
}

func TestEquateChain(t *testing.T) {
	got, err := assemble(`
$foo := 0x1234
$bar := $foo + 3
$baz := $bar + (@test2 - @test)

@test:
	.dw $foo
@test2:
	.dw $bar
	.dw $baz
`)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if got != "341237123912" {
		t.Errorf("got %s, want 341237123912", got)
	}
}

func TestEquateForwardReference(t *testing.T) {
	checkASM(t, "$DIST := @bar - @foo\n.db $DIST\n@foo:\n.loc @ + 123\n@bar:", "7b")
}

func TestLabelCallDPC(t *testing.T) {
	checkASM(t, ".dw @foo\n.dw @foo.DPC@\n.loc 0x1234, 0x5867\n@foo:\n.loc @ + 123", "34126758")
}

func TestEndLabels(t *testing.T) {
	checkASM(t, ".db @END@ - @@", "01")
	checkASM(t, ".db @TEXT.END@ - @TEXT@", "01")
}

func TestAlign(t *testing.T) {
	// The segment base is page-aligned, so the first byte lands on a
	// multiple of 4 and the second is pushed to the next one.
	checkASM(t, ".db 1\n.align 4\n.db 2", "0100000002")
	checkASMError(t, ".align 0")
}

// TestImport covers the ".import" resolution and idempotency rules: the
// path resolves against the importing file's directory, a second import
// of the same resolved path is a no-op, and a missing file is an
// *ImportError.
func TestImport(t *testing.T) {
	dir := t.TempDir()
	lib := filepath.Join(dir, "lib.ear")
	if err := os.WriteFile(lib, []byte("@lib:\nNOP\n"), 0644); err != nil {
		t.Fatal(err)
	}
	mainFile := filepath.Join(dir, "main.ear")
	src := ".import \"lib.ear\"\n.import \"lib.ear\"\nBRR @lib\n"
	if err := os.WriteFile(mainFile, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}

	a, err := New(pegasus.DefaultLayout(), nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.AddInput(src, mainFile); err != nil {
		t.Fatalf("AddInput: %v", err)
	}
	results, err := a.Assemble()
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	for _, r := range results {
		if r.Name == "@TEXT" {
			// One NOP from the single effective import, then the branch
			// back to it: -4 relative to the PC after the BRR.
			if got := hex.EncodeToString(r.Data); got != "fff5fcff" {
				t.Errorf("@TEXT = %s, want fff5fcff", got)
			}
		}
	}

	b, err := New(pegasus.DefaultLayout(), nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	err = b.AddInput(".import \"does-not-exist.ear\"\n", mainFile)
	var ie *ImportError
	if !errors.As(err, &ie) {
		t.Errorf("expected *ImportError, got %T: %v", err, err)
	}
}

func TestEquateOperand(t *testing.T) {
	// 100 falls outside the ADD/SUB->INC/DEC fold range (-8..8), so this
	// stays on the plain Rxy16-immediate encoding path.
	checkASMEquiv(t, "$FOO := 100\nADD R4, $FOO", "ADD R4, 100")
}

func TestSegmentDirective(t *testing.T) {
	got, err := assembleSegment(".segment @DATA\nADD R3, R4\n.segment @TEXT\nNOP", "@DATA")
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if got != "e034" {
		t.Errorf("expected @DATA segment to hold the ADD encoding, got %s", got)
	}
}

func TestErrorCases(t *testing.T) {
	// STB's source operand must be a register; an immediate is illegal.
	checkASMError(t, "STB [R5], 5")
	// MOV takes at most two operands.
	checkASMError(t, "MOV R1, R2, R3")
	// A label cannot be redefined.
	checkASMError(t, "@foo: NOP\n@foo: NOP")
	// An equate cannot be redefined.
	checkASMError(t, "$foo := 1\n$foo := 2")
	// A failing .assert reports an AssertionFailure.
	checkASMError(t, ".assert 1 == 2")
	// An unresolved name is a NameError.
	checkASMError(t, "ADD R4, @undefined")
	// Division by zero in a constant expression.
	checkASMError(t, ".dw 1/0")
	// Port numbers are limited to 0..15.
	checkASMError(t, "RDB R3, (16)")
	// SImm4 is limited to -8..8.
	checkASMError(t, "INC R4, 9")
}

func TestAssertOperators(t *testing.T) {
	code := `
.assert 1 == 1
.assert 1 != 42
.assert 1 < 42
.assert 1 <= 1
.assert 1 <= 42
.assert 42 > 1
.assert 1 >= 1
.assert 42 >= 1
.db "OK"
`
	checkASM(t, code, "4f4b")

	for _, s := range []string{
		".assert 1 == 42", ".assert 1 != 1", ".assert 1 < 1",
		".assert 42 < 1", ".assert 42 <= 1", ".assert 1 > 1",
		".assert 1 > 42", ".assert 1 >= 42",
	} {
		checkASMError(t, s)
	}
}

func TestExportsAndEntrypoint(t *testing.T) {
	a, err := New(pegasus.DefaultLayout(), nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	code := `
@start:
	NOP
@buffer:
	.dw 0
.export @start
.export @buffer, "buf"
`
	if err := a.AddInput(code, "test"); err != nil {
		t.Fatalf("AddInput: %v", err)
	}
	results, err := a.Assemble()
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	var text SegmentResult
	for _, r := range results {
		if r.Name == "@TEXT" {
			text = r
		}
	}

	exports, err := a.Exports()
	if err != nil {
		t.Fatalf("Exports: %v", err)
	}
	if len(exports) != 2 {
		t.Fatalf("exports = %v, want 2 entries", exports)
	}
	if exports[0].Name != "@start" || exports[0].Value != text.VMAddr {
		t.Errorf("export 0 = %+v, want @start at %#x", exports[0], text.VMAddr)
	}
	if exports[1].Name != "buf" || exports[1].Value != text.VMAddr+1 {
		t.Errorf("export 1 = %+v, want buf at %#x", exports[1], text.VMAddr+1)
	}

	pc, dpc, ok := a.ResolveEntrypoint()
	if !ok {
		t.Fatal("expected @start to resolve as the entrypoint")
	}
	if pc != text.VMAddr || dpc != 0 {
		t.Errorf("entrypoint = (%#x, %d), want (%#x, 0)", pc, dpc, text.VMAddr)
	}

	// Exporting a local or special name without an explicit external name
	// is rejected at intake.
	b, _ := New(pegasus.DefaultLayout(), nil, nil)
	if err := b.AddInput(".export @.local", "test"); err == nil {
		t.Error("expected exporting a local label to fail")
	}
	c, _ := New(pegasus.DefaultLayout(), nil, nil)
	if err := c.AddInput(".export @TEXT@", "test"); err == nil {
		t.Error("expected exporting a special label to fail")
	}
}

func TestSourceMap(t *testing.T) {
	a, err := New(pegasus.DefaultLayout(), nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.AddInput("NOP\nADD R3, R4\nHLT", "test.ear"); err != nil {
		t.Fatalf("AddInput: %v", err)
	}
	results, err := a.Assemble()
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	var text SegmentResult
	for _, r := range results {
		if r.Name == "@TEXT" {
			text = r
		}
	}
	loc, ok := a.SourceMap().Find(text.VMAddr)
	if !ok {
		t.Fatal("expected a source map entry at the segment's first address")
	}
	if loc.Line != 1 {
		t.Errorf("expected the first instruction to map to line 1, got line %d", loc.Line)
	}

	loc2, ok := a.SourceMap().Find(text.VMAddr + 1)
	if !ok {
		t.Fatal("expected a source map entry at the second instruction's address")
	}
	if loc2.Line != 2 {
		t.Errorf("expected the second instruction to map to line 2, got line %d", loc2.Line)
	}
}

// TestScopeDoesNotCrossSegment pins a known limitation: a scope opened
// with ".scope" belongs to the segment active at the time, so a local
// name ("@.msg") defined after a ".segment" switch is invisible to an
// instruction in the scope that was open before the switch, even though
// both appear inside one ".scope" block in the source text.
func TestScopeDoesNotCrossSegment(t *testing.T) {
	rom := 0xFE00
	layout := pegasus.Layout{
		Default: "@ROM",
		Segments: []pegasus.SegmentDesc{
			{Name: "@ROM", Prot: "rx", VMAddr: &rom, Emit: true},
			{Name: "@ROMDATA", Prot: "r", Emit: true},
		},
	}

	a, err := New(layout, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	code := `
.scope
@func:
	ADR A0, @.msg
.segment @ROMDATA
@.msg:
	.lestring "TEST!"
`
	if err := a.AddInput(code, "test"); err != nil {
		return // failing this early is an acceptable shape for the same quirk
	}
	if _, err := a.Assemble(); err == nil {
		t.Error("expected the cross-segment local-name reference to fail to resolve")
	}
}

func TestErrorKinds(t *testing.T) {
	_, err := assemble(".assert 1 == 2")
	if err == nil {
		t.Fatal("expected an error")
	}
	var af *AssertionFailure
	if !errors.As(err, &af) {
		t.Errorf("expected *AssertionFailure, got %T: %v", err, err)
	}

	_, err = assemble("ADD R4, @undefined")
	if err == nil {
		t.Fatal("expected an error")
	}
	var ne *NameError
	if !errors.As(err, &ne) {
		t.Errorf("expected *NameError, got %T: %v", err, err)
	}

	_, err = assemble(".dw 1/0")
	if err == nil {
		t.Fatal("expected an error")
	}
	var ve *ValueError
	if !errors.As(err, &ve) {
		t.Errorf("expected *ValueError, got %T: %v", err, err)
	}
}
