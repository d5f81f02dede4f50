// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ear

import "sort"

// A SourceMap maps emitted virtual addresses back to the source Location
// that generated them, answering "what source line produced the byte at
// this address" for a caller inspecting a linked image.
type SourceMap struct {
	lines  []sourceLine
	sorted bool
}

type sourceLine struct {
	addr int
	loc  Location
}

// record appends one emitted item's starting address and originating
// Location. A ".loc" directive can make addresses arrive out of order
// within a segment, so Find sorts lazily rather than assuming record
// order is address order.
func (s *SourceMap) record(addr int, loc Location) {
	s.lines = append(s.lines, sourceLine{addr, loc})
	s.sorted = false
}

// Find returns the Location responsible for the byte at addr: the entry
// whose address is the greatest one not exceeding addr. It reports false
// if addr precedes every recorded entry.
func (s *SourceMap) Find(addr int) (Location, bool) {
	if !s.sorted {
		sort.Slice(s.lines, func(i, j int) bool { return s.lines[i].addr < s.lines[j].addr })
		s.sorted = true
	}
	i := sort.Search(len(s.lines), func(i int) bool {
		return s.lines[i].addr > addr
	})
	if i == 0 {
		return Location{}, false
	}
	return s.lines[i-1].loc, true
}

// SourceMap returns the address-to-source mapping accumulated by the most
// recent Assemble call. Ambient tooling: it never influences the bytes
// Assemble produces.
func (a *Assembler) SourceMap() *SourceMap {
	return a.srcmap
}
