package interp

import "github.com/fatalSec/DaliVM/internal/traceindex"

// builder assembles a code-unit stream and its matching trace map by hand,
// standing in for traceindex.Container.BuildTraceMap in tests that have no
// real DEX container to parse a method out of. Each emit call records the
// pc it started at and the disassembly text a real Container would have
// produced for that instruction, which is exactly what execConstString/
// execConstClass/execCheckCast/execInstanceOf/execInstanceGet/execInstancePut/
// execStaticGet/execStaticPut/execInvoke parse back out at run time.
type builder struct {
	code  []uint16
	trace traceindex.TraceMap
}

func newBuilder() *builder {
	return &builder{trace: traceindex.TraceMap{}}
}

// emit appends units at the builder's current position and records a trace
// entry there with the given text (text may be "" for opcodes that never
// consult their own disassembly).
func (b *builder) emit(text string, units ...uint16) {
	pc := uint32(len(b.code))
	b.trace[pc] = traceindex.TraceEntry{Text: text, Len: uint32(len(units))}
	b.code = append(b.code, units...)
}

// payload appends a raw payload block (switch table / fill-array-data) with
// no trace entry, matching how BuildTraceMap itself skips these blocks.
func (b *builder) payload(units ...uint16) {
	b.code = append(b.code, units...)
}

// pos returns the code-unit position the next emit/payload call will land
// at, for computing branch targets before the target's own code exists yet.
func (b *builder) pos() uint32 { return uint32(len(b.code)) }

func (b *builder) codeItem(numRegs, insSize, outsSize uint16) *traceindex.CodeItem {
	return &traceindex.CodeItem{NumRegs: numRegs, InsSize: insSize, OutsSize: outsSize, Code: b.code}
}

// -- per-format encoders -----------------------------------------------

func enc11x(op byte, a uint16) uint16 {
	return (a << 8) | uint16(op)
}

func enc11n(op byte, a uint16, lit int8) uint16 {
	return (uint16(uint8(lit)&0xF) << 12) | (a << 8) | uint16(op)
}

func enc21s(op byte, a uint16, lit int16) [2]uint16 {
	return [2]uint16{(a << 8) | uint16(op), uint16(lit)}
}

func enc21c(op byte, a uint16, idx uint16) [2]uint16 {
	return [2]uint16{(a << 8) | uint16(op), idx}
}

func enc22c(op byte, a, b uint16, c uint16) [2]uint16 {
	return [2]uint16{(b << 12) | (a << 8) | uint16(op), c}
}

func enc23x(op byte, a, b, c uint16) [2]uint16 {
	return [2]uint16{(a << 8) | uint16(op), (c << 8) | b}
}

// enc12x covers both the move/unary 12x layout (dst nibble, src nibble) and
// the 2addr binary-op layout (dst/src1 nibble, src2 nibble) — identical bit
// shapes per dex.Decode's own "12x" case.
func enc12x(op byte, a, b uint16) uint16 {
	return (b << 12) | (a << 8) | uint16(op)
}

func enc10t(op byte, rel int8) uint16 {
	return (uint16(uint8(rel)) << 8) | uint16(op)
}

func enc31t(op byte, a uint16, rawOffset int32) [3]uint16 {
	u := uint32(rawOffset)
	return [3]uint16{(a << 8) | uint16(op), uint16(u & 0xFFFF), uint16(u >> 16)}
}

// enc35c builds the register-list 3-unit tail of a filled-new-array /
// invoke-kind (non-range) instruction. regs holds 0-5 register numbers in
// vC,vD,vE,vF,vG textual order; typeOrMethodIdx is args.A, never consulted
// by this port's handlers (they read the resolved name out of trace text
// instead) so it's always 0 in tests.
func enc35c(op byte, regs []uint16) [3]uint16 {
	var padded [5]uint16
	copy(padded[:], regs)
	count := uint16(len(regs))
	w3 := padded[0] | (padded[1] << 4) | (padded[2] << 8) | (padded[3] << 12)
	w := (count << 12) | (padded[4] << 8) | uint16(op)
	return [3]uint16{w, 0, w3}
}

func packedSwitchPayload(firstKey int32, targets []int32) []uint16 {
	out := []uint16{0x0100, uint16(len(targets))}
	out = append(out, uint16(uint32(firstKey)&0xFFFF), uint16(uint32(firstKey)>>16))
	for _, t := range targets {
		out = append(out, uint16(uint32(t)&0xFFFF), uint16(uint32(t)>>16))
	}
	return out
}
