package traceindex

import (
	"fmt"
	"strings"

	"github.com/fatalSec/DaliVM/internal/dex"
)

// TraceEntry is one disassembled instruction: its smali-style text and its
// length in code units, keyed by pc in a TraceMap.
//
// internal/analysis deliberately works off this text form rather than a
// structured instruction record, mirroring original_source/dalvik_vm's own
// static_analysis.py/forward_lookup.py/dependency_analyzer.py — all three
// pattern-match disassembly strings (split on whitespace, check an opcode
// prefix, strip "vN," tokens) instead of a decoded-operand struct, a
// deliberate original design choice so the same analyzer works whichever
// disassembler produced the trace. This repo controls its own disassembler
// (BuildTraceMap below), so the strings it produces are exact instead of
// merely "close enough", but the matching code downstream still treats them
// as text for fidelity to that design.
type TraceEntry struct {
	Text string
	Len  uint32
}

// TraceMap is a method's pc -> TraceEntry table, the direct analogue of
// static_analysis.py's trace_map parameter.
type TraceMap map[uint32]TraceEntry

var unaryMnemonics = [...]string{
	"neg-int", "not-int", "neg-long", "not-long", "neg-float", "neg-double",
	"int-to-long", "int-to-float", "int-to-double", "long-to-int", "long-to-float",
	"long-to-double", "float-to-int", "float-to-long", "float-to-double",
	"double-to-int", "double-to-long", "double-to-float",
	"int-to-byte", "int-to-char", "int-to-short",
}

var binaryMnemonics = [...]string{
	"add-int", "sub-int", "mul-int", "div-int", "rem-int", "and-int", "or-int", "xor-int",
	"shl-int", "shr-int", "ushr-int",
	"add-long", "sub-long", "mul-long", "div-long", "rem-long", "and-long", "or-long", "xor-long",
	"shl-long", "shr-long", "ushr-long",
	"add-float", "sub-float", "mul-float", "div-float", "rem-float",
	"add-double", "sub-double", "mul-double", "div-double", "rem-double",
}

var binaryLit16Mnemonics = [...]string{
	"add-int/lit16", "rsub-int", "mul-int/lit16", "div-int/lit16", "rem-int/lit16",
	"and-int/lit16", "or-int/lit16", "xor-int/lit16",
}

var binaryLit8Mnemonics = [...]string{
	"add-int/lit8", "rsub-int/lit8", "mul-int/lit8", "div-int/lit8", "rem-int/lit8",
	"and-int/lit8", "or-int/lit8", "xor-int/lit8", "shl-int/lit8", "shr-int/lit8", "ushr-int/lit8",
}

var arrayMnemonics = [...]string{"aget", "aget-wide", "aget-object", "aget-boolean", "aget-byte", "aget-char", "aget-short"}
var arrayPutMnemonics = [...]string{"aput", "aput-wide", "aput-object", "aput-boolean", "aput-byte", "aput-char", "aput-short"}
var instanceGetMnemonics = [...]string{"iget", "iget-wide", "iget-object", "iget-boolean", "iget-byte", "iget-char", "iget-short"}
var instancePutMnemonics = [...]string{"iput", "iput-wide", "iput-object", "iput-boolean", "iput-byte", "iput-char", "iput-short"}
var staticGetMnemonics = [...]string{"sget", "sget-wide", "sget-object", "sget-boolean", "sget-byte", "sget-char", "sget-short"}
var staticPutMnemonics = [...]string{"sput", "sput-wide", "sput-object", "sput-boolean", "sput-byte", "sput-char", "sput-short"}
var cmpMnemonics = [...]string{"cmpl-float", "cmpg-float", "cmpl-double", "cmpg-double", "cmp-long"}
var ifMnemonics = [...]string{"if-eq", "if-ne", "if-lt", "if-ge", "if-gt", "if-le"}
var ifzMnemonics = [...]string{"if-eqz", "if-nez", "if-ltz", "if-gez", "if-gtz", "if-lez"}

func reg(n uint16) string { return fmt.Sprintf("v%d", n) }

func regList(list []uint16) string {
	parts := make([]string, len(list))
	for i, r := range list {
		parts[i] = reg(r)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// invokeMnemonic names the five non-range and five range invoke opcodes.
func invokeMnemonic(op uint8) string {
	switch op {
	case 0x6e:
		return "invoke-virtual"
	case 0x6f:
		return "invoke-super"
	case 0x70:
		return "invoke-direct"
	case 0x71:
		return "invoke-static"
	case 0x72:
		return "invoke-interface"
	case 0x74:
		return "invoke-virtual/range"
	case 0x75:
		return "invoke-super/range"
	case 0x76:
		return "invoke-direct/range"
	case 0x77:
		return "invoke-static/range"
	case 0x78:
		return "invoke-interface/range"
	}
	return "invoke-unknown"
}

// disasmOne renders one instruction's smali-style text, given its already
// decoded Args.
func (c *Container) disasmOne(op uint8, args dex.Args) string {
	fam := dex.OpcodeFamily(op)
	switch fam {
	case dex.FamNop:
		return "nop"
	case dex.FamMove:
		return fmt.Sprintf("move %s, %s", reg(args.Ra), reg(args.Rb))
	case dex.FamMoveWide:
		return fmt.Sprintf("move-wide %s, %s", reg(args.Ra), reg(args.Rb))
	case dex.FamMoveResult:
		names := [...]string{"move-result", "move-result-wide", "move-result-object", "move-exception"}
		idx := op - 0x0a
		return fmt.Sprintf("%s %s", names[idx], reg(args.Ra))
	case dex.FamReturn:
		names := [...]string{"return-void", "return", "return-wide", "return-object"}
		idx := op - 0x0e
		if op == 0x0e {
			return "return-void"
		}
		return fmt.Sprintf("%s %s", names[idx], reg(args.Ra))
	case dex.FamConst32:
		names := [...]string{"const/4", "const/16", "const", "const/high16"}
		return fmt.Sprintf("%s %s, #+%d", names[op-0x12], reg(args.Ra), int32(args.B))
	case dex.FamConst64:
		names := [...]string{"const-wide/16", "const-wide/32", "const-wide", "const-wide/high16"}
		return fmt.Sprintf("%s %s, #+%d", names[op-0x16], reg(args.Ra), int64(args.Long))
	case dex.FamConstString:
		return fmt.Sprintf("const-string %s, \"%s\"", reg(args.Ra), c.String(args.B))
	case dex.FamConstClass:
		return fmt.Sprintf("const-class %s, %s", reg(args.Ra), c.Type(args.B))
	case dex.FamMonitorEnter:
		return fmt.Sprintf("monitor-enter %s", reg(args.Ra))
	case dex.FamMonitorExit:
		return fmt.Sprintf("monitor-exit %s", reg(args.Ra))
	case dex.FamCheckCast:
		return fmt.Sprintf("check-cast %s, %s", reg(args.Ra), c.Type(args.B))
	case dex.FamInstanceOf:
		return fmt.Sprintf("instance-of %s, %s, %s", reg(args.Ra), reg(args.Rb), c.Type(args.C))
	case dex.FamArrayLen:
		return fmt.Sprintf("array-length %s, %s", reg(args.Ra), reg(args.Rb))
	case dex.FamNewInstance:
		return fmt.Sprintf("new-instance %s, %s", reg(args.Ra), c.Type(args.B))
	case dex.FamNewArray:
		return fmt.Sprintf("new-array %s, %s, %s", reg(args.Ra), reg(args.Rb), c.Type(args.C))
	case dex.FamFilledNewArray:
		mnem := "filled-new-array"
		if op == 0x25 {
			mnem = "filled-new-array/range"
		}
		return fmt.Sprintf("%s %s, %s", mnem, regList(args.RegList), c.Type(args.A))
	case dex.FamFillArrayData:
		return fmt.Sprintf("fill-array-data %s, +%d", reg(args.Ra), args.B)
	case dex.FamThrow:
		return fmt.Sprintf("throw %s", reg(args.Ra))
	case dex.FamGoto:
		return fmt.Sprintf("goto +%d", args.A)
	case dex.FamSwitch:
		mnem := "packed-switch"
		if op == 0x2c {
			mnem = "sparse-switch"
		}
		return fmt.Sprintf("%s %s, +%d", mnem, reg(args.Ra), args.B)
	case dex.FamCmp:
		return fmt.Sprintf("%s %s, %s, %s", cmpMnemonics[op-0x2d], reg(args.Ra), reg(args.Rb), reg(args.Rc))
	case dex.FamIf:
		return fmt.Sprintf("%s %s, %s, +%d", ifMnemonics[op-0x32], reg(args.Ra), reg(args.Rb), int32(args.C))
	case dex.FamIfZ:
		return fmt.Sprintf("%s %s, +%d", ifzMnemonics[op-0x38], reg(args.Ra), int32(args.B))
	case dex.FamArrayGet:
		return fmt.Sprintf("%s %s, %s, %s", arrayMnemonics[op-0x44], reg(args.Ra), reg(args.Rb), reg(args.Rc))
	case dex.FamArrayPut:
		return fmt.Sprintf("%s %s, %s, %s", arrayPutMnemonics[op-0x4b], reg(args.Ra), reg(args.Rb), reg(args.Rc))
	case dex.FamInstanceGet:
		field := "?"
		if f, ok := c.Field(args.C); ok {
			field = f.Class + "->" + f.Name + ":" + f.Type
		}
		return fmt.Sprintf("%s %s, %s, %s", instanceGetMnemonics[op-0x52], reg(args.Ra), reg(args.Rb), field)
	case dex.FamInstancePut:
		field := "?"
		if f, ok := c.Field(args.C); ok {
			field = f.Class + "->" + f.Name + ":" + f.Type
		}
		return fmt.Sprintf("%s %s, %s, %s", instancePutMnemonics[op-0x59], reg(args.Ra), reg(args.Rb), field)
	case dex.FamStaticGet:
		field := "?"
		if f, ok := c.Field(args.B); ok {
			field = f.Class + "->" + f.Name + ":" + f.Type
		}
		return fmt.Sprintf("%s %s, %s", staticGetMnemonics[op-0x60], reg(args.Ra), field)
	case dex.FamStaticPut:
		field := "?"
		if f, ok := c.Field(args.B); ok {
			field = f.Class + "->" + f.Name + ":" + f.Type
		}
		return fmt.Sprintf("%s %s, %s", staticPutMnemonics[op-0x67], reg(args.Ra), field)
	case dex.FamInvokeVirtual, dex.FamInvokeSuper, dex.FamInvokeDirect, dex.FamInvokeStatic, dex.FamInvokeInterface:
		m, ok := c.Method(int(args.A))
		sig := "?"
		if ok {
			sig = m.FullName() + "(" + strings.Join(m.Proto.ParamTypes, "") + ")" + m.Proto.ReturnType
		}
		return fmt.Sprintf("%s %s, %s", invokeMnemonic(op), regList(args.RegList), sig)
	case dex.FamUnaryOp:
		return fmt.Sprintf("%s %s, %s", unaryMnemonics[op-0x7b], reg(args.Ra), reg(args.Rb))
	case dex.FamBinaryOp:
		if op <= 0xaf {
			return fmt.Sprintf("%s %s, %s, %s", binaryMnemonics[op-0x90], reg(args.Ra), reg(args.Rb), reg(args.Rc))
		}
		return fmt.Sprintf("%s/2addr %s, %s", binaryMnemonics[op-0xb0], reg(args.Ra), reg(args.Rb))
	case dex.FamBinaryOpConst:
		if op <= 0xd7 {
			return fmt.Sprintf("%s %s, %s, #+%d", binaryLit16Mnemonics[op-0xd0], reg(args.Ra), reg(args.Rb), int32(args.C))
		}
		return fmt.Sprintf("%s %s, %s, #+%d", binaryLit8Mnemonics[op-0xd8], reg(args.Ra), reg(args.Rb), int32(args.C))
	default:
		return fmt.Sprintf("unknown-0x%02x", op)
	}
}

// BuildTraceMap disassembles one method body into a pc -> TraceEntry table,
// ported from the role original_source/dalvik_vm's trace-map builder plays
// ahead of static_analysis.py/forward_lookup.py (those two modules take a
// pre-built trace_map as a parameter rather than building it themselves).
func (c *Container) BuildTraceMap(code *CodeItem) TraceMap {
	tm := TraceMap{}
	insns := code.Code
	pos := uint32(0)
	for pos < uint32(len(insns)) {
		if dex.IsPayload(insns, pos) {
			size := dex.PayloadSize(insns, pos)
			if size == 0 {
				break
			}
			pos += size
			continue
		}
		opcode := uint8(insns[pos] & 0xFF)
		next, args := dex.Decode(insns, pos, opcode)
		if next <= pos {
			break
		}
		tm[pos] = TraceEntry{Text: c.disasmOne(opcode, args), Len: next - pos}
		pos = next
	}
	return tm
}
