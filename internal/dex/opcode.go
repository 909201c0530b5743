// Package dex holds the Dalvik instruction-set tables: opcode-byte-to-family
// classification and per-format operand decoding.
//
// Family and is split by opcode ranges, adapted from google-enjarify's
// go/src/enjarify-go/dex/dalvik.go getOpcode table (itself the authoritative
// enumeration of Dalvik's ~130 opcodes by byte range). Dropped from the
// teacher version: Instruction.ImplicitCasts/PrevResult/Switchdata payload
// caching and parseBytecode's JVM-retargeting pass (catch-block-driven
// move-result typing, instance-of-then-check-cast narrowing) — that
// machinery exists to retarget Dalvik bytecode to JVM bytecode, a concern
// this interpreter does not have; the interpreter fetches and decodes one
// instruction at a time instead of pre-scanning a whole method body.
package dex

// Family buckets opcodes by the kind of operation they perform, used by the
// trace-map builder, the call-site scanner and the interpreter to recognize
// instruction shapes (move, const, invoke...) without a 130-way opcode
// switch of their own.
type Family int

const (
	FamInvalid Family = iota
	FamNop
	FamMove
	FamMoveWide
	FamMoveResult
	FamReturn
	FamConst32
	FamConst64
	FamConstString
	FamConstClass
	FamMonitorEnter
	FamMonitorExit
	FamCheckCast
	FamInstanceOf
	FamArrayLen
	FamNewInstance
	FamNewArray
	FamFilledNewArray
	FamFillArrayData
	FamThrow
	FamGoto
	FamSwitch
	FamCmp
	FamIf
	FamIfZ
	FamArrayGet
	FamArrayPut
	FamInstanceGet
	FamInstancePut
	FamStaticGet
	FamStaticPut
	FamInvokeVirtual
	FamInvokeSuper
	FamInvokeDirect
	FamInvokeStatic
	FamInvokeInterface
	FamUnaryOp
	FamBinaryOp
	FamBinaryOpConst
)

// OpcodeFamily classifies a raw Dalvik opcode byte into its instruction
// family. Ranges match the Dalvik bytecode reference exactly.
func OpcodeFamily(op uint8) Family {
	switch {
	case op == 0x00:
		return FamNop
	case op >= 0x01 && op <= 0x03:
		return FamMove
	case op >= 0x04 && op <= 0x06:
		return FamMoveWide
	case op >= 0x07 && op <= 0x09:
		return FamMove
	case op >= 0x0a && op <= 0x0d:
		return FamMoveResult
	case op >= 0x0e && op <= 0x11:
		return FamReturn
	case op >= 0x12 && op <= 0x15:
		return FamConst32
	case op >= 0x16 && op <= 0x19:
		return FamConst64
	case op >= 0x1a && op <= 0x1b:
		return FamConstString
	case op == 0x1c:
		return FamConstClass
	case op == 0x1d:
		return FamMonitorEnter
	case op == 0x1e:
		return FamMonitorExit
	case op == 0x1f:
		return FamCheckCast
	case op == 0x20:
		return FamInstanceOf
	case op == 0x21:
		return FamArrayLen
	case op == 0x22:
		return FamNewInstance
	case op == 0x23:
		return FamNewArray
	case op >= 0x24 && op <= 0x25:
		return FamFilledNewArray
	case op == 0x26:
		return FamFillArrayData
	case op == 0x27:
		return FamThrow
	case op >= 0x28 && op <= 0x2a:
		return FamGoto
	case op >= 0x2b && op <= 0x2c:
		return FamSwitch
	case op >= 0x2d && op <= 0x31:
		return FamCmp
	case op >= 0x32 && op <= 0x37:
		return FamIf
	case op >= 0x38 && op <= 0x3d:
		return FamIfZ
	case op >= 0x44 && op <= 0x4a:
		return FamArrayGet
	case op >= 0x4b && op <= 0x51:
		return FamArrayPut
	case op >= 0x52 && op <= 0x58:
		return FamInstanceGet
	case op >= 0x59 && op <= 0x5f:
		return FamInstancePut
	case op >= 0x60 && op <= 0x66:
		return FamStaticGet
	case op >= 0x67 && op <= 0x6d:
		return FamStaticPut
	case op == 0x6e:
		return FamInvokeVirtual
	case op == 0x6f:
		return FamInvokeSuper
	case op == 0x70:
		return FamInvokeDirect
	case op == 0x71:
		return FamInvokeStatic
	case op == 0x72:
		return FamInvokeInterface
	case op == 0x74:
		return FamInvokeVirtual
	case op == 0x75:
		return FamInvokeSuper
	case op == 0x76:
		return FamInvokeDirect
	case op == 0x77:
		return FamInvokeStatic
	case op == 0x78:
		return FamInvokeInterface
	case op >= 0x7b && op <= 0x8f:
		return FamUnaryOp
	case op >= 0x90 && op <= 0xcf:
		return FamBinaryOp
	case op >= 0xd0 && op <= 0xe2:
		return FamBinaryOpConst
	default:
		return FamNop
	}
}
