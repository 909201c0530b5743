package interp

import (
	"github.com/fatalSec/DaliVM/internal/dex"
	"github.com/fatalSec/DaliVM/internal/value"
)

// execConst ports const.py's execute_const_4/16/_const/high16 and
// execute_const_wide_16/32/wide/wide_high16. dex.Decode already folds every
// encoding variant's literal into args.B (32-bit families) or args.Long
// (64-bit families) as a correctly sign-extended bit pattern, so one
// int32/int64 reinterpretation covers every opcode in both families.
func (i *Interp) execConst(f *frame, op uint8, args dex.Args) error {
	if op <= 0x15 {
		return f.regs.Set(int(args.Ra), value.Int32(int32(args.B)))
	}
	return f.regs.SetWide(int(args.Ra), value.Int64(int64(args.Long)))
}

// execConstString ports execute_const_string. The original falls back to a
// "<string_N>" placeholder when vm.strings can't resolve the index; this
// port's trace text is always a real resolved string (BuildTraceMap already
// consulted the Container), so that fallback case no longer applies, but a
// malformed disassembly (no quotes found) still degrades to an empty
// string rather than aborting the method.
func (i *Interp) execConstString(f *frame, args dex.Args, text string) error {
	s, ok := quotedString(text)
	if !ok {
		i.gap(f, "const-string: could not parse a quoted literal out of its own disassembly")
	}
	return f.regs.Set(int(args.Ra), value.NewString(s))
}

// execConstClass ports execute_const_class. Unlike the original's permanent
// "<class_N>" stub, this resolves to the real type name the trace text
// already carries.
func (i *Interp) execConstClass(f *frame, args dex.Args, text string) error {
	name := lastToken(text)
	return f.regs.Set(int(args.Ra), value.ClassRef(name))
}
