package interp

import (
	"github.com/fatalSec/DaliVM/internal/dex"
	"github.com/fatalSec/DaliVM/internal/value"
)

// execMove ports move.py's execute_move/_from16/_16 and
// execute_move_wide*: object-variants are identical to the plain
// register-copy, since value.Value already carries its own tag.
func (i *Interp) execMove(f *frame, fam dex.Family, args dex.Args) error {
	if fam == dex.FamMoveWide {
		return f.regs.MoveWide(int(args.Ra), int(args.Rb))
	}
	return f.regs.Move(int(args.Ra), int(args.Rb))
}

// execMoveResult ports move.py's execute_move_result/_wide/_object and
// execute_move_exception. An unset last-result (no invoke ran yet) defaults
// to Null rather than erroring, matching the original's lenient
// RegisterValue(None) fallback.
func (i *Interp) execMoveResult(f *frame, op uint8, args dex.Args) error {
	switch op {
	case 0x0a, 0x0b, 0x0c: // move-result, move-result-wide, move-result-object
		return f.regs.Set(int(args.Ra), f.lastResult)
	case 0x0d: // move-exception
		// No try/catch dispatch exists in this interpreter (spec.md
		// Non-goals), so a move-exception is only ever reached if control
		// flow jumps directly into a handler block; there is never a real
		// pending exception object to hand back.
		return f.regs.Set(int(args.Ra), value.Null())
	}
	return nil
}

// execReturn ports return_.py's execute_return_void/_return/_wide/_object.
// Every variant reads the one register and hands its full Value back
// verbatim (wide values already occupy a single logical slot), so there is
// no width-specific branching needed beyond return-void's lack of an
// operand.
func (i *Interp) execReturn(f *frame, op uint8, args dex.Args) error {
	if op == 0x0e {
		f.finished = true
		f.retVal = value.Null()
		return nil
	}
	v, err := f.regs.Get(int(args.Ra))
	if err != nil {
		return err
	}
	f.finished = true
	f.retVal = v
	return nil
}
