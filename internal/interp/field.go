package interp

import (
	"strings"

	"github.com/fatalSec/DaliVM/internal/dex"
	"github.com/fatalSec/DaliVM/internal/value"
)

// fieldSignature splits a trace-text field operand ("Lfoo/Bar;->baz:I")
// into its class and field-name parts; the type descriptor after the final
// ':' is rendering detail this port never needs, since a Value already
// carries its own Kind.
func fieldSignature(text string) (class, name string, ok bool) {
	sig := lastToken(text)
	arrow := strings.Index(sig, "->")
	if arrow < 0 {
		return "", "", false
	}
	class = sig[:arrow]
	rest := sig[arrow+2:]
	colon := strings.IndexByte(rest, ':')
	if colon < 0 {
		name = rest
	} else {
		name = rest[:colon]
	}
	return class, name, true
}

// instanceFieldOf fetches the object register an iget/iput targets,
// demand-allocating its Fields map the same way value.NewObject already
// does for freshly constructed instances (a receiver built through a path
// this port doesn't model, e.g. a mock factory, might not have one).
func instanceFieldOf(f *frame, idx int) (*value.Object, error) {
	v, err := f.regs.Get(idx)
	if err != nil {
		return nil, err
	}
	if v.Kind != value.KindObject && v.Kind != value.KindException && v.Kind != value.KindString {
		return nil, fatalf(KindRuntime, f, "v%d is not an object reference", idx)
	}
	if v.Obj == nil {
		return nil, fatalf(KindRuntime, f, "v%d is a null receiver", idx)
	}
	if v.Obj.Fields == nil {
		v.Obj.Fields = map[string]value.Value{}
	}
	return v.Obj, nil
}

// execInstanceGet ports field.py's execute_iget family (22c: vA = vB.field).
// instanceGetMnemonics is indexed op-0x52; only iget-wide (index 1) needs
// SetWide. A field never written defaults to Null rather than erroring,
// matching original_source's get(default=None) instance-field reads.
func (i *Interp) execInstanceGet(f *frame, op uint8, args dex.Args, text string) error {
	obj, err := instanceFieldOf(f, int(args.Rb))
	if err != nil {
		return err
	}
	_, name, ok := fieldSignature(text)
	if !ok {
		i.gap(f, "iget: could not parse a field signature out of its own disassembly")
		return f.regs.Set(int(args.Ra), value.Null())
	}
	v, _ := obj.Field(name)
	if op == 0x53 { // iget-wide
		return f.regs.SetWide(int(args.Ra), v)
	}
	return f.regs.Set(int(args.Ra), v)
}

// execInstancePut ports field.py's execute_iput family (22c: vB.field = vA).
// Both iget and iput key on the field's NAME, unlike original_source's
// field.py which keys iput by the raw field index and iget by name,
// silently desyncing the two whenever a field is read back under a
// different index than it was written under (overridden/inherited fields,
// multiple DefinedField entries for one name). This port uses one key for
// both directions.
func (i *Interp) execInstancePut(f *frame, op uint8, args dex.Args, text string) error {
	obj, err := instanceFieldOf(f, int(args.Rb))
	if err != nil {
		return err
	}
	_, name, ok := fieldSignature(text)
	if !ok {
		i.gap(f, "iput: could not parse a field signature out of its own disassembly")
		return nil
	}
	v, err := f.regs.Get(int(args.Ra))
	if err != nil {
		return err
	}
	obj.SetField(name, v)
	return nil
}

// execStaticGet ports field.py's execute_sget family (21c: vA = Class.field).
// Per spec.md §4.6, a mock static field (e.g. Build.VERSION.SDK_INT) takes
// priority over the real statefield.Store, and reading an uninitialized
// class's field runs its <clinit> first so later reads observe whatever
// that initializer actually assigned.
func (i *Interp) execStaticGet(f *frame, op uint8, args dex.Args, text string) error {
	class, name, ok := fieldSignature(text)
	if !ok {
		i.gap(f, "sget: could not parse a field signature out of its own disassembly")
		return f.regs.Set(int(args.Ra), value.Null())
	}
	if mv, ok := i.Mocks.StaticField(class + "->" + name); ok {
		if op == 0x61 {
			return f.regs.SetWide(int(args.Ra), mv)
		}
		return f.regs.Set(int(args.Ra), mv)
	}
	if !i.Store.IsClassInitialized(class) {
		if err := i.CL.RunClinit(class); err != nil {
			return err
		}
	}
	v := value.Null()
	if raw, ok := i.Store.Get(class, name); ok {
		if rv, ok := raw.(value.Value); ok {
			v = rv
		}
	}
	if op == 0x61 { // sget-wide
		return f.regs.SetWide(int(args.Ra), v)
	}
	return f.regs.Set(int(args.Ra), v)
}

// execStaticPut ports field.py's execute_sput family (21c: Class.field = vA).
// Writing a static field counts as touching the class, but does not itself
// run <clinit>: original_source/dalvik_vm/class_loader.py only gates reads,
// and a static initializer's own body is exactly the code that legitimately
// writes these fields before they're marked initialized.
func (i *Interp) execStaticPut(f *frame, op uint8, args dex.Args, text string) error {
	class, name, ok := fieldSignature(text)
	if !ok {
		i.gap(f, "sput: could not parse a field signature out of its own disassembly")
		return nil
	}
	v, err := f.regs.Get(int(args.Ra))
	if err != nil {
		return err
	}
	i.Store.Set(class, name, v)
	return nil
}
