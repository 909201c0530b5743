package interp

import (
	"github.com/fatalSec/DaliVM/internal/dex"
	"github.com/fatalSec/DaliVM/internal/value"
)

// isStaticInvoke reports whether op is one of the two invoke-static
// variants (0x71 non-range, 0x77 range), the one invoke-kind whose argument
// register list has no leading receiver.
func isStaticInvoke(op uint8) bool {
	return op == 0x71 || op == 0x77
}

// marshalArgs splits args.RegList into call-site Values, consulting
// paramDescs to know which raw register-list slots a wide parameter
// consumed two of (spec.md §4.6 "Parameter widening: a wide argument
// consumes two consecutive argument-register slots"). The receiver, if
// present, is read the same way as any other reference argument and
// returned separately so execInvoke can still build the hook/mock key
// without re-deriving whether this invoke-kind has one.
func marshalArgs(f *frame, op uint8, args dex.Args, paramDescs string) (receiver value.Value, hasReceiver bool, params []value.Value, err error) {
	regs := args.RegList
	pos := 0
	if !isStaticInvoke(op) {
		if pos >= len(regs) {
			return value.Null(), true, nil, fatalf(KindRuntime, f, "invoke: missing receiver register")
		}
		receiver, err = f.regs.Get(int(regs[pos]))
		if err != nil {
			return value.Null(), true, nil, err
		}
		hasReceiver = true
		pos++
	}

	descs := splitDescriptors(paramDescs)
	params = make([]value.Value, 0, len(descs))
	for _, desc := range descs {
		if pos >= len(regs) {
			return receiver, hasReceiver, nil, fatalf(KindRuntime, f, "invoke: fewer argument registers than the signature's parameter count")
		}
		v, err := f.regs.Get(int(regs[pos]))
		if err != nil {
			return receiver, hasReceiver, nil, err
		}
		params = append(params, v)
		if isWideDescriptor(desc) {
			pos += 2
		} else {
			pos++
		}
	}
	return receiver, hasReceiver, params, nil
}

// execInvoke ports invoke.py's execute_invoke_* family (opcodes 0x6e-0x78)
// as spec.md §4.6's four-step dispatch order. A fatal error surfacing from
// step 2's nested classloader.Execute call is deliberately swallowed here
// rather than returned, per spec.md §7's "propagation is strictly local":
// the callee's crash becomes this invoke's last-result being null, and
// execution of the CALLER continues, exactly the same leniency a missed
// hook (step 4) already gets.
func (i *Interp) execInvoke(f *frame, op uint8, args dex.Args, text string) error {
	class, name, paramDescs, _, ok := invokeSignature(text)
	if !ok {
		i.gap(f, "invoke: could not parse a method signature out of its own disassembly")
		f.lastResult = value.Null()
		return nil
	}

	receiver, hasReceiver, params, err := marshalArgs(f, op, args, paramDescs)
	if err != nil {
		return err
	}

	callArgs := params
	if hasReceiver {
		callArgs = make([]value.Value, 0, len(params)+1)
		callArgs = append(callArgs, receiver)
		callArgs = append(callArgs, params...)
	}

	key := class + "->" + name

	// Step 1: hook registries.
	var hook func([]value.Value, string) (value.Value, error)
	if isStaticInvoke(op) {
		if h, ok := i.Mocks.StaticHook(key); ok {
			hook = h
		}
	} else {
		if h, ok := i.Mocks.VirtualHook(key); ok {
			hook = h
		} else if h, ok := i.Mocks.StaticHook(key); ok {
			// invoke-super/-direct/-interface against a class whose mock
			// surface only registered the hook under the static table
			// (some bundled boxed-type hooks, e.g. Integer.valueOf, are
			// reachable through either dispatch path in practice).
			hook = h
		}
	}
	if hook != nil {
		v, err := hook(callArgs, text)
		if err != nil {
			i.gap(f, "invoke: mock hook "+key+" failed: "+err.Error())
			f.lastResult = value.Null()
			return nil
		}
		f.lastResult = v
		return nil
	}

	// Step 2: resolve through the class loader.
	result, returned, err := i.CL.Execute(class, name, callArgs)
	if err != nil {
		i.gap(f, "invoke: callee "+key+" aborted: "+err.Error())
		f.lastResult = value.Null()
		return nil
	}
	if returned {
		f.lastResult = result
		return nil
	}

	// Step 3: unmocked <init> is a no-op; the receiver already exists as a
	// bare instance from execNewInstance.
	if name == "<init>" {
		f.lastResult = value.Null()
		return nil
	}

	// Step 4: no hook, no body, not a constructor.
	i.gap(f, "invoke: "+key+" has no hook and no resolvable body")
	f.lastResult = value.Null()
	return nil
}
