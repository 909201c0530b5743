package interp

import "strings"

// These helpers pull already-resolved names back out of a TraceEntry's text
// instead of consulting a traceindex.Container directly: classloader.
// Executor's signature (by design — see DESIGN.md) never hands the
// interpreter a Container, only the TraceMap that disasmOne already
// rendered from one. spec.md §4.2 calls this trace form "the authoritative
// key" for exactly this reason, and original_source's own opcode handlers
// (field.py, objects.py, const.py, invoke.py) all resolve names by parsing
// trace_str rather than holding a class-loader handle themselves.

// lastToken returns the text after the final ", " in an instruction's
// disassembly — the type/field-signature operand disasmOne always renders
// last (const-class, check-cast, instance-of, new-instance, new-array,
// filled-new-array, iget/iput/sget/sput's "Class;->name:Type").
func lastToken(text string) string {
	idx := strings.LastIndex(text, ", ")
	if idx < 0 {
		return text
	}
	return text[idx+2:]
}

// quotedString extracts the text between the first and last double quotes
// in a const-string instruction's disassembly ('const-string vN, "value"'),
// tolerating a value that itself contains escaped quotes by taking
// everything between the outermost pair rather than splitting naively.
func quotedString(text string) (string, bool) {
	first := strings.IndexByte(text, '"')
	last := strings.LastIndexByte(text, '"')
	if first < 0 || last <= first {
		return "", false
	}
	return text[first+1 : last], true
}

// invokeSignature splits an invoke instruction's trailing
// "Lclass;->name(paramdescs)retdesc" segment into class, method name, raw
// parameter descriptor string, and return descriptor.
func invokeSignature(text string) (class, name, paramDescs, retDesc string, ok bool) {
	sig := lastToken(text)
	arrow := strings.Index(sig, "->")
	if arrow < 0 {
		return "", "", "", "", false
	}
	class = sig[:arrow]
	rest := sig[arrow+2:]
	open := strings.IndexByte(rest, '(')
	closeIdx := strings.IndexByte(rest, ')')
	if open < 0 || closeIdx < open {
		return "", "", "", "", false
	}
	name = rest[:open]
	paramDescs = rest[open+1 : closeIdx]
	retDesc = rest[closeIdx+1:]
	return class, name, paramDescs, retDesc, true
}

// splitDescriptors splits a concatenated JVM type-descriptor run (e.g.
// "ILjava/lang/String;[BJ") into its individual tokens, per the standard
// descriptor grammar: a primitive is one letter (IJFDBCSZV), an array is
// '[' repeated then a descriptor, and an object is 'L' up to and including
// the terminating ';'.
func splitDescriptors(descs string) []string {
	var out []string
	i := 0
	for i < len(descs) {
		start := i
		for i < len(descs) && descs[i] == '[' {
			i++
		}
		if i >= len(descs) {
			break
		}
		if descs[i] == 'L' {
			for i < len(descs) && descs[i] != ';' {
				i++
			}
			if i < len(descs) {
				i++
			}
		} else {
			i++
		}
		out = append(out, descs[start:i])
	}
	return out
}

// isWideDescriptor reports whether a single type-descriptor token denotes a
// 64-bit value (long or double), the only case where the original Dalvik
// register list encodes a parameter across two consecutive register
// numbers.
func isWideDescriptor(desc string) bool {
	return desc == "J" || desc == "D"
}
