// Package analysis statically recovers an invoke instruction's argument
// values, and the set of earlier instructions needed to compute them,
// without executing any bytecode — used to decide whether a target method
// can run standalone or needs the dependency-bounded execution fallback.
//
// Grounded on original_source/dalvik_vm/static_analysis.py
// (ArgInfo/extract_args_static/_trace_register_source), forward_lookup.py
// (build_register_dependencies) and dependency_analyzer.py
// (MethodDependencies/DependencyAnalyzer), all three read in full. All
// three work off disassembly text rather than decoded instruction structs
// — a deliberate original design so the analyzer is agnostic to whichever
// disassembler produced the trace — and this package keeps that shape,
// consuming a traceindex.TraceMap exactly as the original consumes its
// trace_map dict.
package analysis

import (
	"sort"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/fatalSec/DaliVM/internal/traceindex"
)

// ArgSource classifies where an argument register's value came from.
type ArgSource int

const (
	SourceUnknown ArgSource = iota
	SourceConst
	SourceConstString
	SourceStaticGet
	SourceInvokeResult
	SourceParam
)

// ArgInfo mirrors static_analysis.py's ArgInfo dataclass.
type ArgInfo struct {
	Register     int
	Value        int64
	HasValue     bool
	Source       ArgSource
	SourceDetail string
	Resolved     bool
}

// maxTraceDepth bounds traceRegisterSource's move-chain and invoke-result
// recursion so a cyclic or pathological trace can't recurse unboundedly.
// spec.md §4.3's own recommendation for invoke-result sub-resolution depth
// is 4; the same constant also caps the (already naturally finite, but
// otherwise unguarded) move-chain walk.
const maxTraceDepth = 4

// ExtractArgsStatic finds the argument registers of the invoke instruction
// at callPC in tm and traces each one back to its source. Ported from
// extract_args_static: parses the invoke's operand tokens up to the first
// type/method-reference token (starting with 'L' or '[').
func ExtractArgsStatic(tm traceindex.TraceMap, callPC uint32) []ArgInfo {
	entry, ok := tm[callPC]
	if !ok {
		return nil
	}
	memo, _ := lru.New[tracePos, ArgInfo](256)
	var args []ArgInfo
	for _, reg := range argRegistersOf(entry.Text) {
		args = append(args, traceRegisterSource(reg, callPC, tm, 0, memo))
	}
	return args
}

// argRegistersOf extracts the "vN" register tokens an invoke instruction's
// text lists before its method-reference token, matching extract_args_static's
// "strip the opcode word, stop at the first L.../[... token" rule. It also
// unpacks a "{v1, v2}" register-list token into its individual registers,
// since BuildTraceMap renders invoke args as a braced list rather than the
// bare space-separated tokens a smali-style disassembler would.
func argRegistersOf(instrText string) []int {
	return argRegistersOfParts(strings.Fields(instrText))
}

func argRegistersOfParts(parts []string) []int {
	var regs []int
	for _, part := range parts[1:] {
		part = strings.Trim(part, ",{}")
		if part == "" {
			continue
		}
		if strings.HasPrefix(part, "L") || strings.HasPrefix(part, "[") {
			break
		}
		if n, ok := parseRegToken(part); ok {
			regs = append(regs, n)
		}
	}
	return regs
}

func parseRegToken(tok string) (int, bool) {
	tok = strings.Trim(tok, ",")
	if len(tok) < 2 || tok[0] != 'v' {
		return 0, false
	}
	n, err := strconv.Atoi(tok[1:])
	if err != nil {
		return 0, false
	}
	return n, true
}

// sortedPCsBefore returns tm's keys less than pc, descending (nearest-first).
func sortedPCsBefore(tm traceindex.TraceMap, pc uint32) []uint32 {
	var pcs []uint32
	for p := range tm {
		if p < pc {
			pcs = append(pcs, p)
		}
	}
	sort.Sort(sort.Reverse(uint32Slice(pcs)))
	return pcs
}

type uint32Slice []uint32

func (s uint32Slice) Len() int           { return len(s) }
func (s uint32Slice) Less(i, j int) bool { return s[i] < s[j] }
func (s uint32Slice) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

// traceRegisterSource walks backward from startPC looking for the nearest
// instruction that writes reg, ported from _trace_register_source. depth
// bounds both the move-chain follow and the invoke-result sub-resolution
// below at maxTraceDepth; memo caches (pc, reg, depth) triples already resolved
// during this call to ExtractArgsStatic so a diamond-shaped move chain
// doesn't re-walk the same prefix once per branch.
func traceRegisterSource(reg int, startPC uint32, tm traceindex.TraceMap, depth int, memo *lru.Cache[tracePos, ArgInfo]) ArgInfo {
	// depth is part of the key, not just (pc, reg): the same (pc, reg) pair
	// reached at a shallower depth can resolve where a deeper, budget-exhausted
	// call into it would not, so caching across depths would let a stale
	// optimistic result leak into a call that should see it as unresolved.
	key := tracePos{startPC, reg, depth}
	if cached, ok := memo.Get(key); ok {
		return cached
	}
	info := traceRegisterSourceUncached(reg, startPC, tm, depth, memo)
	memo.Add(key, info)
	return info
}

type tracePos struct {
	pc    uint32
	reg   int
	depth int
}

func traceRegisterSourceUncached(reg int, startPC uint32, tm traceindex.TraceMap, depth int, memo *lru.Cache[tracePos, ArgInfo]) ArgInfo {
	info := ArgInfo{Register: reg}

	for _, pc := range sortedPCsBefore(tm, startPC) {
		parts := strings.Fields(tm[pc].Text)
		if len(parts) < 2 {
			continue
		}
		opcode := parts[0]
		dst, ok := parseRegToken(strings.TrimSuffix(parts[1], ","))
		if !ok || dst != reg {
			continue
		}

		switch {
		case strings.HasPrefix(opcode, "const"):
			if strings.Contains(opcode, "string") {
				info.Source = SourceConstString
				info.SourceDetail = "needs execution"
				info.Resolved = false
			} else if len(parts) >= 3 {
				if v, ok := parseLiteral(parts[2]); ok {
					info.Source = SourceConst
					info.Value = v
					info.HasValue = true
					info.Resolved = true
				}
			}
			return info

		case strings.HasPrefix(opcode, "sget"):
			info.Source = SourceStaticGet
			info.SourceDetail = fieldOrMethodRef(parts)
			info.Resolved = false
			return info

		case opcode == "move" || strings.HasPrefix(opcode, "move/"):
			if len(parts) >= 3 {
				if src, ok := parseRegToken(parts[2]); ok {
					if depth >= maxTraceDepth {
						info.Source = SourceUnknown
						info.SourceDetail = "move-chain exceeded depth limit"
						return info
					}
					return traceRegisterSource(src, pc, tm, depth+1, memo)
				}
			}

		case opcode == "move-result" || opcode == "move-result-object" || opcode == "move-result-wide":
			info.Source = SourceInvokeResult
			invokePC, invokeParts, found := nearestInvokeBefore(tm, pc)
			if !found {
				info.Resolved = false
				return info
			}
			info.SourceDetail = fieldOrMethodRef(invokeParts)
			// A move-result is resolved only if every argument feeding the
			// invoke that produced it is itself resolved, checked up to
			// maxTraceDepth to avoid recursing through a long call chain.
			if depth < maxTraceDepth {
				info.Resolved = true
				for _, argReg := range argRegistersOfParts(invokeParts) {
					if arg := traceRegisterSource(argReg, invokePC, tm, depth+1, memo); !arg.Resolved {
						info.Resolved = false
						break
					}
				}
			}
			return info
		}
	}

	info.Source = SourceParam
	info.SourceDetail = "method parameter"
	info.Resolved = false
	return info
}

// nearestInvokeBefore finds the invoke-family instruction nearest to (but
// before) pc, the one a move-result at pc consumes.
func nearestInvokeBefore(tm traceindex.TraceMap, pc uint32) (uint32, []string, bool) {
	for _, p := range sortedPCsBefore(tm, pc) {
		text := tm[p].Text
		if strings.Contains(text, "invoke") {
			return p, strings.Fields(text), true
		}
	}
	return 0, nil, false
}

// fieldOrMethodRef pulls the "Class;->name..." token out of a disassembled
// instruction's operand list, truncated at the first ':' (field type
// suffix) or '(' (method signature suffix) — mirrors the original's
// part.split(':')[0] / part.split('(')[0] truncation.
func fieldOrMethodRef(parts []string) string {
	for _, part := range parts[1:] {
		if strings.Contains(part, "->") {
			if i := strings.IndexAny(part, ":("); i >= 0 {
				return part[:i]
			}
			return part
		}
	}
	return ""
}

func parseLiteral(tok string) (int64, bool) {
	tok = strings.TrimPrefix(tok, "#+")
	tok = strings.TrimPrefix(tok, "#")
	neg := strings.HasPrefix(tok, "-0x")
	if strings.HasPrefix(tok, "0x") || neg {
		hex := strings.TrimPrefix(strings.TrimPrefix(tok, "-"), "0x")
		v, err := strconv.ParseInt(hex, 16, 64)
		if err != nil {
			return 0, false
		}
		if neg {
			v = -v
		}
		return v, true
	}
	v, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
