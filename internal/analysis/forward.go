package analysis

import (
	"strings"

	"github.com/fatalSec/DaliVM/internal/traceindex"
)

// BuildRegisterDependencies walks backward from targetPC collecting the pcs
// of every instruction that contributes to argRegs' values, plus two
// forward lookups: new-array's companion fill-array-data, and
// new-instance's companion invoke-direct <init>. Ported from
// forward_lookup.py's build_register_dependencies, same per-opcode
// written/read register rules and the same two forward-scan patterns.
func BuildRegisterDependencies(tm traceindex.TraceMap, targetPC uint32, argRegs []int) map[uint32]bool {
	sortedPCs := sortedPCsAsc(tm, targetPC)
	deps := map[uint32]bool{}
	if len(sortedPCs) == 0 {
		return deps
	}

	needed := map[int]bool{}
	for _, r := range argRegs {
		needed[r] = true
	}

	for i := len(sortedPCs) - 1; i >= 0; i-- {
		pc := sortedPCs[i]
		parts := strings.Fields(tm[pc].Text)
		if len(parts) == 0 {
			continue
		}
		opcode := parts[0]

		var written *int
		var read []int

		switch {
		case strings.HasPrefix(opcode, "const"):
			if len(parts) >= 2 {
				if r, ok := parseRegToken(parts[1]); ok {
					written = &r
				}
			}

		case opcode == "move" || strings.HasPrefix(opcode, "move/"):
			if len(parts) >= 3 {
				if a, ok := parseRegToken(parts[1]); ok {
					written = &a
				}
				if b, ok := parseRegToken(parts[2]); ok {
					read = append(read, b)
				}
			}

		case opcode == "move-result" || opcode == "move-result-object" || opcode == "move-result-wide":
			if len(parts) >= 2 {
				if a, ok := parseRegToken(parts[1]); ok {
					written = &a
					for _, prevPC := range sortedPCsDesc(sortedPCs, pc) {
						prevText := tm[prevPC].Text
						if strings.Contains(prevText, "invoke") {
							deps[prevPC] = true
							for _, p := range strings.Fields(prevText)[1:] {
								p = strings.Trim(p, ",{}")
								if strings.HasPrefix(p, "L") || strings.HasPrefix(p, "[") {
									break
								}
								if r, ok := parseRegToken(p); ok {
									read = append(read, r)
								}
							}
							break
						}
					}
				}
			}

		case strings.HasPrefix(opcode, "sget"):
			if len(parts) >= 2 {
				if r, ok := parseRegToken(parts[1]); ok {
					written = &r
				}
			}

		case strings.HasPrefix(opcode, "iget"):
			if len(parts) >= 3 {
				if a, ok := parseRegToken(parts[1]); ok {
					written = &a
				}
				if b, ok := parseRegToken(parts[2]); ok {
					read = append(read, b)
				}
			}

		case strings.HasPrefix(opcode, "aget"):
			if len(parts) >= 4 {
				if a, ok := parseRegToken(parts[1]); ok {
					written = &a
				}
				if b, ok := parseRegToken(parts[2]); ok {
					read = append(read, b)
				}
				if cReg, ok := parseRegToken(parts[3]); ok {
					read = append(read, cReg)
				}
			}

		case opcode == "new-array":
			if len(parts) >= 3 {
				if a, ok := parseRegToken(parts[1]); ok {
					written = &a
					for _, fwdPC := range sortedPCsAfter(sortedPCs, pc) {
						fwdText := tm[fwdPC].Text
						if strings.Contains(fwdText, "fill-array-data") {
							fwdParts := strings.Fields(fwdText)
							if len(fwdParts) >= 2 && strings.TrimSuffix(fwdParts[1], ",") == regName(a) {
								deps[fwdPC] = true
								break
							}
						}
					}
				}
				if b, ok := parseRegToken(parts[2]); ok {
					read = append(read, b)
				}
			}

		case opcode == "new-instance":
			if len(parts) >= 2 {
				if a, ok := parseRegToken(parts[1]); ok {
					written = &a
					for _, fwdPC := range sortedPCsAfter(sortedPCs, pc) {
						fwdText := tm[fwdPC].Text
						if strings.Contains(fwdText, "invoke-direct") && strings.Contains(fwdText, "<init>") {
							fwdParts := strings.Fields(fwdText)
							if len(fwdParts) >= 2 {
								firstArg := strings.Trim(fwdParts[1], ",{}")
								if firstArg == regName(a) {
									deps[fwdPC] = true
									for _, p := range fwdParts[2:] {
										p = strings.Trim(p, ",{}")
										if strings.HasPrefix(p, "L") || strings.HasPrefix(p, "[") {
											break
										}
										if r, ok := parseRegToken(p); ok {
											read = append(read, r)
										}
									}
									break
								}
							}
						}
					}
				}
			}

		case opcode == "check-cast":
			if len(parts) >= 2 {
				if r, ok := parseRegToken(parts[1]); ok {
					written = &r
					read = append(read, r)
				}
			}

		case hasBinopPrefix(opcode):
			written, read = binopOperands(opcode, parts)

		case strings.HasPrefix(opcode, "int-to-") || strings.HasPrefix(opcode, "long-to-") ||
			strings.HasPrefix(opcode, "float-to-") || strings.HasPrefix(opcode, "double-to-"):
			if len(parts) >= 3 {
				if a, ok := parseRegToken(parts[1]); ok {
					written = &a
				}
				if b, ok := parseRegToken(parts[2]); ok {
					read = append(read, b)
				}
			}
		}

		if written != nil && needed[*written] {
			deps[pc] = true
			delete(needed, *written)
			for _, r := range read {
				needed[r] = true
			}
		}
	}

	return deps
}

func regName(n int) string { return "v" + itoa(n) }

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [12]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func hasBinopPrefix(opcode string) bool {
	for _, p := range [...]string{"add-", "sub-", "mul-", "div-", "rem-", "and-", "or-", "xor-"} {
		if strings.HasPrefix(opcode, p) {
			return true
		}
	}
	return false
}

func binopOperands(opcode string, parts []string) (written *int, read []int) {
	switch {
	case strings.Contains(opcode, "/2addr"):
		if len(parts) >= 3 {
			if a, ok := parseRegToken(parts[1]); ok {
				written = &a
				read = append(read, a)
			}
			if b, ok := parseRegToken(parts[2]); ok {
				read = append(read, b)
			}
		}
	case strings.Contains(opcode, "/lit"):
		if len(parts) >= 3 {
			if a, ok := parseRegToken(parts[1]); ok {
				written = &a
			}
			if b, ok := parseRegToken(parts[2]); ok {
				read = append(read, b)
			}
		}
	default:
		if len(parts) >= 4 {
			if a, ok := parseRegToken(parts[1]); ok {
				written = &a
			}
			if b, ok := parseRegToken(parts[2]); ok {
				read = append(read, b)
			}
			if cReg, ok := parseRegToken(parts[3]); ok {
				read = append(read, cReg)
			}
		}
	}
	return
}

func sortedPCsAsc(tm traceindex.TraceMap, before uint32) []uint32 {
	var pcs []uint32
	for p := range tm {
		if p < before {
			pcs = append(pcs, p)
		}
	}
	sortUint32(pcs)
	return pcs
}

func sortedPCsDesc(sorted []uint32, before uint32) []uint32 {
	var out []uint32
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i] < before {
			out = append(out, sorted[i])
		}
	}
	return out
}

func sortedPCsAfter(sorted []uint32, after uint32) []uint32 {
	var out []uint32
	for _, p := range sorted {
		if p > after {
			out = append(out, p)
		}
	}
	return out
}

func sortUint32(s []uint32) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
