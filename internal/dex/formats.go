package dex

// formats maps each opcode byte to its instruction-format mnemonic (10x, 11n,
// 22c, 35c, ...). Table adapted verbatim from google-enjarify's
// go/src/enjarify-go/dex/dalvik.go formats table, which in turn transcribes
// the Dalvik executable format's own instruction-format reference: the byte
// layout for a given opcode is fixed by the format spec, not by this
// project, so there is nothing to adapt beyond carrying the table forward.
var formats = [256]string{"10x", "12x", "22x", "32x", "12x", "22x", "32x", "12x", "22x", "32x", "11x", "11x", "11x", "11x", "10x", "11x", "11x", "11x", "11n", "21s", "31i", "21h", "21s", "31i", "51l", "21h", "21c", "31c", "21c", "11x", "11x", "21c", "22c", "12x", "21c", "22c", "35c", "3rc", "31t", "11x", "10t", "20t", "30t", "31t", "31t", "23x", "23x", "23x", "23x", "23x", "22t", "22t", "22t", "22t", "22t", "22t", "21t", "21t", "21t", "21t", "21t", "21t", "10x", "10x", "10x", "10x", "10x", "10x", "23x", "23x", "23x", "23x", "23x", "23x", "23x", "23x", "23x", "23x", "23x", "23x", "23x", "23x", "22c", "22c", "22c", "22c", "22c", "22c", "22c", "22c", "22c", "22c", "22c", "22c", "22c", "22c", "21c", "21c", "21c", "21c", "21c", "21c", "21c", "21c", "21c", "21c", "21c", "21c", "21c", "21c", "35c", "35c", "35c", "35c", "35c", "10x", "3rc", "3rc", "3rc", "3rc", "3rc", "10x", "10x", "12x", "12x", "12x", "12x", "12x", "12x", "12x", "12x", "12x", "12x", "12x", "12x", "12x", "12x", "12x", "12x", "12x", "12x", "12x", "12x", "12x", "23x", "23x", "23x", "23x", "23x", "23x", "23x", "23x", "23x", "23x", "23x", "23x", "23x", "23x", "23x", "23x", "23x", "23x", "23x", "23x", "23x", "23x", "23x", "23x", "23x", "23x", "23x", "23x", "23x", "23x", "23x", "23x", "12x", "12x", "12x", "12x", "12x", "12x", "12x", "12x", "12x", "12x", "12x", "12x", "12x", "12x", "12x", "12x", "12x", "12x", "12x", "12x", "12x", "12x", "12x", "12x", "12x", "12x", "12x", "12x", "12x", "12x", "12x", "12x", "22s", "22s", "22s", "22s", "22s", "22s", "22s", "22s", "22b", "22b", "22b", "22b", "22b", "22b", "22b", "22b", "22b", "22b", "22b", "10x", "10x", "10x", "10x", "10x", "10x", "10x", "10x", "10x", "10x", "10x", "10x", "10x", "10x", "10x", "10x", "10x", "10x", "10x", "10x", "10x", "10x", "10x", "10x", "10x", "10x", "10x", "10x", "10x"}

// Format reports the instruction-format mnemonic for a raw opcode byte.
func Format(op uint8) string { return formats[op] }

// Args holds the decoded operand fields of one instruction, named after the
// Dalvik format spec's own A/B/C/register-list convention rather than any
// opcode-specific meaning; interp's handlers know which fields a given
// family actually uses.
type Args struct {
	A, B, C    uint32
	Ra, Rb, Rc uint16
	Long       uint64
	RegList    []uint16
}

// Decode reads the operand fields of the instruction at pos (a uint16
// code-unit index into code) and returns the code-unit position of the next
// instruction plus the decoded fields.
//
// Adapted from google-enjarify's dalvik.go decode(): same bit layout, field
// names widened for a fetch-one-instruction-at-a-time interpreter rather
// than a whole-method JVM-retargeting pass (DalvikArgs.Args -> Args.RegList,
// since the invoke opcodes' register list is what it actually holds).
func Decode(code []uint16, pos uint32, opcode uint8) (uint32, Args) {
	format := formats[opcode]
	d := Args{}
	size := format[0] - '0'

	switch format[0] {
	case '1':
		w := uint32(code[pos])
		switch format {
		case "12x", "11n":
			d.A = (w >> 8) & 0xF
			d.B = w >> 12
		case "11x", "10t":
			d.A = w >> 8
		}

	case '2':
		w := uint32(code[pos])
		w2 := uint32(code[pos+1])
		switch format {
		case "20t":
			d.A = w2
		case "22x", "21t", "21s", "21h", "21c":
			d.A = w >> 8
			d.B = w2
		case "23x", "22b":
			d.A = w >> 8
			d.B = w2 & 0xFF
			d.C = w2 >> 8
		case "22t", "22s", "22c":
			d.A = (w >> 8) & 0xF
			d.B = w >> 12
			d.C = w2
		}

	case '3':
		w := uint32(code[pos])
		w2 := uint32(code[pos+1])
		w3 := uint32(code[pos+2])

		switch format {
		case "30t":
			d.A = w2 ^ (w3 << 16)
		case "32x":
			d.A = w2
			d.B = w3
		case "31i", "31t", "31c":
			d.A = w >> 8
			d.B = w2 ^ (w3 << 16)
		case "35c":
			a := w >> 12
			d.A = w2
			c, d1, e, f := uint16(w3)&0xF, uint16(w3>>4)&0xF, uint16(w3>>8)&0xF, uint16(w3>>12)&0xF
			g := uint16(w>>8) & 0xF
			d.RegList = []uint16{c, d1, e, f, g}[:a]
		case "3rc":
			a := w >> 8
			d.A = w2
			for i := w3; i < w3+a; i++ {
				d.RegList = append(d.RegList, uint16(i))
			}
		}
	case '5':
		d.A = uint32(code[pos]) >> 8
		for i := uint32(0); i < 4; i++ {
			d.Long ^= uint64(code[pos+1+i]) << (16 * i)
		}
	}

	switch format {
	case "11n":
		d.B = uint32(int8(d.B<<4) >> 4)
	case "10t":
		d.A = uint32(int8(d.A))
	case "22b":
		d.C = uint32(int8(d.C))
	case "20t":
		d.A = uint32(int16(d.A))
	case "21t", "21s":
		d.B = uint32(int16(d.B))
	case "22t", "22s":
		d.C = uint32(int16(d.C))
	}

	// const/high16 (opcode 0x15, 32-bit) shifts B into the top half; every
	// other *h format (0x19 const-wide/high16) is always wide, so it shifts
	// into the 64-bit Long field instead.
	if format[2] == 'h' {
		if opcode == 0x15 {
			d.B = d.B << 16
		} else {
			d.Long = uint64(d.B) << 48
		}
	}

	// const-wide/16 (0x16) and const-wide/32 (0x17) decode through the
	// 32-bit 21s/31i paths above, which already leave B holding the
	// correctly sign-extended 32-bit pattern; promote it into Long through
	// an int32 reinterpretation so a negative literal sign-extends to 64
	// bits instead of zero-extending into a large positive value.
	if opcode == 0x16 || opcode == 0x17 {
		d.Long = uint64(int64(int32(d.B)))
	}

	// Branch-offset formats encode a delta in code units from pos; resolve
	// to an absolute code-unit position here so callers never handle deltas.
	if format[2] == 't' {
		switch format[1] {
		case '0':
			d.A += pos
		case '1':
			d.B += pos
		case '2':
			d.C += pos
		}
	}

	d.Ra = uint16(d.A)
	d.Rb = uint16(d.B)
	d.Rc = uint16(d.C)
	return pos + uint32(size), d
}
