package packet

import (
	"fmt"
	"strings"
)

// HexDump renders data the way od does: one line per 16 bytes with an offset
// column, a double space after the eighth byte and an ASCII gutter. Returns
// the lines so the caller decides where they go.
func HexDump(data []byte) []string {
	lines := make([]string, 0, (len(data)+15)/16)

	for off := 0; off < len(data); off += 16 {
		chunk := data[off:min(off+16, len(data))]

		var b strings.Builder
		fmt.Fprintf(&b, "%08x  ", off)

		for j, c := range chunk {
			fmt.Fprintf(&b, "%02x ", c)
			if j == 7 {
				b.WriteByte(' ')
			}
		}
		for j := len(chunk); j < 16; j++ {
			b.WriteString("   ")
			if j == 7 {
				b.WriteByte(' ')
			}
		}

		b.WriteString(" |")
		for _, c := range chunk {
			if c >= '!' && c <= '~' || c == ' ' {
				b.WriteByte(c)
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('|')

		lines = append(lines, b.String())
	}
	return lines
}
