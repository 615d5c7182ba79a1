package history

import (
	"fmt"
	"io"
	"strings"
)

// WriteTo writes a human-readable listing of the history to w.
// The cycle at the cursor is marked with "-->".
func (h *History) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder

	sb.WriteString("Undo List:\n")
	fmt.Fprintf(&sb, " Pointer is at: %d\n", h.position)
	for i, c := range h.cycles {
		if i == h.position {
			sb.WriteString(" -->")
		} else {
			sb.WriteString("    ")
		}
		if c == nil {
			sb.WriteString("<empty>\n")
			continue
		}
		sb.WriteString(c.String())
		sb.WriteByte('\n')
	}
	if h.pending != nil {
		fmt.Fprintf(&sb, "  + open %s\n", h.pending)
	}

	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}

// String returns the same listing as WriteTo.
func (h *History) String() string {
	var sb strings.Builder
	_, _ = h.WriteTo(&sb)
	return sb.String()
}
