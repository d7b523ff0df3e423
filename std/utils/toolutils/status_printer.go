package toolutils

import (
	"fmt"
	"io"
	"strings"
)

type StatusPrinter struct {
	File    io.Writer
	Padding int
}

// Print writes key=value with the key right-aligned to the padding width.
func (s StatusPrinter) Print(key string, value any) {
	pad := max(s.Padding-len(key), 0)
	fmt.Fprintf(s.File, "%s%s=%v\n", strings.Repeat(" ", pad), key, value)
}
