package utils

import (
	"fmt"
	"io"
	"runtime"
)

// PrintStackTrace writes the stacks of all goroutines to w.
func PrintStackTrace(w io.Writer) {
	buf := make([]byte, 1<<20)
	stacklen := runtime.Stack(buf, true)
	fmt.Fprintf(w, "*** goroutine dump...\n%s\n*** end\n", buf[:stacklen])
}
