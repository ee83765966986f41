//go:build llama

package llm

// cgo link directives for the in-process llama adapter: rpath of $ORIGIN so
// the loader finds libllama.so next to the built binary, and a link-time
// search path under ./bin.
/*
#cgo LDFLAGS: -Wl,-rpath,'$ORIGIN' -L${SRCDIR}/../../bin -lllama
*/
import "C"
