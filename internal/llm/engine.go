// Package llm is the boundary to the native inference engine. The pool and
// everything above it treat engines as opaque capability handles; the heavy
// lifting stays in native code behind this interface.
package llm

import "context"

// GenParams captures generation parameters passed to the engine.
type GenParams struct {
	Temperature   float32
	TopP          float32
	TopK          int
	MaxTokens     int
	Stop          []string
	Seed          int
	RepeatPenalty float32
}

// Engine is a loaded, runnable model handle.
type Engine interface {
	// Generate produces a completion for the prompt.
	Generate(ctx context.Context, prompt string, params GenParams) (string, error)
	// Embed returns one vector per input text.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Close releases the engine's resources. The engine is unusable after.
	Close() error
}

// Factory constructs engines from on-disk artifacts.
type Factory interface {
	// Construct loads the artifact at path with the given context window and
	// accelerator budget (number of layers to offload; 0 means CPU-only).
	Construct(path string, contextWindow, gpuLayers int) (Engine, error)
}
