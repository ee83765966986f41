//go:build !llama

package llm

// No-CGO stub compiled when the 'llama' build tag is NOT set. It satisfies
// Factory but refuses construction, keeping default builds and CI CGO-free
// without mocking engine behavior in production binaries.

// NewLlamaFactory returns the stub factory for builds without llama support.
func NewLlamaFactory(threads int) Factory {
	return stubFactory{}
}

type stubFactory struct{}

func (stubFactory) Construct(path string, contextWindow, gpuLayers int) (Engine, error) {
	return nil, ErrEngineUnavailable("llama support not built (missing 'llama' build tag)")
}
