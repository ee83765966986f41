//go:build llama

package llm

import (
	"context"
	"errors"
	"strings"

	llama "github.com/go-skynet/go-llama.cpp"
)

// llamaFactory builds in-process llama.cpp engines. Enabled with -tags=llama;
// default builds stay CGO-free via the stub.
type llamaFactory struct {
	threads int
}

// NewLlamaFactory returns the in-process llama.cpp engine factory.
func NewLlamaFactory(threads int) Factory {
	return &llamaFactory{threads: threads}
}

func (f *llamaFactory) Construct(path string, contextWindow, gpuLayers int) (Engine, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("model path is empty")
	}
	mo := []llama.ModelOption{
		llama.SetContext(contextWindow),
		llama.EnableEmbeddings,
	}
	if gpuLayers > 0 {
		mo = append(mo, llama.SetGPULayers(gpuLayers))
	}
	m, err := llama.New(path, mo...)
	if err != nil {
		return nil, err
	}
	return &llamaEngine{model: m, threads: f.threads}, nil
}

// llamaEngine owns one loaded model.
type llamaEngine struct {
	model   *llama.LLama
	threads int
}

func (e *llamaEngine) Generate(ctx context.Context, prompt string, params GenParams) (string, error) {
	if e.model == nil {
		return "", errors.New("llama model not initialized")
	}
	// Bridge cancellation through the token callback.
	e.model.SetTokenCallback(func(tok string) bool {
		select {
		case <-ctx.Done():
			return false
		default:
			return true
		}
	})
	text, err := e.model.Predict(prompt, mapGenParams(params, e.threads)...)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	return text, nil
}

func (e *llamaEngine) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if e.model == nil {
		return nil, errors.New("llama model not initialized")
	}
	out := make([][]float32, 0, len(texts))
	for _, txt := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vec, err := e.model.Embeddings(txt)
		if err != nil {
			return nil, err
		}
		out = append(out, vec)
	}
	return out, nil
}

func (e *llamaEngine) Close() error {
	if e.model != nil {
		e.model.Free()
		e.model = nil
	}
	return nil
}

func pos(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func posf(v, def float32) float32 {
	if v > 0 {
		return v
	}
	return def
}

// mapGenParams converts engine-neutral params into go-llama.cpp options.
func mapGenParams(params GenParams, threads int) []llama.PredictOption {
	po := []llama.PredictOption{
		llama.SetTokens(pos(params.MaxTokens, 128)),
		llama.SetThreads(pos(threads, 1)),
		llama.SetTopP(posf(params.TopP, llama.DefaultOptions.TopP)),
		llama.SetTopK(pos(params.TopK, llama.DefaultOptions.TopK)),
		llama.SetTemperature(posf(params.Temperature, llama.DefaultOptions.Temperature)),
		llama.SetPenalty(posf(params.RepeatPenalty, llama.DefaultOptions.Penalty)),
	}
	if params.Seed != 0 {
		po = append(po, llama.SetSeed(params.Seed))
	}
	if len(params.Stop) > 0 {
		po = append(po, llama.SetStopWords(params.Stop...))
	}
	return po
}
