package daemon

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"inferd/internal/llm"
	"inferd/internal/pool"
	"inferd/pkg/types"
)

// Generate serves a text completion. Deterministic requests (temperature 0)
// are served from and stored into the result cache.
func (d *Daemon) Generate(ctx context.Context, req types.GenerateRequest) (types.GenerateResponse, error) {
	deterministic := req.Temperature == 0
	key := genKey(req)
	if deterministic {
		if v, ok := d.genCache.Get(key); ok {
			resp := v.(types.GenerateResponse)
			resp.Cached = true
			return resp, nil
		}
	}

	h, err := d.pool.Acquire(ctx, req.TaskType, req.Tier, []types.Capability{types.CapTextGeneration})
	if err != nil {
		return types.GenerateResponse{}, err
	}
	defer h.Release()
	defer d.trackPool()

	start := time.Now()
	text, err := h.Engine().Generate(ctx, req.Prompt, llm.GenParams{
		Temperature: req.Temperature,
		TopP:        req.TopP,
		TopK:        req.TopK,
		MaxTokens:   req.MaxTokens,
		Stop:        req.Stop,
		Seed:        req.Seed,
	})
	if err != nil {
		return types.GenerateResponse{}, err
	}
	resp := types.GenerateResponse{
		Tier:       h.TierID(),
		Text:       text,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if deterministic {
		d.genCache.Set(key, resp, time.Duration(d.cfg.CacheTTLSecs)*time.Second)
	}
	return resp, nil
}

// Embed serves embedding vectors. Results are always cacheable.
func (d *Daemon) Embed(ctx context.Context, req types.EmbedRequest) (types.EmbedResponse, error) {
	key := embKey(req)
	if v, ok := d.embCache.Get(key); ok {
		resp := v.(types.EmbedResponse)
		resp.Cached = true
		return resp, nil
	}

	taskType := req.TaskType
	if taskType == "" {
		taskType = "embeddings"
	}
	h, err := d.pool.Acquire(ctx, taskType, req.Tier, []types.Capability{types.CapEmbeddings})
	if err != nil {
		return types.EmbedResponse{}, err
	}
	defer h.Release()
	defer d.trackPool()

	vecs, err := h.Engine().Embed(ctx, req.Texts)
	if err != nil {
		return types.EmbedResponse{}, err
	}
	resp := types.EmbedResponse{Tier: h.TierID(), Embeddings: vecs}
	d.embCache.Set(key, resp, time.Duration(d.cfg.CacheTTLSecs)*time.Second)
	return resp, nil
}

// Warm loads the tier for a task ahead of the first request and leaves it
// resident.
func (d *Daemon) Warm(ctx context.Context, req types.WarmRequest) (types.WarmResponse, error) {
	h, err := d.pool.Acquire(ctx, req.TaskType, req.Tier, []types.Capability{types.CapTextGeneration})
	if err != nil {
		return types.WarmResponse{}, err
	}
	h.Release()
	d.trackPool()
	return types.WarmResponse{Tier: h.TierID(), State: string(pool.StateReady)}, nil
}

func genKey(req types.GenerateRequest) string {
	h := sha256.New()
	fmt.Fprintf(h, "g|%s|%s|%d|%g|%g|%d|%d|%s|%s",
		req.TaskType, req.Tier, req.MaxTokens, req.Temperature, req.TopP,
		req.TopK, req.Seed, strings.Join(req.Stop, "\x00"), req.Prompt)
	return hex.EncodeToString(h.Sum(nil))
}

func embKey(req types.EmbedRequest) string {
	h := sha256.New()
	fmt.Fprintf(h, "e|%s|%s|%s", req.TaskType, req.Tier, strings.Join(req.Texts, "\x00"))
	return hex.EncodeToString(h.Sum(nil))
}
