package catalog

import "inferd/pkg/types"

// Built-in tier registry. IDs double as artifact base names; checksums pin
// the exact upstream quantization.
var builtinTiers = []types.Tier{
	{
		ID:           "llama-2-7b-q4_k_m",
		Name:         "Lightweight",
		Level:        "lightweight",
		Kind:         KindLLM,
		ParamsB:      7,
		SizeGB:       3.5,
		MinRAMGB:     8,
		URL:          "https://huggingface.co/TheBloke/Llama-2-7B-GGUF/resolve/main/llama-2-7b-Q4_K_M.gguf",
		SHA256:       "292c0939f1eb5c5d5d5c6966a29adaf05c1b13dd6396e1b1390f5d71de520342",
		Capabilities: []types.Capability{types.CapTextGeneration, types.CapEmbeddings},
	},
	{
		ID:           "llama-3-13b-q4_k_m",
		Name:         "Standard",
		Level:        "standard",
		Kind:         KindLLM,
		ParamsB:      13,
		SizeGB:       7.8,
		MinRAMGB:     16,
		MinVRAMGB:    6,
		URL:          "https://huggingface.co/TheBloke/Llama-3-13B-GGUF/resolve/main/llama-3-13b-Q4_K_M.gguf",
		SHA256:       "d0f0b1a2c9814f7a40a270b51e7b54a8f2feea300ecfb3d60c6e3ad0e4d522a6",
		Capabilities: []types.Capability{types.CapTextGeneration, types.CapEmbeddings},
	},
	{
		ID:           "llama-2-70b-q4_k_m",
		Name:         "Performance",
		Level:        "performance",
		Kind:         KindLLM,
		ParamsB:      70,
		SizeGB:       39.5,
		MinRAMGB:     32,
		MinVRAMGB:    8,
		URL:          "https://huggingface.co/TheBloke/Llama-2-70B-GGUF/resolve/main/llama-2-70b-Q4_K_M.gguf",
		SHA256:       "e2c9a8f1f21fa02c54df7eaa4f148b7c7f8b3c0916a7c0e3c4b9f5e4c08b766c",
		Capabilities: []types.Capability{types.CapTextGeneration, types.CapEmbeddings},
	},
	{
		ID:           "llava-v1.5-7b-q4_k_m",
		Name:         "VLM Lightweight",
		Level:        "lightweight",
		Kind:         KindVLM,
		ParamsB:      7,
		SizeGB:       4.2,
		MinRAMGB:     8,
		URL:          "https://huggingface.co/mys/ggml_llava-v1.5-7b/resolve/main/ggml-model-q4_k.gguf",
		SHA256:       "a8ede58b3c5f5b8c9b2c5b75d3b4c2d5d4d5f5e5a8b8c9d2e5f8a9c8b7a6c5d4",
		Capabilities: []types.Capability{types.CapTextGeneration, types.CapVision},
	},
	{
		ID:           "llava-v1.6-mistral-7b-q4_k_m",
		Name:         "VLM Standard",
		Level:        "standard",
		Kind:         KindVLM,
		ParamsB:      7,
		SizeGB:       4.5,
		MinRAMGB:     16,
		MinVRAMGB:    6,
		URL:          "https://huggingface.co/cjpais/llava-1.6-mistral-7b-gguf/resolve/main/llava-v1.6-mistral-7b.Q4_K_M.gguf",
		SHA256:       "b8e9a3a2c8f9b8a7c6d5e4f3c2b1a0d9e8f7c6b5a4d3c2b1a0f9e8d7c6b5a4d3",
		Capabilities: []types.Capability{types.CapTextGeneration, types.CapVision},
	},
	{
		ID:           "llava-v1.6-vicuna-13b-q4_k_m",
		Name:         "VLM Performance",
		Level:        "performance",
		Kind:         KindVLM,
		ParamsB:      13,
		SizeGB:       8.2,
		MinRAMGB:     24,
		MinVRAMGB:    8,
		URL:          "https://huggingface.co/cjpais/llava-v1.6-vicuna-13b-gguf/resolve/main/llava-v1.6-vicuna-13b.Q4_K_M.gguf",
		SHA256:       "c7d9a2c8b5a4d3e2f1a0d9e8c7b6a5d4e3f2a1d0c9b8a7f6e5d4c3b2a1f0e9d8",
		Capabilities: []types.Capability{types.CapTextGeneration, types.CapVision},
	},
}

// standardByKind names the tier preferred by Recommend when compatible.
var standardByKind = map[string]string{
	KindLLM: "llama-3-13b-q4_k_m",
	KindVLM: "llava-v1.6-mistral-7b-q4_k_m",
}
