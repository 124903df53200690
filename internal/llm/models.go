package llm

// DefaultModel es el modelo usado cuando la petición no trae uno.
const DefaultModel = "Meta-Llama-3-1-8B-Instruct-FP8"

// ModelInfo describe un modelo conocido del servicio de completions.
type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// KnownModels es el catálogo que ofrece el servicio upstream. Es informativo:
// cualquier identificador se reenvía tal cual y es el upstream quien rechaza
// los desconocidos.
var KnownModels = []ModelInfo{
	{ID: "Meta-Llama-3-1-8B-Instruct-FP8", Name: "Llama 3.1 8B", Description: "Fast and efficient"},
	{ID: "Meta-Llama-3-3-70B-Instruct", Name: "Llama 3.3 70B", Description: "Balanced performance"},
	{ID: "Meta-Llama-4-Maverick-17B-128E-Instruct-FP8", Name: "Llama 4 Maverick 17B", Description: "Next-generation model"},
	{ID: "DeepSeek-R1-Distill-Qwen-32B", Name: "DeepSeek R1 Distill", Description: "Reasoning-focused model"},
	{ID: "DeepSeek-V3-1", Name: "DeepSeek V3.1", Description: "Latest DeepSeek model"},
	{ID: "gpt-oss-120b", Name: "GPT OSS 120B", Description: "Open source GPT model"},
	{ID: "Qwen3-235B-A22B-Instruct-2507-FP8", Name: "Qwen3 235B", Description: "Maximum capability"},
}
