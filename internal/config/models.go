package config

// JudgeConfig represents the configuration for the LLM judge
type JudgeConfig struct {
	Provider         string
	RetryCount       int
	RateLimitBackoff string
}

// OpenAIConfig represents the configuration for OpenAI and Azure OpenAI
type OpenAIConfig struct {
	APIKey        string
	AzureEndpoint string
	BaseURL       string
	ModelName     string
	MaxTokens     int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey    string
	ModelName string
	MaxTokens int
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region    string
	ModelID   string
	MaxTokens int
}

// SemanticConfig represents the configuration for the semantic net
type SemanticConfig struct {
	ComparisonSize  int
	ConfidenceDecay float64
	Epsilon         float64
}

// EnsembleConfig represents the configuration for ensemble weighting
type EnsembleConfig struct {
	Weighting   string
	Coefficient float64
}

// TextConfig represents the configuration for text processing
type TextConfig struct {
	MaxTokens      int
	TruncateMethod string
	TokensPerChar  float64
	TokenizerModel string
}

// PhishBowlConfig represents the configuration for the email store
type PhishBowlConfig struct {
	Collection string
	BatchSize  int
}

// StoreConfig represents the configuration for the vector store
type StoreConfig struct {
	Type      string
	ChromaURL string
}

// EmbeddingConfig represents the configuration for the embedding provider
type EmbeddingConfig struct {
	APIKey    string
	BaseURL   string
	ModelName string
}

// GetJudge returns the judge configuration
func (c *Config) GetJudge() JudgeConfig {
	return JudgeConfig{
		Provider:         c.GetString("judge.provider"),
		RetryCount:       c.GetInt("judge.retry_count"),
		RateLimitBackoff: c.GetString("judge.rate_limit_backoff"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:        c.GetString("openai.api_key"),
		AzureEndpoint: c.GetString("openai.azure_endpoint"),
		BaseURL:       c.GetString("openai.base_url"),
		ModelName:     c.GetString("openai.model_name"),
		MaxTokens:     c.GetInt("openai.max_tokens"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:    c.GetString("gemini.api_key"),
		ModelName: c.GetString("gemini.model_name"),
		MaxTokens: c.GetInt("gemini.max_tokens"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:    c.GetString("bedrock.region"),
		ModelID:   c.GetString("bedrock.model_id"),
		MaxTokens: c.GetInt("bedrock.max_tokens"),
	}
}

// GetSemantic returns the semantic net configuration
func (c *Config) GetSemantic() SemanticConfig {
	return SemanticConfig{
		ComparisonSize:  c.GetInt("semantic.comparison_size"),
		ConfidenceDecay: c.GetFloat64("semantic.confidence_decay"),
		Epsilon:         c.GetFloat64("semantic.epsilon"),
	}
}

// GetEnsemble returns the ensemble configuration
func (c *Config) GetEnsemble() EnsembleConfig {
	return EnsembleConfig{
		Weighting:   c.GetString("ensemble.weighting"),
		Coefficient: c.GetFloat64("ensemble.coefficient"),
	}
}

// GetText returns the text processing configuration
func (c *Config) GetText() TextConfig {
	return TextConfig{
		MaxTokens:      c.GetInt("text.max_tokens"),
		TruncateMethod: c.GetString("text.truncate_method"),
		TokensPerChar:  c.GetFloat64("text.tokens_per_char"),
		TokenizerModel: c.GetString("text.tokenizer_model"),
	}
}

// GetPhishBowl returns the email store configuration
func (c *Config) GetPhishBowl() PhishBowlConfig {
	return PhishBowlConfig{
		Collection: c.GetString("phishbowl.collection"),
		BatchSize:  c.GetInt("phishbowl.batch_size"),
	}
}

// GetStore returns the vector store configuration
func (c *Config) GetStore() StoreConfig {
	return StoreConfig{
		Type:      c.GetString("store.type"),
		ChromaURL: c.GetString("store.chroma_url"),
	}
}

// GetEmbedding returns the embedding provider configuration
func (c *Config) GetEmbedding() EmbeddingConfig {
	return EmbeddingConfig{
		APIKey:    c.GetString("embedding.api_key"),
		BaseURL:   c.GetString("embedding.base_url"),
		ModelName: c.GetString("embedding.model_name"),
	}
}
