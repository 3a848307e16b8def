package config

// Operation names of the three AI collaborators, as used in config keys.
const (
	OperationRequirements = "requirements"
	OperationResume       = "resume"
	OperationExplain      = "explain"
)

type namedOperation struct {
	name string
	cfg  *OperationAIConfig
}

// operations lists the per-operation blocks in a fixed order.
func (c *Config) operations() []namedOperation {
	return []namedOperation{
		{OperationRequirements, &c.AI.Requirements},
		{OperationResume, &c.AI.Resume},
		{OperationExplain, &c.AI.Explain},
	}
}

// resolve returns op with every unset field taken from the global AI block.
func (c *Config) resolve(op OperationAIConfig) OperationAIConfig {
	op.Provider = orDefault(op.Provider, c.AI.Provider)
	op.Model = orDefault(op.Model, c.AI.Model)
	op.APIKey = orDefault(op.APIKey, c.AI.APIKey)
	op.Timeout = pointerOr(op.Timeout, c.AI.Timeout)
	op.Temperature = pointerOr(op.Temperature, c.AI.Temperature)
	op.UseSystemPrompts = pointerOr(op.UseSystemPrompts, c.AI.UseSystemPrompts)
	return op
}

// GetRequirementsConfig returns the AI configuration for job description analysis.
func (c *Config) GetRequirementsConfig() OperationAIConfig { return c.resolve(c.AI.Requirements) }

// GetResumeConfig returns the AI configuration for resume extraction.
func (c *Config) GetResumeConfig() OperationAIConfig { return c.resolve(c.AI.Resume) }

// GetExplainConfig returns the AI configuration for ranking explanations.
func (c *Config) GetExplainConfig() OperationAIConfig { return c.resolve(c.AI.Explain) }

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func pointerOr[T any](value *T, fallback T) *T {
	if value != nil {
		return value
	}
	return &fallback
}
