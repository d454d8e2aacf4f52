package config

import (
	"fmt"
	"net/url"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate LLM config
	if c.LLM.BaseURL == "" {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "Ollama base URL is required",
		})
	}

	if c.LLM.MaxTokens < 1 || c.LLM.MaxTokens > 4096 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_tokens",
			Message: "max_tokens must be between 1 and 4096",
		})
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	// Validate Vectorize config
	if _, err := url.Parse(c.Vectorize.BaseURL); err != nil {
		errors = append(errors, ValidationError{
			Field:   "vectorize.base_url",
			Message: "invalid Vectorize base URL",
		})
	}

	if c.Vectorize.TimeoutSeconds < 1 {
		errors = append(errors, ValidationError{
			Field:   "vectorize.timeout_seconds",
			Message: "timeout_seconds must be positive",
		})
	}

	// Validate Database config
	if c.Database.URL != "" {
		if _, err := url.Parse(c.Database.URL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "database.url",
				Message: "invalid database URL",
			})
		}
	}

	if c.Database.VectorDim < 1 {
		errors = append(errors, ValidationError{
			Field:   "database.vector_dim",
			Message: "vector_dim must be positive",
		})
	}

	if c.Database.BatchSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "database.batch_size",
			Message: "batch_size must be positive",
		})
	}

	// Validate Retrieval config
	if c.Retrieval.Limit < 1 {
		errors = append(errors, ValidationError{
			Field:   "retrieval.limit",
			Message: "limit must be positive",
		})
	}

	if c.Retrieval.Threshold < 0 || c.Retrieval.Threshold > 0.99 {
		errors = append(errors, ValidationError{
			Field:   "retrieval.threshold",
			Message: "threshold must be between 0 and 0.99",
		})
	}

	// Validate Profile config
	if c.Profile.ApplyThreshold < 0 || c.Profile.ApplyThreshold > 1 {
		errors = append(errors, ValidationError{
			Field:   "profile.apply_threshold",
			Message: "apply_threshold must be between 0 and 1",
		})
	}

	if c.Profile.PreferencesCap < 1 {
		errors = append(errors, ValidationError{
			Field:   "profile.preferences_cap",
			Message: "preferences_cap must be positive",
		})
	}

	if c.Profile.ExpectationsCap < 1 {
		errors = append(errors, ValidationError{
			Field:   "profile.expectations_cap",
			Message: "expectations_cap must be positive",
		})
	}

	// Validate Ingest config
	if c.Ingest.MaxDepth < 1 {
		errors = append(errors, ValidationError{
			Field:   "ingest.max_depth",
			Message: "max_depth must be positive",
		})
	}

	if c.Ingest.RateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "ingest.rate_limit",
			Message: "rate_limit must be positive",
		})
	}

	// Validate extensions format
	for _, ext := range c.Ingest.AllowedExtensions {
		if !strings.HasPrefix(ext, ".") && ext != "" && ext != "/" {
			errors = append(errors, ValidationError{
				Field:   "ingest.allowed_extensions",
				Message: fmt.Sprintf("invalid extension format: %s", ext),
			})
		}
	}

	return errors
}
