package cmd

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/ai"
	"github.com/spigell/resume-screener/internal/ai/gemini"
	"github.com/spigell/resume-screener/internal/ai/groq"
	"github.com/spigell/resume-screener/internal/logger"
	"github.com/spigell/resume-screener/internal/secrets"
)

const (
	providerGroq   = "groq"
	providerGemini = "gemini"
)

var defaultKeyEnv = map[string]string{
	providerGroq:   "GROQ_API_KEY",
	providerGemini: "GEMINI_API_KEY",
}

// newAssessor builds the oracle client for the configured provider. A missing
// credential is only logged: every candidate then degrades to a Hold row.
func newAssessor(cfg *OracleConfig, log *zap.Logger) (ai.Assessor, error) {
	if cfg == nil {
		cfg = &OracleConfig{}
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider == "" {
		provider = providerGroq
	}

	envName, ok := defaultKeyEnv[provider]
	if !ok {
		return nil, fmt.Errorf("unsupported oracle provider: %s", cfg.Provider)
	}
	if env := strings.TrimSpace(cfg.APIKeyEnv); env != "" {
		envName = env
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: provider + " api key",
		File: cfg.APIKeyFile,
		Env:  envName,
	})
	if err != nil {
		log.Warn("oracle credential is missing, candidates will be held",
			zap.Error(err),
			zap.String("hint", fmt.Sprintf("set %s or oracle.api-key-file", envName)),
		)
	}

	var generator ai.Generator
	switch provider {
	case providerGemini:
		generator = gemini.NewGenerator(gemini.Options{
			APIKey:      apiKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Logger:      log,
		})
	default:
		generator = groq.New(groq.Options{
			APIKey:      apiKey,
			Model:       cfg.Model,
			BaseURL:     cfg.BaseURL,
			Temperature: cfg.Temperature,
			Logger:      log,
		})
	}

	screenerLogger := logger.WithCommonFields(log, provider, generator.Model())

	return ai.NewScreener(generator, screenerLogger, cfg.MaxLogLength), nil
}
