package ai

import (
	"context"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/logger"
	"github.com/spigell/resume-screener/internal/utils"
)

// Generator sends a single prompt to a language model and returns its text.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Assessor scores a resume against a job description. Implementations never
// fail: problems are reported through a degraded Outcome.
type Assessor interface {
	Assess(ctx context.Context, jobDescription, resumeText string) Outcome
}

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

// Screener is the oracle client: it owns the prompt contract and the
// parse/repair policy, and delegates the model call to a Generator.
type Screener struct {
	generator Generator
	logger    *zap.Logger
	maxLogLen int
}

func NewScreener(generator Generator, log *zap.Logger, maxLogLength int) *Screener {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Screener{
		generator: generator,
		logger:    logger.OrNop(log),
		maxLogLen: maxLogLength,
	}
}

// Assess makes exactly one model call per request.
func (s *Screener) Assess(ctx context.Context, jobDescription, resumeText string) Outcome {
	if strings.TrimSpace(jobDescription) == "" || strings.TrimSpace(resumeText) == "" {
		return Degraded(Fallback("Empty screening request; the model was not called.", ErrEmptyRequest.Error()), ErrEmptyRequest)
	}

	prompt := BuildPrompt(jobDescription, resumeText)

	s.logger.Debug("oracle request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, s.maxLogLen)),
	)

	raw, err := s.generator.GenerateContent(ctx, prompt)
	if err != nil {
		callErr := &TransportError{Model: s.generator.Model(), Err: err}
		s.logger.Warn("oracle call failed", zap.Error(callErr))
		return Degraded(CallFailure(err), callErr)
	}

	s.logger.Debug("oracle response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, s.maxLogLen)),
	)

	result, err := ParseResponse(raw)
	if err != nil {
		s.logger.Warn("oracle response does not match the schema",
			zap.Error(err),
			zap.String("response_preview", utils.TruncateForLog(raw, s.maxLogLen)),
		)
		return Degraded(ParseFailure(raw), err)
	}

	return Success(*result)
}

// BuildPrompt embeds the job description and resume verbatim into the prompt
// template. Substitution is single pass, so placeholders inside the inputs
// are left alone.
func BuildPrompt(jobDescription, resumeText string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "JOB DESCRIPTION:\n\"\"\"{{JOB_DESCRIPTION}}\"\"\"\n\nRESUME:\n\"\"\"{{RESUME}}\"\"\"\n\nJSON Response:"
	}

	return strings.NewReplacer(
		"{{JOB_DESCRIPTION}}", jobDescription,
		"{{RESUME}}", resumeText,
	).Replace(template)
}
