package screening

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/ai"
	"github.com/spigell/resume-screener/internal/document"
	"github.com/spigell/resume-screener/internal/logger"
)

const (
	extractionFailureSummary = "Could not extract text from the document."
	noTextSummary            = "The document contains no extractable text."
	noTextGap                = "no extractable text (scanned or empty document)"
)

// ErrNoText marks documents that parsed fine but yielded no text.
var ErrNoText = errors.New("document has no extractable text")

// ProgressFunc observes how many documents of total have been processed.
type ProgressFunc func(done, total int)

// RankedResultSet holds one run's results sorted by score, best first.
type RankedResultSet struct {
	RunID    string      `json:"run_id"`
	Results  []ai.Result `json:"results"`
	Degraded int         `json:"degraded"`
}

// Len returns the number of results.
func (r *RankedResultSet) Len() int {
	return len(r.Results)
}

// Pipeline screens a batch of documents against one job description.
// Documents are processed sequentially in input order.
type Pipeline struct {
	extractor document.Extractor
	assessor  ai.Assessor
	logger    *zap.Logger
	progress  ProgressFunc
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithProgress registers a progress observer called after every document.
func WithProgress(fn ProgressFunc) Option {
	return func(p *Pipeline) {
		p.progress = fn
	}
}

func New(extractor document.Extractor, assessor ai.Assessor, log *zap.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor: extractor,
		assessor:  assessor,
		logger:    logger.OrNop(log),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run screens every document. Only an *InputError stops a run; every
// per-document failure becomes a fallback row, so the result set always has
// exactly one row per document.
func (p *Pipeline) Run(ctx context.Context, jobDescription string, docs []document.Document) (*RankedResultSet, error) {
	if strings.TrimSpace(jobDescription) == "" {
		return nil, &InputError{Reason: "job description is required"}
	}
	if len(docs) == 0 {
		return nil, &InputError{Reason: "at least one resume is required"}
	}

	set := &RankedResultSet{
		RunID:   uuid.NewString(),
		Results: make([]ai.Result, 0, len(docs)),
	}
	log := logger.WithRun(p.logger, set.RunID)

	log.Info("screening started", zap.Int("documents", len(docs)))

	for i, doc := range docs {
		outcome := p.screen(ctx, jobDescription, doc)
		outcome.Result.CandidateName = doc.Name
		set.Results = append(set.Results, outcome.Result)

		fields := []zap.Field{
			zap.String(logger.FieldCandidate, doc.Name),
			zap.Int("score", outcome.Result.MatchScore),
			zap.String("recommendation", string(outcome.Result.Recommendation)),
			zap.Bool("degraded", outcome.IsDegraded()),
		}
		if outcome.IsDegraded() {
			set.Degraded++
			log.Warn("candidate screened with fallback", append(fields, zap.Error(outcome.Reason))...)
		} else {
			log.Info("candidate screened", fields...)
		}

		if p.progress != nil {
			p.progress(i+1, len(docs))
		}
	}

	Rank(set.Results)

	log.Info("screening completed",
		zap.Int("candidates", set.Len()),
		zap.Int("degraded", set.Degraded),
	)

	return set, nil
}

func (p *Pipeline) screen(ctx context.Context, jobDescription string, doc document.Document) ai.Outcome {
	text, err := p.extractor.Extract(ctx, doc)
	if err != nil {
		return ai.Degraded(ai.Fallback(extractionFailureSummary, fmt.Sprintf("extraction failure: %v", err)), err)
	}

	if strings.TrimSpace(text) == "" {
		return ai.Degraded(ai.Fallback(noTextSummary, noTextGap), &document.ExtractionError{Name: doc.Name, Err: ErrNoText})
	}

	return p.assessor.Assess(ctx, jobDescription, text)
}

// Rank sorts results by score, highest first. Equal scores keep their
// relative order.
func Rank(results []ai.Result) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].MatchScore > results[j].MatchScore
	})
}
