package screening

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/resume-screener/internal/ai"
	"github.com/spigell/resume-screener/internal/document"
)

type stubExtractor struct {
	texts map[string]string
	errs  map[string]error
}

func (s *stubExtractor) Extract(_ context.Context, doc document.Document) (string, error) {
	if err, ok := s.errs[doc.Name]; ok {
		return "", &document.ExtractionError{Name: doc.Name, Err: err}
	}
	if text, ok := s.texts[doc.Name]; ok {
		return text, nil
	}
	return string(doc.Data), nil
}

// stubAssessor answers with a fixed score per resume text.
type stubAssessor struct {
	scores  map[string]int
	calls   int
	resumes []string
}

func (s *stubAssessor) Assess(_ context.Context, _, resume string) ai.Outcome {
	s.calls++
	s.resumes = append(s.resumes, resume)
	return ai.Success(ai.Result{
		CandidateName:  "oracle supplied name",
		MatchScore:     s.scores[resume],
		FitLevel:       ai.FitMedium,
		Recommendation: ai.RecommendHold,
		ReasonSummary:  "ok",
		Strengths:      []string{"x"},
		Gaps:           []string{},
	})
}

type stubGenerator struct {
	response string
	err      error
	calls    int
}

func (s *stubGenerator) GenerateContent(context.Context, string) (string, error) {
	s.calls++
	return s.response, s.err
}

func (s *stubGenerator) Model() string { return "stub" }

func docs(names ...string) []document.Document {
	out := make([]document.Document, 0, len(names))
	for _, name := range names {
		out = append(out, document.New(name, []byte("resume of "+name)))
	}
	return out
}

func TestRunRejectsInvalidInput(t *testing.T) {
	assessor := &stubAssessor{}
	p := New(&stubExtractor{}, assessor, zap.NewNop())

	cases := []struct {
		name string
		jd   string
		docs []document.Document
	}{
		{name: "empty job description", jd: "", docs: docs("a.pdf")},
		{name: "blank job description", jd: " \n\t", docs: docs("a.pdf")},
		{name: "no documents", jd: "Go developer", docs: nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			set, err := p.Run(context.Background(), tc.jd, tc.docs)
			var inputErr *InputError
			if !errors.As(err, &inputErr) {
				t.Fatalf("expected InputError, got %v", err)
			}
			if set != nil {
				t.Fatalf("expected no result set")
			}
		})
	}

	if assessor.calls != 0 {
		t.Fatalf("expected zero oracle calls, got %d", assessor.calls)
	}
}

func TestRunEmptyJobDescriptionMakesNoModelCalls(t *testing.T) {
	gen := &stubGenerator{response: "{}"}
	p := New(document.NewAutoExtractor(), ai.NewScreener(gen, nil, 0), nil)

	if _, err := p.Run(context.Background(), "", docs("a.txt")); err == nil {
		t.Fatal("expected error")
	}
	if gen.calls != 0 {
		t.Fatalf("expected zero model calls, got %d", gen.calls)
	}
}

func TestRunRanksStablyAndKeepsOneRowPerDocument(t *testing.T) {
	assessor := &stubAssessor{scores: map[string]int{
		"resume of a.pdf": 50,
		"resume of b.pdf": 90,
		"resume of c.pdf": 50,
		"resume of d.pdf": 70,
		"resume of e.pdf": 50,
	}}
	p := New(&stubExtractor{}, assessor, zap.NewNop())

	set, err := p.Run(context.Background(), "Go developer", docs("a.pdf", "b.pdf", "c.pdf", "d.pdf", "e.pdf"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var order []string
	for _, r := range set.Results {
		order = append(order, fmt.Sprintf("%s:%d", r.CandidateName, r.MatchScore))
	}
	want := "b.pdf:90 d.pdf:70 a.pdf:50 c.pdf:50 e.pdf:50"
	if got := strings.Join(order, " "); got != want {
		t.Fatalf("unexpected ranking:\n got %s\nwant %s", got, want)
	}

	if assessor.calls != 5 {
		t.Fatalf("expected one oracle call per document, got %d", assessor.calls)
	}
	if set.RunID == "" {
		t.Fatal("expected a run id")
	}
	if set.Degraded != 0 {
		t.Fatalf("expected no degraded rows, got %d", set.Degraded)
	}
}

func TestRunIsolatesExtractionFailure(t *testing.T) {
	extractor := &stubExtractor{errs: map[string]error{"broken.pdf": errors.New("not a PDF file")}}
	assessor := &stubAssessor{scores: map[string]int{"resume of good.pdf": 0}}
	p := New(extractor, assessor, zap.NewNop())

	set, err := p.Run(context.Background(), "Go developer", docs("broken.pdf", "good.pdf"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if set.Len() != 2 {
		t.Fatalf("expected two rows, got %d", set.Len())
	}

	// Both score 0, so the stable sort keeps input order.
	failed, ok := set.Results[0], set.Results[1]
	if failed.CandidateName != "broken.pdf" || ok.CandidateName != "good.pdf" {
		t.Fatalf("unexpected order: %s, %s", failed.CandidateName, ok.CandidateName)
	}
	if failed.MatchScore != 0 || failed.FitLevel != ai.FitWeak || failed.Recommendation != ai.RecommendHold {
		t.Fatalf("unexpected fallback row: %+v", failed)
	}
	if len(failed.Gaps) != 1 || !strings.Contains(failed.Gaps[0], "extraction failure") {
		t.Fatalf("expected extraction gap, got %v", failed.Gaps)
	}
	if ok.ReasonSummary != "ok" || ok.FitLevel != ai.FitMedium {
		t.Fatalf("expected oracle output for good document, got %+v", ok)
	}
	if assessor.calls != 1 {
		t.Fatalf("expected a single oracle call, got %d", assessor.calls)
	}
	if set.Degraded != 1 {
		t.Fatalf("expected one degraded row, got %d", set.Degraded)
	}
}

func TestRunWithRealExtractorAndScreener(t *testing.T) {
	gen := &stubGenerator{response: `{"match_score": 77, "fit_level": "Strong", "recommendation": "Interview", "strengths": ["Go"], "gaps": [], "reason_summary": "Good", "candidate_name": "Mallory"}`}
	p := New(document.NewAutoExtractor(), ai.NewScreener(gen, nil, 0), nil)

	input := []document.Document{
		document.New("garbage.pdf", []byte("this is not a pdf")),
		document.New("alice.txt", []byte("Alice, Go engineer")),
	}

	set, err := p.Run(context.Background(), "Go engineer", input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if set.Len() != 2 {
		t.Fatalf("expected two rows, got %d", set.Len())
	}
	if set.Results[0].CandidateName != "alice.txt" || set.Results[0].MatchScore != 77 {
		t.Fatalf("unexpected top row: %+v", set.Results[0])
	}
	if set.Results[1].CandidateName != "garbage.pdf" || !strings.Contains(set.Results[1].Gaps[0], "extraction failure") {
		t.Fatalf("unexpected fallback row: %+v", set.Results[1])
	}
	if gen.calls != 1 {
		t.Fatalf("expected one model call, got %d", gen.calls)
	}
}

func TestRunNotJSONOracle(t *testing.T) {
	p := New(&stubExtractor{}, ai.NewScreener(&stubGenerator{response: "not json"}, nil, 0), nil)

	set, err := p.Run(context.Background(), "jd", docs("a.pdf"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := set.Results[0]
	if got.MatchScore != 0 || got.FitLevel != ai.FitWeak || got.Recommendation != ai.RecommendHold || got.ReasonSummary != "not json" {
		t.Fatalf("unexpected result: %+v", got)
	}
	if got.CandidateName != "a.pdf" {
		t.Fatalf("unexpected candidate name: %q", got.CandidateName)
	}
}

func TestRunTotalOracleOutage(t *testing.T) {
	gen := &stubGenerator{err: errors.New("dial tcp: connection refused")}
	p := New(&stubExtractor{}, ai.NewScreener(gen, nil, 0), nil)

	set, err := p.Run(context.Background(), "jd", docs("a.pdf", "b.pdf", "c.pdf"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if set.Len() != 3 || set.Degraded != 3 {
		t.Fatalf("expected three degraded rows, got %d/%d", set.Len(), set.Degraded)
	}
	for i, r := range set.Results {
		if r.CandidateName != docs("a.pdf", "b.pdf", "c.pdf")[i].Name {
			t.Fatalf("unexpected order: %+v", set.Results)
		}
		if r.Recommendation != ai.RecommendHold || r.ReasonSummary != ai.CallFailureSummary {
			t.Fatalf("unexpected fallback: %+v", r)
		}
		if len(r.Gaps) != 1 || !strings.Contains(r.Gaps[0], "connection refused") {
			t.Fatalf("expected failure in gaps: %v", r.Gaps)
		}
	}
}

func TestRunSkipsOracleForEmptyText(t *testing.T) {
	extractor := &stubExtractor{texts: map[string]string{"scan.pdf": "  "}}
	assessor := &stubAssessor{}
	p := New(extractor, assessor, nil)

	set, err := p.Run(context.Background(), "jd", docs("scan.pdf"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if assessor.calls != 0 {
		t.Fatalf("oracle must not be called with empty resume text")
	}
	if got := set.Results[0]; got.Gaps[0] != noTextGap || got.CandidateName != "scan.pdf" {
		t.Fatalf("unexpected row: %+v", got)
	}
}

func TestRunReportsProgressAndLogs(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	var progress []string
	p := New(&stubExtractor{}, &stubAssessor{}, zap.New(core), WithProgress(func(done, total int) {
		progress = append(progress, fmt.Sprintf("%d/%d", done, total))
	}))

	set, err := p.Run(context.Background(), "jd", docs("a.pdf", "b.pdf", "c.pdf"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := strings.Join(progress, ","); got != "1/3,2/3,3/3" {
		t.Fatalf("unexpected progress: %s", got)
	}

	screened := observed.FilterMessage("candidate screened").All()
	if len(screened) != 3 {
		t.Fatalf("expected 3 candidate log lines, got %d", len(screened))
	}
	if screened[0].ContextMap()["run_id"] != set.RunID {
		t.Fatalf("expected run id on log lines")
	}
}

func TestRank(t *testing.T) {
	results := []ai.Result{
		{CandidateName: "a", MatchScore: 10},
		{CandidateName: "b", MatchScore: 30},
		{CandidateName: "c", MatchScore: 10},
		{CandidateName: "d", MatchScore: 30},
	}
	Rank(results)

	var names []string
	for _, r := range results {
		names = append(names, r.CandidateName)
	}
	if got := strings.Join(names, ""); got != "bdac" {
		t.Fatalf("unexpected order: %s", got)
	}
}
