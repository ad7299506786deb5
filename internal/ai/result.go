package ai

import (
	"math"
	"strings"

	"github.com/spigell/resume-screener/internal/utils"
)

// FitLevel is the coarse match bucket.
type FitLevel string

const (
	FitStrong FitLevel = "Strong"
	FitMedium FitLevel = "Medium"
	FitWeak   FitLevel = "Weak"
)

// Recommendation is the suggested next step for a candidate.
type Recommendation string

const (
	RecommendInterview Recommendation = "Interview"
	RecommendHold      Recommendation = "Hold"
	RecommendReject    Recommendation = "Reject"
)

const (
	MinScore = 0
	MaxScore = 100

	// UnrelatedScoreCeiling is the score a clearly unrelated resume must stay below.
	UnrelatedScoreCeiling = 40

	// RawEchoLength is how much of an unparseable oracle response is kept in the reason.
	RawEchoLength = 300

	ParseFailureGap    = "parse failure: could not parse model output correctly"
	CallFailureSummary = "Error during API call."
)

var (
	fitLevels       = []FitLevel{FitStrong, FitMedium, FitWeak}
	recommendations = []Recommendation{RecommendInterview, RecommendHold, RecommendReject}
)

// Result is the structured assessment of one candidate. Every field is always
// populated; failures are represented by fallback values.
type Result struct {
	CandidateName  string         `json:"candidate_name"`
	MatchScore     int            `json:"match_score"`
	FitLevel       FitLevel       `json:"fit_level"`
	Recommendation Recommendation `json:"recommendation"`
	ReasonSummary  string         `json:"reason_summary"`
	Strengths      []string       `json:"strengths"`
	Gaps           []string       `json:"gaps"`
}

// Fallback builds a low-confidence result: score 0, Weak, Hold.
func Fallback(summary string, gaps ...string) Result {
	return Result{
		MatchScore:     MinScore,
		FitLevel:       FitWeak,
		Recommendation: RecommendHold,
		ReasonSummary:  summary,
		Strengths:      []string{},
		Gaps:           append([]string{}, gaps...),
	}
}

// ParseFailure is the fallback for an oracle response that did not match the schema.
// The reason echoes the beginning of the raw response for inspection.
func ParseFailure(raw string) Result {
	return Fallback(utils.Prefix(raw, RawEchoLength), ParseFailureGap)
}

// CallFailure is the fallback for an oracle call that did not complete.
func CallFailure(err error) Result {
	gap := "Error: unknown failure"
	if err != nil {
		gap = "Error: " + err.Error()
	}
	return Fallback(CallFailureSummary, gap)
}

// ParseFitLevel matches a fit level case-insensitively.
func ParseFitLevel(s string) (FitLevel, bool) {
	s = strings.TrimSpace(s)
	for _, level := range fitLevels {
		if strings.EqualFold(s, string(level)) {
			return level, true
		}
	}
	return "", false
}

// ParseRecommendation matches a recommendation case-insensitively.
func ParseRecommendation(s string) (Recommendation, bool) {
	s = strings.TrimSpace(s)
	for _, rec := range recommendations {
		if strings.EqualFold(s, string(rec)) {
			return rec, true
		}
	}
	return "", false
}

// ClampScore rounds a raw score and bounds it to the valid range. Bounding
// happens before the int conversion, which is undefined for huge floats.
func ClampScore(score float64) int {
	return int(math.Max(MinScore, math.Min(MaxScore, math.Round(score))))
}
