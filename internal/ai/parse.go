package ai

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/mitchellh/mapstructure"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed response.schema.json
var responseSchemaJSON []byte

var responseSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(responseSchemaJSON))
})

type payload struct {
	MatchScore     float64  `mapstructure:"match_score"`
	FitLevel       string   `mapstructure:"fit_level"`
	Recommendation string   `mapstructure:"recommendation"`
	ReasonSummary  string   `mapstructure:"reason_summary"`
	Strengths      []string `mapstructure:"strengths"`
	Gaps           []string `mapstructure:"gaps"`
}

// ParseResponse decodes the model output into a Result. Code fences and text
// around the JSON object are tolerated, scalar types are coerced, the score
// is rounded and clamped to [0, 100]. Missing required fields or unknown enum
// values are a *ParseError. CandidateName is never taken from the payload.
func ParseResponse(raw string) (*Result, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}
	if data == nil {
		return nil, &ParseError{Raw: raw, Err: errors.New("response is not a JSON object")}
	}

	if err := validateShape(data); err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}

	var p payload
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &p,
	})
	if err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}
	if err := decoder.Decode(data); err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}

	if math.IsNaN(p.MatchScore) || math.IsInf(p.MatchScore, 0) {
		return nil, &ParseError{Raw: raw, Err: errors.New("match_score is not a finite number")}
	}

	fit, ok := ParseFitLevel(p.FitLevel)
	if !ok {
		return nil, &ParseError{Raw: raw, Err: fmt.Errorf("unknown fit_level %q", p.FitLevel)}
	}

	rec, ok := ParseRecommendation(p.Recommendation)
	if !ok {
		return nil, &ParseError{Raw: raw, Err: fmt.Errorf("unknown recommendation %q", p.Recommendation)}
	}

	return &Result{
		MatchScore:     ClampScore(p.MatchScore),
		FitLevel:       fit,
		Recommendation: rec,
		ReasonSummary:  strings.TrimSpace(p.ReasonSummary),
		Strengths:      cleanList(p.Strengths),
		Gaps:           cleanList(p.Gaps),
	}, nil
}

// validateShape checks required keys and value types before coercion.
func validateShape(data map[string]any) error {
	schema, err := responseSchema()
	if err != nil {
		return fmt.Errorf("compile response schema: %w", err)
	}

	res, err := schema.Validate(gojsonschema.NewGoLoader(data))
	if err != nil {
		return err
	}
	if res.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("schema validation failed: %s", strings.Join(msgs, "; "))
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.TrimSpace(strings.Trim(raw, "`"))

	// Models sometimes wrap the object in prose despite the instructions.
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return raw
	}
	return raw[start : end+1]
}

func cleanList(items []string) []string {
	cleaned := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			cleaned = append(cleaned, item)
		}
	}
	return cleaned
}
