package judge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnavailable indicates a network or provider failure.
	// Transient: callers retry per the pipeline policy.
	ErrUnavailable = errors.New("judgment service unavailable")

	// ErrMalformedVerdict indicates the provider's response was not valid
	// JSON of the expected shape, or the score fell outside [0,1].
	// A contract defect: never retried and never clamped, so the caller
	// decides whether to fall back.
	ErrMalformedVerdict = errors.New("malformed verdict")
)

// Passage is one evidence passage included in the judgment prompt
type Passage struct {
	ID   string
	Text string
}

// Request contains the input for one check-worthiness judgment
type Request struct {
	// ClaimText is the claim under triage
	ClaimText string

	// Evidence passages retrieved for the claim, highest-ranked first.
	// May be empty: the provider must still judge on the claim alone.
	Evidence []Passage

	// Model overrides the provider's configured model
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// Judgment is the provider's parsed, validated response
type Judgment struct {
	// Score is the check-worthiness estimate in [0,1]
	Score float64

	// Rationale is the provider's free-text justification
	Rationale string

	// Model is the model that produced the judgment
	Model string

	// TokensUsed tracks token consumption where the provider reports it
	TokensUsed int
}

// Provider defines the interface for judgment-service backends
type Provider interface {
	// Name returns the provider name
	Name() string

	// Judge submits one claim plus evidence and returns the parsed verdict
	Judge(ctx context.Context, req Request) (*Judgment, error)

	// IsAvailable checks if the provider is configured and reachable
	IsAvailable(ctx context.Context) bool
}

// Config holds judgment provider configuration
type Config struct {
	// Provider name: "openai", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for hosted providers
	APIKey string

	// BaseURL for custom endpoints (tests, Ollama)
	BaseURL string

	// MaxTokens for response generation
	MaxTokens int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "openai",
		MaxTokens: 512,
	}
}

const systemPrompt = `You are a fact-checking triage assistant. Given a claim and retrieved ` +
	`evidence passages, estimate how important it is to fact-check the claim. ` +
	`Respond with a single JSON object of the form ` +
	`{"score": <number between 0 and 1>, "rationale": "<one or two sentences>"} ` +
	`and nothing else. A higher score means the claim is more check-worthy.`

// BuildPrompt constructs the user prompt for one judgment request.
// Evidence passages are numbered in rank order; an empty evidence set is
// stated explicitly so the model does not invent sources.
func BuildPrompt(req Request) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Claim: %s\n\n", req.ClaimText)

	if len(req.Evidence) == 0 {
		b.WriteString("No evidence passages were retrieved for this claim. Judge it on the claim text alone.\n")
		return b.String()
	}

	b.WriteString("Retrieved evidence passages:\n")
	for i, p := range req.Evidence {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, p.Text)
	}

	return b.String()
}

// rawJudgment is the externally-defined response schema, validated at this
// boundary into a strict Judgment.
type rawJudgment struct {
	Score     *float64 `json:"score"`
	Rationale *string  `json:"rationale"`
}

// ParseJudgment validates a provider's raw response text. Invalid payloads
// become ErrMalformedVerdict, never a silent default.
func ParseJudgment(raw string) (*Judgment, error) {
	var parsed rawJudgment
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedVerdict, err)
	}

	if parsed.Score == nil {
		return nil, fmt.Errorf("%w: missing score", ErrMalformedVerdict)
	}
	if parsed.Rationale == nil {
		return nil, fmt.Errorf("%w: missing rationale", ErrMalformedVerdict)
	}
	if *parsed.Score < 0 || *parsed.Score > 1 {
		return nil, fmt.Errorf("%w: score %v outside [0,1]", ErrMalformedVerdict, *parsed.Score)
	}

	return &Judgment{
		Score:     *parsed.Score,
		Rationale: strings.TrimSpace(*parsed.Rationale),
	}, nil
}
