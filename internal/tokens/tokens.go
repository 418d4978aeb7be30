// Package tokens estimates how many model tokens a block of text will cost.
package tokens

import (
	"fmt"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Estimator approximates the token count of a text block.
// Implementations must be deterministic and safe for concurrent use.
type Estimator interface {
	Estimate(text string) int
}

// Namer is implemented by estimators that can identify their counting rule.
// Two estimators with the same name must return the same counts.
type Namer interface {
	Name() string
}

// NameOf returns est's name, or its Go type when it does not implement Namer.
// Distinct EstimatorFunc values share a name; implement Namer to tell them apart.
func NameOf(est Estimator) string {
	if n, ok := est.(Namer); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", est)
}

// EstimatorFunc adapts a plain function to the Estimator interface.
type EstimatorFunc func(text string) int

// Estimate calls f(text).
func (f EstimatorFunc) Estimate(text string) int { return f(text) }

// CharsPerToken is the average English token width assumed by Heuristic.
const CharsPerToken = 4

// Heuristic estimates ceil(len(text)/4). Length is measured in bytes, so
// multi-byte scripts over-count, which keeps the estimate on the safe side.
type Heuristic struct{}

// Estimate returns ceil(len(text)/CharsPerToken); the empty string costs 0.
func (Heuristic) Estimate(text string) int {
	return EstimateString(text)
}

// Name identifies the heuristic rule.
func (Heuristic) Name() string { return "heuristic" }

// EstimateString is the Heuristic rule as a free function.
func EstimateString(text string) int {
	n := len(text)
	if n == 0 {
		return 0
	}
	return (n + CharsPerToken - 1) / CharsPerToken
}

// Tiktoken counts tokens with a real BPE encoding.
type Tiktoken struct {
	enc      *tiktoken.Tiktoken
	encoding string
}

// NewTiktoken loads the named encoding (e.g. "cl100k_base"). The rank file is
// fetched on first use and cached under TIKTOKEN_CACHE_DIR when that is set.
func NewTiktoken(encoding string) (*Tiktoken, error) {
	if encoding == "" {
		encoding = "cl100k_base"
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load tiktoken encoding %s: %w", encoding, err)
	}
	return &Tiktoken{enc: enc, encoding: encoding}, nil
}

// Encoding returns the name of the loaded encoding.
func (t *Tiktoken) Encoding() string { return t.encoding }

// Name returns "tiktoken:" followed by the encoding.
func (t *Tiktoken) Name() string { return "tiktoken:" + t.encoding }

// Estimate returns the exact BPE token count of text.
func (t *Tiktoken) Estimate(text string) int {
	if text == "" {
		return 0
	}
	return len(t.enc.Encode(text, nil, nil))
}

// New returns the estimator named by kind: "tiktoken" or "heuristic" (the
// default for an empty kind).
func New(kind, encoding string) (Estimator, error) {
	switch kind {
	case "", "heuristic":
		return Heuristic{}, nil
	case "tiktoken":
		t, err := NewTiktoken(encoding)
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unknown token estimator %q", kind)
	}
}
