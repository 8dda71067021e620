package policyrego

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"tierguard/internal/usecase"

	"github.com/open-policy-agent/opa/rego"
)

const defaultQuery = "data.tierguard.enforce.result"

// Engine evaluates an administrator-supplied Rego module against
// transfers that already passed the numeric limit check. The policy can
// only deny further; it never raises a limit, so the
// most-restrictive-wins contract holds.
type Engine struct {
	query rego.PreparedEvalQuery
}

func NewEngineFromPath(ctx context.Context, path string) (*Engine, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy: %w", err)
	}
	r := rego.New(
		rego.Query(defaultQuery),
		rego.Module("enforce.rego", string(source)),
		rego.StrictBuiltinErrors(true),
	)
	prepared, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare policy: %w", err)
	}
	return &Engine{query: prepared}, nil
}

func (e *Engine) Evaluate(ctx context.Context, input usecase.PolicyInput) (usecase.PolicyDecision, error) {
	if e == nil {
		return usecase.PolicyDecision{}, errors.New("policy engine is nil")
	}
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return usecase.PolicyDecision{}, err
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return usecase.PolicyDecision{}, errors.New("empty policy result")
	}
	return decodeDecision(results[0].Expressions[0].Value)
}

func decodeDecision(raw any) (usecase.PolicyDecision, error) {
	encoded, err := json.Marshal(raw)
	if err != nil {
		return usecase.PolicyDecision{}, err
	}
	var decoded struct {
		Allow   bool     `json:"allow"`
		Reasons []string `json:"reasons"`
	}
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		return usecase.PolicyDecision{}, fmt.Errorf("decode policy result: %w", err)
	}
	return usecase.PolicyDecision{Allow: decoded.Allow, Reasons: decoded.Reasons}, nil
}

var _ usecase.EnforcementPolicy = (*Engine)(nil)
