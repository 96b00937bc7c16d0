package policyroute

import (
	"context"
	"errors"
	"fmt"

	"storegate/internal/domain"
	"storegate/internal/usecase"

	"github.com/open-policy-agent/opa/rego"
)

const classQuery = "data.storegate.routes.class"

// defaultPolicy is the shipped route classification table. Both the edge
// gate and the background guard consult this engine; there is no second copy
// of the exemption set anywhere.
const defaultPolicy = `package storegate.routes

default class = "protected"

exempt_prefixes = [
	"/license-setup",
	"/license-invalid",
	"/register",
	"/auth/",
	"/healthz",
	"/internal/",
	"/static/",
	"/assets/",
	"/favicon.ico",
]

public_prefixes = [
	"/shop",
	"/catalog",
	"/product",
	"/search",
]

is_exempt {
	some i
	startswith(input.path, exempt_prefixes[i])
}

is_public {
	not is_exempt
	some i
	startswith(input.path, public_prefixes[i])
}

class = "exempt" {
	is_exempt
}

class = "public" {
	is_public
}
`

type Engine struct {
	query rego.PreparedEvalQuery
}

type classifyInput struct {
	Path string `json:"path"`
}

// NewEngine compiles the default route policy.
func NewEngine(ctx context.Context) (*Engine, error) {
	return newEngine(ctx, rego.Module("routes.rego", defaultPolicy))
}

// NewEngineFromPath loads a deployment-specific policy file, for storefronts
// with extra exempt or public surfaces.
func NewEngineFromPath(ctx context.Context, path string) (*Engine, error) {
	return newEngine(ctx, rego.Load([]string{path}, nil))
}

func newEngine(ctx context.Context, source func(*rego.Rego)) (*Engine, error) {
	prepared, err := rego.New(
		rego.Query(classQuery),
		rego.StrictBuiltinErrors(true),
		source,
	).PrepareForEval(ctx)
	if err != nil {
		return nil, err
	}
	return &Engine{query: prepared}, nil
}

func (e *Engine) Classify(ctx context.Context, path string) (domain.RouteClass, error) {
	if e == nil {
		return "", errors.New("route engine is nil")
	}
	results, err := e.query.Eval(ctx, rego.EvalInput(classifyInput{Path: path}))
	if err != nil {
		return "", err
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return "", errors.New("empty route policy result")
	}
	raw, ok := results[0].Expressions[0].Value.(string)
	if !ok {
		return "", fmt.Errorf("route policy returned %T, want string", results[0].Expressions[0].Value)
	}
	switch class := domain.RouteClass(raw); class {
	case domain.RouteExempt, domain.RoutePublic, domain.RouteProtected:
		return class, nil
	default:
		return "", fmt.Errorf("route policy returned unknown class %q", raw)
	}
}

var _ usecase.RouteClassifier = (*Engine)(nil)
