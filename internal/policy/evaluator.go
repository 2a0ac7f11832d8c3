package policy

import (
	"context"
	"fmt"
	"log/slog"

	authDomain "github.com/acm-uiuc/authcore/internal/auth/domain"
)

// Evaluator runs the restrictions attached to a principal against a request.
type Evaluator struct {
	registry Registry
	logger   *slog.Logger
}

// NewEvaluator creates an Evaluator over the given registry.
func NewEvaluator(registry Registry, logger *slog.Logger) *Evaluator {
	return &Evaluator{registry: registry, logger: logger}
}

// EvaluateAll ANDs every restriction. The first denial is returned; with no
// restrictions the request is allowed.
func (e *Evaluator) EvaluateAll(
	ctx context.Context,
	req *Request,
	restrictions []authDomain.PolicyRestriction,
) Result {
	for _, restriction := range restrictions {
		p, ok := e.registry.Lookup(restriction.Name)
		if !ok {
			e.logger.ErrorContext(ctx, "api key carries an unknown policy restriction",
				slog.String("policy", restriction.Name),
				slog.String("user", req.Username),
			)
			return denied(restriction.Name, "Policy is not recognized.", req.Username)
		}

		result := e.evaluate(p, req, restriction.Params)
		e.logger.InfoContext(ctx, "policy evaluated",
			slog.String("policy", restriction.Name),
			slog.Bool("allowed", result.Allowed),
			slog.String("user", req.Username),
		)
		if !result.Allowed {
			return result
		}
	}
	return Result{Allowed: true, Message: "All policies passed."}
}

func (e *Evaluator) evaluate(p Policy, req *Request, params map[string]any) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = evaluationError(p.Name(), fmt.Sprint(r))
		}
	}()

	result, err := p.Evaluate(req, params)
	if err != nil {
		return evaluationError(p.Name(), err.Error())
	}
	return result
}

func evaluationError(name, msg string) Result {
	return Result{
		Allowed:  false,
		Message:  fmt.Sprintf("Error evaluating policy %s: %s", name, msg),
		CacheKey: fmt.Sprintf("error:%s:%s", name, msg),
	}
}
