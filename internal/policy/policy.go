// Package policy evaluates the fine-grained restrictions attached to API keys against
// an in-flight request.
package policy

import (
	"fmt"
	"net/url"

	"github.com/go-viper/mapstructure/v2"
	validation "github.com/jellydator/validation"
)

// Request is the part of an HTTP request a policy may inspect. Body holds the raw
// request body; policies decode the fields they need with encoding/json so keys match
// case-insensitively, the same way handlers bind it.
type Request struct {
	Method   string
	Path     string
	Body     []byte
	Query    url.Values
	Username string
}

// Result is the outcome of evaluating one or more policies.
type Result struct {
	Allowed bool
	Message string
	// CacheKey identifies decisions that may be reused for the same principal. Empty
	// when the request was out of scope.
	CacheKey string
}

// Policy is a named predicate over a request. Params are the raw parameters stored
// with the restriction.
type Policy interface {
	Name() string
	// ValidateParams reports whether params are usable by Evaluate. Keys are rejected
	// at creation when it fails.
	ValidateParams(params map[string]any) error
	Evaluate(req *Request, params map[string]any) (Result, error)
}

// Registry maps restriction names to policies.
type Registry map[string]Policy

// NewRegistry builds a registry keyed by each policy's name.
func NewRegistry(policies ...Policy) Registry {
	r := make(Registry, len(policies))
	for _, p := range policies {
		r[p.Name()] = p
	}
	return r
}

// DefaultRegistry returns every built-in policy.
func DefaultRegistry() Registry {
	return NewRegistry(EventsHostRestrictionPolicy{}, MembershipListQueryPolicy{})
}

// Lookup returns the policy registered under name.
func (r Registry) Lookup(name string) (Policy, bool) {
	p, ok := r[name]
	return p, ok
}

// decodeParams decodes raw params into out and runs its validation rules.
func decodeParams(params map[string]any, out validation.Validatable) error {
	if err := mapstructure.Decode(params, out); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	return out.Validate()
}

// truthy follows JavaScript truthiness for a decoded JSON value.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}

func skipped(message string) Result {
	return Result{Allowed: true, Message: message}
}

func denied(name, reason, cacheKey string) Result {
	return Result{
		Allowed:  false,
		Message:  fmt.Sprintf("Denied by policy %q. %s", name, reason),
		CacheKey: cacheKey,
	}
}
