package policy

import (
	"net/http"
	"regexp"

	validation "github.com/jellydator/validation"
)

const defaultMembershipList = "acmpaid"

var membershipPathPattern = regexp.MustCompile(`^/api/.*/membership/.+$`)

type listParams struct {
	List []string `mapstructure:"list"`
}

func (p *listParams) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.List, validation.Required, validation.Each(validation.Required)),
	)
}

// MembershipListQueryPolicy limits membership lookups to the named lists. A lookup
// without a list query parameter targets the paid members list.
type MembershipListQueryPolicy struct{}

func (MembershipListQueryPolicy) Name() string { return "MembershipListQueryPolicy" }

func (MembershipListQueryPolicy) ValidateParams(params map[string]any) error {
	var lp listParams
	return decodeParams(params, &lp)
}

func (p MembershipListQueryPolicy) Evaluate(req *Request, params map[string]any) (Result, error) {
	if req.Method != http.MethodGet || !membershipPathPattern.MatchString(req.Path) {
		return skipped("Skipped as route not in scope."), nil
	}

	var lp listParams
	if err := decodeParams(params, &lp); err != nil {
		return Result{}, err
	}
	list := req.Query.Get("list")
	if list == "" {
		list = defaultMembershipList
	}
	for _, allowed := range lp.List {
		if allowed == list {
			return Result{
				Allowed:  true,
				Message:  `Policy "MembershipListQueryPolicy" evaluated successfully.`,
				CacheKey: req.Username + "|" + list,
			}, nil
		}
	}
	return denied(p.Name(), "You are not authorized to view this list.", req.Username), nil
}
