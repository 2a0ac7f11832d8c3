package policy

import (
	"encoding/json"
	"net/http"
	"strings"

	validation "github.com/jellydator/validation"
)

const eventsPathPrefix = "/api/v1/events"

type hostParams struct {
	Host []string `mapstructure:"host"`
}

func (p *hostParams) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Host, validation.Required, validation.Each(validation.Required)),
	)
}

type eventBody struct {
	Host     any `json:"host"`
	Featured any `json:"featured"`
}

// EventsHostRestrictionPolicy limits event mutations to a set of host organizations
// and forbids featured events outright.
type EventsHostRestrictionPolicy struct{}

func (EventsHostRestrictionPolicy) Name() string { return "EventsHostRestrictionPolicy" }

func (EventsHostRestrictionPolicy) ValidateParams(params map[string]any) error {
	var hp hostParams
	return decodeParams(params, &hp)
}

func (p EventsHostRestrictionPolicy) Evaluate(req *Request, params map[string]any) (Result, error) {
	if req.Method == http.MethodGet || !strings.HasPrefix(req.Path, eventsPathPrefix) {
		return skipped("Skipped as route not in scope."), nil
	}

	var hp hostParams
	if err := decodeParams(params, &hp); err != nil {
		return Result{}, err
	}

	// Bodies that are not JSON objects carry no host.
	var body eventBody
	if len(req.Body) > 0 {
		_ = json.Unmarshal(req.Body, &body)
	}
	if !truthy(body.Host) {
		return skipped("Skipped as no host found."), nil
	}
	if truthy(body.Featured) {
		return denied(p.Name(), "Event must not be featured.", req.Username), nil
	}
	host, _ := body.Host.(string)
	for _, allowed := range hp.Host {
		if host != "" && allowed == host {
			return Result{
				Allowed:  true,
				Message:  `Policy "EventsHostRestrictionPolicy" evaluated successfully.`,
				CacheKey: req.Username,
			}, nil
		}
	}
	return denied(p.Name(), "Host must be one of: "+strings.Join(hp.Host, ",")+".", req.Username), nil
}
