package entity

import (
	"errors"
	"fmt"
	"sort"

	"github.com/mitchellh/mapstructure"

	"github.com/garyjia/caf-approval/internal/domain/workflow"
)

// Payload is the raw key/value body a caller submits for a request
type Payload map[string]interface{}

// fieldsPatch holds the enumerated editable keys; nil means "not supplied"
type fieldsPatch struct {
	ContractType    *string `mapstructure:"contract_type"`
	Responsible     *string `mapstructure:"responsible"`
	Date            *string `mapstructure:"date"`
	Client          *string `mapstructure:"client"`
	Building        *string `mapstructure:"building"`
	Address         *string `mapstructure:"address"`
	Supplier        *string `mapstructure:"supplier"`
	WorkDescription *string `mapstructure:"work_description"`
	Justification   *string `mapstructure:"justification"`
	SharePointLink  *string `mapstructure:"sharepoint_link"`
	StartDate       *string `mapstructure:"start_date"`
	EndDate         *string `mapstructure:"end_date"`
	AmountMXN       *string `mapstructure:"amount_mxn"`
	AmountUSD       *string `mapstructure:"amount_usd"`
	ExchangeRate    *string `mapstructure:"exchange_rate"`
	WorkType        *string `mapstructure:"work_type"`
	RequestingActor *string `mapstructure:"requesting_actor"`
}

// WithoutReserved returns a copy of p without the workflow-managed keys
func (p Payload) WithoutReserved() Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	for _, k := range ReservedKeys {
		delete(out, k)
	}
	return out
}

// NewRequest builds an unsaved Pending request from a creation payload.
// Reserved keys are ignored; unknown keys are rejected.
func NewRequest(p Payload) (*Request, error) {
	patch, err := decodePatch(p.WithoutReserved())
	if err != nil {
		return nil, err
	}

	r := &Request{}
	patch.applyTo(r)
	if patch.RequestingActor != nil {
		r.RequestingActor = *patch.RequestingActor
	}
	r.SetState(workflow.StatePending)
	return r, nil
}

// ApplyPayload merges an edit payload into the request and returns the
// names of the fields whose value changed, sorted.
// Reserved keys and the requesting actor cannot be edited.
func (r *Request) ApplyPayload(p Payload) ([]string, error) {
	for _, k := range ReservedKeys {
		if _, ok := p[k]; ok {
			return nil, workflow.NewValidationError(k, "field is managed by the workflow")
		}
	}

	patch, err := decodePatch(p)
	if err != nil {
		return nil, err
	}
	if patch.RequestingActor != nil {
		return nil, workflow.NewValidationError(KeyRequestingActor, "field cannot be changed after creation")
	}

	return patch.applyTo(r), nil
}

func decodePatch(p Payload) (*fieldsPatch, error) {
	normalized := make(map[string]interface{}, len(p))
	for k, v := range p {
		if alias, ok := legacyAliases[k]; ok {
			k = alias
		}
		normalized[k] = v
	}

	var patch fieldsPatch
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           &patch,
	})
	if err != nil {
		return nil, fmt.Errorf("build payload decoder: %w", err)
	}

	if err := decoder.Decode(normalized); err != nil {
		reason := err.Error()
		var merr *mapstructure.Error
		if errors.As(err, &merr) && len(merr.Errors) > 0 {
			reason = merr.Errors[0]
		}
		return nil, &workflow.ValidationError{Field: "payload", Reason: reason, Err: err}
	}

	return &patch, nil
}

func (p *fieldsPatch) applyTo(r *Request) []string {
	var changed []string
	set := func(dst *string, src *string, name string) {
		if src == nil || *dst == *src {
			return
		}
		*dst = *src
		changed = append(changed, name)
	}

	f := &r.Fields
	set(&f.ContractType, p.ContractType, "contract_type")
	set(&f.Responsible, p.Responsible, "responsible")
	set(&f.Date, p.Date, "date")
	set(&f.Client, p.Client, "client")
	set(&f.Building, p.Building, "building")
	set(&f.Address, p.Address, "address")
	set(&f.Supplier, p.Supplier, "supplier")
	set(&f.WorkDescription, p.WorkDescription, "work_description")
	set(&f.Justification, p.Justification, "justification")
	set(&f.SharePointLink, p.SharePointLink, "sharepoint_link")
	set(&f.StartDate, p.StartDate, "start_date")
	set(&f.EndDate, p.EndDate, "end_date")
	set(&f.AmountMXN, p.AmountMXN, "amount_mxn")
	set(&f.AmountUSD, p.AmountUSD, "amount_usd")
	set(&f.ExchangeRate, p.ExchangeRate, "exchange_rate")
	set(&f.WorkType, p.WorkType, "work_type")

	sort.Strings(changed)
	return changed
}
