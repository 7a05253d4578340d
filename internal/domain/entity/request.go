package entity

import (
	"time"

	"github.com/garyjia/caf-approval/internal/domain/workflow"
)

// Request is a CAF request under approval workflow control.
// Mode is derived from State; use SetState instead of assigning either field.
type Request struct {
	ID              int64          `json:"id"`
	State           workflow.State `json:"approval_state"`
	Mode            workflow.Mode  `json:"mode"`
	Comments        string         `json:"comments"`
	RequestingActor string         `json:"requesting_actor" validate:"omitempty,email"`
	ReviewingActor  string         `json:"reviewing_actor,omitempty"`
	Fields          Fields         `json:"fields"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Fields is the business payload of a request.
// The workflow never interprets these values.
type Fields struct {
	ContractType    string `json:"contract_type" mapstructure:"contract_type" validate:"required,oneof=CO OS OC PD FD"`
	Responsible     string `json:"responsible" mapstructure:"responsible" validate:"required,email"`
	Date            string `json:"date,omitempty" mapstructure:"date" validate:"omitempty,datetime=2006-01-02"`
	Client          string `json:"client,omitempty" mapstructure:"client"`
	Building        string `json:"building,omitempty" mapstructure:"building"`
	Address         string `json:"address,omitempty" mapstructure:"address"`
	Supplier        string `json:"supplier,omitempty" mapstructure:"supplier"`
	WorkDescription string `json:"work_description,omitempty" mapstructure:"work_description"`
	Justification   string `json:"justification,omitempty" mapstructure:"justification"`
	SharePointLink  string `json:"sharepoint_link,omitempty" mapstructure:"sharepoint_link" validate:"omitempty,url"`
	StartDate       string `json:"start_date,omitempty" mapstructure:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate         string `json:"end_date,omitempty" mapstructure:"end_date" validate:"omitempty,datetime=2006-01-02"`
	AmountMXN       string `json:"amount_mxn,omitempty" mapstructure:"amount_mxn" validate:"omitempty,numeric"`
	AmountUSD       string `json:"amount_usd,omitempty" mapstructure:"amount_usd" validate:"omitempty,numeric"`
	ExchangeRate    string `json:"exchange_rate,omitempty" mapstructure:"exchange_rate" validate:"omitempty,numeric"`
	WorkType        string `json:"work_type,omitempty" mapstructure:"work_type"`
}

// SetState moves the request to s and derives Mode from it
func (r *Request) SetState(s workflow.State) {
	r.State = s
	r.Mode = workflow.ModeFor(s)
}

// Snapshot returns a copy that later mutations of r do not affect
func (r *Request) Snapshot() Request {
	return *r
}
