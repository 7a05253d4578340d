package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/caf-approval/internal/domain/entity"
	"github.com/garyjia/caf-approval/internal/domain/workflow"
)

func validRequest() *entity.Request {
	return &entity.Request{
		RequestingActor: "ana@example.com",
		Fields: entity.Fields{
			ContractType:   entity.ContractTypeServiceOrder,
			Responsible:    "luis@example.com",
			Date:           "2024-06-01",
			SharePointLink: "https://contoso.sharepoint.com/sites/caf/doc.pdf",
			AmountMXN:      "15000.50",
		},
	}
}

func TestRequestValidator_Valid(t *testing.T) {
	assert.NoError(t, NewRequestValidator().ValidateRequest(validRequest()))
}

func TestRequestValidator_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *entity.Request)
		field  string
		reason string
	}{
		{"missing contract type", func(r *entity.Request) { r.Fields.ContractType = "" }, "contract_type", "is required"},
		{"unknown contract type", func(r *entity.Request) { r.Fields.ContractType = "XX" }, "contract_type", "must be one of: CO OS OC PD FD"},
		{"missing responsible", func(r *entity.Request) { r.Fields.Responsible = "" }, "responsible", "is required"},
		{"bad responsible", func(r *entity.Request) { r.Fields.Responsible = "luis" }, "responsible", "must be a valid email address"},
		{"bad date", func(r *entity.Request) { r.Fields.Date = "01/06/2024" }, "date", "must be a date formatted as 2006-01-02"},
		{"bad link", func(r *entity.Request) { r.Fields.SharePointLink = "not a url" }, "sharepoint_link", "must be a valid URL"},
		{"bad amount", func(r *entity.Request) { r.Fields.AmountMXN = "mil" }, "amount_mxn", "must be numeric"},
		{"bad requesting actor", func(r *entity.Request) { r.RequestingActor = "ana" }, "requesting_actor", "must be a valid email address"},
	}

	v := NewRequestValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRequest()
			tt.mutate(r)

			err := v.ValidateRequest(r)
			require.Error(t, err)
			assert.True(t, errors.Is(err, workflow.ErrValidation))

			var verr *workflow.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, tt.reason, verr.Reason)
		})
	}
}

func TestRequestValidator_OptionalFieldsMayBeEmpty(t *testing.T) {
	r := validRequest()
	r.Fields.Date = ""
	r.Fields.SharePointLink = ""
	r.Fields.AmountMXN = ""
	r.RequestingActor = ""

	assert.NoError(t, NewRequestValidator().ValidateRequest(r))
}
