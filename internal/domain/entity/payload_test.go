package entity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/caf-approval/internal/domain/workflow"
)

func TestNewRequest(t *testing.T) {
	r, err := NewRequest(Payload{
		"contract_type":    ContractTypeContract,
		"responsible":      "luis@example.com",
		"requesting_actor": "ana@example.com",
		"amount_mxn":       1500.5,
	})
	require.NoError(t, err)

	assert.Equal(t, workflow.StatePending, r.State)
	assert.Equal(t, workflow.ModeNormal, r.Mode)
	assert.Equal(t, "CO", r.Fields.ContractType)
	assert.Equal(t, "luis@example.com", r.Fields.Responsible)
	assert.Equal(t, "ana@example.com", r.RequestingActor)
	assert.Equal(t, "1500.5", r.Fields.AmountMXN)
	assert.Zero(t, r.ID)
}

func TestNewRequest_IgnoresReservedKeys(t *testing.T) {
	r, err := NewRequest(Payload{
		"contract_type":  ContractTypeContract,
		"id":             99,
		"approval_state": "APPROVED",
		"mode":           "View",
		"comments":       "pre-approved",
		"approve":        3,
		"Comentarios":    "legacy",
	})
	require.NoError(t, err)

	assert.Zero(t, r.ID)
	assert.Equal(t, workflow.StatePending, r.State)
	assert.Equal(t, workflow.ModeNormal, r.Mode)
	assert.Empty(t, r.Comments)
}

func TestNewRequest_LegacyAliases(t *testing.T) {
	r, err := NewRequest(Payload{
		"Tipo_Contratacion": "OS",
		"Responsable":       "luis@example.com",
		"Usuario":           "ana@example.com",
		"Cliente":           "ACME",
	})
	require.NoError(t, err)

	assert.Equal(t, "OS", r.Fields.ContractType)
	assert.Equal(t, "luis@example.com", r.Fields.Responsible)
	assert.Equal(t, "ana@example.com", r.RequestingActor)
	assert.Equal(t, "ACME", r.Fields.Client)
}

func TestNewRequest_UnknownKey(t *testing.T) {
	_, err := NewRequest(Payload{"contract_type": "CO", "favourite_color": "blue"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, workflow.ErrValidation))
	assert.Contains(t, err.Error(), "favourite_color")
}

func TestNewRequest_MalformedValue(t *testing.T) {
	_, err := NewRequest(Payload{"client": []string{"a", "b"}})

	require.Error(t, err)
	assert.True(t, errors.Is(err, workflow.ErrValidation))
}

func TestApplyPayload(t *testing.T) {
	r := &Request{Fields: Fields{ContractType: "CO", Client: "ACME", Supplier: "Old"}}

	changed, err := r.ApplyPayload(Payload{
		"supplier": "New",
		"client":   "ACME",
		"address":  "Av. Reforma 1",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"address", "supplier"}, changed)
	assert.Equal(t, "New", r.Fields.Supplier)
	assert.Equal(t, "Av. Reforma 1", r.Fields.Address)
	assert.Equal(t, "CO", r.Fields.ContractType)
}

func TestApplyPayload_NoChanges(t *testing.T) {
	r := &Request{Fields: Fields{Client: "ACME"}}

	changed, err := r.ApplyPayload(Payload{"client": "ACME"})
	require.NoError(t, err)
	assert.Empty(t, changed)
}

func TestApplyPayload_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		payload Payload
		field   string
	}{
		{"approval state", Payload{"approval_state": "APPROVED"}, "approval_state"},
		{"legacy comments", Payload{"Comentarios": "x"}, "Comentarios"},
		{"id", Payload{"id": 3}, "id"},
		{"requesting actor", Payload{"requesting_actor": "eve@example.com"}, KeyRequestingActor},
		{"legacy requesting actor", Payload{"Usuario": "eve@example.com"}, KeyRequestingActor},
		{"unknown", Payload{"nope": 1}, "payload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Request{RequestingActor: "ana@example.com", Fields: Fields{Client: "ACME"}}
			before := *r

			_, err := r.ApplyPayload(tt.payload)
			require.Error(t, err)

			var verr *workflow.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, before, *r, "request must not be partially modified")
		})
	}
}

func TestWithoutReserved(t *testing.T) {
	p := Payload{"id": 1, "client": "ACME", "mode": "View"}
	out := p.WithoutReserved()

	assert.Equal(t, Payload{"client": "ACME"}, out)
	assert.Len(t, p, 3, "input must not be modified")
}

func TestSetState_DerivesMode(t *testing.T) {
	r := &Request{}
	for _, s := range workflow.States {
		r.SetState(s)
		assert.Equal(t, workflow.ModeFor(s), r.Mode)
	}
}
