package client

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/NicolasHaas/gowallet/pkg/api"
	"github.com/NicolasHaas/gowallet/pkg/flow"
	"github.com/NicolasHaas/gowallet/pkg/model"
)

func TestObserveTransfer(t *testing.T) {
	m := NewMetrics()
	results := []flow.Result{
		{Kind: flow.Success},
		{Kind: flow.Warning},
		flow.Fail("Payment failed.", &api.Error{Op: "pay", Status: 400}),
		flow.Fail("Payment failed.", errors.New("connection refused")),
		flow.Fail("select", model.ErrInvalidAmount),
		flow.Invalid("pin", "pin", model.ErrPINFormat),
		flow.Invalid("amount", "Insufficient balance.", nil),
		flow.Ignore(),
	}
	for _, r := range results {
		m.observeTransfer(r)
	}
	s := m.Snapshot()
	if s.TransfersTried != 4 || s.TransfersOK != 1 || s.TransfersUnclear != 1 || s.TransfersFailed != 2 {
		t.Errorf("snapshot = %+v", s)
	}
}

func TestMetricsJSON(t *testing.T) {
	m := NewMetrics()
	m.observeRequest("profile", 200, nil)
	m.observeRequest("pay", 400, errors.New("rejected"))
	var s MetricsSnapshot
	if err := json.Unmarshal([]byte(m.JSON()), &s); err != nil {
		t.Fatal(err)
	}
	if s.Requests != 2 || s.RequestErrors != 1 {
		t.Errorf("snapshot = %+v", s)
	}
}
