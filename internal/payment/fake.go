package payment

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// FakeGateway is a deterministic in-process gateway for development and
// tests: tokens prefixed "tok_fail" are rejected, everything else is
// accepted. Used when no gateway API key is configured.
type FakeGateway struct{}

func NewFakeGateway() *FakeGateway { return &FakeGateway{} }

func (f *FakeGateway) Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	ref := fmt.Sprintf("FAKE-%s-%d", req.OrderID, time.Now().UnixNano())
	if strings.HasPrefix(req.SourceToken, "tok_fail") {
		return &ChargeResult{Accepted: false, ProviderRef: ref, Reason: "card_declined"}, nil
	}
	return &ChargeResult{Accepted: true, ProviderRef: ref}, nil
}
