// Package payment implements the charge client for the external payment
// gateway. Charge submission, not settlement confirmation, is what the
// checkout treats as acceptance; final capture arrives asynchronously.
package payment

import "context"

// ChargeRequest describes a single charge attempt. Amount is in the
// smallest currency subunit. SourceToken is the opaque client-supplied
// payment token; OrderID is attached as metadata for reconciliation.
type ChargeRequest struct {
	OrderID     string
	AmountCents int64
	Currency    string
	SourceToken string
	Description string
}

// ChargeResult reports whether the gateway accepted the submission.
// A rejected charge carries the gateway's reason.
type ChargeResult struct {
	Accepted    bool
	ProviderRef string
	Reason      string
}

// Gateway is the single charge call the checkout workflow depends on.
//
// Error contract: a returned error wrapping common.ErrChargeUnconfirmed
// means the submission may or may not have reached the gateway (timeout);
// the caller must treat the charge as retryable-but-unconfirmed, never as
// success and never as a definitive rejection.
type Gateway interface {
	Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error)
}
