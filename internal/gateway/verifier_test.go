package gateway

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"storefront-settlement/internal/settlement/domain"
)

func TestVerifyAcceptsGenuineCallback(t *testing.T) {
	v := NewVerifier("whsec_test")
	cb := domain.PaymentCallback{
		GatewayOrderID:   "order_123",
		GatewayPaymentID: "pay_456",
		Signature:        v.Sign("order_123", "pay_456"),
	}

	require.NoError(t, v.Verify(cb, "order_123"))
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	v := NewVerifier("whsec_test")
	sig := v.Sign("order_123", "pay_456")
	cb := domain.PaymentCallback{
		GatewayOrderID:   "order_123",
		GatewayPaymentID: "pay_456",
		Signature:        sig[:len(sig)-1] + "0",
	}

	err := v.Verify(cb, "order_123")
	var verr *domain.VerificationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, domain.ReasonSignatureMismatch, verr.Reason)
}

func TestVerifyRejectsCrossOrderReplay(t *testing.T) {
	v := NewVerifier("whsec_test")
	// A perfectly valid signature for a different order must not settle
	// this one.
	cb := domain.PaymentCallback{
		GatewayOrderID:   "order_other",
		GatewayPaymentID: "pay_456",
		Signature:        v.Sign("order_other", "pay_456"),
	}

	err := v.Verify(cb, "order_123")
	var verr *domain.VerificationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, domain.ReasonOrderIDMismatch, verr.Reason)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	signer := NewVerifier("whsec_attacker")
	v := NewVerifier("whsec_test")
	cb := domain.PaymentCallback{
		GatewayOrderID:   "order_123",
		GatewayPaymentID: "pay_456",
		Signature:        signer.Sign("order_123", "pay_456"),
	}

	require.Error(t, v.Verify(cb, "order_123"))
}
