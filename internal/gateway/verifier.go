package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"storefront-settlement/internal/settlement/domain"
)

// Verifier authenticates client-delivered payment callbacks. This is
// the single trust boundary between an untrusted callback and a
// monetary state transition: it must run before any database write.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify recomputes the HMAC over "gatewayOrderId|gatewayPaymentId" and
// compares in constant time. The callback's order id must also match
// the id of the checkout attempt being settled, so a signature valid
// for one order cannot be replayed against another.
func (v *Verifier) Verify(cb domain.PaymentCallback, expectedOrderID string) error {
	if cb.GatewayOrderID != expectedOrderID {
		return &domain.VerificationError{Reason: domain.ReasonOrderIDMismatch}
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(cb.GatewayOrderID + "|" + cb.GatewayPaymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(cb.Signature)) {
		return &domain.VerificationError{Reason: domain.ReasonSignatureMismatch}
	}
	return nil
}

// Sign produces a callback signature. Exported for the simulator
// endpoint in local dev and for tests.
func (v *Verifier) Sign(gatewayOrderID, gatewayPaymentID string) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
