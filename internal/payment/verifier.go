package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Verifier checks gateway payment signatures: hex(HMAC-SHA256(secret, orderRef + "|" + paymentRef)).
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify reports whether signature authenticates the (orderRef, paymentRef) pair.
// Hex case is ignored. Empty inputs never verify.
func (v *Verifier) Verify(orderRef, paymentRef, signature string) bool {
	if orderRef == "" || paymentRef == "" || signature == "" || len(v.secret) == 0 {
		return false
	}

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(provided, v.mac(orderRef, paymentRef))
}

// Sign returns the lowercase hex signature the gateway would send for the pair.
func (v *Verifier) Sign(orderRef, paymentRef string) string {
	return hex.EncodeToString(v.mac(orderRef, paymentRef))
}

func (v *Verifier) mac(orderRef, paymentRef string) []byte {
	h := hmac.New(sha256.New, v.secret)
	h.Write([]byte(orderRef + "|" + paymentRef))
	return h.Sum(nil)
}
