package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sign returns the lowercase hex HMAC-SHA256 of message under secret.
func Sign(secret string, message []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(message)
	return hex.EncodeToString(mac.Sum(nil))
}

// PaymentSignaturePayload is the message the gateway signs for a checkout callback.
func PaymentSignaturePayload(gatewayOrderID, paymentID string) []byte {
	return []byte(gatewayOrderID + "|" + paymentID)
}

// VerifyPaymentSignature checks a checkout callback signature.
func VerifyPaymentSignature(keySecret, gatewayOrderID, paymentID, signature string) bool {
	return verify(keySecret, PaymentSignaturePayload(gatewayOrderID, paymentID), signature)
}

// VerifyWebhookSignature checks a webhook signature over the exact raw body bytes.
// The body must not be re-encoded before verification.
func VerifyWebhookSignature(webhookSecret string, rawBody []byte, signature string) bool {
	return verify(webhookSecret, rawBody, signature)
}

func verify(secret string, message []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(message)
	return hmac.Equal(got, mac.Sum(nil))
}
