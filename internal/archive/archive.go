// Package archive keeps evidence of rejected payment signatures for later
// investigation. Evidence goes to S3 when configured, otherwise to local disk.
package archive

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Evidence kinds.
const (
	KindCallback = "callback"
	KindWebhook  = "webhook"
)

// Limits applied by Capped. Anyone can post a forged webhook, so stored
// evidence must not grow with the request.
const (
	MaxBodyBytes  = 4 << 10
	MaxFieldBytes = 256
)

// Evidence describes one rejected signature.
type Evidence struct {
	Kind           string    `json:"kind"`
	ReceivedAt     time.Time `json:"receivedAt"`
	GatewayOrderID string    `json:"gatewayOrderId,omitempty"`
	PaymentID      string    `json:"paymentId,omitempty"`
	Signature      string    `json:"signature,omitempty"`
	Body           []byte    `json:"body,omitempty"`
	BodySize       int       `json:"bodySize,omitempty"`
	BodySHA256     string    `json:"bodySha256,omitempty"`
	Truncated      bool      `json:"truncated,omitempty"`
}

// Capped returns a copy of ev holding at most MaxBodyBytes of the body and
// MaxFieldBytes of each request-supplied string. BodySize and BodySHA256
// always describe the full body.
func (ev Evidence) Capped() Evidence {
	if len(ev.Body) > 0 {
		sum := sha256.Sum256(ev.Body)
		ev.BodySize = len(ev.Body)
		ev.BodySHA256 = hex.EncodeToString(sum[:])
	}
	if len(ev.Body) > MaxBodyBytes {
		ev.Body = bytes.Clone(ev.Body[:MaxBodyBytes])
		ev.Truncated = true
	}
	for _, field := range []*string{&ev.Signature, &ev.GatewayOrderID, &ev.PaymentID} {
		if len(*field) > MaxFieldBytes {
			*field = (*field)[:MaxFieldBytes]
			ev.Truncated = true
		}
	}
	return ev
}

// Archiver stores evidence.
type Archiver interface {
	Archive(ctx context.Context, ev Evidence) error
}

// objectName returns the relative path evidence is stored under,
// e.g. 2026-01-02/webhook-1735786800000000000-<uuid>.json.gz.
func objectName(ev Evidence) string {
	ts := ev.ReceivedAt.UTC()
	return fmt.Sprintf("%s/%s-%d-%s.json.gz", ts.Format("2006-01-02"), ev.Kind, ts.UnixNano(), uuid.NewString())
}

// encode returns ev as gzipped JSON.
func encode(ev Evidence) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if err := json.NewEncoder(gz).Encode(ev); err != nil {
		return nil, fmt.Errorf("failed to encode evidence: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress evidence: %w", err)
	}
	return buf.Bytes(), nil
}
