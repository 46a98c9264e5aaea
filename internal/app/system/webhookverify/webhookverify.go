// Package webhookverify checks identity-provider webhook signatures.
//
// The provider signs `<id>.<timestamp>.<payload>` with HMAC-SHA256 under a
// shared secret ("whsec_<base64 key>") and sends the result in the
// webhook-signature header as space-separated "v1,<base64 mac>" entries.
// Verification accepts the delivery if any entry matches and the timestamp
// is within the tolerance window.
package webhookverify

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"
)

const secretPrefix = "whsec_"

// Tolerance is the maximum allowed clock skew on the timestamp header.
const Tolerance = 5 * time.Minute

var (
	ErrMissingHeaders = errors.New("webhook: missing id, timestamp, or signature header")
	ErrStaleTimestamp = errors.New("webhook: timestamp outside tolerance")
	ErrNoMatch        = errors.New("webhook: no matching signature")
	ErrBadSecret      = errors.New("webhook: malformed signing secret")
)

// Verifier validates signed webhook deliveries.
type Verifier struct {
	key []byte
	now func() time.Time
}

// New builds a Verifier from the configured signing secret.
func New(secret string) (*Verifier, error) {
	raw := strings.TrimPrefix(secret, secretPrefix)
	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil || len(key) == 0 {
		return nil, ErrBadSecret
	}
	return &Verifier{key: key, now: time.Now}, nil
}

// Verify checks the delivery identified by msgID/timestamp against payload.
// timestamp is Unix seconds as sent in the webhook-timestamp header.
func (v *Verifier) Verify(msgID, timestamp, signatures string, payload []byte) error {
	if msgID == "" || timestamp == "" || signatures == "" {
		return ErrMissingHeaders
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrMissingHeaders
	}
	age := v.now().Sub(time.Unix(ts, 0))
	if age > Tolerance || age < -Tolerance {
		return ErrStaleTimestamp
	}

	mac := hmac.New(sha256.New, v.key)
	mac.Write([]byte(msgID + "." + timestamp + "."))
	mac.Write(payload)
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	for _, sig := range strings.Fields(signatures) {
		parts := strings.SplitN(sig, ",", 2)
		if len(parts) != 2 || parts[0] != "v1" {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(want)) == 1 {
			return nil
		}
	}
	return ErrNoMatch
}
