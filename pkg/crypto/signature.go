package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Webhook signatures follow the billing provider's header scheme:
//
//	t=<unix seconds>,v1=<hex hmac-sha256 of "<t>.<raw body>">
//
// The MAC is computed over the exact raw bytes received on the wire;
// the body must not be re-serialized before verification.

const DefaultSignatureTolerance = 5 * time.Minute

var (
	ErrSignatureHeaderMalformed = errors.New("signature header is malformed")
	ErrSignatureMismatch        = errors.New("signature does not match payload")
	ErrSignatureTimestampStale  = errors.New("signature timestamp outside tolerance")
)

// SignPayload produces a signature header for payload at the given
// timestamp. Used by the webhook tests and by provider simulators.
func SignPayload(payload []byte, secret string, at time.Time) string {
	ts := at.Unix()
	mac := computeMAC(payload, secret, ts)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac))
}

// VerifySignature checks header against the raw payload bytes. A zero
// tolerance disables the timestamp freshness check.
func VerifySignature(payload []byte, header, secret string, tolerance time.Duration) error {
	ts, candidates, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}

	if tolerance > 0 {
		age := time.Since(time.Unix(ts, 0))
		if age > tolerance || age < -tolerance {
			return ErrSignatureTimestampStale
		}
	}

	expected := computeMAC(payload, secret, ts)
	for _, candidate := range candidates {
		decoded, err := hex.DecodeString(candidate)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			return nil
		}
	}
	return ErrSignatureMismatch
}

func computeMAC(payload []byte, secret string, ts int64) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)
	return mac.Sum(nil)
}

// parseSignatureHeader extracts the timestamp and all v1 candidates.
// The provider may include multiple v1 entries during secret rollover.
func parseSignatureHeader(header string) (int64, []string, error) {
	var (
		ts         int64
		tsSeen     bool
		candidates []string
	)

	for _, pair := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil, ErrSignatureHeaderMalformed
			}
			ts = parsed
			tsSeen = true
		case "v1":
			candidates = append(candidates, value)
		}
	}

	if !tsSeen || len(candidates) == 0 {
		return 0, nil, ErrSignatureHeaderMalformed
	}
	return ts, candidates, nil
}
