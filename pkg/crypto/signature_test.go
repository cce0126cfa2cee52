package crypto

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const signingSecret = "whsec_test_secret"

// Requirement: a header produced by SignPayload verifies against the
// same raw bytes and secret.
func TestVerifySignature_RoundTrip(t *testing.T) {
	// Arrange
	payload := []byte(`{"type":"checkout.session.completed"}`)
	header := SignPayload(payload, signingSecret, time.Now())

	// Act
	err := VerifySignature(payload, header, signingSecret, DefaultSignatureTolerance)

	// Assert
	if err != nil {
		t.Fatalf("VerifySignature() error = %v", err)
	}
}

// Requirement: any change to payload, secret, or header invalidates the
// signature; malformed headers are rejected before any MAC work.
func TestVerifySignature_Failures(t *testing.T) {
	payload := []byte(`{"type":"checkout.session.completed"}`)
	header := SignPayload(payload, signingSecret, time.Now())

	tests := []struct {
		name    string
		payload []byte
		header  string
		secret  string
		wantErr error
	}{
		{
			name:    "tampered payload",
			payload: []byte(`{"type":"checkout.session.completed","plan":"enterprise"}`),
			header:  header,
			secret:  signingSecret,
			wantErr: ErrSignatureMismatch,
		},
		{
			name:    "wrong secret",
			payload: payload,
			header:  header,
			secret:  "whsec_other",
			wantErr: ErrSignatureMismatch,
		},
		{
			name:    "missing v1 entry",
			payload: payload,
			header:  "t=12345",
			secret:  signingSecret,
			wantErr: ErrSignatureHeaderMalformed,
		},
		{
			name:    "missing timestamp",
			payload: payload,
			header:  "v1=deadbeef",
			secret:  signingSecret,
			wantErr: ErrSignatureHeaderMalformed,
		},
		{
			name:    "non-numeric timestamp",
			payload: payload,
			header:  "t=soon,v1=deadbeef",
			secret:  signingSecret,
			wantErr: ErrSignatureHeaderMalformed,
		},
		{
			name:    "empty header",
			payload: payload,
			header:  "",
			secret:  signingSecret,
			wantErr: ErrSignatureHeaderMalformed,
		},
		{
			name:    "stale timestamp",
			payload: payload,
			header:  SignPayload(payload, signingSecret, time.Now().Add(-time.Hour)),
			secret:  signingSecret,
			wantErr: ErrSignatureTimestampStale,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			err := VerifySignature(test.payload, test.header, test.secret, DefaultSignatureTolerance)
			if !errors.Is(err, test.wantErr) {
				t.Errorf("VerifySignature() error = %v, want %v", err, test.wantErr)
			}
		})
	}
}

// Requirement: during secret rollover the provider sends several v1
// entries; verification succeeds if any of them matches.
func TestVerifySignature_MultipleCandidates(t *testing.T) {
	// Arrange
	payload := []byte(`{"type":"invoice.paid"}`)
	good := SignPayload(payload, signingSecret, time.Now())
	ts, mac, _ := strings.Cut(good, ",")
	header := ts + ",v1=deadbeef," + mac

	// Act
	err := VerifySignature(payload, header, signingSecret, DefaultSignatureTolerance)

	// Assert
	if err != nil {
		t.Fatalf("VerifySignature() error = %v", err)
	}
}

// Requirement: zero tolerance disables the freshness check entirely.
func TestVerifySignature_NoTolerance(t *testing.T) {
	payload := []byte(`{}`)
	header := SignPayload(payload, signingSecret, time.Now().Add(-24*time.Hour))

	if err := VerifySignature(payload, header, signingSecret, 0); err != nil {
		t.Fatalf("VerifySignature() error = %v", err)
	}
}
