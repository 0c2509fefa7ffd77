package handlers

import (
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gagliardetto/solana-go"
	"github.com/malbeclabs/fitfreak/program/pkg/runtime"
	"github.com/mr-tron/base58"
)

// Envelope is a signed invocation. Signature is the base58 ed25519
// signature of the exact Payload bytes by Signer.
type Envelope struct {
	Signer    string `json:"signer"`
	Signature string `json:"signature"`
	Payload   string `json:"payload"`
}

// payloadHeader is common to every signed payload. Binding the action and
// contest into the signed bytes stops a signature from being reused on
// another route; ExpiresAt (unix seconds) bounds how long a signature that
// was refused can be submitted again.
type payloadHeader struct {
	Action    string `json:"action"`
	Contest   string `json:"contest,omitempty"`
	Nonce     string `json:"nonce,omitempty"`
	ExpiresAt int64  `json:"expires_at"`
}

const (
	ActionCreate     = "create_contest"
	ActionJoin       = "join_contest"
	ActionDistribute = "distribute_rewards"
	ActionClose      = "close_contest"
	ActionRefund     = "claim_refund"
)

var (
	errMalformedEnvelope = errors.New("malformed envelope")
	errInvalidSignature  = errors.New("invalid signature")
	errPayloadMismatch   = errors.New("payload does not match request")
	errMissingExpiry     = errors.New("payload must set a positive expires_at")
)

// requestError is a client error detected before the program runs.
type requestError struct {
	status int
	code   string
	err    error
}

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func badRequest(code string, err error) error {
	return &requestError{status: http.StatusBadRequest, code: code, err: err}
}

// verifyEnvelope decodes the request body, checks the signature and that
// the signed payload names action and, when set, contest. It returns the
// verified caller and the raw payload.
func (h *Handlers) verifyEnvelope(w http.ResponseWriter, r *http.Request, action string, contest *solana.PublicKey) (runtime.Caller, []byte, error) {
	var env Envelope
	body := http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&env); err != nil {
		return runtime.Caller{}, nil, badRequest("MalformedEnvelope", fmt.Errorf("%w: %v", errMalformedEnvelope, err))
	}

	signer, err := solana.PublicKeyFromBase58(env.Signer)
	if err != nil {
		return runtime.Caller{}, nil, badRequest("MalformedEnvelope", fmt.Errorf("%w: signer: %v", errMalformedEnvelope, err))
	}
	sigBytes, err := base58.Decode(env.Signature)
	if err != nil || len(sigBytes) != ed25519.SignatureSize {
		return runtime.Caller{}, nil, badRequest("MalformedEnvelope", fmt.Errorf("%w: signature must be %d base58 bytes", errMalformedEnvelope, ed25519.SignatureSize))
	}
	payload := []byte(env.Payload)
	if !ed25519.Verify(ed25519.PublicKey(signer.Bytes()), payload, sigBytes) {
		return runtime.Caller{}, nil, &requestError{status: http.StatusUnauthorized, code: "InvalidSignature", err: errInvalidSignature}
	}

	var hdr payloadHeader
	if err := json.Unmarshal(payload, &hdr); err != nil {
		return runtime.Caller{}, nil, badRequest("MalformedPayload", fmt.Errorf("%w: %v", errMalformedEnvelope, err))
	}
	if hdr.Action != action {
		return runtime.Caller{}, nil, badRequest("PayloadMismatch", fmt.Errorf("%w: action %q, expected %q", errPayloadMismatch, hdr.Action, action))
	}
	if contest != nil && hdr.Contest != contest.String() {
		return runtime.Caller{}, nil, badRequest("PayloadMismatch", fmt.Errorf("%w: contest %q, expected %s", errPayloadMismatch, hdr.Contest, contest))
	}

	if hdr.ExpiresAt <= 0 {
		return runtime.Caller{}, nil, badRequest("MalformedPayload", errMissingExpiry)
	}

	var sig solana.Signature
	copy(sig[:], sigBytes)
	return runtime.Caller{Key: signer, Signature: sig, ExpiresAt: hdr.ExpiresAt}, payload, nil
}
