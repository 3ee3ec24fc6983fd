// Package domain holds the x402 payment types and the local checks run before a facilitator is asked.
package domain

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	X402Version = 1
	SchemeExact = "exact"

	HeaderPayment         = "X-PAYMENT"
	HeaderPaymentResponse = "X-PAYMENT-RESPONSE"

	MimeTypeJSON = "application/json"
)

// Requirements is one entry of the accepts list in a 402 response.
type Requirements struct {
	Scheme            string `json:"scheme"`
	Network           string `json:"network"`
	MaxAmountRequired string `json:"maxAmountRequired"`
	Resource          string `json:"resource"`
	Description       string `json:"description"`
	MimeType          string `json:"mimeType"`
	PayTo             string `json:"payTo"`
	MaxTimeoutSeconds int    `json:"maxTimeoutSeconds"`
	Asset             string `json:"asset"`
}

// Challenge is the body of a 402 response.
type Challenge struct {
	Error       string         `json:"error,omitempty"`
	Message     string         `json:"message,omitempty"`
	X402Version int            `json:"x402Version"`
	Accepts     []Requirements `json:"accepts"`
}

// NewChallenge builds a 402 body. errText and message may be empty.
func NewChallenge(req Requirements, errText, message string) Challenge {
	return Challenge{
		Error:       errText,
		Message:     message,
		X402Version: X402Version,
		Accepts:     []Requirements{req},
	}
}

// Payload is the decoded X-PAYMENT header. Raw keeps the exact JSON forwarded to facilitators.
type Payload struct {
	X402Version int             `json:"x402Version"`
	Scheme      string          `json:"scheme"`
	Network     string          `json:"network"`
	Payload     json.RawMessage `json:"payload"`

	Raw json.RawMessage `json:"-"`
}

// ExactEVM is the scheme payload of an "exact" payment on an EVM network.
type ExactEVM struct {
	Signature     string         `json:"signature"`
	Authorization *Authorization `json:"authorization"`
}

// Authorization mirrors an EIP-3009 transferWithAuthorization.
type Authorization struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
	ValidAfter  string `json:"validAfter"`
	ValidBefore string `json:"validBefore"`
	Nonce       string `json:"nonce"`
}

var ErrEmptyHeader = errors.New("empty payment header")

// DecodeHeader decodes a base64 JSON X-PAYMENT value. Standard and URL alphabets are accepted.
func DecodeHeader(header string) (Payload, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return Payload{}, ErrEmptyHeader
	}

	raw, err := decodeBase64(header)
	if err != nil {
		return Payload{}, fmt.Errorf("decode base64: %w", err)
	}

	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Payload{}, fmt.Errorf("decode json: %w", err)
	}
	p.Raw = json.RawMessage(raw)
	return p, nil
}

func decodeBase64(s string) ([]byte, error) {
	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	}
	var firstErr error
	for _, enc := range encodings {
		b, err := enc.DecodeString(s)
		if err == nil {
			return b, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

// ExactEVM parses the scheme payload. It returns nil when the payload has no authorization.
func (p Payload) ExactEVM() (*ExactEVM, error) {
	if len(p.Payload) == 0 || string(p.Payload) == "null" {
		return nil, nil
	}
	var e ExactEVM
	if err := json.Unmarshal(p.Payload, &e); err != nil {
		return nil, fmt.Errorf("decode exact payload: %w", err)
	}
	if e.Authorization == nil {
		return nil, nil
	}
	return &e, nil
}

// VerifyResult is a facilitator's answer to /verify.
type VerifyResult struct {
	IsValid       bool   `json:"isValid"`
	InvalidReason string `json:"invalidReason,omitempty"`
	Payer         string `json:"payer,omitempty"`
}

// Receipt is returned to the client in X-PAYMENT-RESPONSE.
type Receipt struct {
	Success     bool   `json:"success"`
	Payer       string `json:"payer,omitempty"`
	Facilitator string `json:"facilitator"`
}

// Encode renders the receipt as base64 JSON.
func (r Receipt) Encode() string {
	b, _ := json.Marshal(r)
	return base64.StdEncoding.EncodeToString(b)
}
