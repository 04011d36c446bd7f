package signature

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Signature is a validated miTNM extraction result. The three categorical
// fields always hold a legal code or Unknown, and Confidence is in [0,1].
type Signature struct {
	MiT        string
	MiN        string
	MiM        string
	Confidence float64 // Self-reported by the model, passed through as-is
	Rationale  string
}

// document is the external wire shape.
type document struct {
	Signature  codes   `json:"miTNM_signature"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
}

type codes struct {
	MiT string `json:"miT"`
	MiN string `json:"miN"`
	MiM string `json:"miM"`
}

// UnknownSignature returns a signature with every categorical field set to
// Unknown and zero confidence.
func UnknownSignature(rationale string) Signature {
	return Signature{
		MiT:       Unknown,
		MiN:       Unknown,
		MiM:       Unknown,
		Rationale: rationale,
	}
}

// Code returns the value of the categorical field with the given key.
func (s Signature) Code(key string) string {
	switch key {
	case KeyMiT:
		return s.MiT
	case KeyMiN:
		return s.MiN
	case KeyMiM:
		return s.MiM
	default:
		return ""
	}
}

func (s *Signature) setCode(key, code string) {
	switch key {
	case KeyMiT:
		s.MiT = code
	case KeyMiN:
		s.MiN = code
	case KeyMiM:
		s.MiM = code
	}
}

// Display formats the categorical fields as "miT1 | miN0 | miM0".
func (s Signature) Display() string {
	return strings.Join([]string{s.MiT, s.MiN, s.MiM}, " | ")
}

// MarshalJSON writes the external Signature JSON shape. Rationale text is
// not HTML-escaped.
func (s Signature) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	err := enc.Encode(document{
		Signature:  codes{MiT: s.MiT, MiN: s.MiN, MiM: s.MiM},
		Confidence: s.Confidence,
		Rationale:  s.Rationale,
	})
	if err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// UnmarshalJSON reads the external shape without validation. Use Decode for
// payloads that did not come from MarshalJSON.
func (s *Signature) UnmarshalJSON(b []byte) error {
	var d document
	if err := json.Unmarshal(b, &d); err != nil {
		return err
	}
	*s = Signature{
		MiT:        d.Signature.MiT,
		MiN:        d.Signature.MiN,
		MiM:        d.Signature.MiM,
		Confidence: d.Confidence,
		Rationale:  d.Rationale,
	}
	return nil
}

// Decode parses raw JSON into an untyped tree and runs it through Validate.
// It only fails when raw is not JSON at all.
func Decode(raw []byte) (Signature, []Anomaly, error) {
	doc, err := DecodeJSON(raw)
	if err != nil {
		return Signature{}, nil, fmt.Errorf("decode signature: %w", err)
	}
	sig, anomalies := Validate(doc)
	return sig, anomalies, nil
}

// DecodeJSON parses exactly one JSON value into an untyped tree. Numbers are
// kept as json.Number so values outside the float64 range still decode.
func DecodeJSON(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after JSON value")
	}
	return doc, nil
}
