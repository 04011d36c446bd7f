package signature

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// AnomalyKind classifies a correction made while validating a document.
type AnomalyKind string

const (
	KindMissing       AnomalyKind = "missing"
	KindEmpty         AnomalyKind = "empty"
	KindOutOfDomain   AnomalyKind = "out_of_domain"
	KindCorrected     AnomalyKind = "corrected"
	KindWrongType     AnomalyKind = "wrong_type"
	KindCoerced       AnomalyKind = "coerced"
	KindClamped       AnomalyKind = "clamped"
	KindUnexpectedKey AnomalyKind = "unexpected_key"
)

// Anomaly records one schema deviation that was repaired in place.
// The record it belongs to is still a valid Signature.
type Anomaly struct {
	Field string      `json:"field"`
	Kind  AnomalyKind `json:"kind"`
	Value string      `json:"value,omitempty"` // Offending value as received
}

func (a Anomaly) String() string {
	if a.Value == "" {
		return fmt.Sprintf("%s: %s", a.Field, a.Kind)
	}
	return fmt.Sprintf("%s: %s (%q)", a.Field, a.Kind, a.Value)
}

// Validate turns a decoded JSON document into a Signature. It never fails:
// missing or malformed fields are replaced with Unknown, 0.0 or "" and
// reported as anomalies. A document that satisfies the strict schema is
// returned unchanged with no anomalies.
func Validate(candidate any) (Signature, []Anomaly) {
	if ValidateStrict(candidate) == nil {
		// Strict schema guarantees the shape below.
		m := candidate.(map[string]any)
		codes := m[KeySignature].(map[string]any)
		conf, _, _ := coerceConfidence(m[KeyConfidence])
		return Signature{
			MiT:        codes[KeyMiT].(string),
			MiN:        codes[KeyMiN].(string),
			MiM:        codes[KeyMiM].(string),
			Confidence: conf,
			Rationale:  m[KeyRationale].(string),
		}, nil
	}
	return coerce(candidate)
}

func coerce(candidate any) (Signature, []Anomaly) {
	sig := UnknownSignature("")
	var anomalies []Anomaly

	m, ok := candidate.(map[string]any)
	if !ok {
		anomalies = append(anomalies, Anomaly{Field: "$", Kind: KindWrongType, Value: describe(candidate)})
		return sig, anomalies
	}

	for _, k := range unexpectedKeys(m, KeySignature, KeyConfidence, KeyRationale) {
		anomalies = append(anomalies, Anomaly{Field: k, Kind: KindUnexpectedKey})
	}

	var codesMap map[string]any
	switch v := m[KeySignature].(type) {
	case map[string]any:
		codesMap = v
		for _, k := range unexpectedKeys(v, KeyMiT, KeyMiN, KeyMiM) {
			anomalies = append(anomalies, Anomaly{Field: KeySignature + "." + k, Kind: KindUnexpectedKey})
		}
	case nil:
		anomalies = append(anomalies, Anomaly{Field: KeySignature, Kind: KindMissing})
	default:
		anomalies = append(anomalies, Anomaly{Field: KeySignature, Kind: KindWrongType, Value: describe(v)})
	}

	for _, f := range Fields {
		if codesMap == nil {
			break
		}
		path := KeySignature + "." + f.Key
		switch v := codesMap[f.Key].(type) {
		case string:
			code, kind := Normalize(f, v)
			sig.setCode(f.Key, code)
			if kind != "" {
				anomalies = append(anomalies, Anomaly{Field: path, Kind: kind, Value: v})
			}
		case nil:
			anomalies = append(anomalies, Anomaly{Field: path, Kind: KindMissing})
		default:
			anomalies = append(anomalies, Anomaly{Field: path, Kind: KindWrongType, Value: describe(v)})
		}
	}

	conf, kind, value := coerceConfidence(m[KeyConfidence])
	sig.Confidence = conf
	if kind != "" {
		anomalies = append(anomalies, Anomaly{Field: KeyConfidence, Kind: kind, Value: value})
	}

	switch v := m[KeyRationale].(type) {
	case string:
		sig.Rationale = v
	case nil:
		anomalies = append(anomalies, Anomaly{Field: KeyRationale, Kind: KindMissing})
	default:
		sig.Rationale = describe(v)
		anomalies = append(anomalies, Anomaly{Field: KeyRationale, Kind: KindWrongType, Value: sig.Rationale})
	}

	return sig, anomalies
}

// Normalize maps a model-supplied code onto the legal set of f. It returns
// the code to store and the anomaly kind ("" when the input was already an
// exact legal value). Codes that differ only by case, surrounding space or a
// missing "mi" prefix ("T2" -> "miT2") are corrected; anything else becomes
// Unknown.
func Normalize(f Field, value string) (string, AnomalyKind) {
	if f.IsLegal(value) {
		return value, ""
	}
	s := strings.TrimSpace(value)
	if s == "" {
		return Unknown, KindEmpty
	}
	if strings.EqualFold(s, Unknown) {
		return Unknown, KindCorrected
	}
	for _, code := range f.Legal {
		if strings.EqualFold(code, s) || strings.EqualFold(code, "mi"+s) {
			return code, KindCorrected
		}
	}
	return Unknown, KindOutOfDomain
}

func coerceConfidence(v any) (float64, AnomalyKind, string) {
	if v == nil {
		return 0, KindMissing, ""
	}

	var (
		f    float64
		kind AnomalyKind
	)
	switch t := v.(type) {
	case float64:
		f = t
	case json.Number:
		parsed, err := t.Float64()
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return 0, KindWrongType, t.String()
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, KindWrongType, t
		}
		f, kind = parsed, KindCoerced
	default:
		return 0, KindWrongType, describe(v)
	}

	if math.IsNaN(f) {
		return 0, KindWrongType, describe(v)
	}
	if math.IsInf(f, 0) {
		return math.Max(0, math.Min(1, f)), KindClamped, describe(v)
	}
	if f < 0 || f > 1 {
		return math.Max(0, math.Min(1, f)), KindClamped, strconv.FormatFloat(f, 'g', -1, 64)
	}
	if kind != "" {
		return f, kind, describe(v)
	}
	return f, "", ""
}

// unexpectedKeys returns the keys of m outside allowed, sorted.
func unexpectedKeys(m map[string]any, allowed ...string) []string {
	var out []string
	for k := range m {
		known := false
		for _, a := range allowed {
			if k == a {
				known = true
				break
			}
		}
		if !known {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func describe(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	}
}
