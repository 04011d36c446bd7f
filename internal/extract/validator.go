package extract

import (
	"fmt"
	"strings"

	"github.com/jackzampolin/mitnm/internal/signature"
)

// Parse turns raw model text into a Signature. The text is decoded strictly
// first; if that fails, the substring from the first '{' to the last '}' is
// tried once. Text that is still not JSON becomes an invalid_json Failure
// carrying the raw text. Shape problems in decoded JSON never fail: they are
// repaired by signature.Validate and returned as anomalies.
func Parse(raw string) (signature.Signature, []signature.Anomaly, *Failure) {
	doc, err := decode(raw)
	if err != nil {
		candidate, ok := extractJSONCandidate(raw)
		if !ok {
			return signature.Signature{}, nil, &Failure{
				Reason:  ReasonInvalidJSON,
				Message: fmt.Sprintf("response is not JSON: %v", err),
				Partial: raw,
			}
		}
		doc, err = decode(candidate)
		if err != nil {
			return signature.Signature{}, nil, &Failure{
				Reason:  ReasonInvalidJSON,
				Message: fmt.Sprintf("response is not JSON after repair: %v", err),
				Partial: raw,
			}
		}
	}

	sig, anomalies := signature.Validate(doc)
	return sig, anomalies, nil
}

func decode(s string) (any, error) {
	return signature.DecodeJSON([]byte(s))
}

// extractJSONCandidate returns the text between the first '{' and the last
// '}' inclusive, dropping chatter the model put around the object.
func extractJSONCandidate(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}
