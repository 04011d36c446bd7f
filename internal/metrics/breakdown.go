package metrics

import (
	"sort"

	"github.com/jackzampolin/mitnm/internal/llmcall"
)

// ByModel returns statistics grouped by model.
func ByModel(calls []llmcall.Call) map[string]*Stats {
	return groupBy(calls, func(c llmcall.Call) string { return c.Model })
}

// ByProvider returns statistics grouped by provider.
func ByProvider(calls []llmcall.Call) map[string]*Stats {
	return groupBy(calls, func(c llmcall.Call) string { return c.Provider })
}

func groupBy(calls []llmcall.Call, key func(llmcall.Call) string) map[string]*Stats {
	groups := make(map[string][]llmcall.Call)
	for _, c := range calls {
		k := key(c)
		if k == "" {
			k = "unknown"
		}
		groups[k] = append(groups[k], c)
	}

	result := make(map[string]*Stats, len(groups))
	for k, group := range groups {
		result[k] = Compute(group)
	}
	return result
}

// DocumentErrors is the failed call count of one document.
type DocumentErrors struct {
	DocumentID string `json:"document_id" yaml:"document_id"`
	Errors     int    `json:"errors" yaml:"errors"`
	LastError  string `json:"last_error" yaml:"last_error"`
}

// ErrorsByDocument returns the documents with failed calls, most errors
// first and then by id.
func ErrorsByDocument(calls []llmcall.Call) []DocumentErrors {
	byDoc := make(map[string]*DocumentErrors)
	for _, c := range calls {
		if c.Success || c.DocumentID == "" {
			continue
		}
		d, ok := byDoc[c.DocumentID]
		if !ok {
			d = &DocumentErrors{DocumentID: c.DocumentID}
			byDoc[c.DocumentID] = d
		}
		d.Errors++
		d.LastError = c.Error
	}

	out := make([]DocumentErrors, 0, len(byDoc))
	for _, d := range byDoc {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Errors != out[j].Errors {
			return out[i].Errors > out[j].Errors
		}
		return out[i].DocumentID < out[j].DocumentID
	})
	return out
}
