package extract

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"sync"
	"text/template"

	"github.com/jackzampolin/mitnm/internal/signature"
)

//go:embed system.tmpl
var systemTemplate string

var systemPrompt = sync.OnceValue(func() string {
	tmpl := template.Must(template.New("system").
		Funcs(template.FuncMap{"join": strings.Join}).
		Parse(systemTemplate))

	var buf bytes.Buffer
	err := tmpl.Execute(&buf, map[string][]string{
		"MiT": signature.FieldMiT.Enum(),
		"MiN": signature.FieldMiN.Enum(),
		"MiM": signature.FieldMiM.Enum(),
	})
	if err != nil {
		panic(fmt.Sprintf("extract: render system prompt: %v", err))
	}
	return strings.TrimSpace(buf.String())
})

// SystemPrompt returns the system message: output schema, legal codes and
// the rules for insufficient evidence.
func SystemPrompt() string {
	return systemPrompt()
}

// Prompt is the task instruction shared read-only by every document of a run.
type Prompt struct {
	Instruction string
}

// NewPrompt creates a prompt from instruction text.
func NewPrompt(instruction string) Prompt {
	return Prompt{Instruction: strings.TrimSpace(instruction)}
}

// LoadPrompt reads the task instruction from a file.
func LoadPrompt(path string) (Prompt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Prompt{}, fmt.Errorf("failed to read prompt file: %w", err)
	}
	p := NewPrompt(string(data))
	if p.Instruction == "" {
		return Prompt{}, fmt.Errorf("prompt file %s is empty", path)
	}
	return p, nil
}

// Hash returns a SHA256 hash of the instruction, used to tie trace records
// to the exact prompt version.
func (p Prompt) Hash() string {
	h := sha256.Sum256([]byte(p.Instruction))
	return hex.EncodeToString(h[:])
}

// UserMessage wraps the report text between <<< >>> markers after the task
// instruction.
func (p Prompt) UserMessage(reportText string) string {
	var b strings.Builder
	b.WriteString("Task Instruction:\n")
	b.WriteString(p.Instruction)
	b.WriteString("\n\nPatient Data (between <<< >>>):\n<<<\n")
	b.WriteString(strings.TrimSpace(reportText))
	b.WriteString("\n>>>\n")
	return b.String()
}
