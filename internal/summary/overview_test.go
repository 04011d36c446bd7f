package summary

import "testing"

const report = `Patient ID: P001
Age: 67
Sex: Male

Clinical Summary:
Biochemical recurrence after prostatectomy.
PSA 1.2 ng/mL.

Impression:
Focal uptake in the prostate bed.
No distant disease.
`

func TestParseOverview(t *testing.T) {
	got := ParseOverview(report)

	if got.Header() != "P001 | 67 | Male" {
		t.Errorf("Header() = %q", got.Header())
	}
	if got.ClinicalSummary != "Biochemical recurrence after prostatectomy.\nPSA 1.2 ng/mL." {
		t.Errorf("ClinicalSummary = %q", got.ClinicalSummary)
	}
	if got.Impression != "Focal uptake in the prostate bed.\nNo distant disease." {
		t.Errorf("Impression = %q", got.Impression)
	}
}

func TestParseOverviewVariants(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		header     string
		clinical   string
		impression string
	}{
		{
			name:   "case insensitive header, missing age",
			text:   "PATIENT ID:  X9 \nsex: F\n",
			header: "X9 | F",
		},
		{
			name:       "markers without colon",
			text:       "clinical summary\nsome history\nIMPRESSION\nsome finding",
			clinical:   "some history",
			impression: "some finding",
		},
		{
			name:     "header lines inside a section are body text",
			text:     "Clinical Summary:\nAge: 50\n",
			clinical: "Age: 50",
		},
		{
			name:     "windows line endings",
			text:     "Patient ID: P2\r\nClinical Summary:\r\nline\r\n",
			header:   "P2",
			clinical: "line",
		},
		{
			name: "free text",
			text: "No structure at all.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseOverview(tt.text)
			if got.Header() != tt.header {
				t.Errorf("Header() = %q, want %q", got.Header(), tt.header)
			}
			if got.ClinicalSummary != tt.clinical {
				t.Errorf("ClinicalSummary = %q, want %q", got.ClinicalSummary, tt.clinical)
			}
			if got.Impression != tt.impression {
				t.Errorf("Impression = %q, want %q", got.Impression, tt.impression)
			}
		})
	}
}
