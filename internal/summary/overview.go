package summary

import (
	"regexp"
	"strings"
)

// Overview holds the patient header and report sections used by the
// overview layout.
type Overview struct {
	PatientID       string
	Age             string
	Sex             string
	ClinicalSummary string
	Impression      string
}

// Header joins the non-empty patient id, age and sex with " | ".
func (o Overview) Header() string {
	var parts []string
	for _, v := range []string{o.PatientID, o.Age, o.Sex} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " | ")
}

var (
	patientIDLine = regexp.MustCompile(`(?i)^patient id:\s*(.+)$`)
	ageLine       = regexp.MustCompile(`(?i)^age:\s*(.+)$`)
	sexLine       = regexp.MustCompile(`(?i)^sex:\s*(.+)$`)
)

type section int

const (
	sectionHeader section = iota
	sectionClinical
	sectionImpression
)

// ParseOverview reads the header lines and the "Clinical Summary" and
// "Impression" sections of a report. Header lines are only recognised
// before the first section marker. Missing parts are left empty.
func ParseOverview(text string) Overview {
	var (
		o          Overview
		clinical   []string
		impression []string
		current    = sectionHeader
	)

	for _, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line := strings.TrimSpace(raw)
		switch strings.TrimSuffix(strings.ToLower(line), ":") {
		case "clinical summary":
			current = sectionClinical
			continue
		case "impression":
			current = sectionImpression
			continue
		}

		switch current {
		case sectionHeader:
			if m := patientIDLine.FindStringSubmatch(line); m != nil {
				o.PatientID = strings.TrimSpace(m[1])
			} else if m := ageLine.FindStringSubmatch(line); m != nil {
				o.Age = strings.TrimSpace(m[1])
			} else if m := sexLine.FindStringSubmatch(line); m != nil {
				o.Sex = strings.TrimSpace(m[1])
			}
		case sectionClinical:
			clinical = append(clinical, raw)
		case sectionImpression:
			impression = append(impression, raw)
		}
	}

	o.ClinicalSummary = strings.TrimSpace(strings.Join(clinical, "\n"))
	o.Impression = strings.TrimSpace(strings.Join(impression, "\n"))
	return o
}
