package entities

import (
	"encoding/json"
)

// ChangeType classifies a breaking change reported by the extraction service.
type ChangeType string

const (
	ChangeRemoved          ChangeType = "removed"
	ChangeRenamed          ChangeType = "renamed"
	ChangeSignatureChanged ChangeType = "signature_changed"
	ChangeBehaviorChanged  ChangeType = "behavior_changed"
)

// Severity grades the impact of an upgrade on the project.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// FlexibleString decodes either a plain JSON string or a dict-wrapped string
// (a single-entry object like {"text": "..."}). Smaller local models wrap
// string fields in objects often enough that rejecting them would discard
// otherwise usable extractions.
type FlexibleString string

func (s *FlexibleString) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		*s = FlexibleString(plain)
		return nil
	}

	var wrapped map[string]string
	if err := json.Unmarshal(data, &wrapped); err == nil && len(wrapped) == 1 {
		for _, v := range wrapped {
			*s = FlexibleString(v)
		}
		return nil
	}

	*s = ""
	return nil
}

// UnmarshalJSON coerces unrecognized change types to behavior_changed
// instead of rejecting the whole extraction.
func (c *ChangeType) UnmarshalJSON(data []byte) error {
	var raw FlexibleString
	if err := raw.UnmarshalJSON(data); err != nil {
		return err
	}

	switch ChangeType(raw) {
	case ChangeRemoved, ChangeRenamed, ChangeSignatureChanged, ChangeBehaviorChanged:
		*c = ChangeType(raw)
	default:
		*c = ChangeBehaviorChanged
	}
	return nil
}

// UnmarshalJSON coerces unrecognized severities to info.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var raw FlexibleString
	if err := raw.UnmarshalJSON(data); err != nil {
		return err
	}

	switch Severity(raw) {
	case SeverityCritical, SeverityWarning, SeverityInfo:
		*s = Severity(raw)
	default:
		*s = SeverityInfo
	}
	return nil
}

// BreakingChange is one API-level change extracted from changelog text.
type BreakingChange struct {
	APIName       string     `json:"api_name"`
	ChangeType    ChangeType `json:"change_type"`
	Description   string     `json:"description"`
	MigrationHint string     `json:"migration_hint"`
}

// ChangelogAnalysis is the structured output of the breaking-change
// extraction service, with a [0,1] confidence estimating how well the
// extraction is supported by the retrieved text.
type ChangelogAnalysis struct {
	BreakingChanges []BreakingChange `json:"breaking_changes"`
	Confidence      float64          `json:"confidence"`
}

// CodeUsage is one site in the project where a dependency is used.
type CodeUsage struct {
	FilePath    string `json:"file_path"`
	LineNumber  int    `json:"line_number"`
	UsageType   string `json:"usage_type"` // import, import_from, call, base_class, decorator
	Symbol      string `json:"symbol"`     // module.identifier or bare module
	CodeSnippet string `json:"code_snippet"`
}

// Impact ties one breaking change to the project code it affects.
type Impact struct {
	BreakingChange string   `json:"breaking_change"`
	Severity       Severity `json:"severity"`
	AffectedUsages []string `json:"affected_usages"`
	Explanation    string   `json:"explanation"`
	SuggestedFix   string   `json:"suggested_fix"`
}

// ImpactAssessment aggregates the analysis outcome for one dependency.
// Warnings collect the diagnostic strings accumulated through the pipeline;
// they are never fatal.
type ImpactAssessment struct {
	DepName         string            `json:"dep_name"`
	Versions        map[string]string `json:"versions"` // keys: current, latest
	Impacts         []Impact          `json:"impacts"`
	Summary         string            `json:"summary"`
	OverallSeverity Severity          `json:"overall_severity"`
	Warnings        []string          `json:"warnings"`
}
