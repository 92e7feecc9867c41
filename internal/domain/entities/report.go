package entities

// FilePatch is one generated file-level migration patch.
type FilePatch struct {
	FilePath string `json:"file_path"`
	Original string `json:"original"`
	Patched  string `json:"patched"`
	Diff     string `json:"diff"` // unified diff with ---/+++ headers
}

// PatchSet groups the generated patches for one dependency.
type PatchSet struct {
	DepName string      `json:"dep_name"`
	Patches []FilePatch `json:"patches"`
}

// AnalysisReport is the pipeline's externally observable result.
type AnalysisReport struct {
	ProjectPath       string             `json:"project_path"`
	Timestamp         string             `json:"timestamp"` // ISO-8601 / RFC 3339, UTC
	TotalDependencies int                `json:"total_dependencies"`
	OutdatedCount     int                `json:"outdated_count"`
	CriticalCount     int                `json:"critical_count"`
	Assessments       []ImpactAssessment `json:"assessments"`
	Patches           []PatchSet         `json:"patches"`
	Errors            []string           `json:"errors"`
}
