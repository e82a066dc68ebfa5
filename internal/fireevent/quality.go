package fireevent

// QualityIssues maps a field name to the reason it failed a quality rule
// (§4.3 Quality rules). An empty, non-nil map means the record passed.
type QualityIssues map[string]string

// Analyze runs the data-quality rules against a parsed FireEvent. A field is
// an issue when it is empty/absent and not listed in additionalAllowedEmpty,
// plus three always-checked fields that fail with their own message even
// when already covered by the generic empty-value pass.
func Analyze(e *FireEvent, additionalAllowedEmpty map[string]bool) QualityIssues {
	issues := QualityIssues{}
	for _, f := range e.fields() {
		if isEmptyValue(f.value) && !additionalAllowedEmpty[f.name] {
			issues[f.name] = "Missing value"
		}
	}
	if e.IncidentDate == nil {
		issues["Incident_Date"] = "Missing Incident Date"
	}
	if e.SupervisorDistrict == nil {
		issues["Supervisor_District"] = "Missing District"
	}
	if e.Battalion == "" {
		issues["Battalion"] = "Missing Battalion"
	}
	return issues
}
