package dmarc

import "strings"

// passed reports whether a policy_evaluated result counts as a pass.
func passed(result string) bool {
	return strings.ToLower(result) == "pass"
}

// DMARCPass reports whether the record aligned on at least one mechanism.
// It is derived on every call and never stored on the record.
func (r Record) DMARCPass() bool {
	return r.SPFPass || r.DKIMPass
}
