package dmarc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrDomainFiltered is returned by Normalize when the report's policy domain
// does not match the configured domain filter.
var ErrDomainFiltered = errors.New("policy domain does not match filter")

// FieldError is returned when a required element is missing or unusable.
type FieldError struct {
	Path string
	Err  error
}

func (e *FieldError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("required element %s is missing", e.Path)
	}
	return fmt.Sprintf("invalid element %s: %v", e.Path, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Report is one normalized DMARC aggregate report.
type Report struct {
	Org       string
	ReportID  string
	DateRange DateRange
	Policy    Policy
	Records   []Record
}

type DateRange struct {
	Begin time.Time
	End   time.Time
}

// Policy is the published policy. Missing elements are empty strings.
type Policy struct {
	Domain string
	ADKIM  string
	ASPF   string
	P      string
}

// Record is one row of a report and stands for Count messages.
type Record struct {
	SourceIP    string
	Count       int
	Disposition string
	DKIMResult  string
	SPFResult   string
	DKIMPass    bool
	SPFPass     bool
	HeaderFrom  []string
	AuthResults AuthResults
}

type AuthResults struct {
	DKIM []AuthResult
	SPF  []AuthResult
}

type AuthResult struct {
	Domain string
	Result string
}

// Volume returns the sum of all record counts of the report.
func (r *Report) Volume() int {
	total := 0
	for _, rec := range r.Records {
		total += rec.Count
	}
	return total
}

// Normalizer turns parsed XML documents into Reports.
type Normalizer struct {
	domain string
}

// NewNormalizer returns a Normalizer. A non empty domain drops every report
// whose policy domain is not equal to it, ignoring case.
func NewNormalizer(domain string) *Normalizer {
	return &Normalizer{domain: strings.TrimSpace(domain)}
}

// Normalize extracts a Report from doc.
func (n *Normalizer) Normalize(doc *XMLReport) (*Report, error) {
	if doc == nil {
		return nil, errors.New("empty document")
	}

	meta := doc.ReportMetadata
	if meta == nil {
		return nil, &FieldError{Path: "report_metadata"}
	}
	org, err := required("report_metadata/org_name", meta.OrgName)
	if err != nil {
		return nil, err
	}
	if meta.DateRange == nil {
		return nil, &FieldError{Path: "report_metadata/date_range"}
	}
	begin, err := requiredUnix("report_metadata/date_range/begin", meta.DateRange.Begin)
	if err != nil {
		return nil, err
	}
	end, err := requiredUnix("report_metadata/date_range/end", meta.DateRange.End)
	if err != nil {
		return nil, err
	}

	var policy Policy
	if p := doc.PolicyPublished; p != nil {
		policy = Policy{
			Domain: optional(p.Domain),
			ADKIM:  optional(p.Adkim),
			ASPF:   optional(p.Aspf),
			P:      optional(p.P),
		}
	}

	if n.domain != "" && !strings.EqualFold(policy.Domain, n.domain) {
		return nil, ErrDomainFiltered
	}

	report := &Report{
		Org:      org,
		ReportID: optional(meta.ReportID),
		DateRange: DateRange{
			Begin: begin,
			End:   end,
		},
		Policy:  policy,
		Records: make([]Record, 0, len(doc.Records)),
	}

	for i, xr := range doc.Records {
		rec, err := normalizeRecord(xr)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		report.Records = append(report.Records, rec)
	}

	return report, nil
}

func normalizeRecord(xr XMLRecord) (Record, error) {
	row := xr.Row
	if row == nil {
		return Record{}, &FieldError{Path: "row"}
	}
	ip, err := required("row/source_ip", row.SourceIP)
	if err != nil {
		return Record{}, err
	}
	countStr, err := required("row/count", row.Count)
	if err != nil {
		return Record{}, err
	}
	count, err := strconv.Atoi(countStr)
	if err != nil {
		return Record{}, &FieldError{Path: "row/count", Err: err}
	}
	if count < 0 {
		return Record{}, &FieldError{Path: "row/count", Err: fmt.Errorf("negative count %d", count)}
	}

	pe := row.PolicyEvaluated
	if pe == nil {
		return Record{}, &FieldError{Path: "row/policy_evaluated"}
	}
	disposition, err := required("row/policy_evaluated/disposition", pe.Disposition)
	if err != nil {
		return Record{}, err
	}
	dkim, err := required("row/policy_evaluated/dkim", pe.Dkim)
	if err != nil {
		return Record{}, err
	}
	spf, err := required("row/policy_evaluated/spf", pe.Spf)
	if err != nil {
		return Record{}, err
	}

	rec := Record{
		SourceIP:    ip,
		Count:       count,
		Disposition: disposition,
		DKIMResult:  dkim,
		SPFResult:   spf,
		DKIMPass:    passed(dkim),
		SPFPass:     passed(spf),
		HeaderFrom:  make([]string, 0, len(xr.Identifiers)),
		AuthResults: AuthResults{
			DKIM: authResults(xr.AuthResults.Dkim),
			SPF:  authResults(xr.AuthResults.Spf),
		},
	}
	for _, id := range xr.Identifiers {
		rec.HeaderFrom = append(rec.HeaderFrom, optional(id.HeaderFrom))
	}

	return rec, nil
}

func authResults(in []XMLAuthResult) []AuthResult {
	out := make([]AuthResult, 0, len(in))
	for _, r := range in {
		out = append(out, AuthResult{
			Domain: optional(r.Domain),
			Result: optional(r.Result),
		})
	}
	return out
}

func required(path string, v *string) (string, error) {
	if v == nil {
		return "", &FieldError{Path: path}
	}
	return strings.TrimSpace(*v), nil
}

func optional(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}

func requiredUnix(path string, v *string) (time.Time, error) {
	s, err := required(path, v)
	if err != nil {
		return time.Time{}, err
	}
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, &FieldError{Path: path, Err: err}
	}
	return time.Unix(sec, 0).UTC(), nil
}
