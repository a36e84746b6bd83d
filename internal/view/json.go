package view

import (
	"encoding/json"
	"io"

	"github.com/firefart/dmarcreport/internal/dmarc"
)

// JSONReport is the serialized form of a dmarc.Report. Timestamps are unix
// seconds.
type JSONReport struct {
	ReportMeta JSONReportMeta `json:"report_meta"`
	Policy     JSONPolicy     `json:"policy"`
	Records    []JSONRecord   `json:"records"`
}

type JSONReportMeta struct {
	Org      string    `json:"org"`
	ReportID string    `json:"report_id,omitempty"`
	Date     JSONRange `json:"date"`
}

type JSONRange struct {
	Begin int64 `json:"begin"`
	End   int64 `json:"end"`
}

type JSONPolicy struct {
	Domain string `json:"domain"`
	ADKIM  string `json:"adkim"`
	ASPF   string `json:"aspf"`
	P      string `json:"p"`
}

type JSONRecord struct {
	IP     string          `json:"ip"`
	Count  int             `json:"count"`
	Row    JSONRow         `json:"row"`
	ID     []string        `json:"id"`
	Result JSONAuthResults `json:"result"`
}

type JSONRow struct {
	Disposition string `json:"disp"`
	DKIM        string `json:"dkim"`
	SPF         string `json:"spf"`
	DKIMPass    bool   `json:"dkim_pass"`
	SPFPass     bool   `json:"spf_pass"`
}

type JSONAuthResults struct {
	DKIM []JSONAuthResult `json:"dkim"`
	SPF  []JSONAuthResult `json:"spf"`
}

type JSONAuthResult struct {
	Domain string `json:"domain"`
	Result string `json:"result"`
}

// NewJSONReports builds the serialization model of reports. The reports are
// not modified.
func NewJSONReports(reports []*dmarc.Report) []JSONReport {
	out := make([]JSONReport, 0, len(reports))
	for _, r := range reports {
		jr := JSONReport{
			ReportMeta: JSONReportMeta{
				Org:      r.Org,
				ReportID: r.ReportID,
				Date: JSONRange{
					Begin: r.DateRange.Begin.Unix(),
					End:   r.DateRange.End.Unix(),
				},
			},
			Policy: JSONPolicy{
				Domain: r.Policy.Domain,
				ADKIM:  r.Policy.ADKIM,
				ASPF:   r.Policy.ASPF,
				P:      r.Policy.P,
			},
			Records: make([]JSONRecord, 0, len(r.Records)),
		}
		for _, rec := range r.Records {
			jr.Records = append(jr.Records, JSONRecord{
				IP:    rec.SourceIP,
				Count: rec.Count,
				Row: JSONRow{
					Disposition: rec.Disposition,
					DKIM:        rec.DKIMResult,
					SPF:         rec.SPFResult,
					DKIMPass:    rec.DKIMPass,
					SPFPass:     rec.SPFPass,
				},
				ID: append(make([]string, 0, len(rec.HeaderFrom)), rec.HeaderFrom...),
				Result: JSONAuthResults{
					DKIM: jsonAuthResults(rec.AuthResults.DKIM),
					SPF:  jsonAuthResults(rec.AuthResults.SPF),
				},
			})
		}
		out = append(out, jr)
	}
	return out
}

func jsonAuthResults(in []dmarc.AuthResult) []JSONAuthResult {
	out := make([]JSONAuthResult, 0, len(in))
	for _, a := range in {
		out = append(out, JSONAuthResult{Domain: a.Domain, Result: a.Result})
	}
	return out
}

type jsonRenderer struct{}

func (j *jsonRenderer) Render(w io.Writer, reports []*dmarc.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewJSONReports(reports))
}
