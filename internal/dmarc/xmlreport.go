package dmarc

import "encoding/xml"

// XMLReport represents the top element of a DMARC report
// https://tools.ietf.org/html/rfc7489#appendix-C
//
// Elements are pointers so a missing element can be told apart from an
// empty one during normalization.
type XMLReport struct {
	XMLName        xml.Name `xml:"feedback"`
	Version        *string  `xml:"version"`
	ReportMetadata *struct {
		OrgName   *string `xml:"org_name"`
		Email     *string `xml:"email"`
		ReportID  *string `xml:"report_id"`
		DateRange *struct {
			Begin *string `xml:"begin"`
			End   *string `xml:"end"`
		} `xml:"date_range"`
	} `xml:"report_metadata"`
	PolicyPublished *struct {
		Domain *string `xml:"domain"`
		Adkim  *string `xml:"adkim"`
		Aspf   *string `xml:"aspf"`
		P      *string `xml:"p"`
	} `xml:"policy_published"`
	Records []XMLRecord `xml:"record"`
}

// XMLRecord represents the record element of a DMARC report
type XMLRecord struct {
	Row *struct {
		SourceIP        *string `xml:"source_ip"`
		Count           *string `xml:"count"`
		PolicyEvaluated *struct {
			Disposition *string `xml:"disposition"`
			Dkim        *string `xml:"dkim"`
			Spf         *string `xml:"spf"`
		} `xml:"policy_evaluated"`
	} `xml:"row"`
	Identifiers []struct {
		HeaderFrom *string `xml:"header_from"`
	} `xml:"identifiers"`
	AuthResults struct {
		Dkim []XMLAuthResult `xml:"dkim"`
		Spf  []XMLAuthResult `xml:"spf"`
	} `xml:"auth_results"`
}

// XMLAuthResult is a single dkim or spf entry below auth_results
type XMLAuthResult struct {
	Domain *string `xml:"domain"`
	Result *string `xml:"result"`
}
