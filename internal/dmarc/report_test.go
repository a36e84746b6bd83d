package dmarc

import (
	"encoding/xml"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFile = "google.com!example.com!1700000000!1700086399.xml"

func loadSample(t *testing.T) *XMLReport {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", sampleFile))
	require.NoError(t, err)
	var doc XMLReport
	require.NoError(t, xml.Unmarshal(b, &doc))
	return &doc
}

func parse(t *testing.T, s string) *XMLReport {
	t.Helper()
	var doc XMLReport
	require.NoError(t, xml.Unmarshal([]byte(s), &doc))
	return &doc
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	r, err := NewNormalizer("").Normalize(loadSample(t))
	require.NoError(t, err)

	assert.Equal(t, "google.com", r.Org)
	assert.Equal(t, "4711", r.ReportID)
	assert.Equal(t, int64(1700000000), r.DateRange.Begin.Unix())
	assert.Equal(t, int64(1700086399), r.DateRange.End.Unix())
	assert.Equal(t, Policy{Domain: "Example.com", ADKIM: "r", ASPF: "r", P: "none"}, r.Policy)
	require.Len(t, r.Records, 2)
	assert.Equal(t, 8, r.Volume())

	a := r.Records[0]
	assert.Equal(t, "1.1.1.1", a.SourceIP)
	assert.Equal(t, 5, a.Count)
	assert.Equal(t, "none", a.Disposition)
	assert.True(t, a.SPFPass)
	assert.False(t, a.DKIMPass)
	assert.True(t, a.DMARCPass())
	assert.Equal(t, []string{"example.com"}, a.HeaderFrom)
	assert.Equal(t, []AuthResult{{Domain: "example.com", Result: "fail"}}, a.AuthResults.DKIM)
	assert.Equal(t, []AuthResult{{Domain: "example.com", Result: "pass"}}, a.AuthResults.SPF)

	b := r.Records[1]
	assert.Equal(t, "2.2.2.2", b.SourceIP)
	assert.False(t, b.DMARCPass())
	assert.Equal(t, []string{"example.com", "mail.example.com"}, b.HeaderFrom)
	assert.Empty(t, b.AuthResults.DKIM)
	assert.Equal(t, []AuthResult{{Domain: "spoof.test", Result: "softfail"}}, b.AuthResults.SPF)
}

func TestNormalizeDomainFilter(t *testing.T) {
	t.Parallel()

	r, err := NewNormalizer("example.COM").Normalize(loadSample(t))
	require.NoError(t, err)
	assert.Equal(t, "Example.com", r.Policy.Domain)

	_, err = NewNormalizer("other.com").Normalize(loadSample(t))
	require.ErrorIs(t, err, ErrDomainFiltered)
}

func TestNormalizePolicyDefaults(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<feedback>
  <report_metadata><org_name>x</org_name><date_range><begin>1</begin><end>2</end></date_range></report_metadata>
  <policy_published><domain>a.test</domain></policy_published>
  <record><row><source_ip>9.9.9.9</source_ip><count>1</count>
    <policy_evaluated><disposition>none</disposition><dkim>pass</dkim><spf>fail</spf></policy_evaluated></row></record>
</feedback>`)
	r, err := NewNormalizer("").Normalize(doc)
	require.NoError(t, err)
	assert.Equal(t, Policy{Domain: "a.test"}, r.Policy)
	require.Len(t, r.Records, 1)
	assert.NotNil(t, r.Records[0].HeaderFrom)
	assert.Empty(t, r.Records[0].HeaderFrom)
	assert.Empty(t, r.Records[0].AuthResults.DKIM)
	assert.Empty(t, r.Records[0].AuthResults.SPF)

	doc = parse(t, `<feedback>
  <report_metadata><org_name>x</org_name><date_range><begin>1</begin><end>2</end></date_range></report_metadata>
</feedback>`)
	r, err = NewNormalizer("").Normalize(doc)
	require.NoError(t, err)
	assert.Equal(t, Policy{}, r.Policy)
	assert.Empty(t, r.Records)

	// an absent policy domain never matches a filter
	_, err = NewNormalizer("a.test").Normalize(doc)
	require.ErrorIs(t, err, ErrDomainFiltered)
}

func TestNormalizeRequiredFields(t *testing.T) {
	t.Parallel()

	const meta = `<report_metadata><org_name>x</org_name><date_range><begin>1</begin><end>2</end></date_range></report_metadata>`
	tests := []struct {
		name string
		xml  string
		path string
	}{
		{"org", `<feedback><report_metadata><date_range><begin>1</begin><end>2</end></date_range></report_metadata></feedback>`, "report_metadata/org_name"},
		{"begin", `<feedback><report_metadata><org_name>x</org_name><date_range><end>2</end></date_range></report_metadata></feedback>`, "report_metadata/date_range/begin"},
		{"end", `<feedback><report_metadata><org_name>x</org_name><date_range><begin>1</begin></date_range></report_metadata></feedback>`, "report_metadata/date_range/end"},
		{"begin not numeric", `<feedback><report_metadata><org_name>x</org_name><date_range><begin>yesterday</begin><end>2</end></date_range></report_metadata></feedback>`, "report_metadata/date_range/begin"},
		{"source ip", `<feedback>` + meta + `<record><row><count>1</count><policy_evaluated><disposition>none</disposition><dkim>pass</dkim><spf>pass</spf></policy_evaluated></row></record></feedback>`, "row/source_ip"},
		{"count", `<feedback>` + meta + `<record><row><source_ip>1.1.1.1</source_ip><policy_evaluated><disposition>none</disposition><dkim>pass</dkim><spf>pass</spf></policy_evaluated></row></record></feedback>`, "row/count"},
		{"negative count", `<feedback>` + meta + `<record><row><source_ip>1.1.1.1</source_ip><count>-4</count><policy_evaluated><disposition>none</disposition><dkim>pass</dkim><spf>pass</spf></policy_evaluated></row></record></feedback>`, "row/count"},
		{"disposition", `<feedback>` + meta + `<record><row><source_ip>1.1.1.1</source_ip><count>1</count><policy_evaluated><dkim>pass</dkim><spf>pass</spf></policy_evaluated></row></record></feedback>`, "row/policy_evaluated/disposition"},
		{"dkim", `<feedback>` + meta + `<record><row><source_ip>1.1.1.1</source_ip><count>1</count><policy_evaluated><disposition>none</disposition><spf>pass</spf></policy_evaluated></row></record></feedback>`, "row/policy_evaluated/dkim"},
		{"spf", `<feedback>` + meta + `<record><row><source_ip>1.1.1.1</source_ip><count>1</count><policy_evaluated><disposition>none</disposition><dkim>pass</dkim></policy_evaluated></row></record></feedback>`, "row/policy_evaluated/spf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewNormalizer("").Normalize(parse(t, tt.xml))
			require.Error(t, err)
			var fe *FieldError
			require.True(t, errors.As(err, &fe), "expected FieldError, got %v", err)
			assert.Equal(t, tt.path, fe.Path)
		})
	}
}

func TestDMARCPass(t *testing.T) {
	t.Parallel()

	tests := []struct {
		spf, dkim, want bool
	}{
		{true, true, true},
		{true, false, true},
		{false, true, true},
		{false, false, false},
	}
	for _, tt := range tests {
		r := Record{SPFPass: tt.spf, DKIMPass: tt.dkim}
		if got := r.DMARCPass(); got != tt.want {
			t.Fatalf("DMARCPass(spf=%t, dkim=%t) = %t, want %t", tt.spf, tt.dkim, got, tt.want)
		}
	}
}

func TestPassed(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"pass", "PASS", "Pass"} {
		assert.True(t, passed(s), s)
	}
	for _, s := range []string{"", "fail", "softfail", "neutral", "passed"} {
		assert.False(t, passed(s), s)
	}
}
