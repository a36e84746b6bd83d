package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firefart/dmarcreport/internal/view"
)

const validReport = `<?xml version="1.0" encoding="UTF-8" ?>
<feedback>
  <report_metadata>
    <org_name>google.com</org_name>
    <date_range><begin>1700000000</begin><end>1700086399</end></date_range>
  </report_metadata>
  <policy_published><domain>Example.com</domain><adkim>r</adkim><aspf>r</aspf><p>none</p></policy_published>
  <record>
    <row>
      <source_ip>1.1.1.1</source_ip>
      <count>5</count>
      <policy_evaluated><disposition>none</disposition><dkim>fail</dkim><spf>pass</spf></policy_evaluated>
    </row>
    <identifiers><header_from>example.com</header_from></identifiers>
  </record>
  <record>
    <row>
      <source_ip>2.2.2.2</source_ip>
      <count>3</count>
      <policy_evaluated><disposition>none</disposition><dkim>fail</dkim><spf>fail</spf></policy_evaluated>
    </row>
    <identifiers><header_from>example.com</header_from></identifiers>
  </record>
</feedback>
`

func reportDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "google.com!example.com!1700000000!1700086399.xml"), []byte(validReport), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "corrupt.xml"), []byte("<feedback><report_metadata>"), 0o600))
	return dir
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, logs bytes.Buffer
	cmd := newRootCommand(log.New(&logs), &stdout)
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), logs.String(), err
}

func TestRootCommandSummary(t *testing.T) {
	out, logs, err := execute(t, reportDir(t))
	require.NoError(t, err)
	assert.Contains(t, out, "DMARC: pass 5 / fail 3 - 62.50% passed")
	assert.Contains(t, out, "1.1.1.1 (5)")
	assert.Contains(t, out, "2.2.2.2 (3)")
	assert.NotContains(t, out, "\x1b[", "stdout is not a terminal")
	assert.Contains(t, logs, "corrupt.xml")
}

func TestRootCommandJSON(t *testing.T) {
	out, _, err := execute(t, "-O", "json", "--domain", "example.COM", reportDir(t))
	require.NoError(t, err)

	var reports []view.JSONReport
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 1)
	assert.Equal(t, int64(1700000000), reports[0].ReportMeta.Date.Begin)
}

func TestRootCommandDomainFilter(t *testing.T) {
	out, _, err := execute(t, "-O", "sourceip", "-C", "-d", "other.com", reportDir(t))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRootCommandUsageErrors(t *testing.T) {
	_, _, err := execute(t)
	require.Error(t, err)

	_, _, err = execute(t, filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestRunEmptyDirectory(t *testing.T) {
	var stdout, logs bytes.Buffer
	cmd := newRootCommand(log.New(&logs), &stdout)
	cmd.SetArgs([]string{"--output-format", "domain", t.TempDir()})
	require.NoError(t, cmd.Execute())
	assert.Empty(t, stdout.String())
	assert.Empty(t, logs.String())
}
