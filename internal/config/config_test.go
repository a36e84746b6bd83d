package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firefart/dmarcreport/internal/view"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestGetConfig(t *testing.T) {
	dir := t.TempDir()
	c, err := GetConfig(newViper(), dir)
	if err != nil {
		t.Fatalf("got error when building config: %v", err)
	}
	if c == nil {
		t.Fatal("got a nil config object")
	}
	assert.Equal(t, dir, c.Directory)
	assert.Equal(t, view.FormatSummary, c.Format)
	assert.Equal(t, 10*time.Second, c.DNSTimeout)
	assert.Equal(t, time.Hour, c.DNSCacheTimeout)
}

func TestGetConfigErrors(t *testing.T) {
	_, err := GetConfig(newViper(), "")
	if err == nil {
		t.Fatal("expected error on empty directory")
	}
	_, err = GetConfig(newViper(), "this_does_not_exist")
	if err == nil {
		t.Fatal("expected error on invalid directory")
	}

	v := newViper()
	v.Set(KeyDomain, "not a domain!")
	_, err = GetConfig(v, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Domain")

	v = newViper()
	v.Set(KeyDNSTimeout, "0s")
	_, err = GetConfig(v, t.TempDir())
	require.Error(t, err)
}

func TestGetConfigFormat(t *testing.T) {
	tests := map[string]view.Format{
		"json":     view.FormatJSON,
		"from":     view.FormatHeaderFrom,
		"bogus":    view.FormatSummary,
		"":         view.FormatSummary,
		"SOURCEIP": view.FormatSourceIP,
	}
	for in, want := range tests {
		v := newViper()
		v.Set(KeyOutputFormat, in)
		c, err := GetConfig(v, t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, want, c.Format, in)
		assert.Equal(t, want.String(), c.OutputFormat)
	}
}

func TestGetConfigEnv(t *testing.T) {
	t.Setenv("DMARC_REPORT_OUTPUT_FORMAT", "domain")
	t.Setenv("DMARC_REPORT_DOMAIN", "Example.com")

	c, err := GetConfig(newViper(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, view.FormatDomain, c.Format)
	assert.Equal(t, "Example.com", c.Domain)
}

func TestGetConfigFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/dmarcreport.yaml", []byte("output-format: stream\nnocolor: true\ndns-timeout: 3s\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/etc/invalid.yaml", []byte("output-format: [unterminated\n"), 0o644))

	v := newViper()
	v.SetFs(fs)
	v.Set(KeyConfig, "/etc/dmarcreport.yaml")
	c, err := GetConfig(v, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, view.FormatStream, c.Format)
	assert.True(t, c.NoColor)
	assert.Equal(t, 3*time.Second, c.DNSTimeout)

	v = newViper()
	v.SetFs(fs)
	v.Set(KeyConfig, filepath.Join("/etc", "invalid.yaml"))
	_, err = GetConfig(v, t.TempDir())
	require.Error(t, err)

	v = newViper()
	v.SetFs(fs)
	v.Set(KeyConfig, "/etc/missing.yaml")
	_, err = GetConfig(v, t.TempDir())
	require.Error(t, err)
}
