// Package view renders loaded DMARC reports in one of the supported output
// formats.
package view

import (
	"io"
	"strings"

	"github.com/firefart/dmarcreport/internal/dmarc"
)

// Format selects the renderer.
type Format int

const (
	FormatSummary Format = iota
	FormatStream
	FormatSourceIP
	FormatDomain
	FormatHeaderFrom
	FormatJSON
)

var formatNames = []string{
	FormatSummary:    "summary",
	FormatStream:     "stream",
	FormatSourceIP:   "sourceip",
	FormatDomain:     "domain",
	FormatHeaderFrom: "from",
	FormatJSON:       "json",
}

func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return formatNames[FormatSummary]
	}
	return formatNames[f]
}

// ParseFormat maps a format name to a Format. Empty or unknown names yield
// FormatSummary.
func ParseFormat(s string) Format {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range formatNames {
		if name == s {
			return Format(i)
		}
	}
	return FormatSummary
}

// FormatNames returns all format names in declaration order.
func FormatNames() []string {
	return append([]string(nil), formatNames...)
}

// Resolver returns the reverse DNS names of an IP address.
type Resolver interface {
	LookupAddr(ip string) ([]string, error)
}

type Options struct {
	// Color enables ANSI colors in text formats.
	Color bool
	// Resolver annotates source IPs with their PTR names when set.
	Resolver Resolver
}

// Renderer writes one view of the reports to w.
type Renderer interface {
	Render(w io.Writer, reports []*dmarc.Report) error
}

// New returns the renderer for f.
func New(f Format, opts Options) Renderer {
	p := newPalette(opts.Color)
	switch f {
	case FormatStream:
		return &streamRenderer{palette: p}
	case FormatSourceIP:
		return &sourceIPRenderer{palette: p, resolver: opts.Resolver}
	case FormatDomain:
		return &domainRenderer{palette: p}
	case FormatHeaderFrom:
		return &headerFromRenderer{palette: p}
	case FormatJSON:
		return &jsonRenderer{}
	default:
		return &summaryRenderer{palette: p, resolver: opts.Resolver}
	}
}

// ptrSuffix returns " [name, ...]" for ip or an empty string.
func ptrSuffix(r Resolver, ip string) string {
	if r == nil {
		return ""
	}
	names, err := r.LookupAddr(ip)
	if err != nil || len(names) == 0 {
		return ""
	}
	return " [" + strings.Join(names, ", ") + "]"
}
