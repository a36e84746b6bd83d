package view

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/firefart/dmarcreport/internal/dmarc"
)

const (
	orgWidth        = 16
	headerFromWidth = 24
)

type streamRenderer struct {
	palette palette
}

func (s *streamRenderer) Render(w io.Writer, reports []*dmarc.Report) error {
	bw := bufio.NewWriter(w)
	for _, r := range reports {
		org := column(r.Org, orgWidth)
		for _, rec := range r.Records {
			fmt.Fprintf(bw, "%s %s S:%s D:%s %-10s %8d %s\n",
				org,
				column(strings.Join(rec.HeaderFrom, ","), headerFromWidth),
				s.palette.code(rec.SPFPass),
				s.palette.code(rec.DKIMPass),
				rec.Disposition,
				rec.Count,
				rec.SourceIP,
			)
		}
	}
	return bw.Flush()
}

// column trims or pads s to exactly width cells.
func column(s string, width int) string {
	return text.Pad(text.Trim(s, width), width, ' ')
}
