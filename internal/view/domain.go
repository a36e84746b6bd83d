package view

import (
	"bufio"
	"fmt"
	"io"

	"github.com/firefart/dmarcreport/internal/aggregate"
	"github.com/firefart/dmarcreport/internal/dmarc"
)

const domainWidth = 32

type domainRenderer struct {
	palette palette
}

// Render prints one line per policy domain. Percentages are relative to the
// volume of all domains.
func (d *domainRenderer) Render(w io.Writer, reports []*dmarc.Report) error {
	totals := aggregate.ByDomain(reports)

	bw := bufio.NewWriter(w)
	for _, dt := range totals.Domains {
		fmt.Fprintf(bw, "%s %s\n",
			column(dt.Domain, domainWidth),
			d.palette.passFail(dt.Pass, dt.Fail, dt.PassPercent(totals.Volume)),
		)
	}
	return bw.Flush()
}

type headerFromRenderer struct {
	palette palette
}

// Render prints every policy domain followed by its header from values.
func (h *headerFromRenderer) Render(w io.Writer, reports []*dmarc.Report) error {
	totals := aggregate.ByHeaderFrom(reports)

	bw := bufio.NewWriter(w)
	for i, dt := range totals.Domains {
		if i > 0 {
			fmt.Fprintln(bw)
		}
		fmt.Fprintln(bw, h.palette.cyan.Sprint(dt.Domain))
		for _, hf := range dt.HeaderFroms {
			fmt.Fprintf(bw, "    %s %s\n",
				column(hf.HeaderFrom, domainWidth),
				h.palette.passFail(hf.Pass, hf.Fail, hf.PassPercent(totals.Volume)),
			)
		}
	}
	return bw.Flush()
}
