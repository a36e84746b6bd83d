package view

import (
	"bufio"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/firefart/dmarcreport/internal/aggregate"
	"github.com/firefart/dmarcreport/internal/dmarc"
)

const dateLayout = "2006-01-02"

type summaryRenderer struct {
	palette  palette
	resolver Resolver
}

func (s *summaryRenderer) Render(w io.Writer, reports []*dmarc.Report) error {
	sum := aggregate.Summarize(reports)
	p := s.palette

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "***DMARC report summary")
	fmt.Fprintln(bw)
	fmt.Fprintf(bw, "%12s %d\n", "Total:", sum.Reports)
	fmt.Fprintf(bw, "%12s %d\n", "Records:", sum.Records)
	fmt.Fprintf(bw, "%12s %s\n", "Volume:", humanize.Comma(int64(sum.Volume)))
	fmt.Fprintf(bw, "%12s %s\n", "Period:", period(sum.Period))
	fmt.Fprintf(bw, "%12s %s\n", "SPF:", p.passFail(sum.SPF.Pass, sum.SPF.Fail, sum.SPF.PassPercent(sum.Volume)))
	fmt.Fprintf(bw, "%12s %s\n", "DKIM:", p.passFail(sum.DKIM.Pass, sum.DKIM.Fail, sum.DKIM.PassPercent(sum.Volume)))
	fmt.Fprintf(bw, "%12s %s\n", "DMARC:", p.passFail(sum.DMARC.Pass, sum.DMARC.Fail, sum.DMARC.PassPercent(sum.Volume)))
	fmt.Fprintln(bw)
	fmt.Fprintf(bw, "%12s\n", "[IP ADDR]")
	fmt.Fprintf(bw, "%12s %d\n", "passed:", sum.PassIPs.Len())
	for _, ip := range sum.PassIPs.Keys() {
		n, _ := sum.PassIPs.Get(ip)
		fmt.Fprintf(bw, "%12s %s (%d)%s\n", "", p.pass(ip), n, ptrSuffix(s.resolver, ip))
	}
	fmt.Fprintf(bw, "%12s %d\n", "failed:", sum.FailIPs.Len())
	for _, ip := range sum.FailIPs.Top(aggregate.TopFailingLimit) {
		n, _ := sum.FailIPs.Get(ip)
		fmt.Fprintf(bw, "%12s %s (%d)%s\n", "", p.fail(ip), n, ptrSuffix(s.resolver, ip))
	}
	return bw.Flush()
}

func period(r dmarc.DateRange) string {
	if r.Begin.IsZero() && r.End.IsZero() {
		return "-"
	}
	return r.Begin.UTC().Format(dateLayout) + " - " + r.End.UTC().Format(dateLayout)
}
