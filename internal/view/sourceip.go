package view

import (
	"bufio"
	"fmt"
	"io"

	"github.com/firefart/dmarcreport/internal/aggregate"
	"github.com/firefart/dmarcreport/internal/dmarc"
)

type sourceIPRenderer struct {
	palette  palette
	resolver Resolver
}

// Render lists every source IP with DMARC failures, highest volume first.
func (s *sourceIPRenderer) Render(w io.Writer, reports []*dmarc.Report) error {
	failing := aggregate.FailingIPs(reports)

	bw := bufio.NewWriter(w)
	for _, ip := range failing.Ranked() {
		n, _ := failing.Get(ip)
		fmt.Fprintf(bw, "%8d %s%s\n", n, s.palette.fail(ip), ptrSuffix(s.resolver, ip))
	}
	return bw.Flush()
}
