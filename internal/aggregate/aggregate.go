// Package aggregate folds normalized DMARC reports into count weighted
// totals. Every record contributes its message count, not 1, to each bucket
// it falls into.
package aggregate

import (
	"sort"
	"strings"

	"github.com/firefart/dmarcreport/internal/dmarc"
)

// TopFailingLimit is the number of failing source IPs the summary shows.
const TopFailingLimit = 10

// Counter accumulates pass and fail volume.
type Counter struct {
	Pass int
	Fail int
}

func (c *Counter) Add(pass bool, n int) {
	if pass {
		c.Pass += n
	} else {
		c.Fail += n
	}
}

func (c Counter) Total() int {
	return c.Pass + c.Fail
}

// PassPercent returns the pass volume as percentage of total. A total of
// zero yields 0.
func (c Counter) PassPercent(total int) float64 {
	return Percent(c.Pass, total)
}

// Percent returns n as percentage of total, or 0 when total is 0.
func Percent(n, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

// Volumes maps a key to a volume and remembers the order keys were first
// added in.
type Volumes struct {
	keys   []string
	volume map[string]int
}

func NewVolumes() *Volumes {
	return &Volumes{volume: make(map[string]int)}
}

func (v *Volumes) Add(key string, n int) {
	if _, ok := v.volume[key]; !ok {
		v.keys = append(v.keys, key)
	}
	v.volume[key] += n
}

// Get returns the volume of key and whether key was ever added.
func (v *Volumes) Get(key string) (int, bool) {
	n, ok := v.volume[key]
	return n, ok
}

// Keys returns the keys in insertion order.
func (v *Volumes) Keys() []string {
	return append([]string(nil), v.keys...)
}

func (v *Volumes) Len() int {
	return len(v.keys)
}

// Ranked returns the keys by descending volume. The keys are stable sorted
// ascending and then reversed, so keys with equal volume come out in reverse
// insertion order.
func (v *Volumes) Ranked() []string {
	keys := v.Keys()
	sort.SliceStable(keys, func(i, j int) bool {
		return v.volume[keys[i]] < v.volume[keys[j]]
	})
	for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
		keys[i], keys[j] = keys[j], keys[i]
	}
	return keys
}

// Top returns at most n keys of Ranked.
func (v *Volumes) Top(n int) []string {
	keys := v.Ranked()
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

// Summary holds the totals over all loaded reports.
type Summary struct {
	Reports int
	Records int
	Volume  int
	SPF     Counter
	DKIM    Counter
	DMARC   Counter
	PassIPs *Volumes
	FailIPs *Volumes
	Period  dmarc.DateRange
}

// Summarize computes the category totals and per source IP volumes.
func Summarize(reports []*dmarc.Report) Summary {
	s := Summary{
		Reports: len(reports),
		PassIPs: NewVolumes(),
		FailIPs: NewVolumes(),
	}
	for _, r := range reports {
		s.Period = widen(s.Period, r.DateRange)
		for _, rec := range r.Records {
			dmarcPass := rec.DMARCPass()
			s.Records++
			s.Volume += rec.Count
			s.SPF.Add(rec.SPFPass, rec.Count)
			s.DKIM.Add(rec.DKIMPass, rec.Count)
			s.DMARC.Add(dmarcPass, rec.Count)
			if dmarcPass {
				s.PassIPs.Add(rec.SourceIP, rec.Count)
			} else {
				s.FailIPs.Add(rec.SourceIP, rec.Count)
			}
		}
	}
	return s
}

func widen(p, r dmarc.DateRange) dmarc.DateRange {
	if p.Begin.IsZero() || r.Begin.Before(p.Begin) {
		p.Begin = r.Begin
	}
	if p.End.IsZero() || r.End.After(p.End) {
		p.End = r.End
	}
	return p
}

// FailingIPs returns the volumes of all source IPs with DMARC failures.
func FailingIPs(reports []*dmarc.Report) *Volumes {
	v := NewVolumes()
	for _, r := range reports {
		for _, rec := range r.Records {
			if !rec.DMARCPass() {
				v.Add(rec.SourceIP, rec.Count)
			}
		}
	}
	return v
}

// DomainTotal is the DMARC outcome volume of one policy domain.
type DomainTotal struct {
	Domain string
	Counter
}

// DomainTotals lists the policy domains in first seen order. Volume is the
// grand total over all domains and is the denominator of every domain
// percentage.
type DomainTotals struct {
	Domains []*DomainTotal
	Volume  int
}

// ByDomain groups DMARC outcomes by policy domain. Domains are compared
// ignoring case; the first spelling seen is kept.
func ByDomain(reports []*dmarc.Report) DomainTotals {
	var t DomainTotals
	index := make(map[string]*DomainTotal)
	for _, r := range reports {
		key := strings.ToLower(r.Policy.Domain)
		d, ok := index[key]
		if !ok {
			d = &DomainTotal{Domain: r.Policy.Domain}
			index[key] = d
			t.Domains = append(t.Domains, d)
		}
		for _, rec := range r.Records {
			d.Add(rec.DMARCPass(), rec.Count)
			t.Volume += rec.Count
		}
	}
	return t
}

// HeaderFromTotal is the DMARC outcome volume of one header from value.
type HeaderFromTotal struct {
	HeaderFrom string
	Counter
}

// DomainHeaderFrom holds the header from totals below one policy domain.
type DomainHeaderFrom struct {
	Domain      string
	HeaderFroms []*HeaderFromTotal
	index       map[string]*HeaderFromTotal
}

func (d *DomainHeaderFrom) add(headerFrom string, pass bool, n int) {
	h, ok := d.index[headerFrom]
	if !ok {
		h = &HeaderFromTotal{HeaderFrom: headerFrom}
		d.index[headerFrom] = h
		d.HeaderFroms = append(d.HeaderFroms, h)
	}
	h.Add(pass, n)
}

// HeaderFromTotals lists domains and their header from values in first seen
// order. Volume is the grand total over all records.
type HeaderFromTotals struct {
	Domains []*DomainHeaderFrom
	Volume  int
}

// ByHeaderFrom groups DMARC outcomes by policy domain and header from. A
// record with several header from identifiers adds its full count to each
// of them.
func ByHeaderFrom(reports []*dmarc.Report) HeaderFromTotals {
	var t HeaderFromTotals
	index := make(map[string]*DomainHeaderFrom)
	for _, r := range reports {
		key := strings.ToLower(r.Policy.Domain)
		d, ok := index[key]
		if !ok {
			d = &DomainHeaderFrom{
				Domain: r.Policy.Domain,
				index:  make(map[string]*HeaderFromTotal),
			}
			index[key] = d
			t.Domains = append(t.Domains, d)
		}
		for _, rec := range r.Records {
			pass := rec.DMARCPass()
			for _, hf := range rec.HeaderFrom {
				d.add(hf, pass, rec.Count)
			}
			t.Volume += rec.Count
		}
	}
	return t
}

