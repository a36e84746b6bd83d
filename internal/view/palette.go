package view

import (
	"fmt"

	"github.com/fatih/color"
)

type palette struct {
	red     *color.Color
	magenta *color.Color
	yellow  *color.Color
	green   *color.Color
	cyan    *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(a color.Attribute) *color.Color {
		c := color.New(a)
		// override the library global which is based on stdout
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		red:     mk(color.FgRed),
		magenta: mk(color.FgMagenta),
		yellow:  mk(color.FgYellow),
		green:   mk(color.FgGreen),
		cyan:    mk(color.FgCyan),
	}
}

func (p palette) pass(s string) string {
	return p.green.Sprint(s)
}

func (p palette) fail(s string) string {
	return p.red.Sprint(s)
}

func (p palette) code(pass bool) string {
	if pass {
		return p.pass("P")
	}
	return p.fail("F")
}

// percent formats pct with two decimals, colored by band.
func (p palette) percent(pct float64) string {
	s := fmt.Sprintf("%.2f", pct)
	switch {
	case pct < 20:
		return p.red.Sprint(s)
	case pct < 40:
		return p.magenta.Sprint(s)
	case pct < 60:
		return p.yellow.Sprint(s)
	case pct < 80:
		return p.green.Sprint(s)
	default:
		return p.cyan.Sprint(s)
	}
}

// passFail renders "pass N / fail M - P% passed".
func (p palette) passFail(pass, fail int, pct float64) string {
	return fmt.Sprintf("%s %d / %s %d - %s%% passed", p.pass("pass"), pass, p.fail("fail"), fail, p.percent(pct))
}
