package observability

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

const (
	colorReset    = "\033[0m"
	colorNeonCyan = "\033[96m"
	colorNeonMag  = "\033[95m"
)

// TermWidth returns the width of stdout, or 80 when it is not a terminal.
func TermWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 80
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

// Colorize wraps s in an ANSI color when stdout is a terminal.
func Colorize(s string) string {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return s
	}
	return colorNeonMag + s + colorReset
}

func PrintBanner(w io.Writer) {
	banner := `
  ___           _       _     _   _____
 |_ _|_ __  ___(_) __ _| |__ | |_|  ___|__  _ __ __ _  ___
  | || '_ \/ __| |/ _' | '_ \| __| |_ / _ \| '__/ _' |/ _ \
  | || | | \__ \ | (_| | | | | |_|  _| (_) | | | (_| |  __/
 |___|_| |_|___/_|\__, |_| |_|\__|_|  \___/|_|  \__, |\___|
                  |___/                         |___/
           >> GOAL -> PLAN -> ARTIFACTS -> SUMMARY <<
`

	width := TermWidth()
	color := term.IsTerminal(int(os.Stdout.Fd()))

	for _, l := range strings.Split(banner, "\n") {
		padding := (width - len(l)) / 2
		if padding < 0 {
			padding = 0
		}
		if color {
			fmt.Fprintf(w, "%s%s%s\n", strings.Repeat(" ", padding), colorNeonCyan+l, colorReset)
		} else {
			fmt.Fprintf(w, "%s%s\n", strings.Repeat(" ", padding), l)
		}
	}
}
