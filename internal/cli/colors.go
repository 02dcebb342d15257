package cli

import "github.com/fatih/color"

var (
	colorOK   = []color.Attribute{color.FgGreen, color.Bold}
	colorWarn = []color.Attribute{color.FgYellow}
)
