package main

const HelpBanner = `
┌─┐┬┌─┐┌┬┐┬ ┬┬─┐┌─┐  ┌─┐┌─┐┬─┐┌─┐┌─┐┌─┐┌┬┐
├─┘││   │ │ │├┬┘├┤   ├─┘├┤ ├┬┘├┤ ├┤ │   │
┴  ┴└─┘ ┴ └─┘┴└─└─┘  ┴  └─┘┴└─└  └─┘└─┘ ┴

Gaze correction and smile enhancement for portraits.
    Version: %s

`

// pipeName is the file name that indicates stdin/stdout is being used.
const pipeName = "-"

// Version indicates the current build version.
var Version string

func main() {
	Execute()
}
