// Package tui provides a terminal browser for the tags in an L5X project.
package tui

import "github.com/gdamore/tcell/v2"

// Color scheme
var (
	ColorAccent   = tcell.ColorYellow
	ColorBorder   = tcell.ColorBlue
	ColorText     = tcell.ColorWhite
	ColorDisabled = tcell.ColorGray
	ColorError    = tcell.ColorRed
)

// Node markers
const (
	MarkerScope     = "[blue]▸[-] "
	MarkerStructure = "[yellow]{}[-] "
	MarkerArray     = "[yellow][][-] "
)

// Help text
const HelpText = `
 Keyboard Shortcuts
 ──────────────────────────────────────

 Navigation
   Enter        Expand / collapse node
   Tab          Move between panes
   /            Focus filter
   c            Clear filter
   Escape       Close dialog / Back

 Tags
   w            Write value to selected node
   e            Edit description
   x            Clear description
   s            Save project to file
   ?            Show this help
   Q            Quit
`
