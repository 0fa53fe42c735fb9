package tui

type stage int

const (
	stageCompose stage = iota
	stageLoading
	stageBoard
	stageAttach
)

const heroTagline = "Ask a STEM question. Watch it worked out on the board."

const (
	minViewportWidth          = 40
	viewportHorizontalPadding = 4
	narrationLines            = 3
)

const (
	composerPlaceholder  = "Ask a STEM question, or attach a worksheet with Ctrl+A…"
	attachPlaceholder    = "Path to an image or PDF (comma separated for several)…"
	narrationPlaceholder = "Preparing note…"
)

// preset is a one-key sample question.
type preset struct {
	Label  string
	Prompt string
}

var presets = []preset{
	{Label: "Calc", Prompt: "Integral of sin(x)cos(x) dx"},
	{Label: "Phys", Prompt: "F=ma example problem"},
	{Label: "Chem", Prompt: "Balance: C6H12O6 + O2"},
	{Label: "Alg", Prompt: "Quadratic: x^2 - 5x + 6 = 0"},
}
