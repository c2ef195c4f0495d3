package bubbletea

// BlockSeparator exports blockSeparator for testing.
var BlockSeparator = blockSeparator

// Sanitize exports sanitize for testing.
var Sanitize = sanitize

// Tail exports tail for testing.
var Tail = tail

// Preview exports preview for testing.
var Preview = preview

// RenderContent exports renderContent for testing.
func RenderContent(m Model) string {
	return m.renderContent()
}

// AllExpanded reports whether Ctrl+O last expanded every block.
func AllExpanded(m Model) bool {
	return m.allExpanded
}

// BlockFocus returns the index of the focused collapsible block.
func BlockFocus(m Model) int {
	return m.blockFocus
}

// Blocks returns the rendered blocks.
func Blocks(m Model) []MessageBlock {
	return m.blocks
}

// RenderIntro exports renderIntro for testing.
var RenderIntro = renderIntro

// RenderConfig exports renderConfig for testing.
var RenderConfig = renderConfig

// RenderHelp exports renderHelp for testing.
var RenderHelp = renderHelp
