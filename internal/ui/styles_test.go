package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoColorStyles_RenderVerbatim(t *testing.T) {
	// Given: no colour styles
	styles := NoColorStyles()

	// Then: every style returns the text unchanged
	for _, s := range []string{
		styles.Header.Render("x"),
		styles.Prompt.Render("x"),
		styles.Speaker.Render("x"),
		styles.Reply.Render("x"),
		styles.Success.Render("x"),
		styles.Warning.Render("x"),
		styles.Error.Render("x"),
		styles.Dim.Render("x"),
		styles.Label.Render("x"),
	} {
		assert.Equal(t, "x", s)
	}
}

func TestDefaultStyles_KeepText(t *testing.T) {
	styles := DefaultStyles()

	assert.Contains(t, styles.Header.Render("Shapeshifter"), "Shapeshifter")
	assert.Contains(t, styles.Reply.Render("the cat sat."), "the cat sat.")
	assert.Contains(t, styles.Panel.Render("box"), "box")
}

func TestGetStyles(t *testing.T) {
	assert.Equal(t, "x", GetStyles(true).Error.Render("x"))
	assert.Contains(t, GetStyles(false).Error.Render("x"), "x")
}
