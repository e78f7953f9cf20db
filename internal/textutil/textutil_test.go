package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLF(t *testing.T) {
	assert.Equal(t, "a\nb\n", NormalizeLF("a\r\nb\r\n"))
	assert.Equal(t, "a\rb", NormalizeLF("a\rb"))
	assert.Equal(t, "", NormalizeLF(""))
}

func TestTidyCollapsesAndTrims(t *testing.T) {
	assert.Equal(t, "a\n\nb", Tidy("a\n\n\n\n\nb\n\n  \t"))
	assert.Equal(t, "a\n\nb", Tidy("a\n\nb"))
	assert.Equal(t, "", Tidy("\n\n\n"))
}

func TestHeadLines(t *testing.T) {
	assert.Equal(t, "1\n2\n# ...", HeadLines("1\n2\n3", 2, "# ..."))
	assert.Equal(t, "1\n2", HeadLines("1\n2", 2, "# ..."))
	assert.Equal(t, "1", HeadLines("1\n2", 1, ""))
}

func TestEnsureTrailingLF(t *testing.T) {
	assert.Equal(t, "", EnsureTrailingLF(""))
	assert.Equal(t, "x\n", EnsureTrailingLF("x"))
	assert.Equal(t, "x\n", EnsureTrailingLF("x\n"))
}

func TestIsBlank(t *testing.T) {
	assert.True(t, IsBlank(" \t "))
	assert.False(t, IsBlank(" x "))
}
