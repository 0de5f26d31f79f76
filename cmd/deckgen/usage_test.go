package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHelpAndVersionTokens(t *testing.T) {
	for _, a := range []string{"--help", "-h", "-help", "help"} {
		assert.True(t, helpRequested([]string{"-slides", "x", a}), a)
	}
	assert.False(t, helpRequested([]string{"-slides", "help.json"}))
	assert.True(t, versionRequested([]string{"--version"}))
	assert.False(t, versionRequested([]string{"-v"}))
}

func TestShortCommit(t *testing.T) {
	assert.Equal(t, "abcdef1", shortCommit("abcdef1234567"))
	assert.Equal(t, "abc", shortCommit(" abc "))
	assert.Equal(t, "unknown", shortCommit(""))
}

func TestPrintVersion(t *testing.T) {
	old := commit
	commit = "0123456789"
	t.Cleanup(func() { commit = old })

	var b bytes.Buffer
	printVersion(&b)
	assert.Contains(t, b.String(), "(commit 0123456")
}
