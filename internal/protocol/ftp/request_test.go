package ftp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRequest(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		verb     string
		argument string
	}{
		{"simple verb", "NOOP\r\n", "NOOP", ""},
		{"verb with argument", "USER alice\r\n", "USER", "alice"},
		{"lowercase verb uppercased", "user alice\r\n", "USER", "alice"},
		{"argument keeps case", "CWD /Docs/Archive\r\n", "CWD", "/Docs/Archive"},
		{"argument with spaces", "SITE DESCUSER bob\r\n", "SITE", "DESCUSER bob"},
		{"leading spaces before verb", "  NOOP\r\n", "NOOP", ""},
		{"extra spaces before argument", "USER   alice\r\n", "USER", "alice"},
		{"bare newline ending", "QUIT\n", "QUIT", ""},
		{"empty line", "\r\n", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := ParseRequest(tt.line)
			assert.Equal(t, tt.verb, req.Verb)
			assert.Equal(t, tt.argument, req.Argument)
		})
	}
}

func TestRequestHasArgument(t *testing.T) {
	assert.True(t, ParseRequest("USER alice").HasArgument())
	assert.False(t, ParseRequest("USER").HasArgument())
	assert.False(t, ParseRequest("USER ").HasArgument())
}
