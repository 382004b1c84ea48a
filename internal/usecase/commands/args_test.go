package commands

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTrigger(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		start  int
		expect TriggerArgs
	}{
		{
			name:   "bare trigger",
			line:   "!command !hello Hi there",
			start:  1,
			expect: TriggerArgs{Trigger: "!hello", Remainder: "Hi there"},
		},
		{
			name:   "quoted phrase",
			line:   `!command "hello there" Hi!`,
			start:  1,
			expect: TriggerArgs{Trigger: "hello there", Remainder: "Hi!"},
		},
		{
			name:   "quoted phrase after sub-command",
			line:   `!command add "hello there" Hi!`,
			start:  2,
			expect: TriggerArgs{Trigger: "hello there", Remainder: "Hi!"},
		},
		{
			name:   "quoted phrase without remainder",
			line:   `enable "good night"`,
			start:  1,
			expect: TriggerArgs{Trigger: "good night", Remainder: ""},
		},
		{
			name:   "escaped quote inside phrase",
			line:   `add "say \"hi\" now" ok`,
			start:  1,
			expect: TriggerArgs{Trigger: `say \"hi\" now`, Remainder: "ok"},
		},
		{
			name:   "unbalanced quote falls back to bare token",
			line:   `add "hello there Hi!`,
			start:  1,
			expect: TriggerArgs{Trigger: `"hello`, Remainder: "there Hi!"},
		},
		{
			name:   "closing quote glued to text falls back",
			line:   `add "hello"there Hi!`,
			start:  1,
			expect: TriggerArgs{Trigger: `"hello"there`, Remainder: "Hi!"},
		},
		{
			name:   "payload repeating the quoted trigger keeps its copy",
			line:   `add "hi there" say "hi there" back`,
			start:  1,
			expect: TriggerArgs{Trigger: "hi there", Remainder: `say "hi there" back`},
		},
		{
			name:   "quoted phrase is trimmed",
			line:   `add " spaced " reply`,
			start:  1,
			expect: TriggerArgs{Trigger: "spaced", Remainder: "reply"},
		},
		{
			name:   "missing trigger",
			line:   "add",
			start:  1,
			expect: TriggerArgs{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTrigger(strings.Fields(tt.line), tt.start)
			assert.Equal(t, tt.expect, got)
		})
	}
}

func TestParseTriggerOutOfRange(t *testing.T) {
	assert.Equal(t, TriggerArgs{}, ParseTrigger(nil, 1))
	assert.Equal(t, TriggerArgs{}, ParseTrigger([]string{"a"}, -1))
}

func TestFindQuotedSpan(t *testing.T) {
	open, closing, ok := findQuotedSpan(`x "a b" c`)
	assert.True(t, ok)
	assert.Equal(t, 2, open)
	assert.Equal(t, 6, closing)

	_, _, ok = findQuotedSpan(`x"a b" c`)
	assert.False(t, ok)

	_, _, ok = findQuotedSpan(`"a b`)
	assert.False(t, ok)
}

func TestParseTriggerPreSplitTokens(t *testing.T) {
	got := ParseTrigger([]string{"!command", "add", `"hello there"`, "Hi!"}, 2)
	assert.Equal(t, TriggerArgs{Trigger: "hello there", Remainder: "Hi!"}, got)

	got = ParseTrigger([]string{"!command", "add", "!greet", "Hello!"}, 2)
	assert.Equal(t, TriggerArgs{Trigger: "!greet", Remainder: "Hello!"}, got)
}
