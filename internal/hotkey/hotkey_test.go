package hotkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseVKFunctionKeys(t *testing.T) {
	cases := []struct {
		name string
		want uint32
	}{
		{"F1", 0x70}, {"F2", 0x71}, {"F3", 0x72}, {"F4", 0x73},
		{"F5", 0x74}, {"F6", 0x75}, {"F7", 0x76}, {"F8", 0x77},
		{"F9", 0x78}, {"F10", 0x79}, {"F11", 0x7A}, {"F12", 0x7B},
	}
	for _, c := range cases {
		got, ok := ParseVK(c.name)
		assert.Truef(t, ok, "ParseVK(%q) should be recognized", c.name)
		assert.Equalf(t, c.want, got, "ParseVK(%q)", c.name)
	}
}

// The default hotkey "F8" resolves to VK_F8.
func TestParseVKDefaultHotkey(t *testing.T) {
	got, ok := ParseVK("F8")
	assert.True(t, ok)
	assert.Equal(t, uint32(0x77), got)
}

func TestParseVKAlphanumericIsCaseInsensitive(t *testing.T) {
	upper, ok := ParseVK("A")
	assert.True(t, ok)
	lower, ok := ParseVK("a")
	assert.True(t, ok)
	assert.Equal(t, upper, lower)
	assert.Equal(t, uint32('A'), upper)
}

func TestParseVKDigit(t *testing.T) {
	got, ok := ParseVK("5")
	assert.True(t, ok)
	assert.Equal(t, uint32('5'), got)
}

func TestParseVKRejectsOutOfRangeFunctionKey(t *testing.T) {
	_, ok := ParseVK("F13")
	assert.False(t, ok)
	_, ok = ParseVK("F0")
	assert.False(t, ok)
}

func TestParseVKRejectsNonCanonicalFunctionKeySpellings(t *testing.T) {
	for _, name := range []string{"F08", "F+8", "F 8", "F1.0", "F123"} {
		_, ok := ParseVK(name)
		assert.Falsef(t, ok, "ParseVK(%q) should be rejected", name)
	}
}

func TestParseVKRejectsMultiCharNonFunction(t *testing.T) {
	_, ok := ParseVK("AB")
	assert.False(t, ok)
}

func TestParseVKRejectsEmptyAndGarbage(t *testing.T) {
	for _, name := range []string{"", "!", "Escape", "Shift"} {
		_, ok := ParseVK(name)
		assert.Falsef(t, ok, "ParseVK(%q) should be rejected", name)
	}
}

func TestUpdateKeyDisablesOnUnrecognizedName(t *testing.T) {
	h := &Handle{}
	h.vk.Store(0x77)
	h.UpdateKey("NotAKey")
	assert.Equal(t, uint32(0), h.vk.Load())
}

func TestUpdateKeyRebinds(t *testing.T) {
	h := &Handle{}
	h.UpdateKey("F9")
	assert.Equal(t, uint32(0x78), h.vk.Load())
}
