package vfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		path string
		base string
		want string
	}{
		{"absolute", "/etc/passwd", "/home/alice", "/etc/passwd"},
		{"relative", "notes.txt", "/home/alice", "/home/alice/notes.txt"},
		{"dot segments", "./a/./b", "/", "/a/b"},
		{"dot dot", "../bob", "/home/alice", "/home/bob"},
		{"pop past root", "../../../..", "/home", "/"},
		{"absolute pop past root", "/../etc", "/anything", "/etc"},
		{"trailing slash", "/home/alice/", "/", "/home/alice"},
		{"duplicate slashes", "//home///alice", "/", "/home/alice"},
		{"empty path is base", "", "/tmp", "/tmp"},
		{"root", "/", "/home", "/"},
		{"relative base", "x", "home", "/home/x"},
		{"empty base", "x", "", "/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.path, tt.base))
		})
	}
}

func TestResolveIdempotent(t *testing.T) {
	inputs := []struct{ path, base string }{
		{"a/b/../c", "/x/y"},
		{"../../..", "/x"},
		{"/./a//b/.", "/"},
		{".", "/home/alice"},
		{"", ""},
	}
	for _, in := range inputs {
		once := Resolve(in.path, in.base)
		assert.Equal(t, once, Resolve(once, "/"), "path %q base %q", in.path, in.base)
	}
}

func TestPathHelpers(t *testing.T) {
	assert.Equal(t, []string{"home", "alice"}, Split("/home/alice"))
	assert.Nil(t, Split("/"))

	assert.Equal(t, "/home", Parent("/home/alice"))
	assert.Equal(t, "/", Parent("/home"))
	assert.Equal(t, "/", Parent("/"))

	assert.Equal(t, "alice", Base("/home/alice"))
	assert.Equal(t, "/", Base("/"))

	assert.Equal(t, "/home", Join("/", "home"))
	assert.Equal(t, "/home/alice", Join("/home", "alice"))

	assert.True(t, IsStrictDescendant("/a/b", "/a"))
	assert.True(t, IsStrictDescendant("/a", "/"))
	assert.False(t, IsStrictDescendant("/a", "/a"))
	assert.False(t, IsStrictDescendant("/ab", "/a"))

	assert.True(t, ValidName("notes.txt"))
	assert.False(t, ValidName(""))
	assert.False(t, ValidName(".."))
	assert.False(t, ValidName("a/b"))
}
