package paths

import (
	"strings"
	"testing"
)

func TestStandardDirectoriesParentsFirst(t *testing.T) {
	seen := map[string]bool{Root: true}
	for _, d := range StandardDirectories() {
		parent := d.Path[:strings.LastIndex(d.Path, "/")]
		if parent == "" {
			parent = Root
		}
		if !seen[parent] {
			t.Errorf("%s listed before its parent %s", d.Path, parent)
		}
		seen[d.Path] = true
	}
	if !seen[VarLog] {
		t.Errorf("standard layout must include %s", VarLog)
	}
}

func TestUserHome(t *testing.T) {
	if got := UserHome("alice"); got != "/home/alice" {
		t.Errorf("UserHome(alice) = %q", got)
	}
	if got := UserHome("root"); got != "/home/root" {
		t.Errorf("UserHome(root) = %q", got)
	}
}
