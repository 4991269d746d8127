package vfs

import "strings"

// Separator is the path separator of the virtual filesystem.
const Separator = "/"

// RootPath is the canonical path of the root directory.
const RootPath = "/"

// Resolve turns path into a canonical absolute path. Relative paths are
// joined onto base. "." segments are dropped and ".." pops the last
// resolved segment; popping past the root is a no-op. The result has no
// trailing slash except for the root itself. Symlinks are not consulted.
func Resolve(path, base string) string {
	var segments []string
	if !strings.HasPrefix(path, Separator) {
		if base == "" || !strings.HasPrefix(base, Separator) {
			base = RootPath + base
		}
		segments = appendSegments(segments, base)
	}
	segments = appendSegments(segments, path)
	return RootPath + strings.Join(segments, Separator)
}

func appendSegments(resolved []string, path string) []string {
	for _, seg := range strings.Split(path, Separator) {
		switch seg {
		case "", ".":
		case "..":
			if len(resolved) > 0 {
				resolved = resolved[:len(resolved)-1]
			}
		default:
			resolved = append(resolved, seg)
		}
	}
	return resolved
}

// Split returns the segments of a canonical path. The root has none.
func Split(canonical string) []string {
	trimmed := strings.Trim(canonical, Separator)
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, Separator)
}

// Parent returns the canonical parent of a canonical path. The parent of
// the root is the root.
func Parent(canonical string) string {
	idx := strings.LastIndex(canonical, Separator)
	if idx <= 0 {
		return RootPath
	}
	return canonical[:idx]
}

// Base returns the last segment of a canonical path, or "/" for the root.
func Base(canonical string) string {
	if canonical == RootPath {
		return RootPath
	}
	return canonical[strings.LastIndex(canonical, Separator)+1:]
}

// Join appends a single name to a canonical directory path.
func Join(dir, name string) string {
	if dir == RootPath {
		return RootPath + name
	}
	return dir + Separator + name
}

// IsStrictDescendant reports whether path lies strictly below ancestor.
func IsStrictDescendant(path, ancestor string) bool {
	if path == ancestor {
		return false
	}
	if ancestor == RootPath {
		return true
	}
	return strings.HasPrefix(path, ancestor+Separator)
}

// ValidName reports whether name may be used as a directory entry.
func ValidName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.Contains(name, Separator)
}
