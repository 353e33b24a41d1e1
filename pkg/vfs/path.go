package vfs

import gopath "path"

// ResolveVirtual resolves a client-supplied path against a working
// directory, returning a cleaned absolute virtual path.
//
// Virtual paths always use forward slashes and are rooted at "/". Attempts
// to climb above the root ("/..") are clamped to the root, so a view can
// never be escaped through relative navigation.
func ResolveVirtual(cwd, target string) string {
	if cwd == "" {
		cwd = "/"
	}
	if target == "" {
		return gopath.Clean(cwd)
	}

	var joined string
	if gopath.IsAbs(target) {
		joined = target
	} else {
		joined = gopath.Join(cwd, target)
	}

	cleaned := gopath.Clean("/" + joined)
	return cleaned
}
