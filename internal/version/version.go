// Package version holds the release version shared by the binaries.
package version

import (
	_ "embed"
	"strings"
)

//go:embed VERSION.txt
var versionFile string

// Version is the trimmed contents of VERSION.txt
var Version = strings.TrimSpace(versionFile)
