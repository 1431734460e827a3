package version

import (
	"fmt"
	"strings"
	"sync"
)

const (
	appMajor uint = 0
	appMinor uint = 3
	appPatch uint = 1
)

// buildMetadataCharacters are the characters allowed in appBuild.
const buildMetadataCharacters = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-."

// appBuild can be set at link time with
// '-ldflags "-X github.com/kaspanet/chainsyncd/version.appBuild=foo"'.
var appBuild string

var (
	versionOnce sync.Once
	version     string
)

// Version returns the chainsyncd version, with build metadata appended
// when it was given at link time.
func Version() string {
	versionOnce.Do(func() {
		version = formatVersion(appMajor, appMinor, appPatch, appBuild)
	})
	return version
}

func formatVersion(major, minor, patch uint, build string) string {
	formatted := fmt.Sprintf("%d.%d.%d", major, minor, patch)
	if build == "" {
		return formatted
	}
	for _, r := range build {
		if !strings.ContainsRune(buildMetadataCharacters, r) {
			return formatted
		}
	}
	return formatted + "+" + build
}
