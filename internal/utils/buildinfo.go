package utils

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime/debug"
	"strings"
)

const (
	unknownVersion     = "unknown"
	developmentVersion = "(devel)"
	gitExecutable      = "git"
)

// Version overrides the detected version when set through
// -ldflags "-X github.com/temirov/slw/internal/utils.Version=v1.0.0".
var Version string

var gitDescribeArguments = [][]string{
	{"describe", "--tags", "--exact-match"},
	{"describe", "--tags", "--long", "--dirty"},
}

// GetApplicationVersion reports the linked version, the module version from build info,
// or git describe output when the binary runs inside a checkout.
func GetApplicationVersion() string {
	if Version != "" {
		return Version
	}
	if buildInfo, available := debug.ReadBuildInfo(); available && buildInfo.Main.Version != "" && buildInfo.Main.Version != developmentVersion {
		return buildInfo.Main.Version
	}
	repositoryRoot, found := findRepositoryRoot(".")
	if !found {
		return unknownVersion
	}
	for _, arguments := range gitDescribeArguments {
		// #nosec G204
		describeCommand := exec.Command(gitExecutable, arguments...)
		describeCommand.Dir = repositoryRoot
		described, describeError := describeCommand.Output()
		if describeError == nil && len(strings.TrimSpace(string(described))) > 0 {
			return strings.TrimSpace(string(described))
		}
	}
	return unknownVersion
}

// findRepositoryRoot walks up from startDirectory to the first directory holding .git.
func findRepositoryRoot(startDirectory string) (string, bool) {
	currentDirectory, absoluteError := filepath.Abs(startDirectory)
	if absoluteError != nil {
		return "", false
	}
	for {
		information, statError := os.Stat(filepath.Join(currentDirectory, GitDirectoryName))
		if statError == nil && information.IsDir() {
			return currentDirectory, true
		}
		parentDirectory := filepath.Dir(currentDirectory)
		if parentDirectory == currentDirectory {
			return "", false
		}
		currentDirectory = parentDirectory
	}
}
