package version

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Set at build time with -ldflags "-X schoollicense.app/renewal/internal/version.Version=...".
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

const product = "license-renewal"

// Load replaces Version with the contents of a VERSION file when the binary
// was built without one. A missing file leaves Version unchanged.
func Load(path string) error {
	if Version != "dev" {
		return nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read version file: %w", err)
	}
	if v := strings.TrimSpace(string(b)); v != "" {
		Version = v
	}
	return nil
}

func String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s, %s)", product, Version, Commit, BuildTime, runtime.Version())
}

func UserAgent() string {
	return product + "/" + Version
}
