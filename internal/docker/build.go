// build.go builds images for services that declare a local build context.
//
// Builds shell out to the docker CLI rather than the SDK's ImageBuild
// endpoint: the CLI handles build-context tarring, .dockerignore, and
// BuildKit selection, while the SDK path would require reimplementing all
// three for no behavioral gain.
package docker

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/Roman-Andr/botstack/internal/model"
)

// BuildImage builds the image for a build-based service by running
// "docker build -t <tag> <contextDir>". The tag is the service's
// deterministic "<stack>-<service>" name, so repeated deploys retag in
// place instead of accumulating dangling images.
func BuildImage(ctx context.Context, tag, contextDir string) error {
	if _, err := os.Stat(contextDir); err != nil {
		return model.WrapCLIError(
			model.ExitGeneralError,
			fmt.Sprintf("build context %q is not accessible", contextDir),
			err,
		)
	}

	cmd := exec.CommandContext(ctx, "docker", "build", "-t", tag, contextDir)

	// CombinedOutput captures build output for the error message; on
	// success the output is discarded since the CLI reports its own
	// progress summary.
	output, err := cmd.CombinedOutput()
	if err != nil {
		return model.WrapCLIError(
			model.ExitGeneralError,
			fmt.Sprintf("docker build failed for %q: %s", tag, tailOf(string(output), 20)),
			err,
		)
	}

	return nil
}

// tailOf returns the last n lines of s, for keeping build failure
// messages readable without dropping the actual compiler/daemon error,
// which docker build prints last.
func tailOf(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) <= n {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}
