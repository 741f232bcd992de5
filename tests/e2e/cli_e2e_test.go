package e2e

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"bomkit/tests/testutil"
)

func runBomkit(t *testing.T, args ...string) string {
	t.Helper()
	cmd := exec.Command("go", append([]string{"run", "./cmd/bomkit"}, args...)...)
	cmd.Dir = testutil.RepoRoot(t)
	cmd.Env = append(os.Environ(), "GO111MODULE=on")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))
	return string(out)
}

func TestComposeAndBuildSetCommandsE2E(t *testing.T) {
	outDir := t.TempDir()
	metricsFile := filepath.Join(outDir, "metrics.prom")

	out := runBomkit(t, "compose",
		"--platform", "fixtures/platform.yaml",
		"--output", outDir,
		"--metrics-file", metricsFile,
	)
	require.Contains(t, out, "composed: acme-platform")
	require.FileExists(t, filepath.Join(outDir, "acme-platform.yaml"))
	require.FileExists(t, filepath.Join(outDir, "app.yaml"))
	require.FileExists(t, filepath.Join(outDir, "alignment.report"))
	require.FileExists(t, metricsFile)

	buildDir := filepath.Join(outDir, "build")
	out = runBomkit(t, "build-set",
		"--target", "com.acme:platform:pom:1.0",
		"--repository", "fixtures/repository.yaml",
		"--release-map", "fixtures/release-map.yaml",
		"--exclude-key", "com.acme.legacy:old",
		"--output", buildDir,
	)
	require.Contains(t, out, "build set: accepted=4")
	for _, name := range []string{"build-set.txt", "skipped.txt", "remaining.txt", "release-order.txt", "summary.txt"} {
		require.FileExists(t, filepath.Join(buildDir, name))
	}

	out = runBomkit(t, "diff",
		filepath.Join(outDir, "acme-platform.yaml"),
		filepath.Join(outDir, "acme-platform.yaml"),
	)
	require.Contains(t, out, "no changes")

	out = runBomkit(t, "inspect", filepath.Join(outDir, "acme-platform.yaml"))
	require.Contains(t, out, "com.acme:platform:pom:1.0:")
	require.Contains(t, out, "- github.com/acme/core")

	cacheFile := filepath.Join(outDir, "releases.db")
	runBomkit(t, "build-set",
		"--target", "com.acme:platform:pom:1.0",
		"--repository", "fixtures/repository.yaml",
		"--release-map", "fixtures/release-map.yaml",
		"--release-cache", cacheFile,
		"--output", filepath.Join(outDir, "cached"),
	)
	out = runBomkit(t, "prune-cache", "--release-cache", cacheFile, "--keep-days", "1")
	require.Contains(t, out, "dry-run: keep=")
	require.Contains(t, out, "delete=0")
}
