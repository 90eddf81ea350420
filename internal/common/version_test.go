package common

import "testing"

func resetBuildInfo(t *testing.T) {
	t.Helper()
	origVersion, origBuild, origCommit := Version, Build, GitCommit
	Version, Build, GitCommit = "dev", "unknown", "unknown"
	t.Cleanup(func() {
		Version, Build, GitCommit = origVersion, origBuild, origCommit
	})
}

func TestApplyVersionFile(t *testing.T) {
	resetBuildInfo(t)

	applyVersionFile(`# release metadata
version: 1.4.2
build: 2026-08-30T10:00:00Z
commit: abc1234

garbage line without separator
empty:
`)

	if Version != "1.4.2" {
		t.Errorf("Version = %q, want 1.4.2", Version)
	}
	if Build != "2026-08-30T10:00:00Z" {
		t.Errorf("Build = %q, want the file's build stamp", Build)
	}
	if GitCommit != "abc1234" {
		t.Errorf("GitCommit = %q, want abc1234", GitCommit)
	}
}

func TestApplyVersionFileDoesNotOverrideLdflags(t *testing.T) {
	resetBuildInfo(t)
	Version = "2.0.0" // as if injected at build time

	applyVersionFile("version: 1.0.0\ncommit: abc1234\n")

	if Version != "2.0.0" {
		t.Errorf("Version = %q, file must not override an injected value", Version)
	}
	if GitCommit != "abc1234" {
		t.Errorf("GitCommit = %q, defaults should still be filled", GitCommit)
	}
}
