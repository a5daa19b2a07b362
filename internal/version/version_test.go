package version

import (
	"runtime"
	"strings"
	"testing"
)

func withVars(t *testing.T, version, commit, dirty string) {
	t.Helper()
	oldV, oldC, oldD := Version, Commit, Dirty
	Version, Commit, Dirty = version, commit, dirty
	t.Cleanup(func() { Version, Commit, Dirty = oldV, oldC, oldD })
}

func TestGet_LdflagsWin(t *testing.T) {
	withVars(t, "1.2.3", "abc123", "false")

	info := Get()
	if info.Version != "1.2.3" || info.Commit != "abc123" || info.Dirty {
		t.Errorf("unexpected info %+v", info)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %s", info.GoVersion)
	}
}

func TestString_Dirty(t *testing.T) {
	withVars(t, "1.2.3", "abc123", "true")

	if got := String(); got != "1.2.3-dirty" {
		t.Errorf("String() = %q", got)
	}
}

func TestFull_Lines(t *testing.T) {
	withVars(t, "1.2.3", "abc123", "false")

	full := Full()
	for _, want := range []string{"staysearch 1.2.3", "Commit:     abc123", "OS/Arch:"} {
		if !strings.Contains(full, want) {
			t.Errorf("Full() missing %q:\n%s", want, full)
		}
	}
	if strings.Contains(full, "Dirty") {
		t.Error("clean build should not print Dirty")
	}
}
