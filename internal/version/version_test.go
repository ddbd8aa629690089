package version

import (
	"runtime"
	"strings"
	"testing"
)

func withBuildVars(t *testing.T, version, dirty string) {
	t.Helper()
	oldVersion, oldDirty := Version, Dirty
	Version, Dirty = version, dirty
	t.Cleanup(func() {
		Version, Dirty = oldVersion, oldDirty
	})
}

func TestString(t *testing.T) {
	withBuildVars(t, "1.2.3", "false")
	if got := String(); got != "1.2.3" {
		t.Errorf("String() = %q", got)
	}

	withBuildVars(t, "1.2.3", "true")
	if got := String(); got != "1.2.3-dirty" {
		t.Errorf("String() = %q", got)
	}
}

func TestGet(t *testing.T) {
	withBuildVars(t, "0.4.0", "true")
	info := Get()

	if info.Name != Name || info.Version != "0.4.0" || !info.Dirty {
		t.Errorf("Get() = %+v", info)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q", info.GoVersion)
	}
}

func TestFull(t *testing.T) {
	withBuildVars(t, "0.4.0", "false")
	full := Full()

	if !strings.HasPrefix(full, "itscooked 0.4.0\n") {
		t.Errorf("Full() = %q", full)
	}
	if strings.Contains(full, "Dirty") {
		t.Error("clean build should not report dirty")
	}
	if !strings.Contains(full, "OS/Arch:    "+runtime.GOOS) {
		t.Errorf("Full() missing platform: %q", full)
	}
}
