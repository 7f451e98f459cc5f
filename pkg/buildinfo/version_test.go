package buildinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestFill(t *testing.T) {
	bi := &debug.BuildInfo{
		Main: debug.Module{Path: "github.com/matzehuels/railmap", Version: "v0.4.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs", Value: "git"},
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
		},
	}

	got := fill(Info{Version: "dev", Commit: "none", Date: "unknown"}, bi)
	want := Info{Version: "v0.4.1", Commit: "abc123", Date: "2026-01-02T03:04:05Z"}
	if got != want {
		t.Errorf("fill(defaults) = %+v, want %+v", got, want)
	}

	release := Info{Version: "v1.0.0", Commit: "fff", Date: "2026-10-01"}
	if got := fill(release, bi); got != release {
		t.Errorf("fill(ldflags) = %+v, want ldflags values kept", got)
	}

	devel := &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}
	if got := fill(Info{Version: "dev"}, devel); got.Version != "dev" {
		t.Errorf("(devel) build reported version %q", got.Version)
	}
}

func TestTemplateAndUserAgent(t *testing.T) {
	info := Get()
	if !strings.Contains(Template(), "version "+info.Version) {
		t.Errorf("Template() = %q", Template())
	}
	if got := UserAgent(); got != "railmap/"+info.Version {
		t.Errorf("UserAgent() = %q", got)
	}
}
