package version

import (
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()
	if info.Version == "" {
		t.Error("Version must not be empty")
	}
	if !strings.HasPrefix(info.GoVersion, "go") {
		t.Errorf("GoVersion = %q, want go prefix", info.GoVersion)
	}
}

func TestString(t *testing.T) {
	info := Info{Version: "1.2.0"}
	if got := info.String(); got != "1.2.0" {
		t.Errorf("String() = %q, want %q", got, "1.2.0")
	}
	info.GitCommit = "abc1234"
	if got := info.String(); got != "1.2.0 (abc1234)" {
		t.Errorf("String() = %q, want %q", got, "1.2.0 (abc1234)")
	}
}
