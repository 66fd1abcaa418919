package build

import (
	"reflect"
	"testing"
)

func TestResolveTags_ShaAndLatest(t *testing.T) {
	v := TagValues{SHA: "abc123", Branch: "main", Repository: "owner/tool"}

	got := ResolveTags([]string{"latest", "{sha}"}, v)
	want := []string{"latest", "abc123"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ResolveTags = %v, want %v", got, want)
	}

	// Deterministic: identical inputs always produce identical tags.
	again := ResolveTags([]string{"latest", "{sha}"}, v)
	if !reflect.DeepEqual(got, again) {
		t.Errorf("ResolveTags not deterministic: %v vs %v", got, again)
	}
}

func TestResolveTags_ShaWidth(t *testing.T) {
	v := TagValues{SHA: "0123456789abcdef0123456789abcdef01234567"}

	tests := []struct {
		tmpl string
		want string
	}{
		{"{sha}", "0123456789abcdef0123456789abcdef01234567"},
		{"{sha:7}", "0123456"},
		{"{sha:12}", "0123456789ab"},
		{"v-{sha:4}", "v-0123"},
		{"{shave}", "{shave}"},
		{"{sha:x}", "{sha:x}"},
		{"{sha:0}", "{sha:0}"},
		{"{shave}-{sha:4}", "{shave}-0123"},
	}
	for _, tt := range tests {
		if got := resolveOne(tt.tmpl, v); got != tt.want {
			t.Errorf("resolveOne(%q) = %q, want %q", tt.tmpl, got, tt.want)
		}
	}
}

func TestResolveTags_BranchSanitized(t *testing.T) {
	v := TagValues{Branch: "feature/fast builds"}
	if got := resolveOne("{branch}", v); got != "feature-fast-builds" {
		t.Errorf("branch tag = %q", got)
	}
}

func TestResolveTags_VersionTemplates(t *testing.T) {
	v := TagValues{
		Version: &VersionInfo{Version: "1.2.3", Major: "1", Minor: "2", Patch: "3"},
	}

	got := ResolveTags([]string{"{version}", "{major}.{minor}", "{major}"}, v)
	want := []string{"1.2.3", "1.2", "1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ResolveTags = %v, want %v", got, want)
	}
}

func TestResolvePath_Repo(t *testing.T) {
	v := TagValues{Repository: "Owner/Tool"}
	if got := ResolvePath("{repo}", v); got != "owner/tool" {
		t.Errorf("ResolvePath = %q, want lowercased owner/tool", got)
	}
}

func TestQualifyRef(t *testing.T) {
	if got := QualifyRef("ghcr.io", "owner/tool", "abc123"); got != "ghcr.io/owner/tool:abc123" {
		t.Errorf("QualifyRef = %q", got)
	}
}

func TestRegistryTargetRefs_AlwaysQualified(t *testing.T) {
	target := RegistryTarget{
		URL:  "ghcr.io",
		Path: "owner/tool",
		Tags: []string{"latest", "abc123"},
	}

	got := target.Refs()
	want := []string{"ghcr.io/owner/tool:latest", "ghcr.io/owner/tool:abc123"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Refs = %v, want %v", got, want)
	}
}
