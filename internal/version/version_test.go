package version

import "testing"

func TestVersionDefaults(t *testing.T) {
	if Version == "" {
		t.Error("Version should have a default value")
	}
	_ = GitCommit
	_ = GitMessage
	_ = BuildDate
}

func TestVersionCanBeOverridden(t *testing.T) {
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	t.Cleanup(func() {
		Version, GitCommit, BuildDate = origVersion, origCommit, origDate
	})

	tests := []struct {
		name string
		ptr  *string
		vals []string
	}{
		{"version", &Version, []string{"0.3.0", "1.0.0-beta.1", "1.2.3-rc.1+build.123"}},
		{"commit", &GitCommit, []string{"abc123", "1234567890abcdef1234567890abcdef12345678", ""}},
		{"date", &BuildDate, []string{"2026-01-15", "2026-01-15T10:30:00Z", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, v := range tt.vals {
				*tt.ptr = v
				if *tt.ptr != v {
					t.Errorf("set %q, got %q", v, *tt.ptr)
				}
			}
		})
	}
}
