package builder

import "testing"

func TestRemoteURL(t *testing.T) {
	tests := []struct {
		dep  string
		want string
	}{
		{"mirage", ""},
		{"cohttp", ""},
		{"git:https://example.com/lib.git", "https://example.com/lib.git"},
		{"gh:someone/lib", "https://github.com/someone/lib"},
		{"gl:someone/lib", "https://gitlab.com/someone/lib"},
		{"cb:someone/lib", "https://codeberg.org/someone/lib"},
	}

	for _, tt := range tests {
		if got := remoteURL(tt.dep); got != tt.want {
			t.Errorf("remoteURL(%q) = %q, want %q", tt.dep, got, tt.want)
		}
	}
}

func TestParseGitURL(t *testing.T) {
	tests := []struct {
		raw  string
		want gitURL
	}{
		{
			raw:  "https://github.com/someone/lib",
			want: gitURL{cleanURL: "https://github.com/someone/lib.git"},
		},
		{
			raw:  "https://github.com/someone/lib@main",
			want: gitURL{cleanURL: "https://github.com/someone/lib.git", branch: "main"},
		},
		{
			raw:  "https://github.com/someone/lib@main#0.1.0",
			want: gitURL{cleanURL: "https://github.com/someone/lib.git", branch: "main", commitOrTag: "0.1.0"},
		},
		{
			raw:  "https://github.com/someone/lib#12345abc",
			want: gitURL{cleanURL: "https://github.com/someone/lib.git", commitOrTag: "12345abc"},
		},
	}

	for _, tt := range tests {
		if got := parseGitURL(tt.raw); got != tt.want {
			t.Errorf("parseGitURL(%q) = %+v, want %+v", tt.raw, got, tt.want)
		}
	}
}

func TestFetchDepsSkipsPlainNames(t *testing.T) {
	// nothing git-addressed, nothing to do, no error
	if err := FetchDeps([]string{"mirage", "cohttp"}, t.TempDir(), 2); err != nil {
		t.Fatal(err)
	}
}
