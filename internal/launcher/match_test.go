package launcher

import "testing"

func TestMatches(t *testing.T) {
	tests := []struct {
		name        string
		projectPath string
		fragment    string
		want        bool
	}{
		{
			name:        "truncated suffix",
			projectPath: "/home/u/proj",
			fragment:    ".../proj",
			want:        true,
		},
		{
			name:        "exact path",
			projectPath: "/home/u/proj",
			fragment:    "/home/u/proj",
			want:        true,
		},
		{
			name:        "containment",
			projectPath: "/home/u/proj",
			fragment:    "u/pro",
			want:        true,
		},
		{
			name:        "different parent fails",
			projectPath: "/home/u/proj",
			fragment:    "/var/x/proj",
			want:        false,
		},
		{
			name:        "truncated with matching parent",
			projectPath: "/home/u/proj",
			fragment:    ".../u/proj",
			want:        true,
		},
		{
			name:        "fragment ends with last two segments",
			projectPath: "/home/u/proj",
			fragment:    "/mnt/backup/home/u/proj/",
			want:        true,
		},
		{
			name:        "equal last-two suffixes",
			projectPath: "/srv/www/site",
			fragment:    "/data/www/site",
			want:        true,
		},
		{
			name:        "single segment path",
			projectPath: "/proj",
			fragment:    "/other/proj",
			want:        true,
		},
		{
			name:        "empty fragment",
			projectPath: "/home/u/proj",
			fragment:    "",
			want:        false,
		},
		{
			name:        "bare truncation marker",
			projectPath: "/home/u/proj",
			fragment:    "...",
			want:        false,
		},
		{
			name:        "unrelated",
			projectPath: "/home/u/proj",
			fragment:    "/opt/tool/bin",
			want:        false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.projectPath, tt.fragment); got != tt.want {
				t.Errorf("Matches(%q, %q) = %v, want %v", tt.projectPath, tt.fragment, got, tt.want)
			}
		})
	}
}

func TestLastTwoSegments(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/home/u/proj", "u/proj"},
		{"/proj", "proj"},
		{"proj", "proj"},
		{"/home/u/proj/", "u/proj"},
		{"", ""},
		{"/", ""},
	}

	for _, tt := range tests {
		if got := lastTwoSegments(tt.path); got != tt.want {
			t.Errorf("lastTwoSegments(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
