package launcher

import (
	"reflect"
	"testing"

	"github.com/servup/servup/internal/project"
)

func TestParseList(t *testing.T) {
	output := `🔎 Scanning for FrankenPHP servers...
PID     LISTEN               MODE     STARTED FROM                   CONFIG
------- -------------------- -------- ------------------------------ ------
123     *:8000               worker   /home/u/app                    .phpup/Caddyfile
456     *:8080               classic  .../sites/blog                 .phpup/Caddyfile.classic
789     -                    classic  -                              -
No FrankenPHP servers found for other users.
`

	got := ParseList(output)
	want := []project.ListedInstance{
		{PID: "123", Port: "8000", PathFragment: "/home/u/app"},
		{PID: "456", Port: "8080", PathFragment: "/sites/blog"},
		{PID: "789"},
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseList() = %+v, want %+v", got, want)
	}
}

func TestParseList_SkipsMalformedLines(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   int
	}{
		{"empty", "", 0},
		{"decorative only", "✨ nothing running\n---\n", 0},
		{"pid not numeric", "abc *:8000 /p/app .phpup\n", 0},
		{"header line", "PID LISTEN MODE\n", 0},
		{"valid among garbage", "???\n42 *:9000\njunk line\n", 1},
		{"negative pid rejected", "-1 *:8000\n", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseList(tt.output); len(got) != tt.want {
				t.Errorf("ParseList() returned %d instances, want %d: %+v", len(got), tt.want, got)
			}
		})
	}
}

func TestParseLine_OptionalFields(t *testing.T) {
	tests := []struct {
		name string
		line string
		want project.ListedInstance
		ok   bool
	}{
		{
			name: "pid only",
			line: "123",
			want: project.ListedInstance{PID: "123"},
			ok:   true,
		},
		{
			name: "pid and port, no path",
			line: "123 *:8000 worker",
			want: project.ListedInstance{PID: "123", Port: "8000"},
			ok:   true,
		},
		{
			name: "path without port",
			line: "123 classic /home/u/app .phpup/Caddyfile",
			want: project.ListedInstance{PID: "123", PathFragment: "/home/u/app"},
			ok:   true,
		},
		{
			name: "truncation marker stripped",
			line: "55 *:8001 .../deep/dir .phpup",
			want: project.ListedInstance{PID: "55", Port: "8001", PathFragment: "/deep/dir"},
			ok:   true,
		},
		{
			name: "marker directly after pid has no path",
			line: "55 .phpup/Caddyfile",
			want: project.ListedInstance{PID: "55"},
			ok:   true,
		},
		{
			name: "malformed port token ignored",
			line: "55 *:80a0 /p/app .phpup",
			want: project.ListedInstance{PID: "55", PathFragment: "/p/app"},
			ok:   true,
		},
		{
			name: "no leading pid",
			line: "*:8000 /p/app .phpup",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseLine(tt.line)
			if ok != tt.ok {
				t.Fatalf("parseLine(%q) ok = %v, want %v", tt.line, ok, tt.ok)
			}
			if ok && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseLine(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}
