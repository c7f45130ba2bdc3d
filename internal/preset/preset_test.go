package preset

import (
	"strings"
	"testing"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		id      string
		wantErr bool
	}{
		{"web", false},
		{"social", false},
		{"mobile", false},
		{"quality", false},
		{"WEB", false},
		{"  web  ", false},
		{"4k", true},
		{"", true},
		{"-i /etc/passwd", true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			p, err := Lookup(tt.id)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Lookup(%q) expected error, got preset %q", tt.id, p.ID)
				}
				return
			}
			if err != nil {
				t.Fatalf("Lookup(%q) returned error: %v", tt.id, err)
			}
			if p.ContentType != "video/mp4" {
				t.Errorf("Expected content type video/mp4, got %s", p.ContentType)
			}
			if len(p.Args) == 0 {
				t.Error("Expected non-empty argument list")
			}
		})
	}
}

func TestIDs(t *testing.T) {
	ids := IDs()
	if len(ids) != len(catalog) {
		t.Fatalf("IDs() returned %d entries, want %d", len(ids), len(catalog))
	}
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			t.Errorf("IDs() not sorted: %q before %q", ids[i-1], ids[i])
		}
	}
}

func TestPresetArgsAreStatic(t *testing.T) {
	// No preset argument may contain shell metacharacters beyond the fixed
	// filter expressions, and none may reference a path.
	for id, p := range catalog {
		for _, arg := range p.Args {
			if strings.Contains(arg, "..") || strings.HasPrefix(arg, "/") {
				t.Errorf("preset %s contains path-like argument %q", id, arg)
			}
		}
	}
}

func TestParseResize(t *testing.T) {
	tests := []struct {
		name       string
		width      string
		height     string
		mode       string
		quality    string
		wantErr    bool
		wantWidth  int
		wantHeight int
	}{
		{"Valid", "1280", "720", "fit", "medium", false, 1280, 720},
		{"Defaults", "640", "480", "", "", false, 640, 480},
		{"Stretch", "320", "240", "stretch", "high", false, 320, 240},
		{"Clamped low", "1", "4", "fit", "low", false, MinDimension, MinDimension},
		{"Clamped high", "99999", "8000", "fit", "low", false, MaxDimension, MaxDimension},
		{"Odd rounded to even", "641", "481", "fit", "medium", false, 640, 480},
		{"Non-numeric width", "abc", "480", "fit", "medium", true, 0, 0},
		{"Non-numeric height", "640", "", "fit", "medium", true, 0, 0},
		{"Injection as width", "640;rm -rf /", "480", "fit", "medium", true, 0, 0},
		{"Unknown mode", "640", "480", "crop", "medium", true, 0, 0},
		{"Unknown quality", "640", "480", "fit", "lossless", true, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := ParseResize(tt.width, tt.height, tt.mode, tt.quality)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseResize expected error, got %+v", spec)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseResize returned error: %v", err)
			}
			if spec.Width != tt.wantWidth || spec.Height != tt.wantHeight {
				t.Errorf("Expected %dx%d, got %dx%d", tt.wantWidth, tt.wantHeight, spec.Width, spec.Height)
			}
		})
	}
}

func TestResizeSpecArgs(t *testing.T) {
	spec, err := ParseResize("1280", "720", "fit", "high")
	if err != nil {
		t.Fatal(err)
	}

	args := joinArgs(spec.Args())

	if !strings.Contains(args, "scale=1280:720") {
		t.Errorf("Expected scale filter in args, got %s", args)
	}
	if !strings.Contains(args, "-crf 22") {
		t.Errorf("Expected high quality CRF 22, got %s", args)
	}
	if !strings.Contains(args, "force_original_aspect_ratio=decrease") {
		t.Errorf("Expected fit mode aspect handling, got %s", args)
	}

	stretch, err := ParseResize("1280", "720", "stretch", "low")
	if err != nil {
		t.Fatal(err)
	}
	stretchArgs := joinArgs(stretch.Args())
	if strings.Contains(stretchArgs, "force_original_aspect_ratio") {
		t.Errorf("Stretch mode should not preserve aspect, got %s", stretchArgs)
	}
	if !strings.Contains(stretchArgs, "-crf 32") {
		t.Errorf("Expected low quality CRF 32, got %s", stretchArgs)
	}
}

func joinArgs(args []string) string {
	return strings.Join(args, " ")
}

func TestAllowedExtension(t *testing.T) {
	tests := []struct {
		filename string
		allowed  bool
	}{
		{"video.mp4", true},
		{"video.MOV", true},
		{"clip.mkv", true},
		{"clip.webm", true},
		{"old.avi", true},
		{"notes.txt", false},
		{"archive.zip", false},
		{"image.jpg", false},
		{"noextension", false},
		{"", false},
		{"evil.mp4.exe", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := AllowedExtension(tt.filename); got != tt.allowed {
				t.Errorf("AllowedExtension(%q) = %v, want %v", tt.filename, got, tt.allowed)
			}
		})
	}
}
