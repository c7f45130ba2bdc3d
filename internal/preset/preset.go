package preset

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Preset is a named, fixed transcode profile. Args is the argument list
// placed between the input and output paths on the ffmpeg command line.
// Argument lists are fixed at compile time: caller input never reaches
// them, which is what makes preset selection injection-safe.
type Preset struct {
	ID          string
	Description string
	Args        []string
	ContentType string
}

// Orientation-safe long-edge scaling: caps the long edge and preserves
// aspect, landscape or portrait. -2 keeps dimensions even for yuv420p.
const (
	scale720  = "scale='if(gt(a,1),-2,720)':'if(gt(a,1),720,-2)':flags=fast_bilinear,setsar=1"
	scale480  = "scale='if(gt(a,1),-2,480)':'if(gt(a,1),480,-2)':flags=fast_bilinear,setsar=1"
	faststart = "+faststart"
)

var catalog = map[string]Preset{
	"web": {
		ID:          "web",
		Description: "Balanced compression for web delivery",
		Args: []string{
			"-c:v", "libx264", "-crf", "26", "-preset", "veryfast",
			"-pix_fmt", "yuv420p",
			"-c:a", "aac", "-b:a", "128k",
			"-movflags", faststart,
			"-f", "mp4",
		},
		ContentType: "video/mp4",
	},
	"social": {
		ID:          "social",
		Description: "720p long edge for social platforms",
		Args: []string{
			"-vf", scale720,
			"-c:v", "libx264", "-crf", "28", "-preset", "veryfast",
			"-pix_fmt", "yuv420p",
			"-c:a", "aac", "-b:a", "96k", "-ac", "2",
			"-movflags", faststart,
			"-f", "mp4",
		},
		ContentType: "video/mp4",
	},
	"mobile": {
		ID:          "mobile",
		Description: "Small and fast, 480p long edge",
		Args: []string{
			"-vf", scale480,
			"-c:v", "libx264", "-crf", "32", "-preset", "ultrafast",
			"-pix_fmt", "yuv420p",
			"-c:a", "aac", "-b:a", "64k", "-ac", "1",
			"-movflags", faststart,
			"-f", "mp4",
		},
		ContentType: "video/mp4",
	},
	"quality": {
		ID:          "quality",
		Description: "Slower encode, higher fidelity",
		Args: []string{
			"-c:v", "libx264", "-crf", "22", "-preset", "fast",
			"-pix_fmt", "yuv420p",
			"-c:a", "aac", "-b:a", "192k",
			"-movflags", faststart,
			"-f", "mp4",
		},
		ContentType: "video/mp4",
	},
}

// Lookup returns the preset for the given id.
func Lookup(id string) (Preset, error) {
	p, ok := catalog[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return Preset{}, fmt.Errorf("unknown preset %q", id)
	}
	return p, nil
}

// IDs returns the sorted list of available preset ids.
func IDs() []string {
	ids := make([]string, 0, len(catalog))
	for id := range catalog {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FrameMode controls how a resize target is applied.
type FrameMode string

const (
	// ModeFit scales to fit within the target box, preserving aspect.
	ModeFit FrameMode = "fit"
	// ModeStretch scales to exactly the target dimensions.
	ModeStretch FrameMode = "stretch"
)

// Quality selects the encoder quality for resize jobs.
type Quality string

const (
	QualityLow    Quality = "low"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
)

// crfFor maps a quality level to a CRF value.
var crfFor = map[Quality]string{
	QualityLow:    "32",
	QualityMedium: "26",
	QualityHigh:   "22",
}

// Dimension bounds for resize targets. Values outside the range are
// clamped, and odd values are rounded down to even for yuv420p.
const (
	MinDimension = 16
	MaxDimension = 3840
)

// ResizeSpec is a validated resize target. Construct it with ParseResize
// so that dimensions are clamped and enums are checked; the zero value is
// not usable.
type ResizeSpec struct {
	Width   int
	Height  int
	Mode    FrameMode
	Quality Quality
}

// ParseResize validates raw request values into a ResizeSpec. Width and
// height must parse as integers; they are then clamped to
// [MinDimension, MaxDimension] and rounded down to even. Mode and quality
// must come from their closed enums (empty selects the default). Caller
// strings never flow into the argument list: only the parsed numbers and
// enum-selected fragments do.
func ParseResize(widthStr, heightStr, modeStr, qualityStr string) (ResizeSpec, error) {
	width, err := strconv.Atoi(strings.TrimSpace(widthStr))
	if err != nil {
		return ResizeSpec{}, fmt.Errorf("invalid width %q", widthStr)
	}

	height, err := strconv.Atoi(strings.TrimSpace(heightStr))
	if err != nil {
		return ResizeSpec{}, fmt.Errorf("invalid height %q", heightStr)
	}

	spec := ResizeSpec{
		Width:  clampDimension(width),
		Height: clampDimension(height),
	}

	switch FrameMode(strings.ToLower(strings.TrimSpace(modeStr))) {
	case ModeFit, "":
		spec.Mode = ModeFit
	case ModeStretch:
		spec.Mode = ModeStretch
	default:
		return ResizeSpec{}, fmt.Errorf("invalid frame mode %q", modeStr)
	}

	switch Quality(strings.ToLower(strings.TrimSpace(qualityStr))) {
	case QualityMedium, "":
		spec.Quality = QualityMedium
	case QualityLow:
		spec.Quality = QualityLow
	case QualityHigh:
		spec.Quality = QualityHigh
	default:
		return ResizeSpec{}, fmt.Errorf("invalid quality %q", qualityStr)
	}

	return spec, nil
}

func clampDimension(v int) int {
	if v < MinDimension {
		v = MinDimension
	}
	if v > MaxDimension {
		v = MaxDimension
	}
	return v &^ 1 // round down to even
}

// Args builds the ffmpeg argument list for the resize target.
func (s ResizeSpec) Args() []string {
	var vf string
	switch s.Mode {
	case ModeStretch:
		vf = fmt.Sprintf("scale=%d:%d:flags=fast_bilinear,setsar=1", s.Width, s.Height)
	default:
		// force_divisible_by keeps the scaled-to-fit dimensions even
		// for yuv420p.
		vf = fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease:force_divisible_by=2:flags=fast_bilinear,setsar=1", s.Width, s.Height)
	}

	return []string{
		"-vf", vf,
		"-c:v", "libx264", "-crf", crfFor[s.Quality], "-preset", "veryfast",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac", "-b:a", "128k",
		"-movflags", faststart,
		"-f", "mp4",
	}
}

// ContentType returns the MIME type of resize output.
func (s ResizeSpec) ContentType() string {
	return "video/mp4"
}

// allowedExtensions is the upload admission allow-list. Anything not in
// this set is rejected before a scratch file is created.
var allowedExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".mkv":  true,
	".avi":  true,
	".webm": true,
	".m4v":  true,
	".mpg":  true,
	".mpeg": true,
	".wmv":  true,
	".flv":  true,
	".3gp":  true,
}

// AllowedExtension reports whether the uploaded filename carries an
// accepted video container extension.
func AllowedExtension(filename string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(filename))]
}
