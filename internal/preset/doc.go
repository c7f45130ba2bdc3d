// Package preset defines the closed catalog of transcode profiles and the
// validated resize targets consumed by the job runner.
//
// Every argument list is either fixed at compile time (named presets) or
// assembled from clamped integers and enum-selected fragments (resize
// targets). No caller-supplied string is ever interpolated into an ffmpeg
// command line.
package preset
