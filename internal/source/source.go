// Package source validates submission inputs and extracts video identifiers
// from external video URLs.
package source

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:v=|/v/|youtu\.be/)([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`(?:embed/)([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`(?:shorts/)([a-zA-Z0-9_-]{11})`),
}

// VideoID extracts the 11 character video id from a YouTube URL.
func VideoID(rawURL string) (string, bool) {
	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(rawURL); len(m) == 2 {
			return m[1], true
		}
	}
	return "", false
}

// IsVideoURL reports whether the URL points at a supported video host.
func IsVideoURL(rawURL string) bool {
	return strings.Contains(rawURL, "youtube.com") || strings.Contains(rawURL, "youtu.be")
}

// WatchURL builds a deep link that starts playback at the given offset.
func WatchURL(videoID string, seconds int) string {
	link := "https://www.youtube.com/watch?v=" + url.QueryEscape(videoID)
	if seconds > 0 {
		link += "&t=" + strconv.Itoa(seconds) + "s"
	}
	return link
}

var uploadExtensions = map[string]bool{
	".mp3": true, ".mp4": true, ".m4a": true, ".wav": true, ".ogg": true,
	".webm": true, ".flac": true, ".mpeg": true, ".mpga": true, ".avi": true,
	".mkv": true, ".mov": true, ".wma": true, ".aac": true,
}

// UploadExtensions lists accepted upload extensions in sorted order.
func UploadExtensions() []string {
	out := make([]string, 0, len(uploadExtensions))
	for ext := range uploadExtensions {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// CheckUpload validates a local file name and size against the server's
// accepted extensions and upload limit. maxMB <= 0 disables the size check.
func CheckUpload(path string, size int64, maxMB int) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !uploadExtensions[ext] {
		if ext == "" {
			return fmt.Errorf("unsupported file type: no extension")
		}
		return fmt.Errorf("unsupported file type: %s", ext)
	}
	if maxMB > 0 && size > int64(maxMB)*1024*1024 {
		return fmt.Errorf("file too large: max %d MB", maxMB)
	}
	return nil
}
