package fetch

import "strings"

// ContentType classifies a TikTok URL by its path shape.
type ContentType string

const (
	ContentVideo   ContentType = "video"
	ContentPhoto   ContentType = "photo"
	ContentShort   ContentType = "short"
	ContentUnknown ContentType = "unknown"
)

// URLParts are the pieces of a TikTok URL the fetcher cares about.
type URLParts struct {
	VideoID     string
	Username    string
	ContentType ContentType
}

// ParseURL breaks a TikTok URL into its parts. Unrecognized shapes
// yield ContentUnknown with VideoID "unknown" rather than an error;
// the downstream fetch decides whether that is fatal.
func ParseURL(rawURL string) URLParts {
	parts := URLParts{VideoID: extractVideoID(rawURL), ContentType: ContentUnknown}

	switch {
	case strings.Contains(rawURL, "/t/"):
		parts.ContentType = ContentShort
	case strings.Contains(rawURL, "/@"):
		for _, segment := range strings.Split(rawURL, "/") {
			if strings.HasPrefix(segment, "@") {
				parts.Username = strings.TrimPrefix(segment, "@")
				break
			}
		}
		if strings.Contains(rawURL, "/video/") {
			parts.ContentType = ContentVideo
		} else if strings.Contains(rawURL, "/photo/") {
			parts.ContentType = ContentPhoto
		}
	}
	return parts
}

// extractVideoID pulls the numeric content id out of the URL path.
func extractVideoID(rawURL string) string {
	if idx := strings.Index(rawURL, "/t/"); idx >= 0 {
		rest := strings.TrimRight(rawURL[idx+len("/t/"):], "/")
		return firstSegment(rest)
	}
	for _, marker := range []string{"/video/", "/photo/"} {
		if idx := strings.Index(rawURL, marker); idx >= 0 {
			return firstSegment(rawURL[idx+len(marker):])
		}
	}
	return "unknown"
}

func firstSegment(s string) string {
	s, _, _ = strings.Cut(s, "/")
	s, _, _ = strings.Cut(s, "?")
	return s
}

// FilePrefix returns a stable artifact name prefix for the URL, used
// to name downloaded files.
func (p URLParts) FilePrefix() string {
	switch {
	case p.ContentType == ContentShort:
		return "t_" + p.VideoID
	case p.ContentType == ContentVideo && p.Username != "":
		return p.Username + "_video_" + p.VideoID
	case p.ContentType == ContentPhoto && p.Username != "":
		return p.Username + "_photo_" + p.VideoID
	}
	return p.VideoID
}

// toVideoURL rewrites a photo URL to its video form. TikTok serves
// the photo post's metadata and page data under the video path.
func toVideoURL(rawURL string) string {
	return strings.Replace(rawURL, "/photo/", "/video/", 1)
}
