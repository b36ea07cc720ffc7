package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/jackzampolin/wandr/internal/pipeline"
)

// universalDataMarker opens the script tag TikTok embeds its page
// state in. The carousel's item payload lives inside it.
const universalDataMarker = `<script id="__UNIVERSAL_DATA_FOR_REHYDRATION__" type="application/json">`

// itemStructPath walks the embedded JSON to the post payload. The
// photo post's data is served under the video detail page.
const itemStructPath = `__DEFAULT_SCOPE__.webapp\.video-detail.itemInfo.itemStruct`

// fetchCarousel scrapes the photo post's page for its image URLs and
// downloads every still into the work directory. Any image failing
// to download fails the whole carousel; a partial image set would
// silently understate the post.
func (d *Downloader) fetchCarousel(ctx context.Context, req pipeline.FetchRequest, parts URLParts) (*pipeline.Media, error) {
	pageJSON, err := d.fetchPageData(ctx, toVideoURL(req.URL))
	if err != nil {
		return nil, fmt.Errorf("carousel page: %w", err)
	}

	item := gjson.Get(pageJSON, itemStructPath)
	if !item.Exists() {
		return nil, fmt.Errorf("carousel page data missing item payload")
	}

	imageURLs := item.Get("imagePost.images.#.imageURL.urlList.0").Array()
	if len(imageURLs) == 0 {
		return nil, fmt.Errorf("no carousel images in page data")
	}

	media := &pipeline.Media{
		Kind:        pipeline.KindCarousel,
		Description: item.Get("desc").String(),
	}

	prefix := parts.FilePrefix()
	for i, imageURL := range imageURLs {
		path := filepath.Join(req.WorkDir, fmt.Sprintf("%s_%02d.jpg", prefix, i))
		if err := d.downloadFile(ctx, imageURL.String(), path); err != nil {
			return nil, fmt.Errorf("download image %d of %d: %w", i+1, len(imageURLs), err)
		}
		media.Images = append(media.Images, pipeline.ImageRef{
			Source: fmt.Sprintf("image_%d", i+1),
			Path:   path,
		})
	}

	d.log.Debug("carousel downloaded", "images", len(media.Images))
	return media, nil
}

// fetchPageData GETs the post page and extracts the embedded JSON
// payload from its rehydration script tag.
func (d *Downloader) fetchPageData(ctx context.Context, pageURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("User-Agent", d.cfg.UserAgent)

	resp, err := d.cfg.HTTPClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page request returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return extractEmbeddedJSON(string(body))
}

// extractEmbeddedJSON pulls the rehydration payload out of page HTML.
func extractEmbeddedJSON(page string) (string, error) {
	start := strings.Index(page, universalDataMarker)
	if start < 0 {
		return "", fmt.Errorf("page has no embedded data script")
	}
	rest := page[start+len(universalDataMarker):]
	end := strings.Index(rest, "</script>")
	if end < 0 {
		return "", fmt.Errorf("embedded data script not terminated")
	}
	return rest[:end], nil
}

// downloadFile streams a URL to a local path.
func (d *Downloader) downloadFile(ctx context.Context, fileURL, path string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return err
	}
	httpReq.Header.Set("User-Agent", d.cfg.UserAgent)

	resp, err := d.cfg.HTTPClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("image request returned %d", resp.StatusCode)
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return err
	}
	return nil
}
