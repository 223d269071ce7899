package bootstrap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	"zombiezen.com/go/log"

	"github.com/venvman/venvman/internal/messages"
)

// Fetcher downloads a URL into a local file, resuming a partial file when the
// server supports range requests. It is chosen once at startup and injected
// into the bootstrapper.
type Fetcher interface {
	Fetch(ctx context.Context, url string, dest string) error
}

// HTTPFetcher implements Fetcher with net/http and Range-based resume.
type HTTPFetcher struct {
	Client *http.Client
}

// NewHTTPFetcher returns the default fetcher.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{Client: http.DefaultClient}
}

// Fetch downloads url to dest. A pre-existing partial file at dest+".partial"
// is resumed with a Range request; on success the partial file is renamed
// into place.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string, dest string) error {
	partial := dest + ".partial"
	var offset int64
	if info, err := os.Stat(partial); err == nil {
		offset = info.Size()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf(messages.BootstrapDownloadFailedFmt, url, err)
	}
	if offset > 0 {
		req.Header.Set("Range", "bytes="+strconv.FormatInt(offset, 10)+"-")
	}

	resp, err := f.client().Do(req)
	if err != nil {
		return fmt.Errorf(messages.BootstrapDownloadFailedFmt, url, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	flags := os.O_CREATE | os.O_WRONLY
	switch resp.StatusCode {
	case http.StatusPartialContent:
		flags |= os.O_APPEND
		log.Debugf(ctx, "resuming %s at offset %d", url, offset)
	case http.StatusOK:
		// Server ignored the range; start over.
		flags |= os.O_TRUNC
	default:
		return fmt.Errorf(messages.BootstrapBadStatusFmt, url, resp.Status)
	}

	out, err := os.OpenFile(partial, flags, 0o644)
	if err != nil {
		return fmt.Errorf(messages.BootstrapDownloadFailedFmt, url, err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		// Keep the partial file so a retry can resume.
		return fmt.Errorf(messages.BootstrapDownloadFailedFmt, url, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf(messages.BootstrapDownloadFailedFmt, url, err)
	}
	if err := os.Rename(partial, dest); err != nil {
		return fmt.Errorf(messages.BootstrapDownloadFailedFmt, url, err)
	}
	return nil
}

func (f *HTTPFetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}
