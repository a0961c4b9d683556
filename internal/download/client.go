// Package download implements the resumable, checksum-verified download
// engine used for server builds and model weights, plus the archive
// extraction that installs them.
package download

import (
	"fmt"
	"net"
	"net/http"
	"time"
)

// Some release mirrors reject requests without a browser user agent.
const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

const (
	requestTimeout = 600 * time.Second
	connectTimeout = 30 * time.Second
	maxRedirects   = 10
)

func newClient() *http.Client {
	return &http.Client{
		Timeout: requestTimeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout: connectTimeout,
			}).DialContext,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
}

func setRequestHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	// Transparent compression would corrupt byte offsets across resumes.
	req.Header.Set("Accept-Encoding", "identity")
}
