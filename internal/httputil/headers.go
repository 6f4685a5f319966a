package httputil

import "net/http"

// BrowserHeaders returns common browser-like headers for scraped shops.
func BrowserHeaders() http.Header {
	h := http.Header{}
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", "sv-SE,sv;q=0.9,en;q=0.8")
	h.Set("Accept-Encoding", "gzip, deflate, br")
	h.Set("Connection", "keep-alive")
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", "none")
	h.Set("Sec-Fetch-User", "?1")
	return h
}

// FeedHeaders returns headers for affiliate feed downloads, which are
// plain machine-to-machine fetches.
func FeedHeaders() http.Header {
	h := http.Header{}
	h.Set("Accept", "text/csv,application/xml,text/xml;q=0.9,*/*;q=0.8")
	h.Set("Accept-Encoding", "gzip, br")
	h.Set("User-Agent", "outfitscout/1.0 (+https://github.com/fyndra/outfitscout)")
	return h
}
