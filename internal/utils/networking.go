package utils

import (
	"fmt"
	"math/rand/v2"
	"net/textproto"
	"slices"
	"strings"
)

func RandomUserAgent() string {
	const minMajor = 132
	const maxMajor = 138

	major := rand.IntN(maxMajor-minMajor+1) + minMajor
	return fmt.Sprintf(
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%d.0.0.0 Safari/537.36",
		major,
	)
}

var defaultMediaHeaders = map[string]string{
	"Referer":         "https://www.youtube.com/",
	"Origin":          "https://www.youtube.com",
	"Accept":          "*/*",
	"Accept-Language": "en-US,en;q=0.9",
	"Connection":      "keep-alive",
}

// BuildFFmpegHeaders renders http headers for the avformat "headers" option
// as sorted "Key: Value\r\n" lines. Keys are canonicalized; the first
// spelling of a duplicate wins and browser-like defaults fill the gaps.
func BuildFFmpegHeaders(base map[string]string) string {
	h := make(map[string]string, len(base)+len(defaultMediaHeaders)+1)
	keys := make([]string, 0, len(base))
	for k := range base {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		ck := textproto.CanonicalMIMEHeaderKey(strings.TrimSpace(k))
		if ck == "" {
			continue
		}
		if _, dup := h[ck]; !dup {
			h[ck] = strings.TrimSpace(base[k])
		}
	}
	for k, v := range defaultMediaHeaders {
		if _, ok := h[k]; !ok {
			h[k] = v
		}
	}
	if _, ok := h["User-Agent"]; !ok {
		h["User-Agent"] = RandomUserAgent()
	}

	out := make([]string, 0, len(h))
	for k := range h {
		out = append(out, k)
	}
	slices.Sort(out)

	var b strings.Builder
	for _, k := range out {
		fmt.Fprintf(&b, "%s: %s\r\n", k, h[k])
	}
	return b.String()
}
