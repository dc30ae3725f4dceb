package upstream

import (
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

const acceptEncoding = "gzip, br, zstd"

// decompressBody wraps a completed response body according to its
// Content-Encoding. Unknown encodings pass through untouched.
func decompressBody(resp *http.Response) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		return &wrappedBody{reader: zr, underlying: resp.Body}, nil
	case "br":
		return &wrappedBody{reader: io.NopCloser(brotli.NewReader(resp.Body)), underlying: resp.Body}, nil
	case "zstd":
		zr, err := zstd.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		return &wrappedBody{reader: zr.IOReadCloser(), underlying: resp.Body}, nil
	default:
		return resp.Body, nil
	}
}

// wrappedBody closes both the decoder and the underlying body.
type wrappedBody struct {
	reader     io.ReadCloser
	underlying io.ReadCloser
}

func (w *wrappedBody) Read(p []byte) (int, error) { return w.reader.Read(p) }

func (w *wrappedBody) Close() error {
	err := w.reader.Close()
	if uerr := w.underlying.Close(); err == nil {
		err = uerr
	}
	return err
}
