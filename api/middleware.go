package api

import (
	"compress/gzip"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

var errBodyTooLarge = errors.New("request body exceeds size limit")

// GzipRequest transparently decompresses gzip-encoded request bodies
// so the handlers only ever see plain JSON. The request size cap is
// enforced on the decompressed stream: a small compressed body cannot
// expand past requestBodyMaxSize. A body that claims gzip encoding but
// does not parse is rejected with 400.
func GzipRequest() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !declaresGzip(req.Header.Get(echo.HeaderContentEncoding)) {
				return next(c)
			}

			gr, err := gzip.NewReader(req.Body)
			if err != nil {
				_ = req.Body.Close()
				return echo.NewHTTPError(http.StatusBadRequest, "invalid gzip body")
			}

			req.Body = &gzipBody{gz: gr, inner: req.Body, remain: requestBodyMaxSize}
			req.ContentLength = -1
			req.Header.Del(echo.HeaderContentEncoding)
			req.Header.Del(echo.HeaderContentLength)

			return next(c)
		}
	}
}

func declaresGzip(header string) bool {
	if header == "" {
		return false
	}
	for _, enc := range strings.Split(header, ",") {
		if strings.EqualFold(strings.TrimSpace(enc), "gzip") {
			return true
		}
	}
	return false
}

// gzipBody streams the decompressed request body while counting bytes
// against the remaining budget. Crossing the budget fails the read, so
// a handler never buffers more than requestBodyMaxSize of payload no
// matter the compression ratio.
type gzipBody struct {
	gz     *gzip.Reader
	inner  io.Closer
	remain int64
}

func (g *gzipBody) Read(p []byte) (int, error) {
	if g.remain < 0 {
		return 0, errBodyTooLarge
	}
	n, err := g.gz.Read(p)
	g.remain -= int64(n)
	if g.remain < 0 {
		return n, errBodyTooLarge
	}
	return n, err
}

func (g *gzipBody) Close() error {
	var err error
	if g.gz != nil {
		err = g.gz.Close()
	}
	if g.inner != nil {
		if cerr := g.inner.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
