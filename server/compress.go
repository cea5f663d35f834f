package server

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// 按优先级排列的响应编码。
var encodings = []string{"zstd", "br", "gzip"}

// negotiateEncoding 从 Accept-Encoding 中挑选支持的编码；q=0 表示拒绝。
func negotiateEncoding(header string) string {
	if header == "" {
		return ""
	}
	accepted := map[string]bool{}
	for _, part := range strings.Split(header, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		name = strings.ToLower(strings.TrimSpace(name))
		if q := strings.TrimSpace(params); strings.HasPrefix(q, "q=") && strings.Trim(q[2:], "0.") == "" {
			continue
		}
		accepted[name] = true
	}
	for _, enc := range encodings {
		if accepted[enc] {
			return enc
		}
	}
	return ""
}

func encodeBody(enc string, body []byte) ([]byte, error) {
	var buf bytes.Buffer
	switch enc {
	case "zstd":
		zw, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		defer zw.Close()
		return zw.EncodeAll(body, nil), nil
	case "br":
		bw := brotli.NewWriter(&buf)
		if _, err := bw.Write(body); err != nil {
			_ = bw.Close()
			return nil, err
		}
		if err := bw.Close(); err != nil {
			return nil, err
		}
	case "gzip":
		gw := gzip.NewWriter(&buf)
		if _, err := gw.Write(body); err != nil {
			_ = gw.Close()
			return nil, err
		}
		if err := gw.Close(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported encoding %q", enc)
	}
	return buf.Bytes(), nil
}

// bufferedWriter 暂存响应，待处理函数返回后整体压缩。
type bufferedWriter struct {
	http.ResponseWriter
	buf  bytes.Buffer
	code int
}

func (w *bufferedWriter) WriteHeader(code int)        { w.code = code }
func (w *bufferedWriter) Write(b []byte) (int, error) { return w.buf.Write(b) }

// compressResponse 按 Accept-Encoding 压缩响应体。
func compressResponse(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		res := c.Response()
		res.Header().Add(echo.HeaderVary, echo.HeaderAcceptEncoding)
		enc := negotiateEncoding(c.Request().Header.Get(echo.HeaderAcceptEncoding))
		if enc == "" {
			return next(c)
		}
		orig := res.Writer
		bw := &bufferedWriter{ResponseWriter: orig, code: http.StatusOK}
		res.Writer = bw
		defer func() { res.Writer = orig }()
		if err := next(c); err != nil {
			c.Error(err)
		}
		res.Writer = orig

		body := bw.buf.Bytes()
		if len(body) == 0 {
			orig.WriteHeader(bw.code)
			return nil
		}
		data, err := encodeBody(enc, body)
		if err != nil {
			Logger().Warn("response compression failed", zap.String("encoding", enc), zap.Error(err))
			data = body
		} else {
			orig.Header().Set(echo.HeaderContentEncoding, enc)
		}
		orig.Header().Del(echo.HeaderContentLength)
		orig.WriteHeader(bw.code)
		_, err = orig.Write(data)
		return err
	}
}
