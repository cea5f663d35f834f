// Package server 提供 HTTP 预览服务：每个请求对共享 Environment 做一次编译。
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/oklog/ulid/v2"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/ByLCY/inkwell/config"
	"github.com/ByLCY/inkwell/snippet"
)

// MIMEMsgpack 是 msgpack 请求与响应的内容类型。
const MIMEMsgpack = "application/msgpack"

const requestIDKey = "request_id"

// Server 持有共享的编译环境与 echo 实例。
type Server struct {
	Echo *echo.Echo
	env  *snippet.Environment
	cfg  config.Config
}

// compileRequest 中未给出的选项取配置默认值。
type compileRequest struct {
	Source      string   `json:"source" msgpack:"source"`
	Scale       *float64 `json:"scale,omitempty" msgpack:"scale,omitempty"`
	Autosize    *bool    `json:"autosize,omitempty" msgpack:"autosize,omitempty"`
	Transparent *bool    `json:"transparent,omitempty" msgpack:"transparent,omitempty"`
}

type errorResponse struct {
	Error string `json:"error" msgpack:"error"`
}

// New 创建服务并注册路由。
func New(env *snippet.Environment, cfg config.Config) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	s := &Server{Echo: e, env: env, cfg: cfg}

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.DefaultCORSConfig))
	e.Use(requestID)
	e.Use(compressResponse)
	e.Use(requestLog)

	e.GET("/healthz", s.health)
	e.POST("/compile", s.compile)
	return s
}

// Start listens on the configured address until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		Logger().Info("preview server listening", zap.String("addr", s.cfg.Server.Addr))
		errCh <- s.Echo.Start(s.cfg.Server.Addr)
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Echo.Shutdown(shutdownCtx)
	}
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"fonts":  s.env.Fonts(),
	})
}

func (s *Server) compile(c echo.Context) error {
	req := c.Request()
	req.Body = http.MaxBytesReader(c.Response(), req.Body, s.cfg.Server.MaxBody)
	body, err := io.ReadAll(req.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return s.reply(c, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
		}
		return s.reply(c, http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	var in compileRequest
	if isMsgpack(req.Header.Get(echo.HeaderContentType)) {
		err = msgpack.Unmarshal(body, &in)
	} else {
		err = json.Unmarshal(body, &in)
	}
	if err != nil {
		return s.reply(c, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request: %v", err)})
	}

	opts := snippet.Options{
		Scale:       s.cfg.Render.Scale,
		Autosize:    s.cfg.Render.Autosize,
		Transparent: s.cfg.Render.Transparent,
	}
	if in.Scale != nil {
		opts.Scale = *in.Scale
	}
	if in.Autosize != nil {
		opts.Autosize = *in.Autosize
	}
	if in.Transparent != nil {
		opts.Transparent = *in.Transparent
	}

	result, err := snippet.Compile(s.env, in.Source, opts)
	if err != nil {
		var f *snippet.Fault
		if errors.As(err, &f) && f.Kind == snippet.KindInvalidInput {
			return s.reply(c, http.StatusBadRequest, errorResponse{Error: f.Error()})
		}
		id, _ := c.Get(requestIDKey).(string)
		Logger().Error("compile fault", zap.String("id", id), zap.Error(err))
		return s.reply(c, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
	return s.reply(c, http.StatusOK, result)
}

// reply 按 Accept 头选择 msgpack 或 JSON。
func (s *Server) reply(c echo.Context, code int, v any) error {
	if !isMsgpack(c.Request().Header.Get(echo.HeaderAccept)) {
		return c.JSON(code, v)
	}
	data, err := msgpack.Marshal(v)
	if err != nil {
		return err
	}
	return c.Blob(code, MIMEMsgpack, data)
}

func isMsgpack(header string) bool {
	if header == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(header)
	return err == nil && (mt == MIMEMsgpack || mt == "application/x-msgpack")
}

// requestID 为每个请求分配 ULID（或沿用客户端给出的 X-Request-ID）。
func requestID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Request().Header.Get(echo.HeaderXRequestID)
		if id == "" {
			id = ulid.Make().String()
		}
		c.Response().Header().Set(echo.HeaderXRequestID, id)
		c.Set(requestIDKey, id)
		return next(c)
	}
}

func requestLog(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		id, _ := c.Get(requestIDKey).(string)
		Logger().Info("request",
			zap.String("id", id),
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().Status),
			zap.Duration("took", time.Since(start)))
		return nil
	}
}
