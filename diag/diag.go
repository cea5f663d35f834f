// Package diag 定义排版引擎产生的诊断信息以及资源访问错误。
package diag

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ByLCY/inkwell/source"
)

// Severity 表示诊断的严重级别。
type Severity uint8

const (
	SevError Severity = iota
	SevWarning
)

func (s Severity) String() string {
	switch s {
	case SevError:
		return "error"
	case SevWarning:
		return "warning"
	}
	return "unknown"
}

// SourceDiagnostic 是引擎报告的一条问题，Span 指向引擎实际编译的文本。
type SourceDiagnostic struct {
	Severity Severity
	Span     source.Span
	Message  string
	Hints    []string
}

// Error 构造 error 级别诊断。
func Error(span source.Span, format string, args ...any) SourceDiagnostic {
	return SourceDiagnostic{Severity: SevError, Span: span, Message: fmt.Sprintf(format, args...)}
}

// Warning 构造 warning 级别诊断。
func Warning(span source.Span, format string, args ...any) SourceDiagnostic {
	return SourceDiagnostic{Severity: SevWarning, Span: span, Message: fmt.Sprintf(format, args...)}
}

// WithHint appends a hint and returns the diagnostic.
func (d SourceDiagnostic) WithHint(hint string) SourceDiagnostic {
	d.Hints = append(append([]string(nil), d.Hints...), hint)
	return d
}

// List 是一组 error 级别诊断，编译失败时作为 error 返回。
type List []SourceDiagnostic

func (l List) Error() string {
	switch len(l) {
	case 0:
		return "no diagnostics"
	case 1:
		return l[0].Message
	}
	msgs := make([]string, len(l))
	for i, d := range l {
		msgs[i] = d.Message
	}
	return fmt.Sprintf("%d errors: %s", len(l), strings.Join(msgs, "; "))
}

// Sink 在一次编译中按产生顺序收集诊断。
type Sink struct {
	errs  List
	warns []SourceDiagnostic
}

func (s *Sink) Add(d SourceDiagnostic) {
	if d.Severity == SevWarning {
		s.warns = append(s.warns, d)
		return
	}
	s.errs = append(s.errs, d)
}

func (s *Sink) HasErrors() bool { return len(s.errs) > 0 }

func (s *Sink) Errors() List { return s.errs }

func (s *Sink) Warnings() []SourceDiagnostic { return s.warns }

// ErrAccessDenied 表示编译环境拒绝访问该资源。
var ErrAccessDenied = errors.New("access denied")

// ErrNotFound means the resource does not exist in the compilation environment.
var ErrNotFound = errors.New("file not found")

// FileError 描述一次资源解析失败。
type FileError struct {
	Path source.VirtualPath
	Err  error
}

func (e *FileError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to load file (%v)", e.Err)
	}
	return fmt.Sprintf("failed to load file %s (%v)", e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }
