package snippet

import (
	"github.com/ByLCY/inkwell/diag"
)

// Severity of a host-facing diagnostic.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Range 是用户文本中的半开字节区间 [Start, End)。
type Range struct {
	Start int `json:"start" msgpack:"start"`
	End   int `json:"end" msgpack:"end"`
}

// Diagnostic 是面向宿主的诊断，坐标已相对用户文本（去掉了注入的前缀）。
// Range 为 nil 表示无法定位。
type Diagnostic struct {
	Range    *Range   `json:"range,omitempty" msgpack:"range,omitempty"`
	Message  string   `json:"message" msgpack:"message"`
	Severity Severity `json:"severity" msgpack:"severity"`
}

// translate 把引擎诊断转为宿主诊断。落在前缀内的位置饱和到 0。
func translate(w *World, prefixLen int, d diag.SourceDiagnostic) Diagnostic {
	out := Diagnostic{Message: d.Message, Severity: SeverityError}
	if d.Severity == diag.SevWarning {
		out.Severity = SeverityWarning
	}
	if start, end, ok := w.Range(d.Span); ok {
		out.Range = &Range{
			Start: saturatingSub(start, prefixLen),
			End:   saturatingSub(end, prefixLen),
		}
	}
	return out
}

func translateAll(w *World, prefixLen int, in []diag.SourceDiagnostic, out []Diagnostic) []Diagnostic {
	for _, d := range in {
		out = append(out, translate(w, prefixLen, d))
	}
	return out
}

func saturatingSub(v, n int) int {
	if v <= n {
		return 0
	}
	return v - n
}
