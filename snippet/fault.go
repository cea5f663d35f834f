package snippet

import "strings"

// Phase indicates where in a compile the fault occurred.
type Phase string

const (
	PhaseSetup   Phase = "setup"   // environment construction
	PhaseInput   Phase = "input"   // option validation
	PhaseCompile Phase = "compile" // typesetting engine
	PhaseRender  Phase = "render"  // rasterization
	PhaseEncode  Phase = "encode"  // PNG encoding
)

// Kind categorizes the fault.
type Kind string

const (
	KindFontParse    Kind = "font_parse"
	KindInvalidInput Kind = "invalid_input"
	KindEngine       Kind = "engine"
	KindRender       Kind = "render"
	KindEncode       Kind = "encode"
)

// Fault 是内部缺陷或非法调用，不属于用户文档的问题，因此不会以 Diagnostic 形式出现。
type Fault struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
}

func (f *Fault) Error() string {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(string(f.Phase))
	b.WriteString("] ")
	b.WriteString(string(f.Kind))
	if f.Detail != "" {
		b.WriteString(": ")
		b.WriteString(f.Detail)
	}
	if f.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(f.Cause.Error())
		b.WriteByte(')')
	}
	return b.String()
}

func (f *Fault) Unwrap() error { return f.Cause }

// Is matches faults by phase and kind.
func (f *Fault) Is(target error) bool {
	if t, ok := target.(*Fault); ok {
		return f.Phase == t.Phase && f.Kind == t.Kind
	}
	return false
}

func fault(phase Phase, kind Kind, cause error, detail string) *Fault {
	return &Fault{Phase: phase, Kind: kind, Cause: cause, Detail: detail}
}
