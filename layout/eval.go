package layout

import (
	"fmt"

	"github.com/ByLCY/inkwell/diag"
	"github.com/ByLCY/inkwell/dsl"
	"github.com/ByLCY/inkwell/library"
	"github.com/ByLCY/inkwell/source"
)

// value 是求值后的参数值。
type value struct {
	kind   library.Kind
	length Length
	color  library.Color
	str    string
	num    float64
	flag   bool
	span   source.Span
}

// eval 对参数值求值。失败时已经报告诊断，返回 false。
func (e *engine) eval(v *dsl.Value) (value, bool) {
	out := value{span: v.Span()}
	switch {
	case v.Length != nil:
		l, ok := ParseRawLengthStr(*v.Length)
		if !ok {
			e.sink.Add(diag.Error(v.Span(), "invalid length: %s", *v.Length))
			return out, false
		}
		out.kind, out.length = library.KindLength, l
	case v.Number != nil:
		out.kind, out.num = library.KindNumber, *v.Number
	case v.String != nil:
		out.kind, out.str = library.KindString, string(*v.String)
	case v.Call != nil:
		return e.evalIdent(v.Call, out)
	default:
		e.sink.Add(diag.Error(v.Span(), "expected expression"))
		return out, false
	}
	return out, true
}

func (e *engine) evalIdent(c *dsl.Call, out value) (value, bool) {
	if !c.Parens {
		switch c.Name {
		case "auto":
			out.kind = library.KindAuto
			return out, true
		case "none":
			out.kind = library.KindNone
			return out, true
		case "true", "false":
			out.kind, out.flag = library.KindBool, c.Name == "true"
			return out, true
		}
		if col, ok := e.lib.Color(c.Name); ok {
			out.kind, out.color = library.KindColor, col
			return out, true
		}
		if !e.lib.Defines(c.Name) {
			e.sink.Add(diag.Error(c.NameSpan(), "unknown variable: %s", c.Name))
			return out, false
		}
		e.sink.Add(diag.Error(c.Span(), "expected value, found function"))
		return out, false
	}

	if c.Name != "rgb" {
		if !e.lib.Defines(c.Name) {
			e.sink.Add(diag.Error(c.NameSpan(), "unknown variable: %s", c.Name))
			return out, false
		}
		e.sink.Add(diag.Error(c.Span(), "expected value, found content"))
		return out, false
	}
	sig, ok := e.lib.Function("rgb")
	if !ok {
		e.sink.Add(diag.Error(c.NameSpan(), "unknown variable: rgb"))
		return out, false
	}
	args, ok := e.bind(sig, c.Args, c.Span())
	if !ok {
		return out, false
	}
	hex := args["hex"]
	col, err := library.ParseHex(hex.str)
	if err != nil {
		e.sink.Add(diag.Error(hex.span, "%v", err))
		return out, false
	}
	out.kind, out.color = library.KindColor, col
	return out, true
}

// bind 按签名绑定参数并做类型检查。
func (e *engine) bind(sig *library.Signature, args []*dsl.Arg, callSpan source.Span) (map[string]value, bool) {
	bound := make(map[string]value, len(args))
	ok := true
	positional := 0
	for _, a := range args {
		var (
			param library.Param
			found bool
		)
		if a.Name != nil {
			param, found = sig.Param(*a.Name)
			if !found {
				e.sink.Add(diag.Error(a.Span(), "unexpected argument: %s", *a.Name))
				ok = false
				continue
			}
		} else {
			param, found = sig.Positional(positional)
			positional++
			if !found {
				e.sink.Add(diag.Error(a.Span(), "unexpected argument"))
				ok = false
				continue
			}
		}
		if _, dup := bound[param.Name]; dup {
			e.sink.Add(diag.Error(a.Span(), "duplicate argument: %s", param.Name))
			ok = false
			continue
		}
		v, valid := e.eval(a.Value)
		if !valid {
			ok = false
			continue
		}
		if !param.Allows(v.kind) {
			e.sink.Add(diag.Error(v.span, "expected %s, found %s", library.Describe(param.Accepts), v.kind))
			ok = false
			continue
		}
		bound[param.Name] = v
	}
	for _, p := range sig.Params {
		if _, has := bound[p.Name]; p.Required && !has && ok {
			e.sink.Add(diag.Error(callSpan, "missing argument: %s", p.Name))
			ok = false
		}
	}
	return bound, ok
}

// applySet 执行一条 set 规则。
func (e *engine) applySet(rule *dsl.SetRule) {
	sig, ok := e.lib.Element(rule.Target)
	if !ok {
		if _, isFunc := e.lib.Function(rule.Target); isFunc {
			e.sink.Add(diag.Error(rule.TargetSpan(), "only element functions can be used in set rules"))
			return
		}
		e.sink.Add(diag.Error(rule.TargetSpan(), "unknown variable: %s", rule.Target))
		return
	}
	args, ok := e.bind(sig, rule.Args, rule.Span())
	if !ok {
		return
	}
	switch rule.Target {
	case "page":
		e.setPage(args)
	case "text":
		e.setText(args)
	case "par":
		if v, has := args["leading"]; has {
			e.par.leading = v.length
		}
		if v, has := args["justify"]; has {
			e.par.justify = v.flag
		}
	}
}

func (e *engine) setPage(args map[string]value) {
	next := e.page
	if v, has := args["width"]; has {
		next.width = optionalLength(v)
	}
	if v, has := args["height"]; has {
		next.height = optionalLength(v)
	}
	if v, has := args["margin"]; has {
		next.margin = optionalLength(v)
	}
	if v, has := args["fill"]; has {
		if v.kind == library.KindNone {
			next.fill = nil
		} else {
			c := v.color
			next.fill = &c
		}
	}
	e.changePage(next)
}

func (e *engine) setText(args map[string]value) {
	if v, has := args["size"]; has {
		e.text.size = v.length.Resolve(e.text.size)
	}
	if v, has := args["fill"]; has {
		e.text.fill = v.color
	}
	if v, has := args["font"]; has {
		if e.book.HasFamily(v.str) {
			e.text.family = v.str
		} else {
			e.sink.Add(diag.Warning(v.span, "unknown font family: %s", lower(v.str)))
		}
	}
}

func optionalLength(v value) *Length {
	if v.kind != library.KindLength {
		return nil
	}
	l := v.length
	return &l
}

func describeNonContent(kind library.Kind) string {
	return fmt.Sprintf("expected content, found %s", kind)
}
