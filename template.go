package offline

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// templateContext is what a response template is evaluated against: the
// invocation result on success, the stripped failure message on error, plus
// the route's stage variables.
type templateContext struct {
	result       []byte
	errorMessage string
	stageVars    map[string]string
}

var templateExpr = regexp.MustCompile(`\$[A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z0-9_-]+)*`)

// render substitutes $-expressions in the template against the context.
// Supported roots are $input (the invocation result, optionally with a
// projection path), $errorMessage, and $stageVariables. Evaluation is pure
// and never fails: an unresolvable expression renders to an empty value.
func render(template string, tctx templateContext) string {
	return templateExpr.ReplaceAllStringFunc(template, func(expr string) string {
		return tctx.resolve(strings.TrimPrefix(expr, "$"))
	})
}

func (tctx templateContext) resolve(expr string) string {
	root, path, _ := strings.Cut(expr, ".")
	switch root {
	case "input":
		if path == "" {
			return stringify(gjson.ParseBytes(tctx.result))
		}
		return stringify(gjson.GetBytes(tctx.result, path))
	case "errorMessage":
		return tctx.errorMessage
	case "stageVariables":
		return tctx.stageVars[path]
	default:
		return ""
	}
}

// stringify renders a JSON value for substitution: strings render raw,
// everything else as its compact JSON form, missing values as empty.
func stringify(value gjson.Result) string {
	if !value.Exists() {
		return ""
	}
	if value.Type == gjson.String {
		return value.String()
	}
	return value.Raw
}
