package internal

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	scalarPattern   = regexp.MustCompile(`(\{?)\{([a-zA-Z_$(\x{7f}-\x{10ffff}](.+?))\}(\}?)`)
	constantPattern = regexp.MustCompile(`^[` + identRest + `]*$`)
	issetPattern    = regexp.MustCompile(`(?i)^(.+?)\s+or\s+(.+?)$`)
)

// CompileScalars turns the remaining {expr} output markers into echo
// statements. Host code blocks are left alone; only inline text is scanned.
func CompileScalars(content string) string {
	var sb strings.Builder
	sb.Grow(len(content))
	for _, seg := range SplitHostCode(content) {
		if seg.Code {
			sb.WriteString(seg.Text)
			continue
		}
		sb.WriteString(compileEchoScalars(seg.Text))
	}
	return sb.String()
}

func compileEchoScalars(text string) string {
	out, _ := replaceMatches(text, scalarPattern, func(m []string) (string, error) {
		lead, raw, tail := m[1], m[2], m[4]
		if lead == "{" && tail == "}" {
			return "{" + raw + "}", nil
		}
		return lead + compileScalar(raw) + tail, nil
	})
	return out
}

// compileScalar tries, in order: a constant name, an "$x or default" fallback
// and a plain expression. Anything else is put back in braces.
func compileScalar(raw string) string {
	expr := strings.Trim(ClearComment(raw), PHPTrimChars)
	if constantPattern.MatchString(expr) {
		return echo(expr)
	}
	if m := issetPattern.FindStringSubmatch(expr); m != nil {
		if m[1][0] != CharDollar {
			return "{" + expr + "}"
		}
		return echo(fmt.Sprintf(HostIssetFmt, CompileDotVars(m[1]), CompileVariable(m[2])))
	}
	if IsExpression(expr) {
		return echo(CompileDotVars(expr))
	}
	return "{" + raw + "}"
}

func echo(expr string) string {
	return fmt.Sprintf(HostEchoFmt, expr)
}
