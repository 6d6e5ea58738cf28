package internal

import (
	"regexp"
	"strings"
)

// identifier character classes; non-ASCII runes count as letters
const (
	identStart = `a-zA-Z_\x{7f}-\x{10ffff}`
	identRest  = `a-zA-Z0-9_\x{7f}-\x{10ffff}`
)

var (
	dotVarPattern    = regexp.MustCompile(`\$([` + identStart + `][` + identRest + `$.\[\]:]*)`)
	bareIndexPattern = regexp.MustCompile(`\[([` + identRest + `]+)]`)
	digitsPattern    = regexp.MustCompile(`^\d*$`)
	varNamePattern   = regexp.MustCompile(`^\$[` + identStart + `][` + identRest + `]*$`)
	funcCallPattern  = regexp.MustCompile(`^[` + identStart + `][` + identRest + `]*\((.+?)$`)
	commentPattern   = regexp.MustCompile(`/\*[\s\S]*?\*/`)
)

// ClearComment removes every /* ... */ block comment.
func ClearComment(s string) string {
	if !strings.Contains(s, "/*") {
		return s
	}
	return commentPattern.ReplaceAllString(s, "")
}

// CompileDotVars rewrites dotted variable syntax into host syntax:
//
//	$arr[key]      -> $arr['key']
//	$arr.key       -> $arr['key']
//	$obj:prop      -> $obj->prop
//	$arr.k[4]:prop -> $arr['k'][4]->prop
//
// Numeric and $-prefixed keys stay unquoted. The result is trimmed.
func CompileDotVars(code string) string {
	code = dotVarPattern.ReplaceAllStringFunc(code, func(match string) string {
		return compileDotVar(match[1:])
	})
	return strings.TrimSpace(code)
}

func compileDotVar(body string) string {
	body = bareIndexPattern.ReplaceAllStringFunc(body, func(m string) string {
		key := m[1 : len(m)-1]
		if !digitsPattern.MatchString(key) {
			key = "'" + key + "'"
		}
		return "[" + key + "]"
	})

	segments := strings.Split(body, ".")
	var sb strings.Builder
	sb.WriteByte(CharDollar)
	sb.WriteString(strings.ReplaceAll(segments[0], ":", "->"))

	for _, seg := range segments[1:] {
		var props []string
		key := seg
		if strings.Index(seg, ":") > 0 {
			parts := strings.Split(seg, ":")
			key, props = parts[0], parts[1:]
		}

		var suffix string
		if pos := strings.Index(key, "["); pos > 0 {
			key, suffix = key[:pos], key[pos:]
		}

		sb.WriteByte('[')
		if strings.HasPrefix(key, "$") || digitsPattern.MatchString(key) {
			sb.WriteString(key)
		} else {
			sb.WriteString("'" + key + "'")
		}
		sb.WriteByte(']')
		sb.WriteString(suffix)

		for _, p := range props {
			sb.WriteString("->")
			sb.WriteString(p)
		}
	}
	return sb.String()
}

// IsVar reports whether s is a plain variable name such as $item.
func IsVar(s string) bool {
	return varNamePattern.MatchString(s)
}

// IsExpression is a loose test for host expressions: variables, parenthesized
// expressions starting with a variable, and function calls.
func IsExpression(code string) bool {
	n := len(code)
	if n > 1 && code[0] == CharDollar {
		return true
	}
	if n > 3 && strings.HasPrefix(code, "($") {
		return true
	}
	return funcCallPattern.MatchString(code) && strings.HasSuffix(code, ")")
}

// HasQuote reports whether s is wrapped in a matching pair of quotes.
func HasQuote(s string) bool {
	if len(s) < 2 {
		return false
	}
	first, last := s[0], s[len(s)-1]
	return first == last && (first == CharDoubleQuote || first == CharSingleQuote)
}

// AddSlashes escapes backslashes then single quotes.
func AddSlashes(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// CompileVariable turns an attribute value into a host literal or expression.
func CompileVariable(expr string) string {
	switch {
	case IsNumeric(expr):
		return expr
	case HasQuote(expr):
		return "'" + AddSlashes(expr[1:len(expr)-1]) + "'"
	case IsExpression(expr):
		return CompileDotVars(expr)
	default:
		return "'" + AddSlashes(expr) + "'"
	}
}

// IsNumeric follows host numeric-string rules: optional surrounding
// whitespace, optional sign, decimal digits with an optional fraction and
// exponent.
func IsNumeric(s string) bool {
	s = strings.Trim(s, " \t\n\r\v\f")
	if s == "" {
		return false
	}
	i := 0
	if s[i] == '+' || s[i] == '-' {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		exp := 0
		for i < len(s) && isDigit(s[i]) {
			i++
			exp++
		}
		if exp == 0 {
			return false
		}
	}
	return i == len(s)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
