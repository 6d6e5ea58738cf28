package internal

import (
	"fmt"
	"regexp"
	"strings"
)

var conditionalPattern = regexp.MustCompile(`(?i)\{(?:(if|elseif)\b[^}]*|(else|/if))\}`)

// CompileConditionals rewrites {if}, {elseif}, {else} and {/if} markers into
// host branches. It is a flat scan with a nesting counter; it does not look
// at the structure of the surrounding text.
func CompileConditionals(content string) (string, error) {
	var open []string
	out, err := replaceMatches(content, conditionalPattern, func(m []string) (string, error) {
		keyword := strings.ToLower(m[1])
		if keyword == "" {
			keyword = strings.ToLower(m[2])
		}
		if len(open) == 0 && keyword != CondIf {
			return "", NewScanError(ErrMsgConditionalNotClosed, m[0])
		}
		switch keyword {
		case CondIf, CondElseIf:
			marker := ClearComment(m[0])
			statement := strings.Trim(marker[len(keyword)+1:len(marker)-1], PHPTrimChars)
			if statement == "" {
				statement = HostAlwaysTrue
			} else {
				statement = CompileDotVars(statement)
			}
			if keyword == CondIf {
				open = append(open, m[0])
				return fmt.Sprintf(HostIfFmt, statement), nil
			}
			return fmt.Sprintf(HostElseIfFmt, statement), nil
		case CondElse:
			return HostElse, nil
		default:
			open = open[:len(open)-1]
			return HostEndIf, nil
		}
	})
	if err != nil {
		return "", err
	}
	if len(open) > 0 {
		return "", NewScanError(ErrMsgConditionalNotClosed, open[len(open)-1])
	}
	return out, nil
}

// replaceMatches is ReplaceAllStringFunc with submatches and an error return.
// The first error aborts the scan.
func replaceMatches(content string, re *regexp.Regexp, fn func(m []string) (string, error)) (string, error) {
	locs := re.FindAllStringSubmatchIndex(content, -1)
	if len(locs) == 0 {
		return content, nil
	}
	var sb strings.Builder
	sb.Grow(len(content))
	last := 0
	for _, loc := range locs {
		m := make([]string, len(loc)/2)
		for g := range m {
			if loc[2*g] >= 0 {
				m[g] = content[loc[2*g]:loc[2*g+1]]
			}
		}
		repl, err := fn(m)
		if err != nil {
			return "", err
		}
		sb.WriteString(content[last:loc[0]])
		sb.WriteString(repl)
		last = loc[1]
	}
	sb.WriteString(content[last:])
	return sb.String(), nil
}
