package internal

import (
	"fmt"
	"regexp"
	"strings"
)

var dataTagPattern = regexp.MustCompile(`(?is)\{(/?)@(([` + identStart + `][` + identRest + `.]*)[^}]*)\}`)

type dataFrame struct {
	marker string
	name   string
	close  string
}

// CompileDataTags rewrites {@name ...} markers into calls to the data
// provider. With no provider configured the content is returned unchanged.
func CompileDataTags(content, provider string) (string, error) {
	if provider == "" {
		return content, nil
	}
	var open []dataFrame
	out, err := replaceMatches(content, dataTagPattern, func(m []string) (string, error) {
		body := ClearComment(m[2])
		if m[1] == string(CharSlash) {
			if strings.Trim(body, PHPTrimChars) != m[3] {
				return m[0], nil
			}
			name := strings.ToLower(m[3])
			if len(open) == 0 {
				return "", NewScanError(ErrMsgStartTagNotFound, m[0])
			}
			last := open[len(open)-1]
			open = open[:len(open)-1]
			if last.name != name {
				return "", NewScanError(ErrMsgTagNotClosed, last.marker)
			}
			return last.close, nil
		}

		rest := body[len(m[3]):]
		name := strings.ToLower(m[3])
		if strings.HasSuffix(rest, string(CharSlash)) {
			code, _ := MakeDataTag(provider, name, ParseAttributes(rest[:len(rest)-1]), true)
			return code, nil
		}
		code, closing := MakeDataTag(provider, name, ParseAttributes(rest), false)
		open = append(open, dataFrame{marker: m[0], name: name, close: closing})
		return code, nil
	})
	if err != nil {
		return "", err
	}
	if len(open) > 0 {
		return "", NewScanError(ErrMsgTagNotClosed, open[0].marker)
	}
	return out, nil
}

// MakeDataTag renders the provider call for a data tag. A self-closing tag
// prints the result and has no closing code; a paired tag iterates it.
func MakeDataTag(provider, name string, attrs Attributes, closed bool) (string, string) {
	flag := HostFalse
	if closed {
		flag = HostTrue
	}
	code := fmt.Sprintf(HostDataCallFmt, provider, name, StringifyAttributes(attrs), flag)
	if closed {
		return code + HostDataEcho, ""
	}
	key := attrs.GetDefault(DataAttrKey, DataDefaultKey)
	field := attrs.GetDefault(DataAttrField, DataDefaultField)
	return code + fmt.Sprintf(HostDataLoopFmt, key, field), HostDataEnd
}
