package internal

import (
	"regexp"
	"strings"
)

var (
	scriptPattern       = regexp.MustCompile(`(?is)<script(.*?)>(.*?)</script>`)
	scriptHolderPattern = holderPattern(PlaceholderJavaScript)
	wideSpacePattern    = regexp.MustCompile(`[\t\n\v\f\r ]{3,}`)
	codeJoinPattern     = regexp.MustCompile(`\?>[ \r\n\t]*<\?php`)

	lineBreakReplacer = strings.NewReplacer("\r\n", CompactSeparator, "\t", CompactSeparator, "\n", CompactSeparator)
)

// CompactWhitespace squeezes line breaks, tabs and long whitespace runs to two
// spaces. <script> blocks are kept byte for byte.
func CompactWhitespace(content string) string {
	var scripts []string
	content = scriptPattern.ReplaceAllStringFunc(content, func(m string) string {
		scripts = append(scripts, m)
		return Placeholder(PlaceholderJavaScript, len(scripts)-1)
	})
	content = lineBreakReplacer.Replace(content)
	content = wideSpacePattern.ReplaceAllString(content, CompactSeparator)
	return revert(content, scriptHolderPattern, scripts, func(v string) string { return v })
}

// JoinCodeBlocks merges a code block with the next one when only whitespace
// separates them.
func JoinCodeBlocks(content string) string {
	return codeJoinPattern.ReplaceAllString(content, "")
}
