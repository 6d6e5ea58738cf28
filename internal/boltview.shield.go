package internal

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// PHPTrimChars are the characters the host trim() strips.
const PHPTrimChars = " \t\n\r\x00\x0B"

var (
	literalMarkerPattern = pairMarkerPattern(TagNameLiteral)
	codeMarkerPattern    = pairMarkerPattern(TagNamePHP)
	codeSelfClosePattern = regexp.MustCompile(`(?i)\{php\b[^/}]*/\}`)

	literalHolderPattern = holderPattern(PlaceholderLiteral)
	codeHolderPattern    = holderPattern(PlaceholderPHPCode)
	taglibHolderPattern  = holderPattern(PlaceholderTaglib)
)

func pairMarkerPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\{(?:` + name + `\b[^}]*|/` + name + `)\}`)
}

func holderPattern(kind string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + regexp.QuoteMeta(placeholderPrefix+kind+placeholderInfix) +
		`(\d+)` + regexp.QuoteMeta(placeholderSuffix))
}

// Placeholder renders the opaque marker for entry index of the given kind.
func Placeholder(kind string, index int) string {
	return fmt.Sprintf("%s%s%s%d%s", placeholderPrefix, kind, placeholderInfix, index, placeholderSuffix)
}

// Shield holds the regions replaced by placeholders during one compile call.
// The slice index is the placeholder identity.
type Shield struct {
	literals []string
	code     []string
	taglibs  []string
}

// NewShield creates an empty shield arena
func NewShield() *Shield {
	return &Shield{}
}

// Reset clears every table.
func (s *Shield) Reset() {
	s.literals = nil
	s.code = nil
	s.taglibs = nil
}

// HoldLiteral replaces {literal}...{/literal} pairs with placeholders.
func (s *Shield) HoldLiteral(content string) string {
	return holdPairs(content, literalMarkerPattern, func(inner string) string {
		s.literals = append(s.literals, inner)
		return Placeholder(PlaceholderLiteral, len(s.literals)-1)
	})
}

// HoldCode replaces {php}...{/php} pairs, then {php ... /} forms, with placeholders.
func (s *Shield) HoldCode(content string) string {
	content = holdPairs(content, codeMarkerPattern, func(inner string) string {
		s.code = append(s.code, inner)
		return Placeholder(PlaceholderPHPCode, len(s.code)-1)
	})
	return codeSelfClosePattern.ReplaceAllStringFunc(content, func(m string) string {
		body := m[len("{"+TagNamePHP) : len(m)-len("/}")]
		s.code = append(s.code, strings.Trim(body, PHPTrimChars))
		return Placeholder(PlaceholderPHPCode, len(s.code)-1)
	})
}

// HoldTaglib stores finalized tag output and returns its placeholder.
func (s *Shield) HoldTaglib(code string) string {
	s.taglibs = append(s.taglibs, code)
	return Placeholder(PlaceholderTaglib, len(s.taglibs)-1)
}

// Restore puts shielded regions back: literals, then raw code blocks, then
// finalized tag output. Each kind is restored once, so placeholders produced
// inside finalized output stay as they are.
func (s *Shield) Restore(content string) string {
	content = revert(content, literalHolderPattern, s.literals, func(v string) string { return v })
	content = revert(content, codeHolderPattern, s.code, func(v string) string {
		return fmt.Sprintf(HostRawCodeFmt, v)
	})
	return revert(content, taglibHolderPattern, s.taglibs, func(v string) string { return v })
}

// holdPairs replaces each innermost open/close pair, in one left to right pass.
// A pair matches only when no other marker of the same name sits between the
// open and close markers.
func holdPairs(content string, marker *regexp.Regexp, hold func(inner string) string) string {
	locs := marker.FindAllStringIndex(content, -1)
	if len(locs) < 2 {
		return content
	}
	var sb strings.Builder
	last := 0
	for k := 0; k+1 < len(locs); k++ {
		open, closing := locs[k], locs[k+1]
		if isCloseMarker(content[open[0]:open[1]]) || !isCloseMarker(content[closing[0]:closing[1]]) {
			continue
		}
		sb.WriteString(content[last:open[0]])
		sb.WriteString(hold(content[open[1]:closing[0]]))
		last = closing[1]
		k++
	}
	sb.WriteString(content[last:])
	return sb.String()
}

func isCloseMarker(m string) bool {
	return len(m) > 1 && m[1] == CharSlash
}

func revert(content string, pattern *regexp.Regexp, table []string, render func(string) string) string {
	return pattern.ReplaceAllStringFunc(content, func(m string) string {
		sub := pattern.FindStringSubmatch(m)
		idx, err := strconv.Atoi(sub[1])
		if err != nil || idx < 0 || idx >= len(table) {
			return ""
		}
		return render(table[idx])
	})
}
