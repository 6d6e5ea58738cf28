package internal

import (
	"regexp"
	"strings"
)

// Segment is a run of source text, either inline text or host code.
type Segment struct {
	Text string
	Code bool
}

var commentMarkupPattern = regexp.MustCompile(`(?s)<!--\{(.+?)\}-->`)

// SplitHostCode separates inline text from embedded host code blocks. A code
// block opens with "<?php" followed by whitespace or end of input, or with
// "<?=", and closes with "?>" plus at most one trailing newline. Quoted
// strings and comments inside code are skipped when looking for the close
// marker. An unterminated block runs to end of input.
func SplitHostCode(src string) []Segment {
	var segments []Segment
	textStart := 0
	i := 0
	for i < len(src) {
		open := openTagLen(src, i)
		if open == 0 {
			i++
			continue
		}
		if i > textStart {
			segments = append(segments, Segment{Text: src[textStart:i]})
		}
		end := scanHostCode(src, i+open)
		segments = append(segments, Segment{Text: src[i:end], Code: true})
		i = end
		textStart = end
	}
	if textStart < len(src) {
		segments = append(segments, Segment{Text: src[textStart:]})
	}
	return segments
}

// openTagLen returns the length of a host open tag at i, or 0.
func openTagLen(src string, i int) int {
	if src[i] != '<' || i+1 >= len(src) || src[i+1] != '?' {
		return 0
	}
	rest := src[i:]
	if strings.HasPrefix(rest, HostOpenEcho) {
		return len(HostOpenEcho)
	}
	if len(rest) >= len(HostOpen) && strings.EqualFold(rest[:len(HostOpen)], HostOpen) {
		if len(rest) == len(HostOpen) {
			return len(HostOpen)
		}
		switch rest[len(HostOpen)] {
		case ' ', '\t', '\n', '\r':
			return len(HostOpen) + 1
		}
	}
	return 0
}

// scanHostCode returns the end offset of the code block whose body starts at i.
func scanHostCode(src string, i int) int {
	n := len(src)
	for i < n {
		switch c := src[i]; c {
		case '?':
			if i+1 < n && src[i+1] == '>' {
				i += 2
				if i < n && src[i] == '\n' {
					i++
				} else if i+1 < n && src[i] == '\r' && src[i+1] == '\n' {
					i += 2
				}
				return i
			}
			i++
		case '\'', '"', '`':
			i = skipQuoted(src, i+1, c)
		case '/':
			switch {
			case i+1 < n && src[i+1] == '*':
				end := strings.Index(src[i+2:], "*/")
				if end < 0 {
					return n
				}
				i += end + 4
			case i+1 < n && src[i+1] == '/':
				i = skipLineComment(src, i+2)
			default:
				i++
			}
		case '#':
			i = skipLineComment(src, i+1)
		default:
			i++
		}
	}
	return n
}

func skipQuoted(src string, i int, quote byte) int {
	for i < len(src) {
		switch src[i] {
		case '\\':
			i += 2
		case quote:
			return i + 1
		default:
			i++
		}
	}
	return len(src)
}

// skipLineComment stops at a newline or just before a close marker.
func skipLineComment(src string, i int) int {
	for i < len(src) {
		if src[i] == '\n' {
			return i + 1
		}
		if src[i] == '?' && i+1 < len(src) && src[i+1] == '>' {
			return i
		}
		i++
	}
	return len(src)
}

// ClearNativeCode drops host code blocks already present in a source unit,
// keeping only the inline text, then unwraps <!--{...}--> into {...}.
func ClearNativeCode(src string) string {
	var sb strings.Builder
	sb.Grow(len(src))
	for _, seg := range SplitHostCode(src) {
		if !seg.Code {
			sb.WriteString(seg.Text)
		}
	}
	return commentMarkupPattern.ReplaceAllString(sb.String(), "{${1}}")
}
