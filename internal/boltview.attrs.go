package internal

import (
	"strings"
)

// Attribute is one entry of a tag's attribute list. Flag attributes are bare
// names whose value is boolean true.
type Attribute struct {
	Name  string
	Value string
	Flag  bool
}

// String returns the attribute value as the host language would cast it.
func (a Attribute) String() string {
	if a.Flag {
		return "1"
	}
	return a.Value
}

// Truthy reports whether the value is truthy under host language rules.
func (a Attribute) Truthy() bool {
	if a.Flag {
		return true
	}
	return a.Value != "" && a.Value != "0"
}

// Attributes is an ordered attribute list with unique names.
type Attributes []Attribute

// Lookup returns the attribute with the given name.
func (a Attributes) Lookup(name string) (Attribute, bool) {
	for _, attr := range a {
		if attr.Name == name {
			return attr, true
		}
	}
	return Attribute{}, false
}

// Get returns the attribute value as a string.
func (a Attributes) Get(name string) (string, bool) {
	attr, ok := a.Lookup(name)
	if !ok {
		return "", false
	}
	return attr.String(), true
}

// GetDefault returns the attribute value or defaultVal when absent.
func (a Attributes) GetDefault(name, defaultVal string) string {
	if val, ok := a.Get(name); ok {
		return val
	}
	return defaultVal
}

// Has reports whether the attribute is present.
func (a Attributes) Has(name string) bool {
	_, ok := a.Lookup(name)
	return ok
}

// Keys returns the attribute names in order.
func (a Attributes) Keys() []string {
	keys := make([]string, 0, len(a))
	for _, attr := range a {
		keys = append(keys, attr.Name)
	}
	return keys
}

// Clone returns an independent copy.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	copy(out, a)
	return out
}

// Put sets an attribute, keeping the position of an existing entry.
func (a Attributes) Put(attr Attribute) Attributes {
	for i := range a {
		if a[i].Name == attr.Name {
			a[i] = attr
			return a
		}
	}
	return append(a, attr)
}

// Set sets a string attribute.
func (a Attributes) Set(name, value string) Attributes {
	return a.Put(Attribute{Name: name, Value: value})
}

// SetFlag sets a flag attribute.
func (a Attributes) SetFlag(name string) Attributes {
	return a.Put(Attribute{Name: name, Flag: true})
}

// Remove drops the named attributes.
func (a Attributes) Remove(names ...string) Attributes {
	return a.filter(func(name string) bool { return !containsString(names, name) })
}

// Keep drops every attribute not named.
func (a Attributes) Keep(names ...string) Attributes {
	return a.filter(func(name string) bool { return containsString(names, name) })
}

func (a Attributes) filter(keep func(string) bool) Attributes {
	out := a[:0:0]
	for _, attr := range a {
		if keep(attr.Name) {
			out = append(out, attr)
		}
	}
	return out
}

// ParseAttributes tokenizes the text that follows a tag name.
//
// Leading bare tokens, seen before the first name=value pair, are joined with
// single spaces into the __value__ entry which is placed first. After a pair
// has been seen, bare tokens become flags. Values end at whitespace unless
// they are quoted with ' or ". An unterminated quoted value at end of input
// is kept raw, leading quote included.
func ParseAttributes(str string) Attributes {
	const (
		stateName = iota
		stateCollectName
		stateCollectValue
	)

	var (
		attrs    Attributes
		defaults []string
		name     string
		value    strings.Builder
		quote    byte
		status   = stateName
		i        = 0
		n        = len(str)
	)

	flush := func() {
		attrs = attrs.Set(name, value.String())
		name = ""
		value.Reset()
		quote = 0
		status = stateName
	}

	for i < n {
		whitespace := spanOf(str, i, AttrSpaceChars)
		if whitespace > 0 {
			i += whitespace
			if i >= n {
				break
			}
		}

		ended := false
		switch status {
		case stateName:
			status = stateCollectName
			name = str[i : i+1]
			i++

		case stateCollectName:
			next := str[i]
			i++
			if next == CharEquals {
				status = stateCollectValue
				i += spanOf(str, i, AttrSpaceChars)
				// name = <end of input>
				if i >= n {
					ended = true
					break
				}
				next = str[i]
				i++
				value.Reset()
				if next == CharDoubleQuote || next == CharSingleQuote {
					quote = next
				} else {
					quote = 0
					value.WriteByte(next)
				}
			} else if whitespace > 0 {
				if len(attrs) > 0 {
					attrs = attrs.SetFlag(name)
				} else {
					defaults = append(defaults, name)
				}
				name = string(next)
			} else {
				name += string(next)
			}

		case stateCollectValue:
			if whitespace > 0 {
				if quote == 0 {
					flush()
					break
				}
				value.WriteString(str[i-whitespace : i])
			}
			next := str[i]
			i++
			if quote != 0 && next == quote {
				flush()
			} else {
				value.WriteByte(next)
			}
		}
		if ended {
			break
		}
	}

	if name != "" {
		switch {
		case status == stateCollectValue:
			raw := value.String()
			if quote != 0 {
				raw = string(quote) + raw
			}
			attrs = attrs.Set(name, raw)
		case len(attrs) > 0:
			attrs = attrs.SetFlag(name)
		default:
			defaults = append(defaults, name)
		}
	}

	if len(defaults) > 0 {
		lead := Attribute{Name: AttrKeyValue, Value: strings.Join(defaults, " ")}
		if existing, ok := attrs.Lookup(AttrKeyValue); ok {
			lead = existing
			attrs = attrs.Remove(AttrKeyValue)
		}
		attrs = append(Attributes{lead}, attrs...)
	}
	return attrs
}

// FormatAttributes renders attributes back into tag attribute syntax. The
// result parses to the same list; numeric values are written unquoted.
func FormatAttributes(attrs Attributes) string {
	parts := make([]string, 0, len(attrs))
	for _, attr := range attrs {
		switch {
		case attr.Name == AttrKeyValue:
			parts = append(parts, attr.Value)
		case attr.Flag:
			parts = append(parts, attr.Name)
		default:
			parts = append(parts, attr.Name+string(CharEquals)+quoteAttrValue(attr.Value))
		}
	}
	return strings.Join(parts, " ")
}

func quoteAttrValue(v string) string {
	if v != "" && IsNumeric(v) && strings.TrimSpace(v) == v {
		return v
	}
	if strings.IndexByte(v, CharDoubleQuote) >= 0 {
		return string(CharSingleQuote) + v + string(CharSingleQuote)
	}
	return string(CharDoubleQuote) + v + string(CharDoubleQuote)
}

// StringifyAttributes renders attributes as a host array literal. Values that
// look like expressions are compiled, everything else becomes a quoted string.
func StringifyAttributes(attrs Attributes) string {
	var sb strings.Builder
	for _, attr := range attrs {
		sb.WriteString("\n'")
		sb.WriteString(attr.Name)
		sb.WriteString("' => ")
		sb.WriteString(CompileVariable(attr.String()))
		sb.WriteString(",")
	}
	if sb.Len() == 0 {
		return HostEmptyArray
	}
	return "[" + sb.String() + "\n]"
}

// spanOf returns the length of the run of bytes from set starting at i.
func spanOf(s string, i int, set string) int {
	j := i
	for j < len(s) && strings.IndexByte(set, s[j]) >= 0 {
		j++
	}
	return j - i
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
