package internal

import (
	"strconv"
	"strings"
)

// ManifestEntry is one fingerprinted source file.
type ManifestEntry struct {
	Path string
	Hash string
}

// ManifestData is the decoded content of a manifest header.
type ManifestData struct {
	Entries     []ManifestEntry
	Compress    bool
	HasCompress bool
}

// FormatManifest renders the header line that leads every compiled artifact:
// a host-serialized array of path => md5 plus the compression flag.
func FormatManifest(entries []ManifestEntry, compress bool) string {
	var sb strings.Builder
	sb.WriteString(ManifestOpen)
	sb.WriteString("a:")
	sb.WriteString(strconv.Itoa(len(entries) + 1))
	sb.WriteString(":{")
	for _, e := range entries {
		writeSerialKey(&sb, e.Path)
		writeSerialString(&sb, e.Hash)
	}
	writeSerialString(&sb, ManifestCompressKey)
	if compress {
		sb.WriteString("b:1;")
	} else {
		sb.WriteString("b:0;")
	}
	sb.WriteString("}")
	sb.WriteString(ManifestClose)
	sb.WriteString("\n")
	return sb.String()
}

func writeSerialString(sb *strings.Builder, s string) {
	sb.WriteString("s:")
	sb.WriteString(strconv.Itoa(len(s)))
	sb.WriteString(":\"")
	sb.WriteString(s)
	sb.WriteString("\";")
}

// writeSerialKey writes an array key. Canonical decimal strings become
// integer keys, as the host does for array keys.
func writeSerialKey(sb *strings.Builder, key string) {
	if n, err := strconv.ParseInt(key, 10, 64); err == nil && strconv.FormatInt(n, 10) == key {
		sb.WriteString("i:")
		sb.WriteString(key)
		sb.WriteString(";")
		return
	}
	writeSerialString(sb, key)
}

// ParseManifest decodes a header line produced by FormatManifest. The line may
// carry the trailing newline or the whole compiled artifact after it.
func ParseManifest(header string) (*ManifestData, error) {
	if i := strings.IndexByte(header, '\n'); i >= 0 {
		header = header[:i]
	}
	header = strings.TrimRight(header, "\r")
	if !strings.HasPrefix(header, ManifestOpen) || !strings.HasSuffix(header, ManifestClose) {
		return nil, NewScanError(ErrMsgManifestMalformed, header)
	}
	body := header[len(ManifestOpen) : len(header)-len(ManifestClose)]

	d := &serialDecoder{src: body}
	count, err := d.arrayHeader()
	if err != nil {
		return nil, err
	}
	data := &ManifestData{}
	for k := 0; k < count; k++ {
		key, err := d.scalar()
		if err != nil {
			return nil, err
		}
		val, err := d.scalar()
		if err != nil {
			return nil, err
		}
		if key.text == ManifestCompressKey && key.kind == 's' {
			data.Compress = val.kind == 'b' && val.text == "1"
			data.HasCompress = true
			continue
		}
		data.Entries = append(data.Entries, ManifestEntry{Path: key.text, Hash: val.text})
	}
	if !d.consume('}') || d.pos != len(d.src) {
		return nil, NewScanError(ErrMsgManifestMalformed, header)
	}
	return data, nil
}

type serialValue struct {
	kind byte
	text string
}

type serialDecoder struct {
	src string
	pos int
}

func (d *serialDecoder) fail() error {
	return NewScanError(ErrMsgManifestMalformed, d.src)
}

func (d *serialDecoder) consume(c byte) bool {
	if d.pos < len(d.src) && d.src[d.pos] == c {
		d.pos++
		return true
	}
	return false
}

func (d *serialDecoder) until(c byte) (string, bool) {
	end := strings.IndexByte(d.src[d.pos:], c)
	if end < 0 {
		return "", false
	}
	s := d.src[d.pos : d.pos+end]
	d.pos += end + 1
	return s, true
}

func (d *serialDecoder) arrayHeader() (int, error) {
	if !d.consume('a') || !d.consume(':') {
		return 0, d.fail()
	}
	n, ok := d.until(':')
	if !ok {
		return 0, d.fail()
	}
	count, err := strconv.Atoi(n)
	if err != nil || count < 0 || !d.consume('{') {
		return 0, d.fail()
	}
	return count, nil
}

// scalar reads one s:, i: or b: value.
func (d *serialDecoder) scalar() (serialValue, error) {
	if d.pos >= len(d.src) {
		return serialValue{}, d.fail()
	}
	kind := d.src[d.pos]
	d.pos++
	if !d.consume(':') {
		return serialValue{}, d.fail()
	}
	switch kind {
	case 'i', 'b':
		v, ok := d.until(';')
		if !ok {
			return serialValue{}, d.fail()
		}
		return serialValue{kind: kind, text: v}, nil
	case 's':
		n, ok := d.until(':')
		if !ok {
			return serialValue{}, d.fail()
		}
		size, err := strconv.Atoi(n)
		if err != nil || size < 0 || !d.consume('"') || size > len(d.src)-d.pos {
			return serialValue{}, d.fail()
		}
		v := d.src[d.pos : d.pos+size]
		d.pos += size
		if !d.consume('"') || !d.consume(';') {
			return serialValue{}, d.fail()
		}
		return serialValue{kind: kind, text: v}, nil
	}
	return serialValue{}, d.fail()
}
