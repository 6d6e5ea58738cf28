package boltview

import (
	"path/filepath"
	"strings"
)

// Layer is one nesting level of a compile call: the root template or a
// template pulled in by {template}.
type Layer struct {
	// Virtual is true when the source came from a string rather than a file.
	Virtual bool
	// Path is the canonical absolute file path, or the virtual directory for
	// string sources (possibly empty).
	Path string
	// Dir is the directory relative include paths are joined with.
	Dir string
	// Base, Stem and Ext are set only for file-backed layers.
	Base string
	Stem string
	Ext  string

	Source string
	Depth  int

	parent int
}

const noParent = -1

func newFileLayer(path, source string) *Layer {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return &Layer{
		Path:   path,
		Dir:    filepath.Dir(path),
		Base:   base,
		Stem:   strings.TrimSuffix(base, ext),
		Ext:    strings.TrimPrefix(ext, "."),
		Source: source,
		parent: noParent,
	}
}

func newStringLayer(source, virtualDir string) *Layer {
	return &Layer{
		Virtual: true,
		Path:    virtualDir,
		Dir:     virtualDir,
		Source:  source,
		parent:  noParent,
	}
}

// Identity names the layer in errors and logs.
func (l *Layer) Identity() string {
	if l.Virtual {
		return StringTemplateIdentity
	}
	return l.Path
}
