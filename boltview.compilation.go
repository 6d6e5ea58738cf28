package boltview

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/itsatony/go-boltview/internal"
	"go.uber.org/zap"
)

var loopSpacePattern = regexp.MustCompile(`[ \t\r\n]+`)

// structuralPattern matches {name ...} and {/name} for the given names, which
// must already be ordered longest first.
func structuralPattern(names []string) *regexp.Regexp {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = regexp.QuoteMeta(name)
	}
	return regexp.MustCompile(`(?is)\{(/?)((` + strings.Join(quoted, "|") + `)\b[^}]*)\}`)
}

// Compilation is the state of a single compile call. Tag compilers and path
// resolvers receive it to inspect the current layer and compile child nodes.
type Compilation struct {
	engine *Engine
	shield *internal.Shield

	// layers is an arena; Layer.parent indexes into it.
	layers  []*Layer
	current int
	files   []string
	hashes  map[string]string

	tagPattern   *regexp.Regexp
	compilers    []TagCompiler
	resolvers    []PathResolver
	homeDir      string
	dataProvider string
	maxDepth     int
	logger       *zap.Logger
}

// Engine returns the engine running this compilation.
func (c *Compilation) Engine() *Engine {
	return c.engine
}

// Layer returns the layer currently being compiled.
func (c *Compilation) Layer() *Layer {
	if c.current == noParent {
		return nil
	}
	return c.layers[c.current]
}

// Root returns the layer the compile call started with.
func (c *Compilation) Root() *Layer {
	if len(c.layers) == 0 {
		return nil
	}
	return c.layers[0]
}

// Parent returns the layer that included l, or nil for the root.
func (c *Compilation) Parent(l *Layer) *Layer {
	if l == nil || l.parent == noParent {
		return nil
	}
	return c.layers[l.parent]
}

// Files returns the canonical paths of every file that took part so far, in
// the order they were first seen.
func (c *Compilation) Files() []string {
	return append([]string(nil), c.files...)
}

// Logger returns the engine logger.
func (c *Compilation) Logger() *zap.Logger {
	return c.logger
}

func (c *Compilation) run(root *Layer, compress bool) (string, error) {
	c.hashes = make(map[string]string)
	c.pushLayer(root)
	for _, compiler := range c.compilers {
		compiler.Start(root, c)
	}

	nodes, err := c.extract(root.Source)
	if err != nil {
		return "", err
	}
	code, err := c.CompileNodes(nodes)
	if err != nil {
		return "", err
	}

	code = internal.CompileScalars(code)
	if compress {
		code = internal.CompactWhitespace(code)
	}
	code = internal.JoinCodeBlocks(c.shield.Restore(code))
	code = internal.FormatManifest(c.manifestEntries(), compress) + code

	for _, compiler := range c.compilers {
		compiler.End(code, c)
	}
	c.popLayer()
	return code, nil
}

func (c *Compilation) pushLayer(l *Layer) {
	l.parent = c.current
	if parent := c.Layer(); parent != nil {
		l.Depth = parent.Depth + 1
	}
	c.layers = append(c.layers, l)
	c.current = len(c.layers) - 1

	if !l.Virtual {
		if _, seen := c.hashes[l.Path]; !seen {
			sum := md5.Sum([]byte(l.Source))
			c.hashes[l.Path] = hex.EncodeToString(sum[:])
			c.files = append(c.files, l.Path)
		}
	}
	c.logger.Debug(LogMsgLayerPush, zap.String(LogFieldLayer, l.Identity()), zap.Int(LogFieldDepth, l.Depth))
}

func (c *Compilation) popLayer() {
	l := c.Layer()
	c.current = l.parent
	c.logger.Debug(LogMsgLayerPop, zap.String(LogFieldLayer, l.Identity()), zap.Int(LogFieldDepth, l.Depth))
}

func (c *Compilation) manifestEntries() []internal.ManifestEntry {
	entries := make([]internal.ManifestEntry, 0, len(c.files))
	for _, file := range c.files {
		name := file
		if c.homeDir != "" && strings.HasPrefix(file, c.homeDir) {
			name = file[len(c.homeDir):]
		}
		entries = append(entries, internal.ManifestEntry{Path: name, Hash: c.hashes[file]})
	}
	return entries
}

// extract shields literal and raw code regions of a layer source and builds
// its structural tag tree.
func (c *Compilation) extract(source string) ([]Node, error) {
	content := c.shield.HoldCode(c.shield.HoldLiteral(internal.ClearNativeCode(source)))
	layer := c.Layer().Identity()

	type frame struct {
		tag    *Tag
		marker string
		nodes  []Node
	}
	stack := []*frame{{}}
	last := 0
	for _, loc := range c.tagPattern.FindAllStringSubmatchIndex(content, -1) {
		top := stack[len(stack)-1]
		if pre := content[last:loc[0]]; pre != "" {
			top.nodes = append(top.nodes, Text(pre))
		}
		last = loc[1]
		name := strings.ToLower(content[loc[6]:loc[7]])

		if loc[3] > loc[2] {
			if len(stack) == 1 {
				return nil, NewStartTagNotFoundError(content[loc[0]:loc[1]], layer)
			}
			if top.tag.Name != name {
				return nil, NewTagNotClosedError(top.marker, layer)
			}
			top.tag.Children = append(top.tag.Children, top.nodes...)
			stack = stack[:len(stack)-1]
			parent := stack[len(stack)-1]
			parent.nodes = append(parent.nodes, top.tag)
			continue
		}

		inner := strings.Trim(internal.ClearComment(content[loc[4]:loc[5]]), internal.PHPTrimChars)
		nameLen := loc[7] - loc[6]
		if strings.HasSuffix(inner, "/") && len(inner) > nameLen {
			tag := newTag(name, internal.ParseAttributes(inner[nameLen:len(inner)-1]), true)
			top.nodes = append(top.nodes, tag)
			continue
		}
		tag := newTag(name, internal.ParseAttributes(inner[nameLen:]), false)
		stack = append(stack, &frame{tag: tag, marker: "{" + inner + "}"})
	}
	if len(stack) > 1 {
		return nil, NewTagNotClosedError(stack[len(stack)-1].marker, layer)
	}
	root := stack[0]
	if rest := content[last:]; rest != "" {
		root.nodes = append(root.nodes, Text(rest))
	}
	return root.nodes, nil
}

// CompileNodes compiles a node sequence in the current layer: every tag is
// dispatched to its compiler, then the conditional and data tag passes run
// over the joined text.
func (c *Compilation) CompileNodes(nodes []Node) (string, error) {
	var sb strings.Builder
	for _, n := range nodes {
		switch node := n.(type) {
		case Text:
			sb.WriteString(string(node))
		case *Tag:
			code, err := c.compileTag(node)
			if err != nil {
				return "", err
			}
			sb.WriteString(code)
		}
	}

	layer := c.Layer().Identity()
	content, err := internal.CompileConditionals(sb.String())
	if err != nil {
		return "", wrapScanError(err, layer)
	}
	content, err = internal.CompileDataTags(content, c.dataProvider)
	if err != nil {
		return "", wrapScanError(err, layer)
	}
	return content, nil
}

func (c *Compilation) compileTag(tag *Tag) (string, error) {
	switch tag.Name {
	case TagNameTemplate:
		return c.compileInclude(tag)
	case TagNameLoop:
		return c.compileLoop(tag)
	}

	compiler, ok := c.engine.Compiler(tag.Name)
	if !ok {
		return "", nil
	}
	if tag.SelfClosing {
		tag.ClearInner()
	} else {
		inner, err := c.CompileNodes(tag.Children)
		if err != nil {
			return "", err
		}
		tag.SetInner(inner)
	}
	if err := compiler.Compile(tag, c); err != nil {
		return "", NewCompilerError(tag.Name, c.Layer().Identity(), err)
	}
	inner, _ := tag.Inner()
	if tag.Finalized() {
		return c.shield.HoldTaglib(inner), nil
	}
	return inner, nil
}

func (c *Compilation) compileLoop(tag *Tag) (string, error) {
	if tag.SelfClosing {
		return "", nil
	}
	start := tag.AttrDefault(AttrStart, DefaultLoopBound)
	end := tag.AttrDefault(AttrEnd, DefaultLoopBound)
	inner, err := c.CompileNodes(tag.Children)
	if err != nil {
		return "", err
	}

	if truthy(start) || truthy(end) {
		if start == end {
			return "", nil
		}
		step := tag.AttrDefault(AttrStep, DefaultLoopStep)
		key := tag.AttrDefault(AttrKey, DefaultLoopKey)
		cmp, op := ">", "-"
		if hostLess(start, end) {
			cmp, op = "<", "+"
		}
		return fmt.Sprintf(hostCountedLoopFmt, key, start, cmp, end, op, step) + inner + hostLoopEnd, nil
	}

	if !truthy(tag.Value) {
		return "", nil
	}
	value := strings.Trim(loopSpacePattern.ReplaceAllString(tag.Value, " "), internal.PHPTrimChars)
	tokens := strings.Split(value, " ")
	switch len(tokens) {
	case 1:
		return "", nil
	case 2:
		if !internal.IsVar(tokens[1]) {
			return "", NewLoopValueError(tag.Value, c.Layer().Identity())
		}
		return fmt.Sprintf(hostForeachFmt, internal.CompileDotVars(tokens[0]), tokens[1]) + inner + hostLoopEnd, nil
	case 3:
		if !internal.IsVar(tokens[1]) || !internal.IsVar(tokens[2]) {
			return "", NewLoopValueError(tag.Value, c.Layer().Identity())
		}
		return fmt.Sprintf(hostForeachPairFmt, internal.CompileDotVars(tokens[0]), tokens[1], tokens[2]) +
			inner + hostLoopEnd, nil
	default:
		return "", NewLoopValueError(tag.Value, c.Layer().Identity())
	}
}

func (c *Compilation) compileInclude(tag *Tag) (string, error) {
	if !truthy(tag.Value) {
		return "", nil
	}
	for _, resolver := range c.resolvers {
		resolver(tag, c)
	}

	current := c.Layer()
	path, err := c.resolveInclude(tag)
	if err != nil {
		return "", err
	}
	for l := current; l != nil; l = c.Parent(l) {
		if !l.Virtual && l.Path == path {
			return "", NewCircularTemplateError(path, current.Identity())
		}
	}
	if c.maxDepth > 0 && current.Depth >= c.maxDepth {
		return "", NewMaxDepthError(path, current.Identity(), c.maxDepth)
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return "", NewReadTemplateError(path, err)
	}
	sub := newFileLayer(path, string(source))
	c.pushLayer(sub)
	defer c.popLayer()

	nodes, err := c.extract(sub.Source)
	if err != nil {
		return "", err
	}
	if !tag.SelfClosing {
		nodes = spliceInner(nodes, tag.Children)
	}
	code, err := c.CompileNodes(nodes)
	if err != nil {
		return "", err
	}

	var start, end strings.Builder
	start.WriteString(hostIncludeOpen)
	end.WriteString(hostIncludeOpen)
	if sub.Depth > 1 {
		start.WriteString(hostParentPush)
		end.WriteString(hostParentPop)
	} else {
		start.WriteString(hostParentInit)
		end.WriteString(hostParentUnset)
	}
	start.WriteString(fmt.Sprintf(hostParentAssignFmt, tag.AttributeString()))
	end.WriteString(hostIncludeClose)

	return start.String() + code + end.String(), nil
}

// resolveInclude turns a {template} value into a canonical file path. A value
// starting with # is taken as is, anything else is joined with the current
// layer's directory. Without an explicit extension attribute the current
// layer's extension is tried as a fallback.
func (c *Compilation) resolveInclude(tag *Tag) (string, error) {
	layer := c.Layer()
	path := tag.Value
	if strings.HasPrefix(path, AbsolutePathMarker) {
		path = path[len(AbsolutePathMarker):]
	} else if layer.Dir != "" {
		path = filepath.Join(layer.Dir, path)
	}

	ext, hasExt := tag.Attr(AttrExtension)
	if !truthy(ext) {
		if resolved, ok := realFile(path); ok {
			return resolved, nil
		}
	}
	if !hasExt {
		ext = layer.Ext
	}
	if truthy(ext) {
		if resolved, ok := realFile(path + "." + ext); ok {
			return resolved, nil
		}
	}
	return "", NewTemplateNotFoundError(path, layer.Identity())
}

// spliceInner replaces every {$inner} in the top level text runs of an
// included template with the including tag's children.
func spliceInner(nodes, children []Node) []Node {
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		text, ok := n.(Text)
		if !ok || !strings.Contains(string(text), InnerPlaceholder) {
			out = append(out, n)
			continue
		}
		parts := strings.Split(string(text), InnerPlaceholder)
		out = append(out, Text(parts[0]))
		for _, part := range parts[1:] {
			out = append(out, children...)
			out = append(out, Text(part))
		}
	}
	return out
}

// truthy applies host language truthiness to a string value.
func truthy(s string) bool {
	return s != "" && s != "0"
}

// hostLess compares two attribute values the way the host language does:
// numerically when both are numeric strings, byte-wise otherwise.
func hostLess(a, b string) bool {
	if internal.IsNumeric(a) && internal.IsNumeric(b) {
		x, errX := strconv.ParseFloat(strings.TrimSpace(a), 64)
		y, errY := strconv.ParseFloat(strings.TrimSpace(b), 64)
		if errX == nil && errY == nil {
			return x < y
		}
	}
	return a < b
}
