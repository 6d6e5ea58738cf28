package boltview

// TagCompiler handles custom structural tags. TagNames returns a comma
// separated list: the first name is canonical, the rest are aliases. Names
// are case-insensitive.
//
// Start is called once per compile call with the root layer before any tag is
// compiled, End once with the assembled output. Compile is called once per
// matched tag. For paired tags the inner code is already set to the compiled
// children; whatever the inner code is afterwards replaces the tag. A compiler
// that marks the tag finalized keeps its inner code out of the scalar pass.
type TagCompiler interface {
	TagNames() string
	Start(root *Layer, c *Compilation)
	End(code string, c *Compilation)
	Compile(tag *Tag, c *Compilation) error
}

// BaseCompiler provides no-op lifecycle hooks. Embed it and implement Compile.
type BaseCompiler struct {
	Names string
}

// TagNames returns the configured names
func (b BaseCompiler) TagNames() string {
	return b.Names
}

// Start does nothing
func (BaseCompiler) Start(*Layer, *Compilation) {}

// End does nothing
func (BaseCompiler) End(string, *Compilation) {}

// CompileFunc is the signature of TagCompiler.Compile.
type CompileFunc func(tag *Tag, c *Compilation) error

type funcCompiler struct {
	BaseCompiler
	fn CompileFunc
}

func (f *funcCompiler) Compile(tag *Tag, c *Compilation) error {
	return f.fn(tag, c)
}

// CompilerFunc builds a TagCompiler from a compile function.
//
//	engine.MustRegister(boltview.CompilerFunc("upper", func(tag *boltview.Tag, c *boltview.Compilation) error {
//	    inner, _ := tag.Inner()
//	    tag.SetInner("<?php ob_start(); ?>" + inner + "<?php echo strtoupper(ob_get_clean()); ?>")
//	    return nil
//	}))
func CompilerFunc(names string, fn CompileFunc) TagCompiler {
	return &funcCompiler{BaseCompiler: BaseCompiler{Names: names}, fn: fn}
}

// PathResolver may rewrite a {template} tag's value before the include path
// is resolved, e.g. to expand an alias prefix.
type PathResolver func(tag *Tag, c *Compilation)
