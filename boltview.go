// Package boltview compiles template markup into PHP code.
//
// Templates mix ordinary text with brace tags:
//
//	<h1>{$page.title}</h1>
//	{if $user}Hello {$user:name or guest}{else}Please log in{/if}
//	{loop $items $key $item}<li>{$key}: {$item}</li>{/loop}
//	{template parts/footer year=2024 /}
//
// The compiled output starts with a one-line manifest header recording the md5
// fingerprint of every file that took part, followed by the PHP code. The
// host runtime executes the code against its variables; boltview never
// renders anything itself.
//
// # Basic Usage
//
//	engine := boltview.MustNew(boltview.WithHomeDir("views"))
//	code, err := engine.Compile("views/index.html", false)
//
// Template text can be compiled without a file; relative {template} paths then
// resolve against the virtual directory:
//
//	code, err := engine.CompileString("{template header/}{$body}", "views", true)
//
// # Tag Syntax
//
// Scalar output: {$var}, {$arr.key}, {$obj:prop}, {CONSTANT}, {func($x)} and
// {$var or default}. Doubling the braces, {{$var}}, prints the marker as text.
//
// Structural tags: {template path attr=value /} includes another template,
// {loop ...}{/loop} emits for and foreach loops. {literal}...{/literal} is
// copied verbatim and {php}...{/php} or {php code /} embeds raw PHP.
//
// Conditionals: {if cond}, {elseif cond}, {else}, {/if}.
//
// Data tags: {@name attr=value /} and {@name}...{/@name} call the configured
// data provider function at render time.
//
// # Custom Tags
//
// Register a TagCompiler to handle new structural tags:
//
//	engine.MustRegister(boltview.CompilerFunc("upper,caps", func(tag *boltview.Tag, c *boltview.Compilation) error {
//	    inner, _ := tag.Inner()
//	    tag.SetInner("<?php ob_start(); ?>" + inner + "<?php echo strtoupper(ob_get_clean()); ?>")
//	    return nil
//	}))
//
// # Caching
//
// A View sits on top of an Engine and keeps compiled artifacts in an
// ArtifactStore (memory, filesystem or postgres), recompiling only when the
// manifest says a source file changed.
package boltview
