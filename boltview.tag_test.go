package boltview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTag(t *testing.T) {
	paired := newTag("box", ParseAttributes(" main foo=bar"), false)
	assert.Equal(t, "box", paired.Name)
	assert.Equal(t, "main", paired.Value)
	assert.False(t, paired.SelfClosing)
	assert.NotNil(t, paired.Children)
	assert.Empty(t, paired.Children)
	_, ok := paired.Attr("__value__")
	assert.False(t, ok)

	single := newTag("box", ParseAttributes(" foo=bar"), true)
	assert.Equal(t, "", single.Value)
	assert.True(t, single.SelfClosing)
	assert.Nil(t, single.Children)
}

func TestTag_Attributes(t *testing.T) {
	tag := newTag("box", ParseAttributes(" foo=foo bar=bar"), true)

	foo, ok := tag.Attr("foo")
	require.True(t, ok)
	assert.Equal(t, "foo", foo)
	assert.Equal(t, "default", tag.AttrDefault("baz", "default"))

	tag.SetAttr("bar", "bar2")
	bar, _ := tag.Attr("bar")
	assert.Equal(t, "bar2", bar)

	tag.MergeAttrs(ParseAttributes(" foo=foo2 baz=baz"))
	assert.Equal(t, []string{"foo", "bar", "baz"}, tag.Attributes.Keys())
	foo, _ = tag.Attr("foo")
	assert.Equal(t, "foo2", foo)

	tag.KeepAttr("bar", "baz")
	assert.Equal(t, []string{"bar", "baz"}, tag.Attributes.Keys())

	tag.RemoveAttr("baz")
	assert.Equal(t, "[\n'bar' => 'bar2',\n]", tag.AttributeString())

	tag.ClearAttrs()
	assert.Empty(t, tag.Attributes)
	assert.Equal(t, "[]", tag.AttributeString())
}

func TestTag_FlagAttribute(t *testing.T) {
	tag := newTag("box", ParseAttributes(" disabled"), true)
	assert.Equal(t, "disabled", tag.Value)

	tag = newTag("box", ParseAttributes(" main disabled"), true)
	assert.Equal(t, "main disabled", tag.Value)
}

func TestTag_Value(t *testing.T) {
	tag := newTag("template", ParseAttributes(" @parts/header"), true)
	assert.Equal(t, "@parts/header", tag.Value)
	tag.SetValue("#/abs/parts/header")
	assert.Equal(t, "#/abs/parts/header", tag.Value)
}

func TestTag_Inner(t *testing.T) {
	tag := newTag("box", nil, true)
	_, ok := tag.Inner()
	assert.False(t, ok)

	tag.SetInner("")
	inner, ok := tag.Inner()
	assert.True(t, ok)
	assert.Equal(t, "", inner)

	tag.SetInner("code")
	inner, _ = tag.Inner()
	assert.Equal(t, "code", inner)

	tag.ClearInner()
	_, ok = tag.Inner()
	assert.False(t, ok)
}

func TestTag_Finalized(t *testing.T) {
	tag := newTag("box", nil, false)
	assert.False(t, tag.Finalized())
	tag.SetFinalized(true)
	assert.True(t, tag.Finalized())
	tag.SetFinalized(false)
	assert.False(t, tag.Finalized())
}

func TestExtract_Tree(t *testing.T) {
	engine := MustNew()
	engine.MustRegister(CompilerFunc("box", func(*Tag, *Compilation) error { return nil }))

	c := engine.newCompilation()
	c.hashes = make(map[string]string)
	c.pushLayer(newStringLayer("", ""))

	nodes, err := c.extract("a{box one}b{loop $x $y}c{/loop}{box two /}{/box}d")
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	assert.Equal(t, Text("a"), nodes[0])
	assert.Equal(t, Text("d"), nodes[2])

	outer, ok := nodes[1].(*Tag)
	require.True(t, ok)
	assert.Equal(t, "box", outer.Name)
	assert.Equal(t, "one", outer.Value)
	require.Len(t, outer.Children, 3)
	assert.Equal(t, Text("b"), outer.Children[0])

	loop, ok := outer.Children[1].(*Tag)
	require.True(t, ok)
	assert.Equal(t, "loop", loop.Name)
	assert.Equal(t, "$x $y", loop.Value)
	assert.Equal(t, []Node{Text("c")}, loop.Children)

	inner, ok := outer.Children[2].(*Tag)
	require.True(t, ok)
	assert.True(t, inner.SelfClosing)
	assert.Equal(t, "two", inner.Value)
	assert.Nil(t, inner.Children)
}

func TestExtract_ShieldedRegions(t *testing.T) {
	engine := MustNew()
	c := engine.newCompilation()
	c.hashes = make(map[string]string)
	c.pushLayer(newStringLayer("", ""))

	nodes, err := c.extract("{literal}{loop $a $b}{/literal}{php}{/loop}{/php}")
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	_, ok := nodes[0].(Text)
	assert.True(t, ok)
}
