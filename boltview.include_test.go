package boltview

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/itsatony/go-cuserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bodyOf(t *testing.T, code string) string {
	t.Helper()
	_, body, found := strings.Cut(code, "\n")
	require.True(t, found)
	return body
}

func TestInclude_FileWithExtensionFallback(t *testing.T) {
	dir := realTempDir(t)
	parent := writeFile(t, dir, "parent.html", "<h1>{template child title=Hi /}</h1>")
	writeFile(t, dir, "child.html", "<b>{$parent.title}</b>")

	code, err := MustNew().Compile(parent, false)
	require.NoError(t, err)

	expected := "<h1><?php \n$__parent = [];\n$parent = [\n'title' => 'Hi',\n];\n?>" +
		"<b><?php echo $parent['title'];?></b>" +
		"<?php \nunset($parent, $__parent);\n?></h1>"
	assert.Equal(t, expected, bodyOf(t, code))
}

func TestInclude_NestedParentStack(t *testing.T) {
	dir := realTempDir(t)
	root := writeFile(t, dir, "root.html", "{template mid /}")
	writeFile(t, dir, "mid.html", "{template leaf /}")
	writeFile(t, dir, "leaf.html", "x")

	code, err := MustNew().Compile(root, false)
	require.NoError(t, err)

	expected := "<?php \n$__parent = [];\n$parent = [];\n \n" +
		"$__parent[] = $parent;\n$parent = [];\n?>x<?php \n" +
		"$parent = array_pop($__parent);\n \n" +
		"unset($parent, $__parent);\n?>"
	assert.Equal(t, expected, bodyOf(t, code))
}

func TestInclude_InnerPlaceholder(t *testing.T) {
	dir := realTempDir(t)
	page := writeFile(t, dir, "page.html", "{template layout}<p>{$x}</p>{/template}")
	writeFile(t, dir, "layout.html", "<main>{$inner}</main><aside>{$inner}</aside>")

	code, err := MustNew().Compile(page, false)
	require.NoError(t, err)
	body := bodyOf(t, code)
	assert.Contains(t, body, "<main><p><?php echo $x;?></p></main><aside><p><?php echo $x;?></p></aside>")
	assert.NotContains(t, body, InnerPlaceholder)
}

func TestInclude_SelfClosingKeepsInnerPlaceholder(t *testing.T) {
	dir := realTempDir(t)
	page := writeFile(t, dir, "page.html", "{template layout /}")
	writeFile(t, dir, "layout.html", "<main>{$inner}</main>")

	code, err := MustNew().Compile(page, false)
	require.NoError(t, err)
	assert.Contains(t, bodyOf(t, code), "<main><?php echo $inner;?></main>")
}

func TestInclude_ExplicitExtension(t *testing.T) {
	dir := realTempDir(t)
	writeFile(t, dir, "part.tpl", "tpl")
	writeFile(t, dir, "part.html", "html")

	engine := MustNew()
	code, err := engine.CompileString("{template part extension=tpl /}", dir, false)
	require.NoError(t, err)
	assert.Contains(t, code, "?>tpl<?php")

	_, err = engine.CompileString("{template part /}", dir, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Template ["+filepath.Join(dir, "part")+"] not found @[StringTemplate]")

	var customErr *cuserr.CustomError
	require.True(t, errors.As(err, &customErr))
	path, ok := customErr.GetMetadata(MetaKeyPath)
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "part"), path)
}

func TestInclude_EmptyValueCompilesToNothing(t *testing.T) {
	engine := MustNew()
	assert.Equal(t, "ab", compileBody(t, engine, "a{template /}b"))
	assert.Equal(t, "ab", compileBody(t, engine, "a{template 0 /}b"))
}

func TestInclude_Circular(t *testing.T) {
	dir := realTempDir(t)
	a := writeFile(t, dir, "a.html", "{template b /}")
	b := writeFile(t, dir, "b.html", "{template a /}")

	_, err := MustNew().Compile(a, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Circular template ["+a+"] @["+b+"]")

	self := writeFile(t, dir, "self.html", "{template self /}")
	_, err = MustNew().Compile(self, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Circular template ["+self+"]")
}

func TestInclude_RepeatedSiblingIsNotCircular(t *testing.T) {
	dir := realTempDir(t)
	page := writeFile(t, dir, "page.html", "{template row /}{template row /}")
	writeFile(t, dir, "row.html", "r")

	code, err := MustNew().Compile(page, false)
	require.NoError(t, err)
	manifest, err := ParseManifest(code)
	require.NoError(t, err)
	assert.Len(t, manifest.Entries, 2)
	assert.Equal(t, 2, strings.Count(code, "?>r<?php"))
}

func TestInclude_MaxDepth(t *testing.T) {
	dir := realTempDir(t)
	a := writeFile(t, dir, "a.html", "{template b /}")
	b := writeFile(t, dir, "b.html", "{template c /}")
	writeFile(t, dir, "c.html", "c")

	_, err := MustNew(WithMaxDepth(2)).Compile(a, false)
	require.NoError(t, err)

	_, err = MustNew(WithMaxDepth(1)).Compile(a, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds maximum include depth 1 @["+b+"]")

	_, err = MustNew(WithMaxDepth(0)).Compile(a, false)
	require.NoError(t, err)
}

func TestInclude_ErrorsNameIncludedLayer(t *testing.T) {
	dir := realTempDir(t)
	page := writeFile(t, dir, "page.html", "{template broken /}")
	broken := writeFile(t, dir, "broken.html", "{loop $a $b}")

	_, err := MustNew().Compile(page, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `Tag "{loop $a $b}" not closed @[`+broken+`]`)
}

func TestInclude_PathResolvers(t *testing.T) {
	dir := realTempDir(t)
	fixtures := filepath.Join(dir, "fixtures")
	writeFile(t, fixtures, "child.html", "child")
	views := filepath.Join(dir, "views")
	writeFile(t, views, "fixtures/local.html", "local")

	engine := MustNew()
	_, err := engine.CompileString("{template @child /}", views, false)
	require.Error(t, err)

	engine.AddPathResolver(func(tag *Tag, c *Compilation) {
		if strings.HasPrefix(tag.Value, "@") {
			tag.SetValue(AbsolutePathMarker + fixtures + "/" + tag.Value[1:])
		}
	})
	engine.AddPathResolver(func(tag *Tag, c *Compilation) {
		if strings.HasPrefix(tag.Value, "%") {
			tag.SetValue("fixtures/" + tag.Value[1:])
		}
	})
	engine.AddPathResolver(nil)

	code, err := engine.CompileString("{template @child extension=html /}|{template %local extension=html /}", views, false)
	require.NoError(t, err)
	assert.Contains(t, code, "?>child<?php")
	assert.Contains(t, code, "?>local<?php")
}

func TestInclude_ResolverSeesCurrentLayer(t *testing.T) {
	dir := realTempDir(t)
	page := writeFile(t, dir, "page.html", "{template part /}")
	writeFile(t, dir, "part.html", "p")

	var seen []string
	engine := MustNew(WithPathResolver(func(tag *Tag, c *Compilation) {
		seen = append(seen, c.Layer().Base)
		assert.Same(t, c.Root(), c.Layer())
		assert.Nil(t, c.Parent(c.Layer()))
	}))
	_, err := engine.Compile(page, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"page.html"}, seen)
}

func TestInclude_FailedIncludeRestoresLayer(t *testing.T) {
	dir := realTempDir(t)
	page := writeFile(t, dir, "page.html", "{try /}")
	writeFile(t, dir, "broken.html", "{if $x}never closed")

	engine := MustNew(WithCompiler(CompilerFunc("try", func(tag *Tag, c *Compilation) error {
		before := c.Layer()
		_, err := c.CompileNodes([]Node{&Tag{Name: TagNameTemplate, Value: "broken", SelfClosing: true}})
		assert.Error(t, err)
		assert.Same(t, before, c.Layer())
		tag.SetInner("recovered")
		return nil
	})))

	code, err := engine.Compile(page, false)
	require.NoError(t, err)
	assert.Equal(t, "recovered", bodyOf(t, code))
}

func TestManifest_FreshWithFileOutsideHome(t *testing.T) {
	home := realTempDir(t)
	shared := writeFile(t, realTempDir(t), "shared.html", "shared")
	root := writeFile(t, home, "root.html", "{template #"+shared+" /}")

	code, err := MustNew(WithHomeDir(home)).Compile(root, false)
	require.NoError(t, err)
	manifest, err := ParseManifest(code)
	require.NoError(t, err)
	assert.Equal(t, []string{"/root.html", shared}, manifest.Files())
	assert.True(t, manifest.Fresh(home, false))

	writeFile(t, filepath.Dir(shared), "shared.html", "changed")
	assert.False(t, manifest.Fresh(home, false))
}

func TestManifest_Header(t *testing.T) {
	dir := realTempDir(t)
	parent := writeFile(t, dir, "parent.html", "{template parts/child /}")
	child := writeFile(t, dir, "parts/child.html", "child")

	parentSum, err := Fingerprint(parent)
	require.NoError(t, err)
	childSum, err := Fingerprint(child)
	require.NoError(t, err)

	t.Run("absolute paths without home dir", func(t *testing.T) {
		code, err := MustNew().Compile(parent, true)
		require.NoError(t, err)

		manifest, err := ParseManifest(code)
		require.NoError(t, err)
		assert.True(t, manifest.HasCompress)
		assert.True(t, manifest.Compress)
		assert.Equal(t, []string{parent, child}, manifest.Files())
		assert.Equal(t, parentSum, manifest.Entries[0].Hash)
		assert.Equal(t, childSum, manifest.Entries[1].Hash)
	})

	t.Run("home relative paths", func(t *testing.T) {
		engine := MustNew(WithHomeDir(dir))
		code, err := engine.Compile(parent, false)
		require.NoError(t, err)

		manifest, err := ParseManifest(code)
		require.NoError(t, err)
		assert.False(t, manifest.Compress)
		assert.Equal(t, []string{"/parent.html", "/parts/child.html"}, manifest.Files())
		assert.True(t, manifest.Fresh(dir, false))
		assert.False(t, manifest.Fresh(dir, true))
	})

	t.Run("string templates list only included files", func(t *testing.T) {
		code, err := MustNew().CompileString("{template parts/child /}", dir, false)
		require.NoError(t, err)
		manifest, err := ParseManifest(code)
		require.NoError(t, err)
		assert.Equal(t, []string{child}, manifest.Files())
	})
}

func TestManifest_FreshAfterChange(t *testing.T) {
	dir := realTempDir(t)
	parent := writeFile(t, dir, "parent.html", "{template child /}")
	child := writeFile(t, dir, "child.html", "one")

	code, err := MustNew().Compile(parent, false)
	require.NoError(t, err)
	manifest, err := ParseManifest(code)
	require.NoError(t, err)
	assert.True(t, manifest.Fresh("", false))

	// Touching without a content change keeps the artifact fresh.
	now := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(child, now, now))
	assert.True(t, manifest.Fresh("", false))

	require.NoError(t, os.WriteFile(child, []byte("two"), 0o644))
	assert.False(t, manifest.Fresh("", false))

	require.NoError(t, os.Remove(child))
	assert.False(t, manifest.Fresh("", false))
}

func TestParseManifest_Malformed(t *testing.T) {
	_, err := ParseManifest("<h1>no header</h1>")
	require.Error(t, err)

	manifest, err := ParseManifest("<?php /*a:0:{}*/ ?>\nbody")
	require.NoError(t, err)
	assert.False(t, manifest.HasCompress)
	assert.False(t, manifest.Fresh("", false))
}

func TestFingerprint(t *testing.T) {
	dir := realTempDir(t)
	path := writeFile(t, dir, "a.txt", "hello")

	sum, err := Fingerprint(path)
	require.NoError(t, err)
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", sum)

	_, err = Fingerprint(dir)
	assert.Error(t, err)
	_, err = Fingerprint(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
