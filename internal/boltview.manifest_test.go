package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatManifest(t *testing.T) {
	entries := []ManifestEntry{
		{Path: "/views/index.html", Hash: "0cc175b9c0f1b6a831c399e269772661"},
		{Path: "parts/head.html", Hash: "92eb5ffee6ae2fec3ad71c777531578f"},
	}
	header := FormatManifest(entries, true)
	assert.Equal(t,
		`<?php /*a:3:{s:17:"/views/index.html";s:32:"0cc175b9c0f1b6a831c399e269772661";`+
			`s:15:"parts/head.html";s:32:"92eb5ffee6ae2fec3ad71c777531578f";`+
			`s:12:"__compress__";b:1;}*/ ?>`+"\n",
		header)

	assert.Equal(t, "<?php /*a:1:{s:12:\"__compress__\";b:0;}*/ ?>\n", FormatManifest(nil, false))
}

func TestFormatManifest_NumericKey(t *testing.T) {
	header := FormatManifest([]ManifestEntry{{Path: "42", Hash: "h"}}, false)
	assert.Equal(t, "<?php /*a:2:{i:42;s:1:\"h\";s:12:\"__compress__\";b:0;}*/ ?>\n", header)

	data, err := ParseManifest(header)
	require.NoError(t, err)
	assert.Equal(t, []ManifestEntry{{Path: "42", Hash: "h"}}, data.Entries)
}

func TestParseManifest(t *testing.T) {
	entries := []ManifestEntry{
		{Path: "a b/ü.html", Hash: "d41d8cd98f00b204e9800998ecf8427e"},
		{Path: "x;y:\"z\".html", Hash: "00000000000000000000000000000000"},
	}
	artifact := FormatManifest(entries, true) + "<?php echo 1;?>"

	data, err := ParseManifest(artifact)
	require.NoError(t, err)
	assert.Equal(t, entries, data.Entries)
	assert.True(t, data.Compress)
	assert.True(t, data.HasCompress)
}

func TestParseManifest_Malformed(t *testing.T) {
	inputs := []string{
		"",
		"hello",
		"<?php /*a:1:{s:3:\"abc\";*/ ?>",
		"<?php /*a:1:{s:9:\"abc\";s:1:\"x\";}*/ ?>",
		"<?php /*a:x:{}*/ ?>",
		"<?php /*a:0:{}extra*/ ?>",
		"<?php /*a:1:{s:9223372036854775807:\"x\";s:1:\"y\";}*/ ?>",
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := ParseManifest(input)
			var scanErr *ScanError
			require.ErrorAs(t, err, &scanErr)
			assert.Equal(t, ErrMsgManifestMalformed, scanErr.Message)
		})
	}
}
