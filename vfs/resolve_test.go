package vfs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/midbel/gorg/vfs"
)

func TestResolve(t *testing.T) {
	outside := filepath.Join(t.TempDir(), "outside.xml")
	require.NoError(t, os.WriteFile(outside, []byte("<outside/>"), 0o644))

	tests := []struct {
		Name string
		File string
		Root string
		Want string
	}{
		{
			Name: "already-under-root",
			File: "/htdocs/xml/f.xml",
			Root: "/htdocs",
			Want: "/htdocs/xml/f.xml",
		},
		{
			Name: "prepend-root",
			File: "/xml/f.xml",
			Root: "/htdocs",
			Want: "/htdocs/xml/f.xml",
		},
		{
			Name: "file-uri-ignores-root",
			File: "file:///etc/xml/catalog",
			Root: "/htdocs",
			Want: "/etc/xml/catalog",
		},
		{
			Name: "file-uri-without-root",
			File: "file:///etc/xml/catalog",
			Want: "/etc/xml/catalog",
		},
		{
			Name: "no-root",
			File: "/xml/f.xml",
			Want: "/xml/f.xml",
		},
		{
			Name: "existing-outside-root",
			File: outside,
			Root: "/htdocs",
			Want: outside,
		},
		{
			Name: "no-canonicalization",
			File: "/xml/../f.xml",
			Root: "/htdocs",
			Want: "/htdocs/xml/../f.xml",
		},
	}
	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			got, err := vfs.Resolve(tt.File, tt.Root)
			require.NoError(t, err)
			assert.Equal(t, tt.Want, got)
		})
	}
}

func TestResolveNotLocal(t *testing.T) {
	for _, file := range []string{"extra.xml", "", "http://www.gentoo.org/dtd/guide.dtd", "ftp://host/file.xml", "file://relative"} {
		_, err := vfs.Resolve(file, "/htdocs")
		assert.ErrorIs(t, err, vfs.ErrNotLocal, file)
	}
}

func TestIsRemote(t *testing.T) {
	assert.True(t, vfs.IsRemote("http://www.gentoo.org/"))
	assert.True(t, vfs.IsRemote("ftp://ftp.gentoo.org/"))
	assert.False(t, vfs.IsRemote("https://www.gentoo.org/"))
	assert.False(t, vfs.IsRemote("/http://"))
}
