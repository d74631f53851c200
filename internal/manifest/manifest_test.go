package manifest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/handiism/manifest-downloader/internal/logger"
	"github.com/handiism/manifest-downloader/internal/model"
	"github.com/stretchr/testify/require"
)

const sample = `<?xml version="1.0"?>
<entries>
  <entry name="pkgs">
    <file name="foo.tar.gz" destdir="dist" url="https://example.com/$(name)">
      <checksum algo="sha256" digest="2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"/>
      <checksum algo="md5" digest="5d41402abc4b2a76b9719d911017c592"/>
    </file>
    <file name="bar.zip" destdir="/opt/cache" url="https://mirror.example.com/static/bar.zip"/>
  </entry>
  <comment>ignored</comment>
  <entry name="docs">
    <file name="README" destdir="docs/./txt" url="https://example.com/$(name)?raw=1"/>
  </entry>
</entries>
`

func newTestParser() *Parser {
	return NewParser("/srv/mirror", logger.Discard())
}

func TestParse_Sample(t *testing.T) {
	entries, err := newTestParser().Parse(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	pkgs := entries[0]
	require.Equal(t, "pkgs", pkgs.Name)
	require.Len(t, pkgs.Files, 2)

	foo := pkgs.Files[0]
	require.Equal(t, "foo.tar.gz", foo.Name)
	require.Equal(t, "/srv/mirror/dist", foo.DestDir)
	require.Equal(t, "https://example.com/foo.tar.gz", foo.URL)
	require.Equal(t, map[string]string{
		"sha256": "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		"md5":    "5d41402abc4b2a76b9719d911017c592",
	}, foo.Checksums)
	require.False(t, foo.Size.Known())

	bar := pkgs.Files[1]
	require.Equal(t, "/opt/cache", bar.DestDir)
	require.Empty(t, bar.Checksums)

	docs := entries[1]
	require.Equal(t, "docs", docs.Name)
	require.Equal(t, "/srv/mirror/docs/txt", docs.Files[0].DestDir)
	require.Equal(t, "https://example.com/README?raw=1", docs.Files[0].URL)
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not xml", `this is not xml`},
		{"wrong root", `<files><entry name="x"/></files>`},
		{"entry without name", `<entries><entry/></entries>`},
		{"file without url", `<entries><entry name="e"><file name="f" destdir="d"/></entry></entries>`},
		{"file without destdir", `<entries><entry name="e"><file name="f" url="u"/></entry></entries>`},
		{"checksum without digest", `<entries><entry name="e"><file name="f" destdir="d" url="u"><checksum algo="sha256"/></file></entry></entries>`},
		{"file outside entry", `<entries><file name="f" destdir="d" url="u"/></entries>`},
		{"checksum in entry", `<entries><entry name="e"><checksum algo="md5" digest="x"/></entry></entries>`},
		{"entry in file", `<entries><entry name="e"><file name="f" destdir="d" url="u"><entry name="x"/></file></entry></entries>`},
		{"duplicate checksum", `<entries><entry name="e"><file name="f" destdir="d" url="u">
			<checksum algo="md5" digest="a"/><checksum algo="md5" digest="b"/></file></entry></entries>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestParser().Parse(strings.NewReader(tt.doc))
			require.ErrorIs(t, err, ErrMalformedManifest)
		})
	}
}

func TestParse_InvalidFileName(t *testing.T) {
	doc := `<entries><entry name="e"><file name="../escape" destdir="d" url="u"/></entry></entries>`
	_, err := newTestParser().Parse(strings.NewReader(doc))
	require.ErrorIs(t, err, model.ErrInvalidFile)
}

func TestParse_UnknownTagsSkipped(t *testing.T) {
	doc := `<entries>
	  <entry name="e" extra="ignored">
	    <note/>
	    <file name="f" destdir="d" url="u"><signature/></file>
	  </entry>
	</entries>`

	entries, err := newTestParser().Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Len(t, entries[0].Files, 1)
	require.Empty(t, entries[0].Files[0].Checksums)
}

func TestParse_EmptyManifest(t *testing.T) {
	entries, err := newTestParser().Parse(strings.NewReader(`<entries/>`))
	require.NoError(t, err)
	require.Empty(t, entries)
}

func writeManifest(t *testing.T, dir, name, entryName string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	doc := `<entries><entry name="` + entryName + `"><file name="f" destdir="d" url="u"/></entry></entries>`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))
	return path
}

func TestLoadAll_PreservesArgumentOrder(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	var want []string
	for _, name := range []string{"e", "d", "c", "b", "a"} {
		paths = append(paths, writeManifest(t, dir, name+".xml", name))
		want = append(want, name)
	}

	entries, err := LoadAll(context.Background(), newTestParser(), paths, 2)
	require.NoError(t, err)

	var got []string
	for _, e := range entries {
		got = append(got, e.Name)
	}
	require.Equal(t, want, got)
}

func TestLoadAll_Errors(t *testing.T) {
	dir := t.TempDir()
	good := writeManifest(t, dir, "good.xml", "good")

	_, err := LoadAll(context.Background(), newTestParser(), []string{good, filepath.Join(dir, "missing.xml")}, 4)
	require.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.xml")
	require.NoError(t, os.WriteFile(bad, []byte(`<nope/>`), 0644))
	_, err = LoadAll(context.Background(), newTestParser(), []string{bad}, 1)
	require.ErrorIs(t, err, ErrMalformedManifest)
	require.ErrorContains(t, err, "bad.xml")
}
