package download

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/handiism/manifest-downloader/internal/checksum"
	"github.com/handiism/manifest-downloader/internal/config"
	"github.com/handiism/manifest-downloader/internal/logger"
	"github.com/handiism/manifest-downloader/internal/model"
	"github.com/handiism/manifest-downloader/internal/progress"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const healthy = "healthy archive contents"

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// fakeFetcher serves content from memory and counts calls per file.
type fakeFetcher struct {
	fs      afero.Fs
	content map[string]string
	err     error
	calls   map[string]int
}

func newFakeFetcher(fs afero.Fs, content map[string]string) *fakeFetcher {
	return &fakeFetcher{fs: fs, content: content, calls: map[string]int{}}
}

func (f *fakeFetcher) Fetch(ctx context.Context, file *model.File, onProgress model.ProgressFunc) error {
	f.calls[file.Name]++
	if f.err != nil {
		return f.err
	}
	body := f.content[file.Name]
	file.Size = model.KnownSize(int64(len(body)))
	if err := afero.WriteFile(f.fs, file.Path(), []byte(body), 0644); err != nil {
		return err
	}
	onProgress(int64(len(body)), file.Size)
	return nil
}

type testEnv struct {
	fs      afero.Fs
	fetcher *fakeFetcher
	out     *bytes.Buffer
	events  []ProgressEvent
	manager *Manager
}

func newTestEnv(t *testing.T, remote map[string]string) *testEnv {
	t.Helper()
	env := &testEnv{
		fs:  afero.NewMemMapFs(),
		out: &bytes.Buffer{},
	}
	env.fetcher = newFakeFetcher(env.fs, remote)

	settings := config.DefaultSettings()
	settings.RootDir = "/mirror"
	env.manager = NewManager(settings, env.out, func(e ProgressEvent) {
		env.events = append(env.events, e)
	},
		WithFS(env.fs),
		WithFetcher(env.fetcher),
		WithVerifier(checksum.NewVerifier(env.fs, 4, logger.Discard())),
		WithTracker(progress.NewReporter(env.out, true, false)),
		WithLogger(logger.Discard()),
	)
	return env
}

func newEntry(t *testing.T, name string, files ...*model.File) *model.Entry {
	t.Helper()
	entry := model.NewEntry(name)
	for _, f := range files {
		entry.Add(f)
	}
	return entry
}

func newFile(t *testing.T, name string, sums map[string]string) *model.File {
	t.Helper()
	file, err := model.NewFile("/mirror", name, "pkgs", "https://example.com/$(name)", sums)
	require.NoError(t, err)
	return file
}

func (env *testEnv) lines() []string {
	var lines []string
	for _, l := range strings.Split(env.out.String(), "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func TestProcessEntry_AlreadyDownloaded(t *testing.T) {
	env := newTestEnv(t, map[string]string{"foo.tar.gz": healthy})
	file := newFile(t, "foo.tar.gz", map[string]string{"sha256": digest(healthy)})
	require.NoError(t, afero.WriteFile(env.fs, file.Path(), []byte(healthy), 0644))

	err := env.manager.ProcessEntry(context.Background(), newEntry(t, "pkgs", file))
	require.NoError(t, err)

	require.Equal(t, []string{
		"* pkgs:",
		"  + foo.tar.gz:",
		"    - foo.tar.gz: already downloaded",
	}, env.lines())
	require.Zero(t, env.fetcher.calls["foo.tar.gz"], "a valid local copy must not be fetched")
	require.Equal(t, int64(len(healthy)), file.Size.Bytes())

	summary := env.manager.Summary()
	require.Equal(t, 1, summary.Skipped)
	require.Zero(t, summary.Bytes)
}

func TestProcessEntry_CorruptedThenHealthy(t *testing.T) {
	env := newTestEnv(t, map[string]string{"foo.tar.gz": healthy})
	file := newFile(t, "foo.tar.gz", map[string]string{"sha256": digest(healthy)})
	require.NoError(t, afero.WriteFile(env.fs, file.Path(), []byte("corrupted"), 0644))

	err := env.manager.ProcessEntry(context.Background(), newEntry(t, "pkgs", file))
	require.NoError(t, err)

	require.Equal(t, []string{
		"* pkgs:",
		"  + foo.tar.gz:",
		"    - foo.tar.gz: checksum mismatch. retrying...",
	}, env.lines())
	require.Equal(t, 1, env.fetcher.calls["foo.tar.gz"])

	data, err := afero.ReadFile(env.fs, file.Path())
	require.NoError(t, err)
	require.Equal(t, healthy, string(data))

	summary := env.manager.Summary()
	require.Equal(t, 1, summary.Fetched)
	require.Equal(t, int64(len(healthy)), summary.Bytes)
}

func TestProcessEntry_CorruptedTwice(t *testing.T) {
	env := newTestEnv(t, map[string]string{"foo.tar.gz": "still wrong"})
	file := newFile(t, "foo.tar.gz", map[string]string{"sha256": digest(healthy)})
	require.NoError(t, afero.WriteFile(env.fs, file.Path(), []byte("corrupted"), 0644))

	err := env.manager.ProcessEntry(context.Background(), newEntry(t, "pkgs", file))
	require.NoError(t, err, "a checksum mismatch is not an error")

	require.Equal(t, []string{
		"* pkgs:",
		"  + foo.tar.gz:",
		"    - foo.tar.gz: checksum mismatch. retrying...",
		"    - foo.tar.gz: checksum mismatch",
	}, env.lines())
	require.Equal(t, 1, env.fetcher.calls["foo.tar.gz"], "never more than one fetch per file")

	exists, err := afero.Exists(env.fs, file.Path())
	require.NoError(t, err)
	require.False(t, exists, "a file that fails verification is removed")

	require.Equal(t, EventFailed, env.events[len(env.events)-1].Kind)
	require.Equal(t, 1, env.manager.Summary().Failed)
}

func TestProcessEntry_MissingFileAndDirectory(t *testing.T) {
	env := newTestEnv(t, map[string]string{"foo.tar.gz": healthy})
	file := newFile(t, "foo.tar.gz", map[string]string{"sha256": digest(healthy)})

	exists, err := afero.DirExists(env.fs, file.DestDir)
	require.NoError(t, err)
	require.False(t, exists)

	err = env.manager.ProcessEntry(context.Background(), newEntry(t, "pkgs", file))
	require.NoError(t, err)

	exists, err = afero.DirExists(env.fs, file.DestDir)
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, 1, env.fetcher.calls["foo.tar.gz"])
	require.Equal(t, []string{"* pkgs:", "  + foo.tar.gz:"}, env.lines())
}

func TestProcessEntry_DanglingSymlinkIsRefetched(t *testing.T) {
	root := t.TempDir()
	fs := afero.NewOsFs()
	var out bytes.Buffer
	fetcher := newFakeFetcher(fs, map[string]string{"foo.tar.gz": healthy})

	settings := config.DefaultSettings()
	settings.RootDir = root
	m := NewManager(settings, &out, nil,
		WithFS(fs),
		WithFetcher(fetcher),
		WithTracker(progress.NewReporter(&out, true, false)),
		WithLogger(logger.Discard()),
	)

	file, err := model.NewFile(root, "foo.tar.gz", "pkgs", "https://example.com/$(name)",
		map[string]string{"sha256": digest(healthy)})
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(file.DestDir, 0755))
	require.NoError(t, os.Symlink(filepath.Join(root, "nowhere", "foo.tar.gz"), file.Path()))

	require.NoError(t, m.ProcessEntry(context.Background(), newEntry(t, "pkgs", file)))
	require.Equal(t, 1, fetcher.calls["foo.tar.gz"])

	info, err := os.Lstat(file.Path())
	require.NoError(t, err)
	require.True(t, info.Mode().IsRegular(), "the link is replaced by the downloaded file")

	data, err := os.ReadFile(file.Path())
	require.NoError(t, err)
	require.Equal(t, healthy, string(data))
	require.Equal(t, 1, m.Summary().Fetched)
}

func TestProcessEntry_EmptyChecksumSet(t *testing.T) {
	env := newTestEnv(t, nil)
	file := newFile(t, "notes.txt", nil)
	require.NoError(t, afero.WriteFile(env.fs, file.Path(), []byte("whatever"), 0644))

	require.NoError(t, env.manager.ProcessEntry(context.Background(), newEntry(t, "docs", file)))
	require.Contains(t, env.lines(), "    - notes.txt: already downloaded")
	require.Zero(t, env.fetcher.calls["notes.txt"])
}

func TestProcessEntry_FilesInOrder(t *testing.T) {
	env := newTestEnv(t, map[string]string{"b": healthy, "a": healthy})
	b := newFile(t, "b", map[string]string{"sha256": digest(healthy)})
	a := newFile(t, "a", map[string]string{"sha256": digest(healthy)})
	require.NoError(t, afero.WriteFile(env.fs, a.Path(), []byte(healthy), 0644))

	require.NoError(t, env.manager.ProcessEntry(context.Background(), newEntry(t, "pkgs", b, a)))
	require.Equal(t, []string{
		"* pkgs:",
		"  + b:",
		"  + a:",
		"    - a: already downloaded",
	}, env.lines())
}

func TestRun_FetchErrorAbortsBatch(t *testing.T) {
	env := newTestEnv(t, nil)
	env.fetcher.err = errors.New("connection refused")

	first := newEntry(t, "first", newFile(t, "x", nil))
	second := newEntry(t, "second", newFile(t, "y", nil))

	err := env.manager.Run(context.Background(), []*model.Entry{first, second})
	require.ErrorContains(t, err, "connection refused")
	require.NotContains(t, env.out.String(), "* second:")
}

func TestRun_UnsupportedAlgorithmPropagates(t *testing.T) {
	env := newTestEnv(t, nil)
	file := newFile(t, "x", map[string]string{"crc32": "deadbeef"})
	require.NoError(t, afero.WriteFile(env.fs, file.Path(), []byte("x"), 0644))

	err := env.manager.Run(context.Background(), []*model.Entry{newEntry(t, "e", file)})
	require.ErrorIs(t, err, checksum.ErrUnsupportedAlgorithm)
}

func TestRun_Cancelled(t *testing.T) {
	env := newTestEnv(t, map[string]string{"x": healthy})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := env.manager.Run(ctx, []*model.Entry{newEntry(t, "e", newFile(t, "x", nil))})
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, env.fetcher.calls["x"])
}

func TestProcessEntry_ProgressOutput(t *testing.T) {
	fs := afero.NewMemMapFs()
	var out bytes.Buffer
	fetcher := newFakeFetcher(fs, map[string]string{"f": healthy})
	settings := config.DefaultSettings()
	m := NewManager(settings, &out, nil,
		WithFS(fs),
		WithFetcher(fetcher),
		WithTracker(progress.NewReporter(&out, false, false)),
		WithLogger(logger.Discard()),
	)

	file := newFile(t, "f", map[string]string{"sha256": digest(healthy)})
	require.NoError(t, m.ProcessEntry(context.Background(), newEntry(t, "pkgs", file)))

	require.Equal(t, "* pkgs:\n"+
		"  + f:\n"+
		"    - downloading: 100%\n"+
		"    - checksuming: 100%\n", out.String())
}
