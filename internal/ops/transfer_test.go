package ops

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/snip/internal/config"
	"github.com/hpungsan/snip/internal/errors"
	"github.com/hpungsan/snip/internal/metadata"
	"github.com/hpungsan/snip/internal/repo"
	"github.com/hpungsan/snip/internal/session"
	"github.com/hpungsan/snip/internal/snippet"
)

// exportsDirFor returns the session's default export directory, created.
func exportsDirFor(t *testing.T, s *session.Session) string {
	t.Helper()
	dataDir, err := dataDirOf(s)
	require.NoError(t, err)
	dir := ExportsDir(dataDir)
	require.NoError(t, os.MkdirAll(dir, 0700))
	return dir
}

func TestExportImport_RoundTrip(t *testing.T) {
	src := newTestSession(t)
	addFixture(t, src)

	path := filepath.Join(exportsDirFor(t, src), "backup.json")
	exp, err := Export(src, config.DefaultConfig(), ExportInput{Path: path})
	require.NoError(t, err)
	assert.Equal(t, 4, exp.Count)
	assert.Equal(t, path, exp.Path)

	samples, err := repo.ReadSamples(path)
	require.NoError(t, err)
	require.Len(t, samples, 4)
	assert.Equal(t, snippet.Sample{
		Title:     "Formal",
		Content:   "Use a formal register",
		Category:  "tone",
		Labels:    []string{"style"},
		Exclusive: true,
	}, samples[0])

	dst := newTestSession(t)
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{filepath.Dir(path)}
	imp, err := Import(dst, cfg, ImportInput{Path: path})
	require.NoError(t, err)
	assert.Equal(t, 4, imp.Imported)
	assert.Zero(t, imp.Skipped)
	assert.Len(t, imp.IDs, 4)

	list, err := List(dst, ListInput{})
	require.NoError(t, err)
	names := make([]string, 0, len(list.Items))
	for _, v := range list.Items {
		names = append(names, v.Name)
	}
	assert.Equal(t, []string{"Formal", "Casual", "Step_by_step", "JSON"}, names)

	labels, err := Labels(dst)
	require.NoError(t, err)
	for _, l := range labels.Items {
		if l.Name == "style" {
			assert.Equal(t, 3, l.UsageCount)
		}
	}
}

func TestExport_DefaultPathAndCategory(t *testing.T) {
	s := newTestSession(t)
	addFixture(t, s)

	out, err := Export(s, config.DefaultConfig(), ExportInput{Category: "Tone"})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Count)

	var dataDir string
	require.NoError(t, s.Do(func(r *repo.Repository) error {
		dataDir = r.Dir()
		return nil
	}))
	assert.Equal(t, filepath.Join(dataDir, ExportsDirName), filepath.Dir(out.Path))
	assert.True(t, strings.HasPrefix(filepath.Base(out.Path), "snippets-"))

	_, err = os.Stat(out.Path)
	assert.NoError(t, err)
}

func TestImport_SkipsInvalidRecords(t *testing.T) {
	s := newTestSession(t)
	path := filepath.Join(exportsDirFor(t, s), "mixed.json")
	body := `[
  {"title": "Good", "content": "fine", "category": "misc", "labels": [], "exclusive": false},
  {"title": "Bad", "content": "a; b", "category": "misc", "labels": [], "exclusive": false},
  {"title": "", "content": "no title", "category": "misc", "labels": [], "exclusive": false}
]`
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))

	out, err := Import(s, config.DefaultConfig(), ImportInput{Path: path})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Imported)
	assert.Equal(t, 2, out.Skipped)
	require.Len(t, out.Errors, 2)
	assert.Equal(t, 1, out.Errors[0].Index)
	assert.Equal(t, "Bad", out.Errors[0].Title)
	assert.Equal(t, string(errors.ErrInvalidRequest), out.Errors[0].Code)
}

func TestImport_Errors(t *testing.T) {
	s := newTestSession(t)
	dir := exportsDirFor(t, s)
	cfg := config.DefaultConfig()

	_, err := Import(s, cfg, ImportInput{Path: filepath.Join(dir, "missing.json")})
	assert.True(t, errors.Is(err, errors.ErrFileNotFound))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{not json`), 0600))
	_, err = Import(s, cfg, ImportInput{Path: bad})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))

	_, err = Import(s, cfg, ImportInput{Path: filepath.Join(dir, "notes.txt")})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))

	outside := filepath.Join(t.TempDir(), "elsewhere.json")
	require.NoError(t, os.WriteFile(outside, []byte("[]"), 0600))
	_, err = Import(s, cfg, ImportInput{Path: outside})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest), "err = %v", err)
}

func TestExport_RefusesDataFiles(t *testing.T) {
	s := newTestSession(t)
	addFixture(t, s)

	dataDir, err := dataDirOf(s)
	require.NoError(t, err)

	unsafe := config.DefaultConfig()
	unsafe.AllowUnsafePaths = true
	unsafe.AllowedPaths = []string{dataDir}

	for _, name := range []string{repo.SnippetsFile, metadata.FileName, repo.SampleFile} {
		for _, cfg := range []*config.Config{config.DefaultConfig(), unsafe} {
			_, err := Export(s, cfg, ExportInput{Path: filepath.Join(dataDir, name)})
			require.Error(t, err, name)
			assert.True(t, errors.Is(err, errors.ErrInvalidRequest), "%s: err = %v", name, err)
		}
	}

	out, err := List(s, ListInput{})
	require.NoError(t, err)
	require.Len(t, out.Items, 4)
	for _, v := range out.Items {
		assert.NotEmpty(t, v.ID)
		assert.NotEqual(t, "Unknown Category", v.Category)
	}
}

func TestExport_OutsideExportsDir(t *testing.T) {
	s := newTestSession(t)
	addFixture(t, s)
	elsewhere := t.TempDir()
	path := filepath.Join(elsewhere, "out.json")

	_, err := Export(s, config.DefaultConfig(), ExportInput{Path: path})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest), "err = %v", err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	allowed := config.DefaultConfig()
	allowed.AllowedPaths = []string{elsewhere}
	out, err := Export(s, allowed, ExportInput{Path: path})
	require.NoError(t, err)
	assert.Equal(t, 4, out.Count)

	unsafe := config.DefaultConfig()
	unsafe.AllowUnsafePaths = true
	other := filepath.Join(t.TempDir(), "any.json")
	_, err = Export(s, unsafe, ExportInput{Path: other})
	require.NoError(t, err)
}

func TestValidatePath(t *testing.T) {
	dataDir := t.TempDir()
	exports := ExportsDir(dataDir)
	require.NoError(t, os.MkdirAll(filepath.Join(exports, "nested"), 0700))
	require.NoError(t, os.Mkdir(filepath.Join(exports, "sub.json"), 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, repo.SnippetsFile), []byte("[]"), 0600))

	existing := filepath.Join(exports, "existing.json")
	require.NoError(t, os.WriteFile(existing, []byte("[]"), 0600))

	link := filepath.Join(exports, "link.json")
	if err := os.Symlink(existing, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	shared := t.TempDir()
	outside := t.TempDir()

	// A data directory reached through a symlink.
	alias := filepath.Join(t.TempDir(), "alias")
	require.NoError(t, os.Symlink(dataDir, alias))

	// An exports directory that is itself a symlink.
	linkedData := t.TempDir()
	require.NoError(t, os.Symlink(outside, ExportsDir(linkedData)))

	defaults := config.DefaultConfig()
	withShared := config.DefaultConfig()
	withShared.AllowedPaths = []string{shared, "relative/ignored"}
	unsafe := config.DefaultConfig()
	unsafe.AllowUnsafePaths = true

	tests := []struct {
		name    string
		path    string
		mode    PathCheckMode
		dataDir string
		cfg     *config.Config
		code    errors.ErrorCode // empty means no error
	}{
		{"existing read", existing, PathCheckRead, dataDir, defaults, ""},
		{"new file write", filepath.Join(exports, "new.json"), PathCheckWrite, dataDir, defaults, ""},
		{"nil config", filepath.Join(exports, "new.json"), PathCheckWrite, dataDir, nil, ""},
		{"missing read", filepath.Join(exports, "new.json"), PathCheckRead, dataDir, defaults, errors.ErrFileNotFound},
		{"empty", "", PathCheckWrite, dataDir, defaults, errors.ErrInvalidRequest},
		{"traversal", exports + "/../x.json", PathCheckWrite, dataDir, defaults, errors.ErrInvalidRequest},
		{"wrong extension", filepath.Join(exports, "x.txt"), PathCheckWrite, dataDir, defaults, errors.ErrInvalidRequest},
		{"symlink", link, PathCheckRead, dataDir, defaults, errors.ErrInvalidRequest},
		{"directory", filepath.Join(exports, "sub.json"), PathCheckWrite, dataDir, defaults, errors.ErrInvalidRequest},
		{"subdirectory", filepath.Join(exports, "nested", "x.json"), PathCheckWrite, dataDir, defaults, errors.ErrInvalidRequest},
		{"outside allowed dirs", filepath.Join(outside, "x.json"), PathCheckWrite, dataDir, defaults, errors.ErrInvalidRequest},
		{"allowed_paths entry", filepath.Join(shared, "x.json"), PathCheckWrite, dataDir, withShared, ""},
		{"unsafe paths", filepath.Join(outside, "x.json"), PathCheckWrite, dataDir, unsafe, ""},
		{"unsafe still refuses symlink", link, PathCheckRead, dataDir, unsafe, errors.ErrInvalidRequest},
		{"snippets file", filepath.Join(dataDir, repo.SnippetsFile), PathCheckWrite, dataDir, defaults, errors.ErrInvalidRequest},
		{"snippets file unsafe", filepath.Join(dataDir, repo.SnippetsFile), PathCheckWrite, dataDir, unsafe, errors.ErrInvalidRequest},
		{"metadata file unsafe", filepath.Join(dataDir, metadata.FileName), PathCheckWrite, dataDir, unsafe, errors.ErrInvalidRequest},
		{"sample file unsafe", filepath.Join(dataDir, repo.SampleFile), PathCheckRead, dataDir, unsafe, errors.ErrInvalidRequest},
		{"snippets file via alias", filepath.Join(alias, repo.SnippetsFile), PathCheckRead, dataDir, unsafe, errors.ErrInvalidRequest},
		{"symlinked exports dir", filepath.Join(ExportsDir(linkedData), "x.json"), PathCheckWrite, linkedData, defaults, errors.ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path, tt.mode, tt.dataDir, tt.cfg)
			if tt.code == "" {
				if err != nil {
					t.Fatalf("ValidatePath() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.code) {
				t.Fatalf("ValidatePath() error = %v, want %s", err, tt.code)
			}
		})
	}
}
