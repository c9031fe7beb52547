package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen-press/lumen/internal/config"
	"github.com/lumen-press/lumen/internal/errors"
	"github.com/lumen-press/lumen/internal/site"
	"github.com/lumen-press/lumen/internal/version"
)

// execute runs the CLI in a fresh temporary working directory unless dir is
// set, returning stdout and stderr.
func execute(t *testing.T, dir, stdin string, args ...string) (string, string, error) {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	t.Chdir(dir)
	t.Setenv("LUMEN_CONFIG_FILE", "")
	viper.Reset()
	t.Cleanup(viper.Reset)

	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

func TestInitWritesConfig(t *testing.T) {
	dir := t.TempDir()

	out, _, err := execute(t, dir, "", "init")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, config.FileName))
	assert.DirExists(t, filepath.Join(dir, "public"))
	assert.Contains(t, out, "Wrote "+config.FileName)
	assert.Contains(t, out, "sanity.project_id")

	_, _, err = execute(t, dir, "", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, _, err = execute(t, dir, "", "init", "--force")
	require.NoError(t, err)
}

func TestInitIntoSubdirectory(t *testing.T) {
	dir := t.TempDir()

	_, _, err := execute(t, dir, "", "init", "blog")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "blog", config.FileName))
	assert.DirExists(t, filepath.Join(dir, "blog", "public"))
}

func TestInitInteractive(t *testing.T) {
	dir := t.TempDir()
	answers := strings.Join([]string{
		"Field Notes",           // title
		"https://notes.example", // url
		"",                      // author
		"abc123",                // project id
		"",                      // dataset
		"n",                     // cdn
		"en",                    // default locale
		"fr, de",                // other locales
		"",                      // port
	}, "\n") + "\n"

	out, _, err := execute(t, dir, answers, "init", "--interactive")
	require.NoError(t, err)
	assert.Contains(t, out, "lumen configuration")
	assert.NotContains(t, out, "before running `lumen build`")

	v := viper.New()
	v.SetConfigFile(filepath.Join(dir, config.FileName))
	require.NoError(t, v.ReadInConfig())
	cfg, err := config.LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, "Field Notes", cfg.Site.Title)
	assert.Equal(t, "https://notes.example", cfg.Site.URL)
	assert.Equal(t, "abc123", cfg.Sanity.ProjectID)
	assert.False(t, cfg.Sanity.UseCDN)
	assert.Equal(t, []string{"en", "fr", "de"}, cfg.Locale.Supported)
	assert.Equal(t, 30*time.Second, cfg.Sanity.Timeout)

	out, stderr, err := execute(t, dir, "", "validate")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Using config file:")
	assert.Contains(t, out, "is valid")
	assert.NotContains(t, out, "Validation warnings")
}

func TestValidateDefaults(t *testing.T) {
	out, _, err := execute(t, "", "", "validate")
	require.NoError(t, err)

	assert.Contains(t, out, "Validation warnings")
	assert.Contains(t, out, "sanity.project_id")
	assert.Contains(t, out, "using defaults")
}

func TestValidateReportsErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.FileName), `
site:
  url: ftp://example.com
animation:
  threshold: 2
`)

	out, _, err := execute(t, dir, "", "validate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 error(s)")
	assert.Contains(t, out, "site.url")
	assert.Contains(t, out, "animation.threshold")
	assert.Contains(t, out, "hint:")
}

func TestValidateEnvironmentOverride(t *testing.T) {
	t.Setenv("LUMEN_SANITY_PROJECT_ID", "from-env")

	out, _, err := execute(t, "", "", "validate")
	require.NoError(t, err)
	assert.NotContains(t, out, "sanity.project_id")
}

const postJSON = `{
  "_id": "p1",
  "title": {"en": "Hello", "fr": "Bonjour"},
  "content": {
    "en": [{"_type": "block", "children": [{"_type": "span", "text": "English body"}]}],
    "fr": null
  },
  "tags": [{"en": "go", "fr": "golang"}],
  "views": 12
}`

func TestResolveDocument(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "post.json"), postJSON)

	out, _, err := execute(t, dir, "", "resolve", "post.json", "--locale", "fr")
	require.NoError(t, err)

	var doc struct {
		ID      string           `json:"_id"`
		Title   string           `json:"title"`
		Content []map[string]any `json:"content"`
		Tags    []string         `json:"tags"`
		Views   int              `json:"views"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "p1", doc.ID)
	assert.Equal(t, "Bonjour", doc.Title)
	assert.Equal(t, []string{"golang"}, doc.Tags)
	assert.Equal(t, 12, doc.Views)
	require.Len(t, doc.Content, 1)
	assert.Equal(t, "block", doc.Content[0]["_type"])

	assert.Less(t, strings.Index(out, `"_id"`), strings.Index(out, `"title"`), "key order is kept")
	assert.Less(t, strings.Index(out, `"tags"`), strings.Index(out, `"views"`), "key order is kept")
}

func TestResolveModes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "post.json"), postJSON)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"string default locale", []string{"--field", "title", "--mode", "string"}, "Hello\n"},
		{"string fr", []string{"--field", "title", "--mode", "string", "--locale", "fr"}, "Bonjour\n"},
		{"missing locale falls back", []string{"--field", "title", "--mode", "string", "--locale", "de"}, "Hello\n"},
		{"array index", []string{"--field", "tags.0", "-m", "string", "--locale", "fr"}, "golang\n"},
		{"plain text fallback", []string{"--field", "content", "--mode", "plain", "--locale", "fr"}, "English body\n"},
		{"explicit fallback", []string{"--field", "title", "--mode", "string", "--locale", "de", "--fallback", "fr"}, "Bonjour\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, dir, "", append([]string{"resolve", "post.json"}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestResolveTree(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "post.json"), postJSON)

	out, _, err := execute(t, dir, "", "resolve", "post.json", "--field", "content", "--mode", "tree", "--locale", "fr")
	require.NoError(t, err)

	var tree []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &tree))
	require.Len(t, tree, 1)
	children, ok := tree[0]["children"].([]any)
	require.True(t, ok)
	require.Len(t, children, 1)
	assert.Equal(t, "English body", children[0].(map[string]any)["text"])
}

func TestResolveStdin(t *testing.T) {
	out, _, err := execute(t, "", postJSON, "resolve", "-", "--field", "title", "--mode", "string")
	require.NoError(t, err)
	assert.Equal(t, "Hello\n", out)
}

func TestResolveErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "post.json"), postJSON)
	writeFile(t, filepath.Join(dir, "broken.json"), `{"title": `)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing field", []string{"post.json", "--field", "summary"}, `field "summary" not found`},
		{"bad index", []string{"post.json", "--field", "tags.3"}, "not an index"},
		{"field through string", []string{"post.json", "--field", "_id.x"}, "not found"},
		{"unknown mode", []string{"post.json", "--mode", "html"}, "unsupported mode"},
		{"bad locale", []string{"post.json", "--locale", "french"}, "french"},
		{"missing file", []string{"nope.json"}, "failed to open"},
		{"invalid json", []string{"broken.json"}, "failed to decode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, dir, "", append([]string{"resolve"}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

const pageHTML = `<!DOCTYPE html>
<html lang="en"><head><title>t</title></head><body>
<section class="animate-on-scroll opacity-0 translate-y-4">Intro</section>
<ul class="animate-on-load" data-animation-stagger="100">
<li class="opacity-0">one</li><li class="opacity-0">two</li>
</ul>
</body></html>`

func TestRevealToStdout(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "page.html"), pageHTML)

	out, _, err := execute(t, dir, "", "reveal", "page.html")
	require.NoError(t, err)

	assert.Contains(t, out, `class="animate-on-scroll animate-triggered"`)
	assert.NotContains(t, out, "opacity-0")
	assert.Contains(t, out, "opacity: 1")
	assert.NotContains(t, out, `class="dark"`)

	original, err := os.ReadFile(filepath.Join(dir, "page.html"))
	require.NoError(t, err)
	assert.Equal(t, pageHTML, string(original))
}

func TestRevealInPlaceWithTheme(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.html")
	writeFile(t, path, pageHTML)

	out, stderr, err := execute(t, dir, "", "reveal", "page.html", "--in-place", "--theme", "dark")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, stderr, "Revealed 4 element(s)")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `<html lang="en" class="dark js">`)
	assert.Contains(t, string(data), "animate-triggered")
}

func TestRevealOutputFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "page.html"), pageHTML)

	_, _, err := execute(t, dir, "", "reveal", "page.html", "-o", "static.html")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "static.html"))
}

func TestRevealRejectsConflictingFlags(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "page.html"), pageHTML)

	_, _, err := execute(t, dir, "", "reveal", "page.html", "--in-place", "-o", "x.html")
	assert.ErrorContains(t, err, "mutually exclusive")

	_, _, err = execute(t, dir, pageHTML, "reveal", "-", "--in-place")
	assert.ErrorContains(t, err, "needs a file")

	_, _, err = execute(t, dir, "", "reveal", "page.html", "--theme", "sepia")
	assert.ErrorContains(t, err, "unknown theme")
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "", "", "version", "--format", "json")
	require.NoError(t, err)

	var info version.Info
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.NotEmpty(t, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)

	out, _, err = execute(t, "", "", "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, version.Short()+"\n", out)

	out, _, err = execute(t, "", "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "lumen "))
	assert.Contains(t, out, "go:     "+runtime.Version())

	_, _, err = execute(t, "", "", "version", "--format", "yaml")
	assert.ErrorContains(t, err, "unsupported format yaml")
}

func TestBuildRequiresProjectID(t *testing.T) {
	_, _, err := execute(t, "", "", "build")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sanity.project_id is not set")
}

func TestServeRequiresProjectID(t *testing.T) {
	_, _, err := execute(t, "", "", "serve", "--port", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sanity.project_id is not set")
}

func TestBadLogFormat(t *testing.T) {
	t.Setenv("LUMEN_SANITY_PROJECT_ID", "abc")
	_, _, err := execute(t, "", "", "build", "--log-format", "xml")
	assert.ErrorContains(t, err, "unsupported log format")
}

func TestServerFlagsApply(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    config.ServerConfig
		wantErr string
	}{
		{
			name: "unset flags keep config",
			args: nil,
			want: config.ServerConfig{Host: "localhost", Port: 8080, LiveReload: true},
		},
		{
			name: "port and live reload",
			args: []string{"--port", "3000", "--no-live-reload"},
			want: config.ServerConfig{Host: "localhost", Port: 3000, LiveReload: false},
		},
		{
			name: "host",
			args: []string{"--host", "0.0.0.0"},
			want: config.ServerConfig{Host: "0.0.0.0", Port: 8080, LiveReload: true},
		},
		{
			name:    "port out of range",
			args:    []string{"-p", "70000"},
			wantErr: "port must be between",
		},
		{
			name:    "blank host",
			args:    []string{"--host", "  "},
			wantErr: "host cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var flags ServerFlags
			fs := flags.FlagSet()
			require.NoError(t, fs.Parse(tt.args))

			cfg := config.Default().Server
			err := flags.Apply(fs, &cfg)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg)
		})
	}
}

func TestLocaleFlagsResolver(t *testing.T) {
	cfg := config.Default()
	cfg.Locale.Default = "fr"
	cfg.Locale.Fallback = "en"

	tests := []struct {
		name         string
		flags        LocaleFlags
		wantLocale   string
		wantFallback string
		wantErr      bool
	}{
		{name: "config defaults", wantLocale: "fr", wantFallback: "en"},
		{name: "locale flag", flags: LocaleFlags{Locale: "de"}, wantLocale: "de", wantFallback: "en"},
		{name: "both flags", flags: LocaleFlags{Locale: "de", Fallback: "fr"}, wantLocale: "de", wantFallback: "fr"},
		{name: "region", flags: LocaleFlags{Locale: "pt-BR"}, wantLocale: "pt-BR", wantFallback: "en"},
		{name: "invalid locale", flags: LocaleFlags{Locale: "french"}, wantErr: true},
		{name: "invalid fallback", flags: LocaleFlags{Locale: "de", Fallback: "EN_us"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tt.flags.Resolver(cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLocale, res.Locale)
			assert.Equal(t, tt.wantFallback, res.Fallback)
		})
	}
}

func TestOutputFlagsValidate(t *testing.T) {
	f := OutputFlags{Format: "json"}
	assert.NoError(t, f.Validate("text", "json"))

	f.Format = "table"
	assert.ErrorContains(t, f.Validate("text", "json"), "supported: text, json")
}

func TestCleanOutput(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, filepath.Join(dir, "dist", "index.html"), "<html></html>")

	require.NoError(t, cleanOutput("dist"))
	assert.NoDirExists(t, filepath.Join(dir, "dist"))

	for _, bad := range []string{".", "", "..", "../dist", "/tmp/dist", "dist/../.."} {
		assert.Error(t, cleanOutput(bad), bad)
	}
}

type fakeBuilder struct {
	result *site.Result
	err    error
}

func (f *fakeBuilder) Build(context.Context) (*site.Result, error) {
	return f.result, f.err
}

func newReportCmd() (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	cmd := &cobra.Command{}
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetContext(context.Background())
	return cmd, &stdout, &stderr
}

func TestReportBuild(t *testing.T) {
	cfg := config.Default()

	t.Run("success", func(t *testing.T) {
		cmd, stdout, stderr := newReportCmd()
		builder := &fakeBuilder{result: &site.Result{
			Pages:    12,
			Posts:    3,
			Assets:   2,
			Locales:  []string{"en", "fr"},
			Duration: 1500 * time.Millisecond,
			Errors:   errors.NewErrorCollector(),
		}}

		require.NoError(t, reportBuild(cmd, cfg, builder))
		assert.Contains(t, stdout.String(), "Built 12 pages for 3 posts in 2 locale(s) into dist (1.5s)")
		assert.Contains(t, stdout.String(), "Copied 2 static file(s)")
		assert.Empty(t, stderr.String())
	})

	t.Run("warnings only", func(t *testing.T) {
		cmd, _, stderr := newReportCmd()
		collector := errors.NewErrorCollector()
		collector.Add(errors.BuildError{
			Page:     "/blog/draft/",
			Stage:    errors.StageFetch,
			Message:  "post not found",
			Severity: errors.ErrorSeverityWarning,
		})
		builder := &fakeBuilder{result: &site.Result{Errors: collector}}

		require.NoError(t, reportBuild(cmd, cfg, builder))
		assert.Contains(t, stderr.String(), "post not found")
	})

	t.Run("page failures", func(t *testing.T) {
		cmd, _, stderr := newReportCmd()
		collector := errors.NewErrorCollector()
		collector.Add(errors.BuildError{
			Page:     "/fr/blog/hello/",
			Locale:   "fr",
			Stage:    errors.StageRender,
			Message:  "render failed",
			Severity: errors.ErrorSeverityError,
		})
		builder := &fakeBuilder{result: &site.Result{Errors: collector}}

		err := reportBuild(cmd, cfg, builder)
		assert.ErrorContains(t, err, "build finished with 1 problem(s)")
		assert.Contains(t, stderr.String(), "render failed")
	})

	t.Run("build error", func(t *testing.T) {
		cmd, _, _ := newReportCmd()
		builder := &fakeBuilder{err: assert.AnError}
		assert.ErrorIs(t, reportBuild(cmd, cfg, builder), assert.AnError)
	})
}
