package parser

import (
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	m := NewManager(logger, 2)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

const tailwindJS = `/** @type {import('tailwindcss').Config} */
module.exports = {
  theme: {
    extend: {
      "colors": {
        "color-red": "#FF0000"
      },
      "spacing": {
        "gap-sm": "4px"
      }
    },
  },
};
`

const tailwindTS = `import type { Config } from 'tailwindcss'

const config: Partial<Config> = {
  theme: {
    extend: {
      "colors": {
        "color-red": "#FF0000"
      }
    },
  },
}

export default config
`

func TestCheckSyntax_ValidModules(t *testing.T) {
	m := newTestManager(t)

	problems, err := m.CheckSyntax([]byte(tailwindJS), "tailwind.config.js")
	require.NoError(t, err)
	assert.Empty(t, problems)

	problems, err = m.CheckSyntax([]byte(tailwindTS), "tailwind.config.ts")
	require.NoError(t, err)
	assert.Empty(t, problems)

	assert.NoError(t, m.Check([]byte(tailwindJS), "tailwind.config.cjs"))
}

func TestCheckSyntax_ReportsErrors(t *testing.T) {
	m := newTestManager(t)

	src := []byte("module.exports = {\n  theme: { extend: { colors: { a: \"#fff\" \n};\n")
	problems, err := m.CheckSyntax(src, "tailwind.config.js")
	require.NoError(t, err)
	require.NotEmpty(t, problems)
	assert.GreaterOrEqual(t, problems[0].Line, 1)

	err = m.Check(src, "tailwind.config.js")
	assert.ErrorIs(t, err, ErrSyntax)
	assert.Contains(t, err.Error(), "tailwind.config.js")
}

func TestCheckSyntax_TypeAnnotationsNeedTypeScript(t *testing.T) {
	m := newTestManager(t)

	problems, err := m.CheckSyntax([]byte(tailwindTS), "tailwind.config.js")
	require.NoError(t, err)
	assert.NotEmpty(t, problems)
}

func TestCheckSyntax_UnknownExtension(t *testing.T) {
	m := newTestManager(t)
	_, err := m.CheckSyntax([]byte("{}"), "tokens.json")
	assert.Error(t, err)
}

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, LanguageJavaScript, DetectLanguage("tailwind.config.js"))
	assert.Equal(t, LanguageJavaScript, DetectLanguage("a.MJS"))
	assert.Equal(t, LanguageTypeScript, DetectLanguage("tailwind.config.ts"))
	assert.Equal(t, LanguageUnknown, DetectLanguage("tokens.css"))
	assert.Equal(t, "typescript", LanguageTypeScript.String())
}

func TestManager_ConcurrentChecks(t *testing.T) {
	m := newTestManager(t)

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := "tailwind.config.js"
			src := tailwindJS
			if i%2 == 1 {
				name, src = "tailwind.config.ts", tailwindTS
			}
			errs <- m.Check([]byte(src), name)
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	stats := m.Stats()
	assert.Equal(t, workers, stats.Parses)
	assert.LessOrEqual(t, stats.ParsersCreated, 4)
}
