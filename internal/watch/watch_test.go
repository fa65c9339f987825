package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/solatis/formrel/internal/formdef"
)

const definition = `id: watched
fields:
  - id: toggle
    type: checkbox
    value: false
  - id: detail
    type: input
    relation:
      - action: DISABLE
        when:
          - id: toggle
            value: true
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func nextReport(t *testing.T, reports <-chan formdef.Report) formdef.Report {
	t.Helper()
	select {
	case r := <-reports:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for report")
		return formdef.Report{}
	}
}

func detailDisabled(t *testing.T, r formdef.Report) bool {
	t.Helper()
	f, ok := r.Field("detail")
	require.True(t, ok)
	return f.Disabled
}

func TestWatcher_ReevaluatesOnChange(t *testing.T) {
	dir := t.TempDir()
	defPath := filepath.Join(dir, "form.yaml")
	valuesPath := filepath.Join(dir, "values.json")
	writeFile(t, defPath, definition)
	writeFile(t, valuesPath, `{"toggle": false}`)

	core, logs := observer.New(zapcore.DebugLevel)
	reports := make(chan formdef.Report, 8)
	w, err := New(Config{
		DefinitionPath: defPath,
		ValuesPath:     valuesPath,
		Debounce:       20 * time.Millisecond,
	}, func(r formdef.Report) { reports <- r }, zap.New(core))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	first := nextReport(t, reports)
	require.Equal(t, "watched", first.FormID)
	require.False(t, detailDisabled(t, first))

	writeFile(t, valuesPath, `{"toggle": true}`)
	require.True(t, detailDisabled(t, nextReport(t, reports)))

	writeFile(t, defPath, "id: [broken")
	require.Eventually(t, func() bool {
		return logs.FilterMessage("failed to load definition").Len() > 0
	}, 5*time.Second, 10*time.Millisecond)

	writeFile(t, defPath, definition)
	require.True(t, detailDisabled(t, nextReport(t, reports)))

	cancel()
	require.NoError(t, <-done)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	defPath := filepath.Join(dir, "form.yaml")
	writeFile(t, defPath, definition)

	reports := make(chan formdef.Report, 8)
	w, err := New(Config{DefinitionPath: defPath, Debounce: 10 * time.Millisecond},
		func(r formdef.Report) { reports <- r }, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	nextReport(t, reports)
	writeFile(t, filepath.Join(dir, "unrelated.txt"), "x")

	select {
	case <-reports:
		t.Fatal("unexpected report for unrelated file")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{}, func(formdef.Report) {}, nil)
	require.Error(t, err)

	_, err = New(Config{DefinitionPath: "form.yaml"}, nil, nil)
	require.Error(t, err)

	_, err = New(Config{DefinitionPath: filepath.Join(t.TempDir(), "missing", "form.yaml")},
		func(formdef.Report) {}, nil)
	require.Error(t, err)
}
