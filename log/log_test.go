package log

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const tsRegex = `\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{0,9}Z`

func TestLoggerLogfmt(t *testing.T) {
	var b bytes.Buffer
	l, err := NewLogger("transport", &b, FmtLogfmt, LevelDebug)
	require.NoError(t, err)

	l.Debug("frame received")
	require.Regexp(t, regexp.MustCompile(
		`level=debug ts=`+tsRegex+` caller=log_test\.go:\d{1,4} module=transport msg="frame received"`),
		b.String())
}

func TestLoggerJSON(t *testing.T) {
	var b bytes.Buffer
	l, err := NewLogger("transport", &b, FmtJSON, LevelDebug)
	require.NoError(t, err)

	l.Debug("frame received")
	require.Regexp(t, regexp.MustCompile(
		`{"caller":"log_test\.go:\d{1,4}","level":"debug","module":"transport","msg":"frame received","ts":"`+tsRegex+`"}\n`),
		b.String())
}

func TestLoggerInvalidFormat(t *testing.T) {
	_, err := NewLogger("transport", &bytes.Buffer{}, Format(255), LevelDebug)
	require.Error(t, err)
}

func TestWithKeyvals(t *testing.T) {
	var b bytes.Buffer
	l, err := NewLogger("transport", &b, FmtJSON, LevelDebug)
	require.NoError(t, err)

	l.With("session", "abc").Info("connected")
	require.Regexp(t, regexp.MustCompile(
		`{"caller":"log_test\.go:\d{1,4}","level":"info","module":"transport","msg":"connected","session":"abc","ts":"`+tsRegex+`"}\n`),
		b.String())
}

func TestWithModule(t *testing.T) {
	var b bytes.Buffer
	l, err := NewLogger("client", &b, FmtJSON, LevelDebug)
	require.NoError(t, err)

	l.WithModule("shielding").Warn("record missing")
	require.Contains(t, b.String(), `"module":"shielding"`)
	require.Contains(t, b.String(), `"level":"warn"`)
}

func TestLevelFiltering(t *testing.T) {
	emit := map[Level]func(*Logger){
		LevelDebug: func(l *Logger) { l.Debug("x") },
		LevelInfo:  func(l *Logger) { l.Info("x") },
		LevelWarn:  func(l *Logger) { l.Warn("x") },
		LevelError: func(l *Logger) { l.Error("x") },
	}
	for threshold := LevelDebug; threshold <= LevelError; threshold++ {
		for lvl, fn := range emit {
			var b bytes.Buffer
			l, err := NewLogger("test", &b, FmtLogfmt, threshold)
			require.NoError(t, err)
			fn(l)
			if lvl >= threshold {
				require.NotZero(t, b.Len(), "level %d at threshold %d", lvl, threshold)
			} else {
				require.Zero(t, b.Len(), "level %d at threshold %d", lvl, threshold)
			}
		}
	}
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	require.NotPanics(t, func() {
		l.Debug("x")
		l.Error("y", "k", "v")
		l.With("a", 1).WithModule("m").Info("z")
	})
}

func TestLevelFlag(t *testing.T) {
	var lvl Level
	ls := lvl.Type()

	for _, l := range strings.Split(ls[1:len(ls)-1], ",") {
		require.NoError(t, lvl.Set(strings.ToLower(l)))
		require.Equal(t, l, lvl.String())
	}
	require.Error(t, lvl.Set("verbose"))

	lvl = Level(255)
	require.Panics(t, func() { _ = lvl.String() })
}

func TestFormatFlag(t *testing.T) {
	var f Format
	fs := f.Type()

	for _, name := range strings.Split(fs[1:len(fs)-1], ",") {
		require.NoError(t, f.Set(name))
		require.Equal(t, name, f.String())
	}
	require.Error(t, f.Set("xml"))

	f = Format(255)
	require.Panics(t, func() { _ = f.String() })
}
