package cli

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "simcore", cmd.Use)
	assert.Contains(t, cmd.Long, "ledger")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"record", "replay", "runs", "inspect", "plan", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	levelFlag := cmd.PersistentFlags().Lookup("log-level")
	require.NotNil(t, levelFlag)
	assert.Equal(t, "warn", levelFlag.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("profile"))
	require.NotNil(t, cmd.PersistentFlags().Lookup("profile-dir"))
}

func TestRecordCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	recordCmd, _, err := cmd.Find([]string{"record"})
	require.NoError(t, err)

	manifestFlag := recordCmd.Flags().Lookup("manifest")
	require.NotNil(t, manifestFlag)
	assert.Equal(t, "m", manifestFlag.Shorthand)

	for _, name := range []string{"db", "seed", "ticks", "workers", "label", "fault-policy"} {
		assert.NotNil(t, recordCmd.Flags().Lookup(name), "flag %s", name)
	}
}

func TestReplayCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	replayCmd, _, err := cmd.Find([]string{"replay"})
	require.NoError(t, err)

	dbFlag := replayCmd.Flags().Lookup("db")
	require.NotNil(t, dbFlag)
	assert.Equal(t, "simcore.db", dbFlag.DefValue)

	workersFlag := replayCmd.Flags().Lookup("workers")
	require.NotNil(t, workersFlag)
	assert.Equal(t, "1", workersFlag.DefValue)
}

func TestInspectCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	inspectCmd, _, err := cmd.Find([]string{"inspect"})
	require.NoError(t, err)

	require.NotNil(t, inspectCmd.Flags().Lookup("db"))
	tickFlag := inspectCmd.Flags().Lookup("tick")
	require.NotNil(t, tickFlag)
	assert.Equal(t, "0", tickFlag.DefValue)
}

func TestTestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	testCmd, _, err := cmd.Find([]string{"test"})
	require.NoError(t, err)

	for _, name := range []string{"golden", "update", "filter"} {
		assert.NotNil(t, testCmd.Flags().Lookup(name), "flag %s", name)
	}
}

func TestInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"plan", "--format", "yaml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid format")
}

func TestInvalidLogLevel(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"plan", "--log-level", "loud"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestInvalidProfile(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"plan", "--profile", "block"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid profile")
}

func TestLogger(t *testing.T) {
	tests := []struct {
		name    string
		opts    RootOptions
		message string
		want    bool
	}{
		{"warn_default_hides_info", RootOptions{Format: "text", LogLevel: "warn"}, "info", false},
		{"verbose_shows_info", RootOptions{Format: "text", LogLevel: "warn", Verbose: true}, "info", true},
		{"debug_shows_info", RootOptions{Format: "text", LogLevel: "debug"}, "info", true},
		{"json_warn", RootOptions{Format: "json", LogLevel: "warn"}, "warn", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := tt.opts.Logger(buf)
			if tt.message == "info" {
				logger.Info("tick committed", slog.Uint64("tick", 3))
			} else {
				logger.Warn("tick committed", slog.Uint64("tick", 3))
			}

			if tt.want {
				assert.Contains(t, buf.String(), "tick committed")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestLogger_JSONLines(t *testing.T) {
	buf := &bytes.Buffer{}
	(&RootOptions{Format: "json", LogLevel: "info"}).Logger(buf).Info("tick committed", slog.Uint64("tick", 3))

	assert.Contains(t, buf.String(), `"msg":"tick committed"`)
	assert.Contains(t, buf.String(), `"tick":3`)
}

func TestProfile_WritesCPUProfile(t *testing.T) {
	dir := t.TempDir()
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"plan", "--profile", "cpu", "--profile-dir", dir})

	require.NoError(t, cmd.Execute())
	_, err := os.Stat(filepath.Join(dir, "cpu.pprof"))
	assert.NoError(t, err)
}

func TestProfile_StoppedAfterEveryInvocation(t *testing.T) {
	runs := []struct {
		args []string
		file string
		fail bool
	}{
		{[]string{"plan", "--profile", "cpu"}, "cpu.pprof", false},
		{[]string{"record", "--ticks", "0", "--profile", "mem"}, "mem.pprof", true},
		{[]string{"plan", "--profile", "mem"}, "mem.pprof", false},
	}

	for _, r := range runs {
		dir := t.TempDir()
		cmd := NewRootCommand()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(append(r.args, "--profile-dir", dir, "--format", "json"))

		err := cmd.Execute()
		if r.fail {
			require.Error(t, err)
		} else {
			require.NoError(t, err)
		}
		_, err = os.Stat(filepath.Join(dir, r.file))
		assert.NoError(t, err, "%v", r.args)

		profileMu.Lock()
		assert.Nil(t, profiler, "profile left running after %v", r.args)
		profileMu.Unlock()
	}
}
