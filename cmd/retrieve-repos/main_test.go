package main

import (
	"testing"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
)

func TestLogLevel(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		input string
		want  zapcore.Level
	}{
		{name: "debug", input: "debug", want: zapcore.DebugLevel},
		{name: "warn", input: "warn", want: zapcore.WarnLevel},
		{name: "error", input: "error", want: zapcore.ErrorLevel},
		{name: "default_info", input: "other", want: zapcore.InfoLevel},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := logLevel(tc.input)
			if got != tc.want {
				t.Fatalf("logLevel(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestRootCommandFlags(t *testing.T) {
	t.Parallel()

	cmd := newRootCmd()

	testCases := []struct {
		flag string
		want string
	}{
		{flag: "config", want: "config/retrieve.yaml"},
		{flag: "practice", want: ""},
		{flag: "cloning_dir", want: "retrieved"},
		{flag: "testing_dir", want: "/tmp/p"},
		{flag: "no_clone", want: "false"},
		{flag: "silent", want: "false"},
	}

	for _, tc := range testCases {
		flag := cmd.PersistentFlags().Lookup(tc.flag)
		if flag == nil {
			t.Fatalf("flag --%s not registered", tc.flag)
		}
		if flag.DefValue != tc.want {
			t.Fatalf("flag --%s default = %q, want %q", tc.flag, flag.DefValue, tc.want)
		}
	}

	students := cmd.PersistentFlags().Lookup("students")
	if students == nil {
		t.Fatalf("flag --students not registered")
	}
	if students.Annotations[cobra.BashCompOneRequiredFlag] == nil {
		t.Fatalf("flag --students must be required")
	}
}
