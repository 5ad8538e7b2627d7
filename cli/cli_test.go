package cli

import (
	"os"
	"testing"

	"go.creack.net/anotherworld/op"
)

func TestParseConfig(t *testing.T) {
	orig := os.Args
	defer func() { os.Args = orig }()

	os.Args = []string{"anotherworld", "-part", "16002", "-scale2", "-mute", t.TempDir()}
	cfg, err := ParseConfig()
	if err != nil {
		t.Fatalf("parse: %s", err)
	}
	if cfg.Part != op.PartLake || cfg.Scale != 2 || !cfg.Mute {
		t.Fatalf("parse: got %+v", cfg)
	}

	for name, args := range map[string][]string{
		"bad part":     {"anotherworld", "-part", "15999"},
		"bad scale":    {"anotherworld", "-scale", "99"},
		"unknown flag": {"anotherworld", "-frobnicate"},
		"two dirs":     {"anotherworld", "a", "b"},
		"missing dir":  {"anotherworld", "/does/not/exist"},
	} {
		os.Args = args
		if _, err := ParseConfig(); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}
