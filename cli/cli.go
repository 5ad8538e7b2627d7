// Package cli provides the functions to parse the non-standard CLI flags
// shared by the front ends.
package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.creack.net/anotherworld/op"
	"go.creack.net/anotherworld/resource"
	"go.creack.net/anotherworld/vm"
)

type Config struct {
	DataDir string // Directory holding MEMLIST.BIN and the BANK files.

	Part       op.GamePart
	Scale      int // Window scale factor for the GUI front end.
	SampleRate int
	Budget     int // Per-tic instruction watchdog, 0 = default.
	Seed       int
	Mute       bool
	Trace      bool
}

// ParseConfig processes os.Args. The data directory is the lone
// positional argument; everything else is a flag.
func ParseConfig() (Config, error) {
	cfg := Config{
		Part:       op.PartIntro,
		Scale:      3,
		SampleRate: 22050,
	}

	args := os.Args[1:]
	intFlag := func(i *int, name string) (int, error) {
		val := strings.TrimPrefix(args[*i], name)
		if val == "" {
			if *i+1 >= len(args) {
				return 0, fmt.Errorf("missing value for %s flag", name)
			}
			*i++
			val = args[*i]
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("invalid number for %s flag: %q", name, val)
		}
		return n, nil
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-mute":
			cfg.Mute = true
		case arg == "-trace":
			cfg.Trace = true
		case strings.HasPrefix(arg, "-part"):
			n, err := intFlag(&i, "-part")
			if err != nil {
				return Config{}, err
			}
			cfg.Part = op.GamePart(n)
			if !cfg.Part.Valid() {
				return Config{}, fmt.Errorf("invalid part %d, must be between %d and %d", n, uint16(op.PartFirst), uint16(op.PartLast))
			}
		case strings.HasPrefix(arg, "-scale"):
			n, err := intFlag(&i, "-scale")
			if err != nil {
				return Config{}, err
			}
			if n < 1 || n > 8 {
				return Config{}, fmt.Errorf("invalid scale %d, must be between 1 and 8", n)
			}
			cfg.Scale = n
		case strings.HasPrefix(arg, "-rate"):
			n, err := intFlag(&i, "-rate")
			if err != nil {
				return Config{}, err
			}
			cfg.SampleRate = n
		case strings.HasPrefix(arg, "-budget"):
			n, err := intFlag(&i, "-budget")
			if err != nil {
				return Config{}, err
			}
			cfg.Budget = n
		case strings.HasPrefix(arg, "-seed"):
			n, err := intFlag(&i, "-seed")
			if err != nil {
				return Config{}, err
			}
			cfg.Seed = n
		case strings.HasPrefix(arg, "-"):
			return Config{}, fmt.Errorf("unknown flag %q", arg)
		default:
			if cfg.DataDir != "" {
				return Config{}, fmt.Errorf("unexpected argument %q, data directory already set to %q", arg, cfg.DataDir)
			}
			cfg.DataDir = arg
		}
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "."
	}
	if _, err := os.Stat(cfg.DataDir); err != nil {
		return Config{}, fmt.Errorf("data directory: %w", err)
	}
	return cfg, nil
}

// NewMachine builds a machine over the configured data directory.
// The caller owns closing the returned repository.
func NewMachine(cfg Config) (*vm.Machine, *resource.DirRepository, error) {
	repo := resource.NewDirRepository(cfg.DataDir)
	m, err := vm.New(vm.Config{
		Repository: repo,
		StartPart:  cfg.Part,
		TicBudget:  cfg.Budget,
		Seed:       int16(cfg.Seed),
		Trace:      cfg.Trace,
	})
	if err != nil {
		repo.Close()
		return nil, nil, fmt.Errorf("new machine: %w", err)
	}
	return m, repo, nil
}
