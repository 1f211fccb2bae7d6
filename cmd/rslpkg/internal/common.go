package internal

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/rsl-dev/rslpkg/internal/cache"
	"github.com/rsl-dev/rslpkg/internal/engine"
	"github.com/rsl-dev/rslpkg/internal/env"
	"github.com/rsl-dev/rslpkg/internal/logging"
	"github.com/rsl-dev/rslpkg/internal/profile"
	"github.com/rsl-dev/rslpkg/recipe"
	"github.com/rsl-dev/rslpkg/recipes/rsltest"
	"go.uber.org/zap"
)

const defaultRecipe = rsltest.Name

// recipes lists the recipes the CLI can run, by package name.
var recipes = map[string]func() recipe.Recipe{
	rsltest.Name: func() recipe.Recipe { return rsltest.New() },
}

func loadRecipe(name string) (recipe.Recipe, error) {
	newRecipe, ok := recipes[name]
	if !ok {
		known := make([]string, 0, len(recipes))
		for k := range recipes {
			known = append(known, k)
		}
		slices.Sort(known)
		return nil, fmt.Errorf("unknown recipe %q (known: %s)", name, strings.Join(known, ", "))
	}
	return newRecipe(), nil
}

// session is the state shared by the commands.
type session struct {
	recipe recipe.Recipe
	input  engine.Input
	engine *engine.Engine
	logger *zap.Logger
}

func (s *session) Close() {
	_ = s.logger.Sync()
}

// newSession loads the environment configuration, the profile and the
// command line overrides, in increasing order of precedence.
func newSession() (*session, error) {
	cfg, err := env.Load()
	if err != nil {
		return nil, err
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.LogLevel
	logCfg.Development = cfg.LogDev
	if flagVerbose {
		logCfg.Level = "debug"
		logCfg.Development = true
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, err
	}

	r, err := loadRecipe(flagRecipe)
	if err != nil {
		return nil, err
	}

	prof := &profile.Profile{}
	if flagProfile != "" {
		if prof, err = profile.Load(flagProfile); err != nil {
			return nil, err
		}
	}
	overrides, err := profile.FromAssignments(flagSettings, flagOptions, flagConf)
	if err != nil {
		return nil, err
	}
	prof.Merge(overrides)

	settings := recipe.DefaultSettings()
	if err := prof.ApplySettings(&settings); err != nil {
		return nil, err
	}
	conf := cfg.Conf()
	for k, v := range prof.RecipeConf() {
		conf[k] = v
	}

	workDir, err := cfg.WorkDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get workspace dir: %w", err)
	}

	// Build tool output is shown in verbose mode only.
	var stdout, stderr io.Writer = io.Discard, io.Discard
	if flagVerbose {
		stdout, stderr = os.Stdout, os.Stderr
	}

	meta := r.Metadata()
	return &session{
		recipe: r,
		input: engine.Input{
			Settings: settings,
			Options:  prof.OptionsFor(meta.Name, meta.Version),
			Conf:     conf,
		},
		engine: engine.New(engine.Options{
			Cache:  cache.New(workDir),
			Logger: logger,
			Stdout: stdout,
			Stderr: stderr,
		}),
		logger: logger,
	}, nil
}

// sourceDir returns the source directory argument, "." by default.
func sourceDir(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}
