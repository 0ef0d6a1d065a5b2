// Package roll parses roll command flags and resolves a reference against a
// definitions file.
package roll

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"slices"
	"strconv"
	"strings"

	entrypoint "github.com/louisbranch/rollable/internal/platform/cmd"
	"github.com/louisbranch/rollable/internal/platform/encoding"
	apperrors "github.com/louisbranch/rollable/internal/platform/errors"
	"github.com/louisbranch/rollable/internal/platform/errors/i18n"
	"github.com/louisbranch/rollable/internal/random"
	"github.com/louisbranch/rollable/internal/tables/engine"
	"github.com/louisbranch/rollable/internal/tables/loader"
	"github.com/louisbranch/rollable/internal/tables/ref"
)

// Config holds roll command configuration.
type Config struct {
	Tables  string         `env:"TABLES"`
	Root    string         `env:"ROOT"    envDefault:"/"`
	Ref     string         `env:"REF"`
	Seed    int64          `env:"SEED"`
	Reroll  string         `env:"REROLL"`
	Vars    map[string]int `env:"VARS"`
	Locale  string         `env:"LOCALE"  envDefault:"en-US"`
	JSON    bool           `env:"JSON"`
	Verbose bool           `env:"VERBOSE"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Tables, "tables", cfg.Tables, "YAML definitions file")
	fs.StringVar(&cfg.Root, "root", cfg.Root, "root that $/ and absolute paths resolve under")
	fs.StringVar(&cfg.Ref, "ref", cfg.Ref, "reference to roll, e.g. /loot;count=2")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed for reproducibility (0 = random)")
	fs.StringVar(&cfg.Reroll, "reroll", cfg.Reroll, "comma-separated index path to re-roll after the first roll")
	fs.Func("var", "context variable as key=value (repeatable)", func(v string) error {
		key, value, ok := strings.Cut(v, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return fmt.Errorf("expected key=value, got %q", v)
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("variable %s: %w", key, err)
		}
		if cfg.Vars == nil {
			cfg.Vars = map[string]int{}
		}
		cfg.Vars[strings.TrimSpace(key)] = n
		return nil
	})
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "locale for messages")
	fs.BoolVar(&cfg.JSON, "json", cfg.JSON, "print canonical JSON instead of text")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "verbose output")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseIndexPath parses a comma-separated index path such as "0,1".
func ParseIndexPath(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("index path %q: %w", s, err)
		}
		out[i] = n
	}
	return out, nil
}

// Run loads the definitions, rolls the configured reference and prints the
// result to out. Diagnostics go to errOut.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	if cfg.Tables == "" {
		return errors.New("definitions file is required")
	}
	if cfg.Ref == "" {
		return errors.New("reference is required")
	}
	logger := log.New(errOut, log.Prefix(), 0)

	registry, errs := loader.LoadFile(cfg.Tables, cfg.Root)
	for _, err := range errs {
		logger.Print(apperrors.Localize(err, cfg.Locale))
		if cfg.Verbose {
			logger.Printf("  %v", err)
		}
	}
	if registry.Len() == 0 {
		return fmt.Errorf("no definitions loaded from %s", cfg.Tables)
	}

	r, err := ref.Parse(cfg.Ref)
	if err != nil {
		return fmt.Errorf("%s: %w", apperrors.Localize(err, cfg.Locale), err)
	}
	indexPath, err := ParseIndexPath(cfg.Reroll)
	if err != nil {
		return err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed, err = random.NewSeed()
		if err != nil {
			return err
		}
	}
	if cfg.Verbose {
		logger.Printf("seed %d, %d definitions", seed, registry.Len())
	}

	eng := engine.New(registry)
	rollCtx := engine.NewContext(cfg.Vars)
	outcome, src := eng.Resolve(r, cfg.Root, rollCtx, random.NewSource(seed))
	if err := printNode(out, outcome.Node, cfg); err != nil {
		return err
	}
	report(logger, outcome.Node, cfg)
	if cfg.Verbose {
		vars := outcome.Context.Vars()
		keys := make([]string, 0, len(vars))
		for k := range vars {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			logger.Printf("context %s = %d", k, vars[k])
		}
	}

	if cfg.Reroll == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	next, _, err := eng.Reroll(outcome.Node, indexPath, rollCtx, src)
	if err != nil {
		return fmt.Errorf("%s: %w", apperrors.Localize(err, cfg.Locale), err)
	}
	fmt.Fprintln(out, "---")
	if err := printNode(out, next, cfg); err != nil {
		return err
	}
	report(logger, next, cfg)
	return nil
}

func printNode(out io.Writer, n engine.Node, cfg Config) error {
	if cfg.JSON {
		data, err := encoding.CanonicalJSON(engine.Snapshot(n))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "%s\n", data)
		return err
	}
	if leaf, ok := n.(*engine.UnresolvedLeaf); ok {
		notFound := apperrors.WithMetadata(apperrors.CodePathNotFound, "nothing to roll", map[string]string{"Path": leaf.Path})
		_, err := fmt.Fprintln(out, apperrors.Localize(notFound, cfg.Locale))
		return err
	}
	_, err := fmt.Fprintln(out, engine.Render(n))
	return err
}

func report(logger *log.Logger, n engine.Node, cfg Config) {
	truncated := false
	engine.Walk(n, func(child engine.Node) bool {
		if leaf, ok := child.(*engine.UnresolvedLeaf); ok && leaf.Truncated {
			truncated = true
		}
		return !truncated
	})
	if truncated {
		logger.Print(i18n.GetCatalog(cfg.Locale).Format(i18n.CodeDepthTruncated, map[string]string{
			"Depth": strconv.Itoa(engine.MaxDepth),
		}))
	}
	if cfg.Verbose {
		if hash, err := engine.Fingerprint(n); err == nil {
			logger.Printf("fingerprint %s", hash)
		}
	}
}
