package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/jwalitptl/passpolicy/internal/config"
	"github.com/jwalitptl/passpolicy/internal/form"
	"github.com/jwalitptl/passpolicy/internal/service/policy"
	"github.com/jwalitptl/passpolicy/pkg/denylist"
	apperrors "github.com/jwalitptl/passpolicy/pkg/errors"
	"github.com/jwalitptl/passpolicy/pkg/logger"
	"github.com/jwalitptl/passpolicy/pkg/metrics"
	"github.com/jwalitptl/passpolicy/pkg/password"
	"github.com/jwalitptl/passpolicy/pkg/security"
	"github.com/jwalitptl/passpolicy/pkg/validator"
)

const usage = `usage: passpolicy [-config FILE] <command> [flags]

commands:
  evaluate   score a password read from stdin
  generate   print random passwords that pass the policy
  hash       bcrypt a password read from stdin if it passes the policy
  audit      summarize a file of passwords, one per line ("-" for stdin)
  check      validate a register or change-password form read as JSON from stdin
`

var errUsage = errors.New("usage")

type app struct {
	cfg      *config.Config
	log      *logger.Logger
	registry *prometheus.Registry
	svc      *policy.Service
	redis    *redis.Client
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("passpolicy", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := fs.String("config", "", "config file (default: ./config.yaml or ./config/config.yaml)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "passpolicy: %v\n", err)
		return 1
	}

	a, err := newApp(ctx, cfg, stdin, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "passpolicy: %v\n", err)
		return 1
	}
	defer a.close()

	cmd, cmdArgs := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "evaluate":
		err = a.evaluate(cmdArgs)
	case "generate":
		err = a.generate(cmdArgs)
	case "hash":
		err = a.hash(cmdArgs)
	case "audit":
		err = a.audit(ctx, cmdArgs)
	case "check":
		err = a.check(cmdArgs)
	default:
		err = fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}

	switch {
	case errors.Is(err, errUsage):
		fmt.Fprintf(stderr, "passpolicy: %v\n", err)
		fs.Usage()
		return 2
	case errors.Is(err, flag.ErrHelp):
		return 0
	case err != nil:
		a.log.Error(err, "command failed", "command", cmd)
		return 1
	}
	return 0
}

func newApp(ctx context.Context, cfg *config.Config, stdin io.Reader, stdout, stderr io.Writer) (*app, error) {
	log := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Output:     stderr,
		JSON:       cfg.Log.JSON,
	})

	registry := prometheus.NewRegistry()
	m := metrics.New(cfg.Metrics.Namespace, registry)

	a := &app{cfg: cfg, log: log, registry: registry, stdin: stdin, stdout: stdout, stderr: stderr}

	var sources []policy.DenylistSource
	for _, path := range cfg.Policy.DenylistFiles {
		sources = append(sources, policy.DenylistSource{Source: denylist.FileSource{Path: path}, Required: true})
	}

	if cfg.Redis.Enabled {
		redisCfg := cfg.Redis.ToSourceConfig()
		client, err := denylist.NewRedisClient(ctx, redisCfg)
		switch {
		case err == nil:
			a.redis = client
			sources = append(sources, policy.DenylistSource{
				Source:   denylist.NewRedisSource(client, redisCfg),
				Required: cfg.Redis.Required,
			})
		case cfg.Redis.Required:
			return nil, err
		default:
			log.ZL.Warn().Err(err).Msg("redis denylist disabled")
		}
	}

	p, err := policy.BuildPolicy(ctx, sources, m, log)
	if err != nil {
		a.close()
		return nil, err
	}

	a.svc = policy.NewService(p, security.NewBcryptHasher(cfg.Hash.BcryptCost, p), m, log)
	return a, nil
}

func (a *app) close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Error(err, "failed to close redis client")
		}
	}
	if a.cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(a.cfg.Metrics.Textfile, a.registry); err != nil {
			a.log.Error(err, "failed to write metrics textfile", "path", a.cfg.Metrics.Textfile)
		}
	}
}

// readSecret returns the first line of stdin without its line ending.
func (a *app) readSecret() (string, error) {
	line, err := bufio.NewReader(a.stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

type evaluateOutput struct {
	password.ValidationResult
	Label        string                 `json:"label"`
	Color        string                 `json:"color"`
	Requirements []password.Requirement `json:"requirements"`
	Estimate     *password.Estimate     `json:"estimate,omitempty"`
}

func (a *app) evaluate(args []string) error {
	fs := flag.NewFlagSet("evaluate", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	asJSON := fs.Bool("json", false, "print JSON")
	estimate := fs.Bool("estimate", false, "include a zxcvbn guessability estimate")
	userInputs := fs.String("user-inputs", "", "comma-separated user data (name, email) to penalize in the estimate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	pw, err := a.readSecret()
	if err != nil {
		return err
	}

	res := a.svc.Evaluate(pw)
	out := evaluateOutput{
		ValidationResult: res,
		Label:            password.StrengthLabel(res.Score),
		Color:            password.StrengthColorClass(res.Score),
		Requirements:     a.svc.Policy().Requirements(pw),
	}
	if *estimate {
		var inputs []string
		if *userInputs != "" {
			inputs = strings.Split(*userInputs, ",")
		}
		est := password.EstimateStrength(pw, inputs...)
		out.Estimate = &est
	}

	if *asJSON {
		return writeJSON(a.stdout, out)
	}

	fmt.Fprintf(a.stdout, "strength: %s (%d/%d)\n", out.Label, res.Score, password.MaxScore)
	fmt.Fprintf(a.stdout, "valid: %t\n", res.IsValid)
	for _, r := range out.Requirements {
		mark := " "
		if r.Met {
			mark = "x"
		}
		fmt.Fprintf(a.stdout, "[%s] %s\n", mark, r.Message)
	}
	for _, e := range res.Errors {
		fmt.Fprintf(a.stdout, "error: %s\n", e)
	}
	for _, s := range res.Suggestions {
		fmt.Fprintf(a.stdout, "suggestion: %s\n", s)
	}
	if out.Estimate != nil {
		fmt.Fprintf(a.stdout, "estimated crack time: %s\n", out.Estimate.CrackTimeDisplay)
	}
	return nil
}

func (a *app) generate(args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	length := fs.Int("length", a.cfg.Policy.GenerateLength, "password length (minimum 4)")
	count := fs.Int("count", 1, "number of passwords")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *count < 1 {
		return fmt.Errorf("%w: -count must be positive", errUsage)
	}

	for i := 0; i < *count; i++ {
		fmt.Fprintln(a.stdout, a.svc.Generate(*length))
	}
	return nil
}

func (a *app) hash(args []string) error {
	fs := flag.NewFlagSet("hash", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	pw, err := a.readSecret()
	if err != nil {
		return err
	}
	hash, err := a.svc.Hash(pw)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, hash)
	return nil
}

func (a *app) audit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("audit", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: audit takes exactly one file", errUsage)
	}

	in := a.stdin
	if name := fs.Arg(0); name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return fmt.Errorf("failed to open audit file: %w", err)
		}
		defer f.Close()
		in = f
	}

	report, err := a.svc.Audit(ctx, in)
	if err != nil {
		return err
	}
	return writeJSON(a.stdout, report)
}

type checkOutput struct {
	Valid  bool             `json:"valid"`
	Errors validator.Errors `json:"errors,omitempty"`
}

// check prints the field errors of the form and fails when there are any.
func (a *app) check(args []string) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: check takes register or change-password", errUsage)
	}

	checker := form.NewChecker(validator.New(a.svc.Policy()))
	dec := json.NewDecoder(a.stdin)
	dec.DisallowUnknownFields()

	var err error
	switch kind := fs.Arg(0); kind {
	case "register":
		var req form.RegisterRequest
		if err = dec.Decode(&req); err != nil {
			return apperrors.BadRequest("failed to decode register form", err)
		}
		err = checker.Register(&req)
	case "change-password":
		var req form.ChangePasswordRequest
		if err = dec.Decode(&req); err != nil {
			return apperrors.BadRequest("failed to decode change-password form", err)
		}
		err = checker.ChangePassword(&req)
	default:
		return fmt.Errorf("%w: unknown form %q", errUsage, kind)
	}

	out := checkOutput{Valid: err == nil}
	if err != nil && !errors.As(err, &out.Errors) {
		return err
	}
	if werr := writeJSON(a.stdout, out); werr != nil {
		return werr
	}
	return err
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
