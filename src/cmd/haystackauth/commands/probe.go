// FILE: haystackauth/src/cmd/haystackauth/commands/probe.go
package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"haystackauth/src/internal/config"
	"haystackauth/src/internal/probe"
	"haystackauth/src/internal/report"
	"haystackauth/src/internal/tls"
	"haystackauth/src/internal/transport"
	"haystackauth/src/internal/version"

	"github.com/valyala/fasthttp"
	"golang.org/x/term"
)

var errNoTerminal = errors.New("stdin is not a terminal")

// stringList collects a repeatable flag
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// ProbeCommand authenticates against the configured candidate servers
type ProbeCommand struct {
	output io.Writer
	errOut io.Writer

	// Replaceable for tests
	readPassword func(prompt string) (string, error)
	dial         fasthttp.DialFunc
}

func NewProbeCommand() *ProbeCommand {
	c := &ProbeCommand{
		output: os.Stdout,
		errOut: os.Stderr,
	}
	c.readPassword = c.promptPassword
	return c
}

type probeFlags struct {
	configFile   string
	servers      stringList
	username     string
	password     string
	authPath     string
	validatePath string
	timeoutMS    int64
	logLevel     string
	logOutput    string
	quiet        bool
	printToken   bool
	saveConfig   string

	set map[string]bool
}

func (f *probeFlags) isSet(names ...string) bool {
	for _, n := range names {
		if f.set[n] {
			return true
		}
	}
	return false
}

func (f *probeFlags) overrides() *config.Overrides {
	o := &config.Overrides{ConfigFile: f.configFile, Servers: f.servers}
	if f.isSet("u", "user") {
		o.Username = &f.username
	}
	if f.isSet("p", "password") {
		o.Password = &f.password
	}
	if f.isSet("auth-path") {
		o.AuthPath = &f.authPath
	}
	if f.isSet("validate-path") {
		o.ValidatePath = &f.validatePath
	}
	if f.isSet("timeout-ms") {
		o.TimeoutMS = &f.timeoutMS
	}
	if f.isSet("log-level") {
		o.LogLevel = &f.logLevel
	}
	if f.isSet("log-output") {
		o.LogOutput = &f.logOutput
	}
	return o
}

func (c *ProbeCommand) parseFlags(args []string) (*probeFlags, error) {
	cmd := flag.NewFlagSet("probe", flag.ContinueOnError)
	cmd.SetOutput(c.errOut)

	f := &probeFlags{set: make(map[string]bool)}

	cmd.StringVar(&f.configFile, "c", "", "Config file path")
	cmd.StringVar(&f.configFile, "config", "", "Config file path")
	cmd.Var(&f.servers, "s", "Candidate server base URL (repeatable)")
	cmd.Var(&f.servers, "server", "Candidate server base URL (repeatable)")
	cmd.StringVar(&f.username, "u", "", "Username")
	cmd.StringVar(&f.username, "user", "", "Username")
	cmd.StringVar(&f.password, "p", "", "Password (will prompt if not provided)")
	cmd.StringVar(&f.password, "password", "", "Password (will prompt if not provided)")
	cmd.StringVar(&f.authPath, "auth-path", "", "Handshake path")
	cmd.StringVar(&f.validatePath, "validate-path", "", "Token validation path, empty disables")
	cmd.Int64Var(&f.timeoutMS, "timeout-ms", 0, "Per-request timeout in milliseconds")
	cmd.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.StringVar(&f.logOutput, "log-output", "", "Log output: file, stdout, stderr, split, all, none")
	cmd.BoolVar(&f.quiet, "q", false, "Only print result lines")
	cmd.BoolVar(&f.quiet, "quiet", false, "Only print result lines")
	cmd.BoolVar(&f.printToken, "print-token", false, "Print the bearer token on stdout")
	cmd.StringVar(&f.saveConfig, "save-config", "", "Write the effective config (without password) to a TOML file")

	if err := cmd.Parse(args); err != nil {
		return nil, err
	}
	if cmd.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(cmd.Args(), " "))
	}

	cmd.Visit(func(fl *flag.Flag) {
		f.set[fl.Name] = true
	})

	if f.isSet("log-level") {
		if _, err := config.LevelValue(f.logLevel); err != nil {
			return nil, fmt.Errorf("invalid log-level: %s (valid: debug, info, warn, error)", f.logLevel)
		}
	}
	return f, nil
}

func (c *ProbeCommand) Execute(ctx context.Context, args []string) error {
	flags, err := c.parseFlags(args)
	if err != nil {
		return usageError(err)
	}

	overrides := flags.overrides()
	cfg, err := config.Load(overrides)
	if err != nil {
		return usageError(err)
	}

	if flags.saveConfig != "" {
		if err := cfg.SaveToFile(flags.saveConfig); err != nil {
			return failure(err)
		}
	}

	if cfg.Password == "" {
		password, err := c.readPassword(fmt.Sprintf("Password for %s: ", cfg.Username))
		if err != nil {
			return usageError(fmt.Errorf("password required (use -p, HAYSTACK_PASSWORD or a terminal prompt): %w", err))
		}
		cfg.Password = password
	}

	logger, err := initializeLogger(cfg.Logging, flags.quiet)
	if err != nil {
		return failure(fmt.Errorf("failed to initialize logger: %w", err))
	}
	defer func() {
		if err := shutdownLogger(logger); err != nil {
			fmt.Fprintf(c.errOut, "Logger shutdown error: %v\n", err)
		}
	}()

	logger.Info("msg", "haystackauth starting",
		"version", version.Short(),
		"config_file", overrides.ConfigPath(),
		"servers", len(cfg.Servers),
		"username", cfg.Username)

	tlsManager, err := tls.NewClientManager(cfg.TLS, logger)
	if err != nil {
		return usageError(fmt.Errorf("tls: %w", err))
	}
	logger.Debug("msg", "TLS client settings",
		"component", "tls",
		"settings", tlsManager.GetStats())

	client := transport.NewClient(transport.Options{
		Timeout:   cfg.Timeout(),
		TLSConfig: tlsManager.GetConfig(),
		Dial:      c.dial,
	}, logger)
	defer client.CloseIdleConnections()

	prober := probe.New(client, logger, probe.Options{
		AuthPath:        cfg.AuthPath,
		ValidatePath:    cfg.ValidatePath,
		StepTimeout:     cfg.Timeout(),
		AttemptInterval: cfg.AttemptInterval(),
	})

	out := newOutputHandler(c.output, c.errOut, flags.quiet)
	reporter := report.New(out.Narration())

	res, err := prober.Probe(ctx, cfg.Servers, cfg.Credentials())
	if err != nil {
		reporter.Failure(err)
		return &ExitError{Code: ExitFailure, Err: err, Silent: true}
	}

	reporter.Success(res)
	out.Result("%s\n", res.Endpoint)
	if flags.printToken {
		out.Result("%s\n", res.Token)
	}
	return nil
}

func (c *ProbeCommand) promptPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errNoTerminal
	}

	fmt.Fprint(c.errOut, prompt)
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(c.errOut)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}

func (c *ProbeCommand) Description() string {
	return "Authenticate against candidate servers (default)"
}

func (c *ProbeCommand) Help() string {
	return `Probe Command - Authenticate against candidate servers

Usage:
  haystackauth [probe] -s <url> [-s <url>...] -u <user> [options]

Candidates are tried in order. Each gets a fresh HELLO/SCRAM handshake;
the first whose bearer token passes the validation request wins.

Options:
  -c, --config <path>       Path to configuration file
  -s, --server <url>        Candidate base URL, repeatable or comma-separated
  -u, --user <name>         Username
  -p, --password <secret>   Password (prompted when omitted on a terminal)
      --auth-path <path>    Handshake path (default: /ui)
      --validate-path <p>   Token check path, "" disables (default: /api/about)
      --timeout-ms <n>      Per-request timeout in milliseconds (default: 5000)
      --log-level <level>   debug, info, warn, error
      --log-output <mode>   file, stdout, stderr, split, all, none
  -q, --quiet               Only print the result lines
      --print-token         Print the bearer token on stdout
      --save-config <path>  Write the effective config as TOML; the password
                            is never written

Output:
  stdout  the working endpoint, then the token with --print-token
  stderr  one line per attempt and a summary

Exit Codes:
  0  authenticated
  1  no working endpoint or probe aborted
  2  usage or configuration error
`
}
