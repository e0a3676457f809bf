package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/func/agentcore/config"
	awsprovider "github.com/func/agentcore/provider/aws"
	"github.com/func/agentcore/storage"
	"github.com/func/agentcore/storage/dynamodb"
	"github.com/func/agentcore/storage/file"
	"github.com/func/agentcore/storage/kvbackend"
	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Agentcore is the root command.
var Agentcore = &cobra.Command{
	Use:           "agentcore",
	Short:         "Deploy, validate and clean up Amazon Bedrock AgentCore agent runtimes",
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	pf := Agentcore.PersistentFlags()
	pf.String("region", "", "AWS region. Env var: AGENTCORE_REGION")
	pf.String("config", "", "Project file (default "+config.DefaultFile+" if it exists)")
	pf.String("state", "", "Record store: a file path, bolt://<path> or dynamodb://<table> (default "+file.DefaultPath+")")
	pf.String("log-level", "info", "Log level: debug, info, warn or error")
	pf.Bool("log-json", false, "Log in JSON")
	pf.Duration("timeout", 0, "Overall timeout, 0 for none")

	Agentcore.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return usageError{err}
	})
}

// env is the environment shared by commands.
type env struct {
	ctx     context.Context
	cancel  context.CancelFunc
	logger  *zap.Logger
	project *config.Project
	region  string

	awsCfg  *sdkaws.Config
	closers []func() error
}

// setup parses the persistent flags and loads the project file.
func setup(cmd *cobra.Command) (*env, error) {
	flags := cmd.Flags()

	level, _ := flags.GetString("log-level")
	jsonLogs, _ := flags.GetBool("log-json")
	logger, err := buildLogger(level, jsonLogs)
	if err != nil {
		return nil, usageError{err}
	}
	logger = logger.With(zap.String("run", ksuid.New().String()))

	cfgFile, _ := flags.GetString("config")
	project, err := loadProject(cfgFile)
	if err != nil {
		return nil, err
	}

	region, _ := flags.GetString("region")
	if region == "" {
		region = os.Getenv("AGENTCORE_REGION")
	}
	if region == "" {
		region = project.Region
	}

	ctx, stop := signalContext(context.Background())
	cancel := stop
	if timeout, _ := flags.GetDuration("timeout"); timeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, timeout)
		cancel = func() {
			cancelTimeout()
			stop()
		}
	}

	logger.Debug("Setup", zap.String("command", cmd.Name()), zap.String("region", region))

	return &env{
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger,
		project: project,
		region:  region,
	}, nil
}

// close releases resources held by the environment.
func (e *env) close() {
	for _, c := range e.closers {
		if err := c(); err != nil {
			e.logger.Warn("Close", zap.Error(err))
		}
	}
	e.cancel()
	_ = e.logger.Sync()
}

// aws returns the AWS configuration, loading it on first use.
func (e *env) aws() (sdkaws.Config, error) {
	if e.awsCfg != nil {
		return *e.awsCfg, nil
	}
	cfg, err := awsprovider.LoadConfig(e.ctx, e.region)
	if err != nil {
		return sdkaws.Config{}, err
	}
	e.logger.Debug("AWS config", zap.String("region", cfg.Region))
	e.awsCfg = &cfg
	return cfg, nil
}

// store opens the record store selected with --state.
func (e *env) store(cmd *cobra.Command) (storage.Store, error) {
	state, _ := cmd.Flags().GetString("state")
	if state == "" {
		state = e.project.Record
	}
	s, closer, err := openStore(state, e.aws)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		e.closers = append(e.closers, closer)
	}
	return s, nil
}

// openStore opens a record store:
//
//   ""                 file store at deployment_info.txt
//   <path>             file store at path
//   bolt://<path>      bolt db at path, ~/.agentcore/state.db if empty
//   dynamodb://<table> DynamoDB table
func openStore(state string, awsCfg func() (sdkaws.Config, error)) (storage.Store, func() error, error) {
	switch {
	case strings.HasPrefix(state, "bolt://"):
		path := strings.TrimPrefix(state, "bolt://")
		var (
			db  *kvbackend.Bolt
			err error
		)
		if path == "" {
			db, err = kvbackend.NewBolt()
		} else {
			db, err = kvbackend.NewBoltWithFile(path)
		}
		if err != nil {
			return nil, nil, errors.Wrap(err, "open state")
		}
		return &storage.KV{Backend: db}, db.Close, nil
	case strings.HasPrefix(state, "dynamodb://"):
		table := strings.TrimPrefix(state, "dynamodb://")
		if table == "" {
			return nil, nil, usageError{errors.New("dynamodb state requires a table name")}
		}
		cfg, err := awsCfg()
		if err != nil {
			return nil, nil, err
		}
		return dynamodb.New(cfg, table), nil, nil
	case state == "":
		return &file.Store{Path: file.DefaultPath}, nil, nil
	default:
		return &file.Store{Path: state}, nil, nil
	}
}

// loadProject loads the project file. If no file is given, the default file
// is loaded if it exists. Without a file, an empty project is returned.
func loadProject(filename string) (*config.Project, error) {
	if filename == "" {
		if _, err := os.Stat(config.DefaultFile); err != nil {
			return &config.Project{}, nil
		}
		filename = config.DefaultFile
	}
	loader := &config.Loader{}
	p, diags := loader.Load(filename)
	if diags.HasErrors() {
		loader.WriteDiagnostics(os.Stderr, diags)
		return nil, usageError{errors.Errorf("invalid project file %s", filename)}
	}
	return p, nil
}

// buildLogger builds a logger writing to stderr. Human readable output is
// used unless json is set.
func buildLogger(level string, json bool) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, errors.Errorf("invalid log level %q", level)
	}
	var cfg zap.Config
	if json {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.DisableStacktrace = true
		cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.Kitchen)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// runtimeName returns the --name flag, or the only runtime declared in the
// project.
func runtimeName(cmd *cobra.Command, project *config.Project) string {
	name, _ := cmd.Flags().GetString("name")
	if name == "" && len(project.Runtimes) == 1 {
		name = project.Runtimes[0].Name
	}
	return name
}

// flagOr returns the value of a string flag if set, otherwise the first
// non-empty fallback.
func flagOr(cmd *cobra.Command, name string, fallbacks ...string) string {
	v, _ := cmd.Flags().GetString(name)
	if v != "" {
		return v
	}
	for _, f := range fallbacks {
		if f != "" {
			return f
		}
	}
	return ""
}

// noArgs rejects positional arguments.
func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return usageError{err}
	}
	return nil
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

func printf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stdout, format, args...)
}
