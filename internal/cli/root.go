package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"taskbot/internal/config"
)

// RootCommand represents the base command when called without any subcommands
type RootCommand struct {
	cmd    *cobra.Command
	config *config.Config
	// stderr receives logs; cobra's own streams carry command output.
	stderr io.Writer
}

// NewRootCommand creates the root cobra command with global flags
func NewRootCommand() *RootCommand {
	root := &RootCommand{stderr: os.Stderr}

	root.cmd = &cobra.Command{
		Use:   "taskbot",
		Short: "A conversational task list bot",
		Long: `taskbot keeps a numbered task list per chat user.

Users add tasks by sending text, and manage them with /list, /done <n>,
/delete <n>, /clear_all, /done_all and /export. Task numbers are always
1..N in creation order; deleting a task renumbers the ones after it.

EXAMPLES:
  taskbot migrate                          # Create the tasks table
  taskbot serve                            # Run the webhook on :8080
  taskbot send --user 42 buy milk          # Send one message as user 42
  taskbot send --user 42 /list             # Show user 42's tasks

CONFIGURATION:
  Configuration follows this priority order: command-line flags > environment variables > .env > defaults

  Database:
    TASKBOT_DB_DRIVER                      postgres or sqlite (default: sqlite)
    TASKBOT_DATABASE_URL                   Postgres connection URL
    DB_HOST, DB_PORT, DB_NAME, DB_USER, DB_PASS
                                           Postgres connection parts
    TASKBOT_DB_DIR, TASKBOT_DB_FILENAME    SQLite location (default: ~/.taskbot/taskbot.db)
    TASKBOT_DB_QUERY_TIMEOUT               Read timeout (default: 10s)
    TASKBOT_DB_WRITE_TIMEOUT               Write timeout (default: 5s)

  Cache:
    TASKBOT_CACHE_BACKEND                  redis, memory or none (default: memory)
    TASKBOT_REDIS_ADDR                     Redis address (default: localhost:6379)
    REDIS_HOST, REDIS_PORT, REDIS_DB       Redis connection parts
    TASKBOT_CACHE_TTL                      Entry lifetime, 0 for none (default: 0)

  Server:
    TASKBOT_LISTEN_ADDR                    Webhook address (default: :8080)
    TASKBOT_CORS_ORIGINS                   Comma separated browser origins

  Application:
    TASKBOT_LOG_LEVEL                      debug, info, warn or error (default: info)
    TASKBOT_LOG_FORMAT                     text or json (default: text)`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return root.loadConfig()
		},
	}

	root.addGlobalFlags()
	root.cmd.AddCommand(
		root.newServeCommand(),
		root.newMigrateCommand(),
		root.newSendCommand(),
	)

	return root
}

// Execute runs the root command
func (r *RootCommand) Execute() error {
	return r.cmd.Execute()
}

// ExecuteContext runs the root command with ctx.
func (r *RootCommand) ExecuteContext(ctx context.Context) error {
	return r.cmd.ExecuteContext(ctx)
}

// SetArgs, SetOut and SetErr redirect the command for tests.
func (r *RootCommand) SetArgs(args []string) { r.cmd.SetArgs(args) }

func (r *RootCommand) SetOut(w io.Writer) { r.cmd.SetOut(w) }

func (r *RootCommand) SetErr(w io.Writer) {
	r.cmd.SetErr(w)
	r.stderr = w
}

// addGlobalFlags adds global configuration flags
func (r *RootCommand) addGlobalFlags() {
	flags := r.cmd.PersistentFlags()

	flags.String("env-file", ".env", "dotenv file to read before the environment")

	// Database configuration
	flags.String("db-driver", "", "Database driver (overrides TASKBOT_DB_DRIVER)")
	flags.String("database-url", "", "Postgres URL (overrides TASKBOT_DATABASE_URL)")
	flags.String("db-dir", "", "SQLite directory (overrides TASKBOT_DB_DIR)")
	flags.String("db-filename", "", "SQLite filename (overrides TASKBOT_DB_FILENAME)")
	flags.Duration("db-query-timeout", 0, "Database query timeout (overrides TASKBOT_DB_QUERY_TIMEOUT)")
	flags.Duration("db-write-timeout", 0, "Database write timeout (overrides TASKBOT_DB_WRITE_TIMEOUT)")

	// Cache configuration
	flags.String("cache-backend", "", "Cache backend (overrides TASKBOT_CACHE_BACKEND)")
	flags.String("redis-addr", "", "Redis address (overrides TASKBOT_REDIS_ADDR)")
	flags.Duration("cache-ttl", 0, "Cache entry lifetime (overrides TASKBOT_CACHE_TTL)")

	// Server configuration
	flags.String("listen", "", "Webhook listen address (overrides TASKBOT_LISTEN_ADDR)")

	// Application configuration
	flags.String("log-level", "", "Log level (overrides TASKBOT_LOG_LEVEL)")
	flags.String("log-format", "", "Log format (overrides TASKBOT_LOG_FORMAT)")
}

// loadConfig builds the configuration from defaults, env and changed flags.
func (r *RootCommand) loadConfig() error {
	flags := r.cmd.PersistentFlags()
	overrides := &config.ConfigOverrides{}

	stringFlag := func(name string, dst **string) {
		if flags.Changed(name) {
			v, _ := flags.GetString(name)
			*dst = &v
		}
	}
	durationFlag := func(name string, dst **time.Duration) {
		if flags.Changed(name) {
			v, _ := flags.GetDuration(name)
			*dst = &v
		}
	}

	stringFlag("db-driver", &overrides.DBDriver)
	stringFlag("database-url", &overrides.DatabaseURL)
	stringFlag("db-dir", &overrides.DBDir)
	stringFlag("db-filename", &overrides.DBFilename)
	durationFlag("db-query-timeout", &overrides.DBQueryTimeout)
	durationFlag("db-write-timeout", &overrides.DBWriteTimeout)
	stringFlag("cache-backend", &overrides.CacheBackend)
	stringFlag("redis-addr", &overrides.RedisAddr)
	durationFlag("cache-ttl", &overrides.CacheTTL)
	stringFlag("listen", &overrides.ListenAddr)
	stringFlag("log-level", &overrides.LogLevel)
	stringFlag("log-format", &overrides.LogFormat)

	envFile, _ := flags.GetString("env-file")
	cfg, err := config.NewLoaderWithEnvFiles(envFile).LoadWithOverrides(overrides)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	r.config = cfg
	return nil
}

// newApp wires the application for a subcommand.
func (r *RootCommand) newApp(ctx context.Context) (*App, error) {
	if r.config == nil {
		return nil, fmt.Errorf("configuration not initialized")
	}
	return NewApp(ctx, r.config, r.stderr)
}
