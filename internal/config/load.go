package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full runtime configuration of skyreport.
type Config struct {
	Source        SourceConfig        `mapstructure:"source"`
	Workspace     WorkspaceConfig     `mapstructure:"workspace"`
	Build         BuildConfig         `mapstructure:"build"`
	Server        ServerConfig        `mapstructure:"server"`
	Bench         BenchConfig         `mapstructure:"bench"`
	Paths         PathsConfig         `mapstructure:"paths"`
	Report        ReportConfig        `mapstructure:"report"`
	Publish       PublishConfig       `mapstructure:"publish"`
	GitHub        GitHubConfig        `mapstructure:"github"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
}

// SourceConfig names the engine repository to benchmark.
type SourceConfig struct {
	Repo       string `mapstructure:"repo" validate:"required"`
	NextBranch string `mapstructure:"next_branch" validate:"required"`
}

// WorkspaceConfig controls where the ephemeral clone lives.
type WorkspaceConfig struct {
	// Root is the parent of the per-run workspace. Empty means the OS temp dir.
	Root         string        `mapstructure:"root"`
	CloneTimeout time.Duration `mapstructure:"clone_timeout" validate:"gt=0"`
}

type BuildConfig struct {
	Command []string      `mapstructure:"command" validate:"min=1,dive,required"`
	Output  string        `mapstructure:"output" validate:"required"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

type ServerConfig struct {
	Binary        string        `mapstructure:"binary" validate:"required"`
	Args          []string      `mapstructure:"args"`
	Address       string        `mapstructure:"address" validate:"required,hostname_port"`
	ReadyTimeout  time.Duration `mapstructure:"ready_timeout" validate:"gt=0"`
	ProbeInterval time.Duration `mapstructure:"probe_interval" validate:"gt=0"`
	StopTimeout   time.Duration `mapstructure:"stop_timeout" validate:"gt=0"`
}

type BenchConfig struct {
	Binary      string        `mapstructure:"binary" validate:"required"`
	Connections int           `mapstructure:"connections" validate:"gt=0"`
	Queries     int           `mapstructure:"queries" validate:"gt=0"`
	Size        int           `mapstructure:"size" validate:"gt=0"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// PathsConfig holds the local directories of the perf repository.
type PathsConfig struct {
	Baselines string `mapstructure:"baselines" validate:"required"`
	Results   string `mapstructure:"results" validate:"required"`
	Reports   string `mapstructure:"reports" validate:"required"`
}

type ReportConfig struct {
	Title         string `mapstructure:"title" validate:"required"`
	CommitBaseURL string `mapstructure:"commit_base_url" validate:"required,url"`
	PRBaseURL     string `mapstructure:"pr_base_url" validate:"required,url"`
	FileBaseURL   string `mapstructure:"file_base_url" validate:"required,url"`
}

// PublishConfig describes the repository results are pushed to.
type PublishConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Dir      string        `mapstructure:"dir" validate:"required"`
	User     string        `mapstructure:"user" validate:"required_if=Enabled true"`
	Host     string        `mapstructure:"host" validate:"required"`
	Org      string        `mapstructure:"org" validate:"required"`
	Repo     string        `mapstructure:"repo" validate:"required"`
	GitName  string        `mapstructure:"git_user_name"`
	GitEmail string        `mapstructure:"git_user_email" validate:"omitempty,email"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// GitHubConfig is the review system the bench result is announced on.
type GitHubConfig struct {
	Token  string `mapstructure:"token"`
	APIURL string `mapstructure:"api_url" validate:"required,url"`
	Owner  string `mapstructure:"owner" validate:"required"`
	Repo   string `mapstructure:"repo" validate:"required"`
}

type NotificationsConfig struct {
	Slack SlackConfig `mapstructure:"slack"`
}

type SlackConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token" validate:"required_if=Enabled true"`
	Channel string `mapstructure:"channel" validate:"required_if=Enabled true"`
}

// LoggingConfig is kept out of a "log" group so SKYREPORT_LOG binds to the
// level alone.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// SetDefaults registers every key with its default. Keys must be known to
// viper for AutomaticEnv to reach them during Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("source.repo", "https://github.com/skytable/skytable.git")
	v.SetDefault("source.next_branch", "next")

	v.SetDefault("workspace.root", "")
	v.SetDefault("workspace.clone_timeout", 15*time.Minute)

	v.SetDefault("build.command", []string{"cargo", "build", "-p", "skyd", "-p", "sky-bench", "--release"})
	v.SetDefault("build.output", "target/release")
	v.SetDefault("build.timeout", 60*time.Minute)

	v.SetDefault("server.binary", "skyd")
	v.SetDefault("server.args", []string{"--noart"})
	v.SetDefault("server.address", "127.0.0.1:2003")
	v.SetDefault("server.ready_timeout", 10*time.Second)
	v.SetDefault("server.probe_interval", 250*time.Millisecond)
	v.SetDefault("server.stop_timeout", 5*time.Second)

	v.SetDefault("bench.binary", "sky-bench")
	v.SetDefault("bench.connections", 50)
	v.SetDefault("bench.queries", 1000000)
	v.SetDefault("bench.size", 4)
	v.SetDefault("bench.timeout", 30*time.Minute)

	v.SetDefault("paths.baselines", "preset")
	v.SetDefault("paths.results", "results")
	v.SetDefault("paths.reports", "reports")

	v.SetDefault("report.title", "Skyreport")
	v.SetDefault("report.commit_base_url", "https://github.com/skytable/skytable/commit")
	v.SetDefault("report.pr_base_url", "https://github.com/skytable/skytable/pull")
	v.SetDefault("report.file_base_url", "https://github.com/skytable/perf/blob/next/reports")

	v.SetDefault("publish.enabled", true)
	v.SetDefault("publish.dir", ".")
	v.SetDefault("publish.user", "glydr")
	v.SetDefault("publish.host", "github.com")
	v.SetDefault("publish.org", "skytable")
	v.SetDefault("publish.repo", "perf")
	v.SetDefault("publish.git_user_name", "")
	v.SetDefault("publish.git_user_email", "")
	v.SetDefault("publish.timeout", 5*time.Minute)

	v.SetDefault("github.token", "")
	v.SetDefault("github.api_url", "https://api.github.com")
	v.SetDefault("github.owner", "skytable")
	v.SetDefault("github.repo", "skytable")

	v.SetDefault("notifications.slack.enabled", false)
	v.SetDefault("notifications.slack.token", "")
	v.SetDefault("notifications.slack.channel", "#perf")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "")

	v.SetDefault("metrics.textfile", "")
}

// Load reads .env, the config file and the environment into v and returns the
// validated configuration. A missing config file is not an error.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName("skyreport")
	}

	v.SetEnvPrefix("SKYREPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Names the CI workflow already exports.
	_ = v.BindEnv("github.token", "SKYREPORT_GITHUB_TOKEN", "GH_TOKEN")
	_ = v.BindEnv("logging.level", "SKYREPORT_LOG", "SKYREPORT_LOGGING_LEVEL")
	_ = v.BindEnv("notifications.slack.token", "SKYREPORT_NOTIFICATIONS_SLACK_TOKEN", "SLACK_BOT_USER_TOKEN")

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		slog.Debug("Using config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
