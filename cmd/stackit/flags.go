// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/danielhkuo/stackit/session"
)

const (
	APIKey      = "api"
	SessionKey  = "session"
	LogLevelKey = "log-level"
	TagKey      = "tag"
	AnswerKey   = "answer"
	UnreadKey   = "unread"
	MarkReadKey = "mark-read"
	EmailKey    = "email"
	PasswordKey = "password"
	UsernameKey = "username"

	defaultAPI = "http://localhost:8000"
)

func AddFlags(flags *pflag.FlagSet) {
	flags.String(APIKey, defaultAPI, "StackIt API base URL (env STACKIT_API)")
	flags.String(SessionKey, defaultSessionPath(), "Session database path (env STACKIT_SESSION)")
	flags.String(LogLevelKey, "warn", "Log level (debug, info, warn, error)")
	flags.String(TagKey, "", "Only list questions with this tag")
	flags.String(AnswerKey, "", "Vote on this answer of the question instead of the question")
	flags.Bool(UnreadKey, false, "Only show unread notifications")
	flags.Bool(MarkReadKey, false, "Mark notifications read after listing them")
	flags.String(EmailKey, "", "Account email")
	flags.String(PasswordKey, "", "Account password")
	flags.String(UsernameKey, "", "Username for register")
}

type Config struct {
	API         string
	SessionPath string
	LogLevel    string
	Tag         string
	Answer      string
	Unread      bool
	MarkRead    bool
	Email       string
	Password    string
	Username    string

	// Args are the command and its positional arguments
	Args []string
}

// ParseFlags parses args. STACKIT_API and STACKIT_SESSION apply when the
// corresponding flag is not given.
func ParseFlags(flags *pflag.FlagSet, args []string) (*Config, error) {
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	cfg := &Config{Args: flags.Args()}
	var err error

	if cfg.API, err = flags.GetString(APIKey); err != nil {
		return nil, err
	}
	if env := os.Getenv("STACKIT_API"); env != "" && !flags.Changed(APIKey) {
		cfg.API = env
	}

	if cfg.SessionPath, err = flags.GetString(SessionKey); err != nil {
		return nil, err
	}
	if env := os.Getenv("STACKIT_SESSION"); env != "" && !flags.Changed(SessionKey) {
		cfg.SessionPath = env
	}

	if cfg.LogLevel, err = flags.GetString(LogLevelKey); err != nil {
		return nil, err
	}
	if cfg.Tag, err = flags.GetString(TagKey); err != nil {
		return nil, err
	}
	if cfg.Answer, err = flags.GetString(AnswerKey); err != nil {
		return nil, err
	}
	if cfg.Unread, err = flags.GetBool(UnreadKey); err != nil {
		return nil, err
	}
	if cfg.MarkRead, err = flags.GetBool(MarkReadKey); err != nil {
		return nil, err
	}
	if cfg.Email, err = flags.GetString(EmailKey); err != nil {
		return nil, err
	}
	if cfg.Password, err = flags.GetString(PasswordKey); err != nil {
		return nil, err
	}
	if cfg.Username, err = flags.GetString(UsernameKey); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "stackit", session.FileName)
}
