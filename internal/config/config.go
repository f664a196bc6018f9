package config

import (
	"net/url"
	"path"
	"time"

	"github.com/gamenight/tracker/internal/env"

	"go.uber.org/zap"
)

const (
	PortEnv        = "PORT"
	DatabaseUrlEnv = "DATABASE_URL"
	RootPathEnv    = "ROOT_PATH"

	EmailServerHostEnv     = "EMAIL_SERVER_HOST"
	EmailServerUsernameEnv = "EMAIL_SERVER_USERNAME"
	EmailServerPasswordEnv = "EMAIL_SERVER_PASSWORD"
	EmailServerSenderEnv   = "EMAIL_SERVER_SENDER"

	ReminderCooldownEnv = "REMINDER_COOLDOWN"
)

type EmailConfiguration struct {
	Host     *url.URL
	Username string
	Password string
	Sender   string
}

type Config struct {
	Logger *zap.Logger

	Port           int
	DatabaseURL    string
	MigrationsPath string

	// ReminderCooldown is the minimum gap between reminder broadcasts for a
	// single session. A remind inside the window fails with a conflict.
	ReminderCooldown time.Duration

	Email EmailConfiguration
}

func Load() (Config, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return Config{}, err
	}

	port := env.MustGetInt(PortEnv)
	dbURL := env.MustGetString(DatabaseUrlEnv)
	rootPath := env.MustGetString(RootPathEnv)

	emailServerURL := env.MustGetURL(EmailServerHostEnv)
	emailServerUsername := env.MustGetString(EmailServerUsernameEnv)
	emailServerPassword := env.MustGetString(EmailServerPasswordEnv)
	emailServerSender := env.MustGetString(EmailServerSenderEnv)

	reminderCooldown := env.GetDurationOrDefault(ReminderCooldownEnv, time.Hour)

	migrationsPath := path.Join(rootPath, "db", "migrations")

	return Config{
		Logger:           logger,
		Port:             port,
		DatabaseURL:      dbURL,
		MigrationsPath:   migrationsPath,
		ReminderCooldown: reminderCooldown,
		Email: EmailConfiguration{
			Host:     emailServerURL,
			Username: emailServerUsername,
			Password: emailServerPassword,
			Sender:   emailServerSender,
		},
	}, nil
}
