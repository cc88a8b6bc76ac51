package test

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	_ "github.com/jackc/pgx/v4/stdlib" //nolint:revive

	"github.com/code-payments/code-authority-server/pkg/retry"
	"github.com/code-payments/code-authority-server/pkg/retry/backoff"
)

const (
	containerName     = "postgres"
	containerVersion  = "14-alpine"
	containerAutoKill = 120 * time.Second

	port     = 5432
	user     = "localtest"
	password = "localpassword"
	dbname   = "testdb"

	connectAttempts = 50
	connectInterval = 500 * time.Millisecond
)

// StartPostgresDB starts a Docker container using the postgres image and
// returns a client for testing purposes. The returned closeFunc closes the
// client and purges the container.
func StartPostgresDB(pool *dockertest.Pool) (db *sql.DB, closeFunc func(), err error) {
	log := logrus.StandardLogger().WithField("type", "database/postgres/test")

	closeFunc = func() {}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: containerName,
		Tag:        containerVersion,
		Env: []string{
			"listen_addresses = '*'",
			"POSTGRES_USER=" + user,
			"POSTGRES_PASSWORD=" + password,
			"POSTGRES_DB=" + dbname,
		},
	}, func(config *docker.HostConfig) {
		// Stopped containers go away by themselves
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, closeFunc, errors.Wrap(err, "failed to start resource")
	}

	// Expire() never returns an error. The auto-kill may need adjusting for
	// slow test environments.
	_ = resource.Expire(uint(containerAutoKill.Seconds()))

	hostAndPort := resource.GetHostPort(fmt.Sprintf("%d/tcp", port))
	databaseUrl := fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable", user, password, hostAndPort, dbname)

	attempts, err := retry.Retry(
		func() error {
			db, err = sql.Open("pgx", databaseUrl)
			if err != nil {
				return err
			}
			return db.Ping()
		},
		retry.Limit(connectAttempts),
		retry.Backoff(backoff.Constant(connectInterval), connectInterval),
	)
	if err != nil {
		_ = pool.Purge(resource)
		return nil, closeFunc, errors.Wrap(err, "timed out waiting for postgres container to become available")
	}

	log.WithField("attempts", attempts).Debug("connected to postgres container")

	closeFunc = func() {
		if err := db.Close(); err != nil {
			log.WithError(err).Warn("failure closing test database")
		}
		if err := pool.Purge(resource); err != nil {
			log.WithError(err).Warn("failure purging postgres container")
		}
	}
	return db, closeFunc, nil
}
