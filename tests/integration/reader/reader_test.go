package reader_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/willibrandon/pgread/internal/config"
	"github.com/willibrandon/pgread/internal/db"
	"github.com/willibrandon/pgread/internal/db/queries"
	"github.com/willibrandon/pgread/internal/output"
	"github.com/willibrandon/pgread/internal/reader"
)

const (
	testUser     = "test"
	testPassword = "test"
	testDatabase = "testdb"
)

// ReaderTestSuite runs the reader against a real PostgreSQL server.
// The container is shared; the users table is recreated for each test.
type ReaderTestSuite struct {
	suite.Suite
	ctx    context.Context
	cancel context.CancelFunc

	container testcontainers.Container
	admin     *pgx.Conn
	host      string
	port      int
}

func TestReaderSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	suite.Run(t, new(ReaderTestSuite))
}

func (s *ReaderTestSuite) SetupSuite() {
	s.ctx, s.cancel = context.WithCancel(context.Background())

	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     testUser,
			"POSTGRES_PASSWORD": testPassword,
			"POSTGRES_DB":       testDatabase,
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(s.ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	s.Require().NoError(err, "Failed to start PostgreSQL container")
	s.container = container

	host, err := container.Host(s.ctx)
	s.Require().NoError(err)
	mapped, err := container.MappedPort(s.ctx, "5432")
	s.Require().NoError(err)
	s.host = host
	s.port = mapped.Int()

	admin, err := pgx.Connect(s.ctx, db.ConnString(s.connConfig(config.DriverPGX)))
	s.Require().NoError(err, "Failed to connect admin session")
	s.admin = admin
}

func (s *ReaderTestSuite) TearDownSuite() {
	if s.admin != nil {
		_ = s.admin.Close(context.Background())
	}
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *ReaderTestSuite) SetupTest() {
	_, err := s.admin.Exec(s.ctx, `DROP TABLE IF EXISTS users`)
	s.Require().NoError(err)
	_, err = s.admin.Exec(s.ctx, `CREATE TABLE users (id SERIAL PRIMARY KEY, name TEXT NOT NULL, age INTEGER)`)
	s.Require().NoError(err)
}

func (s *ReaderTestSuite) connConfig(driver string) config.ConnectionConfig {
	return config.ConnectionConfig{
		Host:     s.host,
		Port:     s.port,
		Database: testDatabase,
		User:     testUser,
		Password: testPassword,
		SSLMode:  "disable",
		Driver:   driver,
	}
}

func (s *ReaderTestSuite) run(cfg config.ConnectionConfig) (string, int, error) {
	var out bytes.Buffer
	count, err := reader.New(cfg, reader.WithOutput(&out)).Run(s.ctx)
	return out.String(), count, err
}

// openSessions counts backends opened by the reader, excluding the admin session.
func (s *ReaderTestSuite) openSessions() int {
	var n int
	err := s.admin.QueryRow(s.ctx,
		`SELECT count(*) FROM pg_stat_activity WHERE application_name = $1 AND pid <> pg_backend_pid()`,
		db.ApplicationName,
	).Scan(&n)
	s.Require().NoError(err)
	return n
}

func (s *ReaderTestSuite) assertNoSessionsLeft() {
	s.Eventually(func() bool {
		return s.openSessions() == 0
	}, 5*time.Second, 100*time.Millisecond, "reader connection was not closed")
}

func (s *ReaderTestSuite) TestPrintsAllUsers() {
	_, err := s.admin.Exec(s.ctx, `INSERT INTO users (name, age) VALUES ('Alice', 30), ('Bob', 25)`)
	s.Require().NoError(err)

	for _, driver := range config.ValidDrivers {
		s.Run(driver, func() {
			out, count, err := s.run(s.connConfig(driver))
			s.Require().NoError(err)

			s.Equal(2, count)
			lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
			s.ElementsMatch([]string{
				"ID: 1, Name: Alice, Age: 30",
				"ID: 2, Name: Bob, Age: 25",
			}, lines)
			s.assertNoSessionsLeft()
		})
	}
}

func (s *ReaderTestSuite) TestNullAge() {
	_, err := s.admin.Exec(s.ctx, `INSERT INTO users (name, age) VALUES ('Carol', NULL)`)
	s.Require().NoError(err)

	for _, driver := range config.ValidDrivers {
		s.Run(driver, func() {
			var out bytes.Buffer
			_, err := reader.New(s.connConfig(driver),
				reader.WithOutput(&out),
				reader.WithFormatter(output.JSONFormatter{}),
			).Run(s.ctx)
			s.Require().NoError(err)
			s.Equal(`{"id":1,"name":"Carol","age":null}`+"\n", out.String())
		})
	}
}

func (s *ReaderTestSuite) TestEmptyTable() {
	for _, driver := range config.ValidDrivers {
		s.Run(driver, func() {
			out, count, err := s.run(s.connConfig(driver))
			s.Require().NoError(err)
			s.Zero(count)
			s.Empty(out)
			s.assertNoSessionsLeft()
		})
	}
}

func (s *ReaderTestSuite) TestMissingTable() {
	_, err := s.admin.Exec(s.ctx, `DROP TABLE users`)
	s.Require().NoError(err)

	for _, driver := range config.ValidDrivers {
		s.Run(driver, func() {
			out, _, err := s.run(s.connConfig(driver))
			s.Require().ErrorIs(err, queries.ErrQueryFailed)
			s.Equal("42P01", db.SQLState(err))
			s.Contains(db.Hint(err), "users table does not exist")
			s.Empty(out)
			s.assertNoSessionsLeft()
		})
	}
}

func (s *ReaderTestSuite) TestWrongPassword() {
	for _, driver := range config.ValidDrivers {
		s.Run(driver, func() {
			cfg := s.connConfig(driver)
			cfg.Password = "wrong"

			out, _, err := s.run(cfg)
			s.Require().ErrorIs(err, db.ErrConnectionFailed)
			s.Contains(db.Hint(err), "Authentication failed")
			s.NotContains(err.Error(), "wrong")
			s.Empty(out)
		})
	}
}

func (s *ReaderTestSuite) TestUnknownDatabase() {
	cfg := s.connConfig(config.DriverPGX)
	cfg.Database = "missing"

	_, _, err := s.run(cfg)
	s.Require().ErrorIs(err, db.ErrConnectionFailed)
	s.Equal("3D000", db.SQLState(err))
}

func (s *ReaderTestSuite) TestUnreachableHost() {
	cfg := s.connConfig(config.DriverPGX)
	cfg.Host = "127.0.0.1"
	cfg.Port = 1

	_, _, err := s.run(cfg)
	s.Require().ErrorIs(err, db.ErrConnectionFailed)
}
