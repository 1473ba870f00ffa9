package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/tauraamui/scandaemon/pkg/database/dbconn"
	"github.com/tauraamui/scandaemon/pkg/database/models"
	"github.com/tauraamui/scandaemon/pkg/database/repos"
	"github.com/tauraamui/scandaemon/pkg/log"
	"github.com/tauraamui/xerror"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	vendorName       = "tacusci"
	appName          = "scandaemon"
	databaseFileName = "sd.db"
	databasePathEnv  = "SCAN_DAEMON_DB"
)

var (
	ErrCreateDBFile    = xerror.New("unable to create database file")
	ErrDBAlreadyExists = xerror.New("database file already exists")
	ErrDBNotFound      = xerror.New("database file does not exist")
)

var uc = os.UserCacheDir
var fs = afero.NewOsFs()

// Setup creates the scan history store and its first admin account.
// A store left behind by a failed setup is removed again so setup can
// simply be re-run.
func Setup() (err error) {
	path, err := resolveDBPath(uc)
	if err != nil {
		return err
	}
	if err := createFile(path); err != nil {
		return err
	}
	defer func() {
		if err != nil {
			fs.Remove(path) //nolint
		}
	}()

	db, err := open(path)
	if err != nil {
		return err
	}

	admin, err := prompt.adminCredentials()
	if err != nil {
		return xerror.Errorf("unable to read admin credentials: %w", err)
	}

	users := repos.UserRepository{DB: db}
	if err := users.Create(&admin); err != nil {
		return xerror.Errorf("unable to create admin user: %w", err)
	}

	log.Info("Created scan history store at %s with admin [%s]", path, admin.Name) //nolint
	return nil
}

func Destroy() error {
	path, err := resolveDBPath(uc)
	if err != nil {
		return xerror.Errorf("unable to delete database file: %w", err)
	}

	if _, err := fs.Stat(path); errors.Is(err, os.ErrNotExist) {
		return xerror.Errorf("%w: %s", ErrDBNotFound, path)
	}

	log.Info("Removing scan history store: %s", path) //nolint
	return fs.Remove(path)
}

// Connect opens the existing scan history store, migrating the user
// and scan tables along with the per camera scan index.
func Connect() (dbconn.GormWrapper, error) {
	path, err := resolveDBPath(uc)
	if err != nil {
		return nil, err
	}
	return open(path)
}

func open(path string) (dbconn.GormWrapper, error) {
	log.Debug("Connecting to scan history store: %s", path) //nolint
	db, err := openDBConnection(dsn(path))
	if err != nil {
		return nil, xerror.Errorf("unable to open db connection: %w", err)
	}

	if err := models.AutoMigrate(db); err != nil {
		return nil, xerror.Errorf("unable to run automigrations: %w", err)
	}
	return db, nil
}

// dsn enables WAL so API history reads do not wait on session writes.
func dsn(path string) string {
	return fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path)
}

var openDBConnection = func(dsn string) (dbconn.GormWrapper, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.New(nil, logger.Config{LogLevel: logger.Silent}),
	})
	if err != nil {
		return nil, err
	}
	return dbconn.Wrap(db), nil
}

func resolveDBPath(uc func() (string, error)) (string, error) {
	if path := os.Getenv(databasePathEnv); len(path) > 0 {
		return path, nil
	}

	cacheDir, err := uc()
	if err != nil {
		return "", xerror.Errorf("unable to resolve %s database file location: %w", databaseFileName, err)
	}
	return filepath.Join(cacheDir, vendorName, appName, databaseFileName), nil
}

func createFile(path string) error {
	if _, err := fs.Stat(path); !errors.Is(err, os.ErrNotExist) {
		return xerror.Errorf("%w: %s", ErrDBAlreadyExists, path)
	}

	if err := fs.MkdirAll(filepath.Dir(path), os.ModeDir|os.ModePerm); err != nil {
		return xerror.Errorf("%v: %w", ErrCreateDBFile, err)
	}
	f, err := fs.Create(path)
	if err != nil {
		return xerror.Errorf("%v: %w", ErrCreateDBFile, err)
	}
	return f.Close()
}
