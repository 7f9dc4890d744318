package repository

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/cradoe/splitsy/assets"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/lib/pq"
)

const defaultTimeout = 3 * time.Second

// Database interface defines available repositories
type Database interface {
	User() UserRepository
	Activity() ActivityRepository
	AdminAction() AdminActionRepository
	Group() GroupRepository
	Pool() PoolRepository
	Contribution() ContributionRepository
	Card() CardRepository
	Transaction() TransactionRepository
	Split() SplitRepository
	Verification() VerificationRepository
	Setting() SettingRepository

	Close() error
}

// DatabaseImpl implements the Database interface
type DatabaseImpl struct {
	db               *sqlx.DB
	userRepo         UserRepository
	activityRepo     ActivityRepository
	adminActionRepo  AdminActionRepository
	groupRepo        GroupRepository
	poolRepo         PoolRepository
	contributionRepo ContributionRepository
	cardRepo         CardRepository
	transactionRepo  TransactionRepository
	splitRepo        SplitRepository
	verificationRepo VerificationRepository
	settingRepo      SettingRepository

	mu sync.Mutex
}

// New initializes a database connection and runs migrations if enabled
func New(dsn string, automigrate bool) (Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", "postgres://"+dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	if automigrate {
		iofsDriver, err := iofs.New(assets.EmbeddedFiles, "migrations")
		if err != nil {
			return nil, err
		}

		migrator, err := migrate.NewWithSourceInstance("iofs", iofsDriver, "postgres://"+dsn)
		if err != nil {
			return nil, err
		}

		if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return nil, err
		}
	}

	return &DatabaseImpl{db: db}, nil
}

func (d *DatabaseImpl) Close() error {
	return d.db.Close()
}

func (d *DatabaseImpl) User() UserRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.userRepo == nil {
		d.userRepo = NewUserRepository(d.db)
	}
	return d.userRepo
}

func (d *DatabaseImpl) Activity() ActivityRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.activityRepo == nil {
		d.activityRepo = NewActivityRepository(d.db)
	}
	return d.activityRepo
}

func (d *DatabaseImpl) AdminAction() AdminActionRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.adminActionRepo == nil {
		d.adminActionRepo = NewAdminActionRepository(d.db)
	}
	return d.adminActionRepo
}

func (d *DatabaseImpl) Group() GroupRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.groupRepo == nil {
		d.groupRepo = NewGroupRepository(d.db)
	}
	return d.groupRepo
}

func (d *DatabaseImpl) Pool() PoolRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.poolRepo == nil {
		d.poolRepo = NewPoolRepository(d.db)
	}
	return d.poolRepo
}

func (d *DatabaseImpl) Contribution() ContributionRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.contributionRepo == nil {
		d.contributionRepo = NewContributionRepository(d.db)
	}
	return d.contributionRepo
}

func (d *DatabaseImpl) Card() CardRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cardRepo == nil {
		d.cardRepo = NewCardRepository(d.db)
	}
	return d.cardRepo
}

func (d *DatabaseImpl) Transaction() TransactionRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.transactionRepo == nil {
		d.transactionRepo = NewTransactionRepository(d.db)
	}
	return d.transactionRepo
}

func (d *DatabaseImpl) Split() SplitRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.splitRepo == nil {
		d.splitRepo = NewSplitRepository(d.db)
	}
	return d.splitRepo
}

func (d *DatabaseImpl) Verification() VerificationRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.verificationRepo == nil {
		d.verificationRepo = NewVerificationRepository(d.db)
	}
	return d.verificationRepo
}

func (d *DatabaseImpl) Setting() SettingRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.settingRepo == nil {
		d.settingRepo = NewSettingRepository(d.db)
	}
	return d.settingRepo
}

func notFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// validID reports whether every id can be compared against a UUID column.
// Anything else cannot match a row, so lookups treat it as not found.
func validID(ids ...string) bool {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return false
		}
	}
	return true
}

// DBTX is the subset of *sqlx.DB the repositories use, satisfied by
// *sqlx.DB and by sqlmock-backed connections in tests.
type DBTX interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}
