package persistence

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/config"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockDatabase creates a Database instance with a mocked SQL connection
func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return &Database{DB: gormDB, Driver: DriverPostgres}, mock, mockDB
}

func TestDialector(t *testing.T) {
	t.Run("defaults to postgres", func(t *testing.T) {
		d, err := Dialector(&config.DatabaseConfig{Host: "localhost", Port: 5432, DBName: "dues"})
		require.NoError(t, err)
		assert.Equal(t, "postgres", d.Name())
	})

	t.Run("selects sqlite", func(t *testing.T) {
		d, err := Dialector(&config.DatabaseConfig{Driver: DriverSQLite, DBName: ":memory:"})
		require.NoError(t, err)
		assert.Equal(t, "sqlite", d.Name())
	})

	t.Run("rejects unknown driver", func(t *testing.T) {
		_, err := Dialector(&config.DatabaseConfig{Driver: "oracle"})
		assert.Error(t, err)
	})
}

func TestNewDatabase_SQLite(t *testing.T) {
	db, err := NewDatabase(&config.DatabaseConfig{Driver: DriverSQLite, DBName: ":memory:"})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, DriverSQLite, db.Driver)
	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	assert.True(t, db.DB.Migrator().HasTable("periodic_charges"))
	assert.True(t, db.DB.Migrator().HasIndex(&models.PeriodicChargeModel{}, "idx_periodic_charges_unit_period"))

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MaxOpenConnections)
}

func TestDatabase_Ping(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	mock.ExpectPing()

	assert.NoError(t, db.Ping())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Close(t *testing.T) {
	db, mock, _ := newMockDatabase(t)

	mock.ExpectClose()

	assert.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Stats(t *testing.T) {
	db, _, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	stats, err := db.Stats()

	assert.NoError(t, err)
	assert.GreaterOrEqual(t, stats.OpenConnections, 0)
	assert.GreaterOrEqual(t, stats.WaitDuration, time.Duration(0))
}

func TestDatabase_Transaction(t *testing.T) {
	type TestModel struct {
		ID   uint
		Name string
	}

	t.Run("commits on success", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO "test_models"`).
			WithArgs("test").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectCommit()

		err := db.Transaction(func(tx *gorm.DB) error {
			return tx.Create(&TestModel{Name: "test"}).Error
		})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := db.Transaction(func(tx *gorm.DB) error {
			return assert.AnError
		})

		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
