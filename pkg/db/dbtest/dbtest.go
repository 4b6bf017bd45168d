// Package dbtest opens throwaway SQLite databases carrying the sale schema.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/estatedesk-backend/pkg/db/models"
	"github.com/angelmondragon/estatedesk-backend/pkg/enums"
)

// Open returns an isolated in-memory database with every model migrated.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// SeedUnit inserts a building and a unit in the given status.
func SeedUnit(t *testing.T, db *gorm.DB, status enums.UnitStatus) (*models.Building, *models.Unit) {
	t.Helper()

	owner := "Previous Owner"
	building := &models.Building{ID: uuid.New(), OwnerID: uuid.New(), Name: "Palm Tower"}
	require.NoError(t, db.Create(building).Error)

	unit := &models.Unit{
		ID:         uuid.New(),
		BuildingID: building.ID,
		UnitNumber: "12B",
		Floor:      12,
		Status:     status,
		OwnerName:  &owner,
	}
	require.NoError(t, db.Create(unit).Error)
	return building, unit
}
