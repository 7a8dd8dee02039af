// internal/database/connection_test.go
package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"
)

func TestNewGormConfig(t *testing.T) {
	silent := newGormConfig("silent")
	assert.True(t, silent.TranslateError)
	assert.Equal(t, logger.Default.LogMode(logger.Silent), silent.Logger)

	verbose := newGormConfig("info")
	assert.True(t, verbose.TranslateError)
	assert.Equal(t, logger.Default.LogMode(logger.Info), verbose.Logger)
}
