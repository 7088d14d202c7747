package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"persreg/pkg/platform/sentinel"
)

func TestTranslatePassesThroughNoRows(t *testing.T) {
	err := translate(sql.ErrNoRows, "SELECT 1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestTranslateMapsUniqueViolationToConflict(t *testing.T) {
	pqErr := &pq.Error{Code: "23505", Constraint: "individuals_national_code_active"}
	err := translate(fmt.Errorf("insert: %w", pqErr), "INSERT INTO individuals ...")
	require.ErrorIs(t, err, sentinel.ErrConflict)
	assert.Contains(t, err.Error(), "individuals_national_code_active")
}

func TestTranslateWrapsDriverFailures(t *testing.T) {
	cause := errors.New("connection reset")
	err := translate(cause, "SELECT * FROM individuals")

	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "SELECT * FROM individuals", storageErr.Stmt)
	assert.ErrorIs(t, err, cause)
}

func TestTranslateNil(t *testing.T) {
	assert.NoError(t, translate(nil, "SELECT 1"))
}
