package pkg

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrDBProcedureUnwrap(t *testing.T) {
	err := error(&ErrDBProcedure{Cause: "failed to select order", Info: "orderID: ORD-1", Err: sql.ErrNoRows})

	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.Equal(t, "failed to select order; got error: sql: no rows in result set; info: orderID: ORD-1", err.Error())
}

func TestErrDBProcedureWithoutInfo(t *testing.T) {
	err := &ErrDBProcedure{Cause: "failed to begin transaction", Err: errors.New("conn closed")}

	assert.Equal(t, "failed to begin transaction; got error: conn closed", err.Error())
}
