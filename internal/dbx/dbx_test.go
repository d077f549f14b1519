package dbx

import (
	"database/sql"
	"testing"
)

func TestDBTXSatisfiedByStdlibHandles(t *testing.T) {
	var _ DBTX = (*sql.DB)(nil)
	var _ DBTX = (*sql.Tx)(nil)
}
