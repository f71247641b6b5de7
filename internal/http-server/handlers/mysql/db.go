package mysql

import "database/sql"

type DB interface {
	PrepareAndExecute(statement string, args ...interface{}) (sql.Result, error)
	PrepareAndQueryRow(statement string, args ...interface{}) (*sql.Row, error)
	PrepareAndQuery(statement string, args ...interface{}) (*sql.Rows, error)
	StartTransaction() (*sql.Tx, error)
}
