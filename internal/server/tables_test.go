package server

import (
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	gomysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTable(t *testing.T) {
	h, mock := newServer(t)
	expectSelect(mock)
	mock.ExpectQuery(`SELECT table_type`).WillReturnRows(sqlmock.NewRows([]string{"table_type"}))
	createSQL := "CREATE TABLE `orders` (`id` int NOT NULL AUTO_INCREMENT PRIMARY KEY, `total` decimal(10,2)) ENGINE=InnoDB"
	mock.ExpectExec(exact(createSQL)).WillReturnResult(sqlmock.NewResult(0, 0))

	rec, body := do(t, h, http.MethodPost, "/api/databases/shop/tables", `{
		"name": "orders",
		"columns": [
			{"name": "id", "type": "int", "autoIncrement": true, "primary": true},
			{"name": "total", "type": "decimal(10,2)", "nullable": true}
		]
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Table 'orders' created", body["message"])
	assert.Equal(t, []any{createSQL}, body["statements"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTable_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad name", `{"name":"or-ders","columns":[{"name":"id","type":"int"}]}`},
		{"no columns", `{"name":"orders","columns":[]}`},
		{"unknown engine", `{"name":"orders","engine":"Rocks","columns":[{"name":"id","type":"int"}]}`},
		{"injected type", `{"name":"orders","columns":[{"name":"id","type":"int; DROP TABLE users"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mock := newServer(t)
			expectSelect(mock)

			rec, body := do(t, h, http.MethodPost, "/api/databases/shop/tables", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, false, body["success"])
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAddColumn(t *testing.T) {
	h, mock := newServer(t)
	expectDescribeUsers(mock)
	mock.ExpectExec(exact("ALTER TABLE `users` ADD COLUMN `email` varchar(255) AFTER `name`")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	rec, body := do(t, h, http.MethodPost, "/api/databases/shop/tables/users/columns",
		`{"name":"email","type":"varchar(255)","nullable":true,"position":"after_name"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Column 'email' added", body["message"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddColumn_Conflicts(t *testing.T) {
	h, mock := newServer(t)
	expectDescribeUsers(mock)

	rec, body := do(t, h, http.MethodPost, "/api/databases/shop/tables/users/columns", `{"name":"age","type":"int"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestModifyColumn_Rename(t *testing.T) {
	h, mock := newServer(t)
	expectDescribeUsers(mock)
	mock.ExpectExec(exact("ALTER TABLE `users` CHANGE COLUMN `age` `years` int")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	rec, body := do(t, h, http.MethodPut, "/api/databases/shop/tables/users/columns/age", `{"name":"years","type":"int","nullable":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []any{"ALTER TABLE `users` CHANGE COLUMN `age` `years` int"}, body["statements"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestModifyColumn_StepFailureReportsProgress(t *testing.T) {
	h, mock := newServer(t)
	expectDescribeUsers(mock)
	mock.ExpectExec(exact("ALTER TABLE `users` MODIFY COLUMN `name` varchar(50) NOT NULL")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(exact("ALTER TABLE `users` ADD UNIQUE (`name`)")).
		WillReturnError(&gomysql.MySQLError{Number: 1062, Message: "Duplicate entry 'Ada' for key 'name'"})

	rec, body := do(t, h, http.MethodPut, "/api/databases/shop/tables/users/columns/name", `{"type":"varchar(50)","unique":true}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, float64(2), body["step"])
	assert.Equal(t, float64(1), body["committed"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDropColumn_MissingTable(t *testing.T) {
	h, mock := newServer(t)
	expectSelect(mock)
	mock.ExpectQuery(`SELECT table_type`).WillReturnRows(sqlmock.NewRows([]string{"table_type"}))

	rec, body := do(t, h, http.MethodDelete, "/api/databases/shop/tables/ghost/columns/id", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, `table "ghost" not found`, body["error"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
