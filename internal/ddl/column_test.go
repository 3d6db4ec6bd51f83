package ddl

import (
	"strings"
	"testing"

	"github.com/koustreak/dbdesk/internal/errs"
	"github.com/koustreak/dbdesk/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func TestBuildDefinition(t *testing.T) {
	tests := []struct {
		name string
		spec ColumnSpec
		want string
	}{
		{
			name: "auto increment primary key",
			spec: ColumnSpec{Type: "int", AutoIncrement: true, Primary: true},
			want: "int NOT NULL AUTO_INCREMENT PRIMARY KEY",
		},
		{
			name: "nullable with default",
			spec: ColumnSpec{Type: "varchar(100)", Nullable: true, Default: strp("'guest'")},
			want: "varchar(100) DEFAULT 'guest'",
		},
		{
			name: "empty default means none",
			spec: ColumnSpec{Type: "text", Nullable: true, Default: strp("")},
			want: "text",
		},
		{
			name: "null default",
			spec: ColumnSpec{Type: "int", Nullable: true, Default: strp("NULL")},
			want: "int DEFAULT NULL",
		},
		{
			name: "full order",
			spec: ColumnSpec{Type: "varchar(20)", Default: strp("'a'"), Unique: true, Extra: "COMMENT 'code'"},
			want: "varchar(20) NOT NULL DEFAULT 'a' UNIQUE COMMENT 'code'",
		},
		{
			name: "quoted default",
			spec: ColumnSpec{Type: "varchar(10)", Default: strp("it's"), QuoteDefault: true},
			want: "varchar(10) NOT NULL DEFAULT 'it''s'",
		},
		{
			name: "numeric default left alone when quoting",
			spec: ColumnSpec{Type: "int", Default: strp("0"), QuoteDefault: true},
			want: "int NOT NULL DEFAULT 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildDefinition(tt.spec))
		})
	}
}

func TestQuoteDefault(t *testing.T) {
	tests := []struct {
		base schema.BaseType
		raw  string
		want string
	}{
		{schema.Text, "abc", "'abc'"},
		{schema.Text, "12", "'12'"},
		{schema.Text, `a\b`, `'a\\b'`},
		{schema.Integer, "42", "42"},
		{schema.Decimal, "-1.5e3", "-1.5e3"},
		{schema.Integer, "abc", "'abc'"},
		{schema.Boolean, "TRUE", "TRUE"},
		{schema.Text, "NULL", "NULL"},
		{schema.DateTime, "CURRENT_TIMESTAMP", "CURRENT_TIMESTAMP"},
		{schema.DateTime, "CURRENT_TIMESTAMP(3)", "CURRENT_TIMESTAMP(3)"},
		{schema.Char, "'x'", "'x'"},
		{schema.Text, "(uuid())", "(uuid())"},
	}

	for _, tt := range tests {
		t.Run(string(tt.base)+"/"+tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, QuoteDefault(tt.base, tt.raw))
		})
	}
}

func TestValidateType(t *testing.T) {
	valid := []string{
		"int",
		"INT(11) UNSIGNED",
		"varchar(255)",
		"decimal(10, 2)",
		"double precision",
		"enum('a','b''c')",
		"set('x', 'y')",
		"varchar(50) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin",
		"timestamp",
	}
	for _, raw := range valid {
		t.Run("valid/"+raw, func(t *testing.T) {
			assert.NoError(t, ValidateType(raw))
		})
	}

	invalid := []string{
		"",
		"int; DROP TABLE users",
		"int -- trailing",
		"int /* x */",
		"enum('a",
		"varchar(abc)",
		"int)",
		"int DEFAULT 'x'; SELECT 1",
	}
	for _, raw := range invalid {
		t.Run("invalid/"+raw, func(t *testing.T) {
			err := ValidateType(raw)
			require.Error(t, err)
			assert.True(t, errs.IsInvalidInput(err))
		})
	}
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("table", "users"))
	assert.NoError(t, ValidateName("table", "user_2"))

	for _, bad := range []string{"", "bad-name", "a b", "x`y", strings.Repeat("a", 65)} {
		err := ValidateName("table", bad)
		require.Error(t, err, bad)
		assert.True(t, errs.IsInvalidInput(err))
	}
}

func TestParsePosition(t *testing.T) {
	tests := []struct {
		in     string
		want   Position
		clause string
	}{
		{"", Position{Kind: AtEnd}, ""},
		{"end", Position{Kind: AtEnd}, ""},
		{"first", Position{Kind: AtFirst}, " FIRST"},
		{"after_name", Position{Kind: AfterColumn, Column: "name"}, " AFTER `name`"},
		{"after_created_at", Position{Kind: AfterColumn, Column: "created_at"}, " AFTER `created_at`"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePosition(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.clause, got.Clause())
		})
	}

	for _, bad := range []string{"last", "after_", "before_id"} {
		_, err := ParsePosition(bad)
		assert.True(t, errs.IsInvalidInput(err), bad)
	}
}
