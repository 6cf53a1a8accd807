// Package sqladapter translates validated high-level broker operations
// (create/drop database, create/drop/lock/unlock/set-password user,
// read/apply privilege rows, enumerate owned objects, name completion) into
// parameterized SQL against MySQL/MariaDB's administrative tables. Every
// object name reaching this package has already passed through
// validation.ValidateDBOrUserRequest; this package is the last line of
// defense against SQL injection via identifier- and literal-quoting.
package sqladapter

import "strings"

// QuoteIdentifier backtick-quotes a MySQL identifier (database or column
// name), escaping embedded backticks. Used everywhere a name is concatenated
// into DDL that MySQL's prepared-statement placeholders cannot cover
// (CREATE/DROP DATABASE, column names).
func QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "\\`") + "`"
}

// QuoteLiteral single-quotes a string for use as a SQL literal, escaping
// embedded single quotes. Used for the account name half of CREATE/DROP/
// ALTER USER statements, which MySQL's grammar requires as a quoted literal
// rather than an identifier.
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "\\'") + "'"
}
