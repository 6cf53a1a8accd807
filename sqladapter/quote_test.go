package sqladapter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQuoteIdentifierEscapesBacktick(t *testing.T) {
	require.Equal(t, "`alice_db1`", QuoteIdentifier("alice_db1"))
	require.Equal(t, "`alice\\`db1`", QuoteIdentifier("alice`db1"))
}

func TestQuoteLiteralEscapesSingleQuote(t *testing.T) {
	require.Equal(t, "'alice_user1'", QuoteLiteral("alice_user1"))
	require.Equal(t, "'alice\\'user1'", QuoteLiteral("alice'user1"))
}
