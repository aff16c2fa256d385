package ofx

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Sample OFX data for testing.
const sampleBankOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-25.50
<FITID>2024011501
<NAME>STARBUCKS STORE #1234
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240120120000[0:GMT]
<TRNAMT>-125.00
<FITID>2024012001
<NAME>Whole Foods Market
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEP
<DTPOSTED>20240125120000[0:GMT]
<TRNAMT>500.00
<FITID>2024012501
<NAME>DIRECT DEPOSIT PAYROLL
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

const sampleCreditCardOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<CREDITCARDMSGSRSV1>
<CCSTMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<CCSTMTRS>
<CURDEF>USD
<CCACCTFROM>
<ACCTID>4111111111111111
</CCACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240110120000[0:GMT]
<TRNAMT>-45.99
<FITID>CC2024011001
<NAME>AMAZON.COM*RT4Y7HG2
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-15.00
<FITID>CC2024011501
<NAME>NETFLIX.COM
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>-500.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>`

func TestParseFile(t *testing.T) {
	tests := []struct {
		name          string
		ofxData       string
		expectedCount int
		expectedError bool
	}{
		{
			name:          "valid bank statement",
			ofxData:       sampleBankOFX,
			expectedCount: 2, // the payroll deposit is money in, not spend
			expectedError: false,
		},
		{
			name:          "valid credit card statement",
			ofxData:       sampleCreditCardOFX,
			expectedCount: 2,
			expectedError: false,
		},
		{
			name:          "invalid OFX data",
			ofxData:       "not valid OFX",
			expectedCount: 0,
			expectedError: true,
		},
		{
			name:          "empty OFX",
			ofxData:       "",
			expectedCount: 0,
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := NewParser()
			reader := strings.NewReader(tt.ofxData)

			transactions, err := parser.ParseFile(context.Background(), reader)

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Len(t, transactions, tt.expectedCount)
			}
		})
	}
}

func TestParseBankTransactions(t *testing.T) {
	parser := NewParser()
	reader := strings.NewReader(sampleBankOFX)

	transactions, err := parser.ParseFile(context.Background(), reader)
	require.NoError(t, err)
	require.Len(t, transactions, 2)

	tx1 := transactions[0]
	assert.Equal(t, "2024011501", tx1.ID)
	assert.Equal(t, "STARBUCKS STORE #1234", tx1.MerchantName) // No PAYEE, so uses NAME
	assert.Equal(t, 25.50, tx1.Amount)
	assert.Equal(t, "1234567890", tx1.AccountID)
	assert.False(t, tx1.Analyzed)
	// Compare just the date components, ignoring timezone
	assert.Equal(t, 2024, tx1.Date.Year())
	assert.Equal(t, time.January, tx1.Date.Month())
	assert.Equal(t, 15, tx1.Date.Day())

	tx2 := transactions[1]
	assert.Equal(t, "2024012001", tx2.ID)
	assert.Equal(t, "Whole Foods Market", tx2.MerchantName)
	assert.Equal(t, 125.00, tx2.Amount)
}

func TestParseCreditCardTransactions(t *testing.T) {
	parser := NewParser()
	reader := strings.NewReader(sampleCreditCardOFX)

	transactions, err := parser.ParseFile(context.Background(), reader)
	require.NoError(t, err)
	require.Len(t, transactions, 2)

	tx1 := transactions[0]
	assert.Equal(t, "CC2024011001", tx1.ID)
	assert.Equal(t, "AMAZON.COM*RT4Y7HG2", tx1.MerchantName)
	assert.Equal(t, 45.99, tx1.Amount)
	assert.Equal(t, "4111111111111111", tx1.AccountID)

	tx2 := transactions[1]
	assert.Equal(t, "CC2024011501", tx2.ID)
	assert.Equal(t, "NETFLIX.COM", tx2.MerchantName)
	assert.Equal(t, 15.00, tx2.Amount)
}

func TestExtractMerchantName(t *testing.T) {
	parser := NewParser()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "remove POS prefix",
			input:    "POS PURCHASE STARBUCKS",
			expected: "STARBUCKS",
		},
		{
			name:     "remove DEBIT CARD prefix",
			input:    "DEBIT CARD PURCHASE WHOLE FOODS",
			expected: "WHOLE FOODS",
		},
		{
			name:     "keep clean name",
			input:    "NETFLIX.COM",
			expected: "NETFLIX.COM",
		},
		{
			name:     "trim whitespace",
			input:    "  AMAZON.COM  ",
			expected: "AMAZON.COM",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := ofxgo.Transaction{
				Name: ofxgo.String(tt.input),
			}
			assert.Equal(t, tt.expected, parser.extractMerchantName(tx))
		})
	}
}

func TestGetAccounts(t *testing.T) {
	parser := NewParser()

	reader := strings.NewReader(sampleBankOFX)
	accounts, err := parser.GetAccounts(context.Background(), reader)
	require.NoError(t, err)
	assert.Contains(t, accounts, "1234567890")

	reader = strings.NewReader(sampleCreditCardOFX)
	accounts, err = parser.GetAccounts(context.Background(), reader)
	require.NoError(t, err)
	assert.Contains(t, accounts, "4111111111111111")
}
