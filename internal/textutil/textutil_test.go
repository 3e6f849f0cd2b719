package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "thai digits become arabic",
			input:    "เลขที่ ๑๒๓๔",
			expected: "เลขที่ 1234",
		},
		{
			name:     "spaces collapse within lines",
			input:    "Total    1,234.56\tTHB",
			expected: "Total 1,234.56 THB",
		},
		{
			name:     "empty lines dropped newlines kept",
			input:    "line one\n\n\n  line two  \n",
			expected: "line one\nline two",
		},
		{
			name:     "nul bytes and repeat mark removed",
			input:    "ต่างๆ\x00 ok",
			expected: "ต่าง ok",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeText(tt.input))
		})
	}
}

func TestCleanNumber(t *testing.T) {
	assert.Equal(t, "1234.56", CleanNumber("1,234.56"))
	assert.Equal(t, "1234", CleanNumber("฿1,234 THB"))
	assert.Equal(t, "310895.00", CleanNumber("310,895.00 Baht"))
	assert.Equal(t, "", CleanNumber(""))
}

func TestParseMoney(t *testing.T) {
	assert.Equal(t, "1234.56", ParseMoney("1,234.56"))
	assert.Equal(t, "1234.00", ParseMoney("฿1,234"))
	assert.Equal(t, "", ParseMoney("no amount"))
	assert.Equal(t, "0.00", ParseMoney("0"))
}

func TestParseDateYYYYMMDD(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"25/01/2025", "20250125"},
		{"25/01/2568", "20250125"}, // Buddhist era
		{"2025-01-25", "20250125"},
		{"5 Jan 2025", "20250105"},
		{"15 มกราคม 2568", "20250115"},
		{"20250125", "20250125"},
		{"32/01/2025", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParseDateYYYYMMDD(tt.input), "input %q", tt.input)
	}
}

func TestFindBestDate(t *testing.T) {
	text := "ใบเสร็จรับเงิน\nวันที่ 25/01/2568\nรวมทั้งสิ้น 1,000.00"
	assert.Equal(t, "20250125", FindBestDate(text))
	assert.Equal(t, "", FindBestDate("no dates here"))
}

func TestSquashWhitespace(t *testing.T) {
	assert.Equal(t, "RCSPX2501-0012345", SquashWhitespace("RCSPX 2501 -\n0012345"))
	assert.Equal(t, "", SquashWhitespace("  \n\t "))
}

func TestDigitsOnly(t *testing.T) {
	assert.Equal(t, "0105561164871", DigitsOnly("Tax ID: 0-1055-61164-87-1"))
}

func TestIsThaiText(t *testing.T) {
	assert.True(t, IsThaiText("ใบกำกับภาษี tax invoice", 0.3))
	assert.False(t, IsThaiText("plain english only", 0.3))
	assert.False(t, IsThaiText("ab", 0.3))
}
