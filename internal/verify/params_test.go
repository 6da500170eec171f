package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClaimedMatches(t *testing.T) {
	assert.True(t, claimedMatches("", "anything"), "empty claims are no claims")
	assert.True(t, claimedMatches("   ", "anything"))
	assert.True(t, claimedMatches("GABCDEF", "GABCDEF"))
	assert.True(t, claimedMatches(" GABCDEF ", "GABCDEF"))

	assert.False(t, claimedMatches("gabcdef", "GABCDEF"), "claims compare case sensitive")
	assert.False(t, claimedMatches("GABCDEF", "GABCDEG"))
}

func TestHexMatches(t *testing.T) {
	assert.True(t, hexMatches("", "0x90f8bf6a479f320ead074411a4b0e7944ea8c9c1"))
	assert.True(t, hexMatches("0x90F8bf6A479F320ead074411A4B0e7944eA8c9C1", "0x90f8bf6a479f320ead074411a4b0e7944ea8c9c1"))
	assert.True(t, hexMatches("90f8bf6a479f320ead074411a4b0e7944ea8c9c1", "0x90f8bf6a479f320ead074411a4b0e7944ea8c9c1"), "missing prefix is normalized")
	assert.True(t, hexMatches("0xABCD", "abcd"))

	assert.False(t, hexMatches("0x90f8bf6a479f320ead074411a4b0e7944ea8c9c1", "0xffcf8fdee72ac11b5c542428b35eef5769c409f0"))
}

func TestAmountMatches(t *testing.T) {
	assert.True(t, amountMatches("", "1000"))
	assert.True(t, amountMatches("1000", "1000"))
	assert.True(t, amountMatches("01000", "1000"), "numeric comparison ignores leading zeros")
	assert.True(t, amountMatches(" 1000 ", "1000"))

	// 超出 uint64 的金额必须仍按数值比对
	assert.True(t, amountMatches(
		"115792089237316195423570985008687907853269984665640564039457584007913129639935",
		"115792089237316195423570985008687907853269984665640564039457584007913129639935",
	))

	assert.False(t, amountMatches("1000", "1001"))

	// 无法按十进制解析时退回逐字比对
	assert.True(t, amountMatches("12.5", "12.5"))
	assert.False(t, amountMatches("12.5", "12.50"))
}
