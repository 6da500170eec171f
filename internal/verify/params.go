package verify

import (
	"math/big"
	"strings"
)

// claimedMatches 比对一个声称字段与证据事实。空声称表示请求方对该
// 字段不作主张，直接放行；非空声称必须与事实完全一致。
func claimedMatches(claimed, actual string) bool {
	claimed = strings.TrimSpace(claimed)
	if claimed == "" {
		return true
	}

	return claimed == strings.TrimSpace(actual)
}

// hexMatches 以小写十六进制规范形式比对地址类字段
func hexMatches(claimed, actual string) bool {
	claimed = normalizeHex(claimed)
	if claimed == "" {
		return true
	}

	return claimed == normalizeHex(actual)
}

func normalizeHex(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	if !strings.HasPrefix(s, "0x") {
		s = "0x" + s
	}

	return s
}

// amountMatches 优先按数值比对金额，双方都无法解析时退回字符串比对
func amountMatches(claimed, actual string) bool {
	claimed = strings.TrimSpace(claimed)
	if claimed == "" {
		return true
	}
	actual = strings.TrimSpace(actual)

	a, okA := new(big.Int).SetString(claimed, 10)
	b, okB := new(big.Int).SetString(actual, 10)
	if okA && okB {
		return a.Cmp(b) == 0
	}

	return claimed == actual
}
