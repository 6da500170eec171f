package stellar

import (
	"encoding/json"
	"math/big"

	"github.com/pkg/errors"
)

// ScVal Soroban 合约值的 JSON 编码（xdrFormat=json 渲染）
// 只建模桥合约存款返回值实际出现的变体。
type ScVal struct {
	Bool    *bool         `json:"bool,omitempty"`
	U32     *uint32       `json:"u32,omitempty"`
	U64     *json.Number  `json:"u64,omitempty"`
	I128    *Int128Parts  `json:"i128,omitempty"`
	U128    *UInt128Parts `json:"u128,omitempty"`
	Symbol  *string       `json:"symbol,omitempty"`
	String  *string       `json:"string,omitempty"`
	Bytes   *string       `json:"bytes,omitempty"`
	Address *string       `json:"address,omitempty"`
	Map     []ScMapEntry  `json:"map,omitempty"`
	Vec     []ScVal       `json:"vec,omitempty"`
}

// ScMapEntry ScVal map 的键值对
type ScMapEntry struct {
	Key ScVal `json:"key"`
	Val ScVal `json:"val"`
}

// Int128Parts 有符号 128 位整数的 hi/lo 表示
type Int128Parts struct {
	Hi json.Number `json:"hi"`
	Lo json.Number `json:"lo"`
}

// UInt128Parts 无符号 128 位整数的 hi/lo 表示
type UInt128Parts struct {
	Hi json.Number `json:"hi"`
	Lo json.Number `json:"lo"`
}

var two64 = new(big.Int).Lsh(big.NewInt(1), 64)

func combineParts(hi string, lo string, signedHi bool) (*big.Int, error) {
	hiInt, ok := new(big.Int).SetString(hi, 10)
	if !ok {
		return nil, errors.Errorf("invalid hi part %q", hi)
	}
	if !signedHi && hiInt.Sign() < 0 {
		return nil, errors.Errorf("negative hi part %q in unsigned value", hi)
	}

	loInt, ok := new(big.Int).SetString(lo, 10)
	if !ok || loInt.Sign() < 0 {
		return nil, errors.Errorf("invalid lo part %q", lo)
	}

	return new(big.Int).Add(new(big.Int).Mul(hiInt, two64), loInt), nil
}

// BigInt 组合 hi/lo 为完整的 128 位整数
func (p Int128Parts) BigInt() (*big.Int, error) {
	return combineParts(p.Hi.String(), p.Lo.String(), true)
}

// BigInt 组合 hi/lo 为完整的 128 位无符号整数
func (p UInt128Parts) BigInt() (*big.Int, error) {
	return combineParts(p.Hi.String(), p.Lo.String(), false)
}

// AmountString 将数值变体渲染为十进制字符串
func (v ScVal) AmountString() (string, bool) {
	switch {
	case v.I128 != nil:
		n, err := v.I128.BigInt()
		if err != nil {
			return "", false
		}
		return n.String(), true
	case v.U128 != nil:
		n, err := v.U128.BigInt()
		if err != nil {
			return "", false
		}
		return n.String(), true
	case v.U64 != nil:
		return v.U64.String(), true
	case v.U32 != nil:
		return new(big.Int).SetUint64(uint64(*v.U32)).String(), true
	default:
		return "", false
	}
}

// Text 读取文本类变体：地址、symbol、字符串或字节串
func (v ScVal) Text() (string, bool) {
	switch {
	case v.Address != nil:
		return *v.Address, true
	case v.Symbol != nil:
		return *v.Symbol, true
	case v.String != nil:
		return *v.String, true
	case v.Bytes != nil:
		return *v.Bytes, true
	default:
		return "", false
	}
}

// MapEntry 按 symbol 键查找 map 项
func MapEntry(m []ScMapEntry, key string) (ScVal, bool) {
	for _, e := range m {
		if k, ok := e.Key.Text(); ok && k == key {
			return e.Val, true
		}
	}

	return ScVal{}, false
}

// DepositInfo 从合约返回值提取出的存款字段
type DepositInfo struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Token    string `json:"token"`
	Amount   string `json:"amount"`
}

// DepositEvidence 存款证据：交易状态加上解码出的存款返回值
type DepositEvidence struct {
	Status  string       `json:"status"`
	Deposit *DepositInfo `json:"deposit,omitempty"`
}

// transactionMeta 事务元数据中到合约返回值的路径 (TransactionMetaV3)
type transactionMeta struct {
	V3 *struct {
		SorobanMeta *struct {
			ReturnValue json.RawMessage `json:"returnValue"`
		} `json:"sorobanMeta"`
	} `json:"v3,omitempty"`
}

// ExtractDeposit 从 resultMetaJson 中解出存款返回值。
// 元数据缺失或形状不符时返回 nil，由验证器据此拒绝。
func ExtractDeposit(resultMetaJSON json.RawMessage) *DepositInfo {
	if len(resultMetaJSON) == 0 {
		return nil
	}

	var meta transactionMeta
	if err := json.Unmarshal(resultMetaJSON, &meta); err != nil {
		return nil
	}
	if meta.V3 == nil || meta.V3.SorobanMeta == nil || len(meta.V3.SorobanMeta.ReturnValue) == 0 {
		return nil
	}

	var ret ScVal
	if err := json.Unmarshal(meta.V3.SorobanMeta.ReturnValue, &ret); err != nil {
		return nil
	}
	if len(ret.Map) == 0 {
		return nil
	}

	info := &DepositInfo{}
	if v, ok := MapEntry(ret.Map, "sender"); ok {
		info.Sender, _ = v.Text()
	}
	if v, ok := MapEntry(ret.Map, "receiver"); ok {
		info.Receiver, _ = v.Text()
	}
	if v, ok := MapEntry(ret.Map, "token"); ok {
		info.Token, _ = v.Text()
	}
	if v, ok := MapEntry(ret.Map, "amount"); ok {
		info.Amount, _ = v.AmountString()
	}

	if info.Amount == "" && info.Receiver == "" {
		return nil
	}

	return info
}
