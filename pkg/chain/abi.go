package chain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Minimal ERC20 surface used by the client
const erc20ABIJSON = `[
{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"stateMutability":"view","type":"function"},
{"constant":true,"inputs":[{"name":"_owner","type":"address"},{"name":"_spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"constant":false,"inputs":[{"name":"_spender","type":"address"},{"name":"_value","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
]`

// LeoGiaSwap pool: reserve getters and the two swap events
const poolABIJSON = `[
{"inputs":[],"name":"leoReserve","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"giaReserve","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"anonymous":false,"inputs":[{"indexed":true,"name":"user","type":"address"},{"indexed":false,"name":"leoIn","type":"uint256"},{"indexed":false,"name":"giaOut","type":"uint256"}],"name":"LeoToGiaSwap","type":"event"},
{"anonymous":false,"inputs":[{"indexed":true,"name":"user","type":"address"},{"indexed":false,"name":"giaIn","type":"uint256"},{"indexed":false,"name":"leoOut","type":"uint256"}],"name":"GiaToLeoSwap","type":"event"}
]`

// SwapRouter entry points; the router pulls the input token via allowance
const routerABIJSON = `[
{"inputs":[{"name":"leoIn","type":"uint256"},{"name":"minGiaOut","type":"uint256"}],"name":"swapLeoForGia","outputs":[],"stateMutability":"nonpayable","type":"function"},
{"inputs":[{"name":"giaIn","type":"uint256"},{"name":"minLeoOut","type":"uint256"}],"name":"swapGiaForLeo","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

const (
	methodBalanceOf = "balanceOf"
	methodAllowance = "allowance"
	methodApprove   = "approve"
	methodReserveA  = "leoReserve"
	methodReserveB  = "giaReserve"
	methodSwapAToB  = "swapLeoForGia"
	methodSwapBToA  = "swapGiaForLeo"
	eventSwapAToB   = "LeoToGiaSwap"
	eventSwapBToA   = "GiaToLeoSwap"
)

var (
	erc20ABI  = mustParseABI("erc20", erc20ABIJSON)
	poolABI   = mustParseABI("pool", poolABIJSON)
	routerABI = mustParseABI("router", routerABIJSON)
)

func mustParseABI(name, raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("parse %s ABI: %v", name, err))
	}
	return parsed
}

// ERC20ABI exposes the parsed ERC20 ABI (used by test fakes)
func ERC20ABI() abi.ABI { return erc20ABI }

// PoolABI exposes the parsed pool ABI
func PoolABI() abi.ABI { return poolABI }

// RouterABI exposes the parsed router ABI
func RouterABI() abi.ABI { return routerABI }
