package utils

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// erc20TransferMethodID is the 4-byte selector of transfer(address,uint256).
var erc20TransferMethodID = []byte{0xa9, 0x05, 0x9c, 0xbb}

// ERC20TransferCalldata builds the calldata for an ERC-20 transfer(to, amount).
func ERC20TransferCalldata(to string, amount *big.Int) []byte {
	paddedAddress := common.LeftPadBytes(common.HexToAddress(to).Bytes(), 32)
	paddedAmount := common.LeftPadBytes(amount.Bytes(), 32)

	data := make([]byte, 0, 4+64)
	data = append(data, erc20TransferMethodID...)
	data = append(data, paddedAddress...)
	data = append(data, paddedAmount...)
	return data
}
