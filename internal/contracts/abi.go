package contracts

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// DefaultRegistryMethod is the root contract getter listing child addresses.
const DefaultRegistryMethod = "getDappHomes"

const rootABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "dappHome", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "owner", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "index", "type": "uint256"}
    ],
    "name": "DappHomeCreated",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "previousOwner", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "newOwner", "type": "address"}
    ],
    "name": "OwnershipTransferred",
    "type": "event"
  },
  {
    "inputs": [],
    "name": "getDappHomes",
    "outputs": [{"internalType": "address[]", "name": "", "type": "address[]"}],
    "stateMutability": "view",
    "type": "function"
  }
]`

const childABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "from", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "to", "type": "address"},
      {"indexed": true, "internalType": "uint256", "name": "tokenId", "type": "uint256"}
    ],
    "name": "Transfer",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "uint256", "name": "tokenId", "type": "uint256"},
      {"indexed": false, "internalType": "string", "name": "uri", "type": "string"},
      {"indexed": false, "internalType": "bytes32", "name": "contentHash", "type": "bytes32"}
    ],
    "name": "ListingUpdated",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "previousOwner", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "newOwner", "type": "address"}
    ],
    "name": "OwnershipTransferred",
    "type": "event"
  }
]`

var (
	rootABI     abi.ABI
	rootABIOnce sync.Once
	rootABIErr  error

	childABI     abi.ABI
	childABIOnce sync.Once
	childABIErr  error
)

// RootABI returns the parsed default root contract ABI.
func RootABI() (abi.ABI, error) {
	rootABIOnce.Do(func() {
		rootABI, rootABIErr = abi.JSON(strings.NewReader(rootABIJSON))
	})
	return rootABI, rootABIErr
}

// ChildABI returns the parsed default child contract ABI.
func ChildABI() (abi.ABI, error) {
	childABIOnce.Do(func() {
		childABI, childABIErr = abi.JSON(strings.NewReader(childABIJSON))
	})
	return childABI, childABIErr
}
