package model

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Role distinguishes the root contract from registry-discovered children.
type Role string

const (
	RoleRoot  Role = "root"
	RoleChild Role = "child"
)

// Source identifies one fetchable contract. Sources are built once per run
// and never modified.
type Source struct {
	Role       Role
	Address    common.Address
	StartBlock uint64
	Interface  abi.ABI
}

// SourceResult records the outcome of one source's fetch and publish.
type SourceResult struct {
	Role      Role
	Address   string
	Events    int
	Published int
	Err       error
}

// Failed reports whether the source ended with an error.
func (r SourceResult) Failed() bool {
	return r.Err != nil
}
