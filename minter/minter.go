// Package minter resolves which minter contract serves a project and checks
// it against a whitelist of supported minter types before any auction state
// is read from it.
package minter

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	ethclients "github.com/Iwinswap/iwinswap-ethclients"
	"github.com/ethereum/go-ethereum"
	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/ryley-o/ab-mint-onchain/abi"
)

const (
	// defaultRPCTimeout defines the default timeout for individual RPC calls
	// made during resolution.
	defaultRPCTimeout = 10 * time.Second
)

var (
	// ErrUnsupportedFilter means the core contract points at a minter
	// filter outside the configured whitelist.
	ErrUnsupportedFilter = errors.New("minter filter is not whitelisted")

	// ErrNoMinterAssigned means the minter filter has no minter configured
	// for the project.
	ErrNoMinterAssigned = errors.New("no minter assigned to project")

	// ErrUnknownMinter means the project's minter is not in the filter's
	// globally approved set, so its type cannot be established.
	ErrUnknownMinter = errors.New("minter is not globally approved")

	// ErrUnsupportedMinterType means the minter's reported type is not one
	// this module knows how to drive.
	ErrUnsupportedMinterType = errors.New("unsupported minter type")
)

// MinterWithType mirrors the minter filter's approved-minter tuple.
type MinterWithType struct {
	MinterAddress common.Address
	MinterType    string
}

// Resolution is the outcome of resolving a project's minting setup: the
// contracts to talk to plus display metadata for the project.
type Resolution struct {
	ProjectName  string
	Artist       string
	MinterFilter common.Address
	Minter       common.Address
	MinterType   string
}

// Resolver validates a project's minter against a curated set of supported
// minter types. By matching the type string reported by the minter filter,
// we guarantee the minter follows the ranked-auction interface before any
// getAuctionDetails or createBid call is issued against it.
type Resolver struct {
	// supportedTypes provides an O(1) lookup from a minter type string to
	// whether this module can drive it.
	supportedTypes map[string]bool

	// trustedFilters optionally pins the minter filter addresses the core
	// contract may report. Empty means any filter is accepted.
	trustedFilters map[common.Address]bool
}

// NewResolver creates a Resolver that accepts the given minter types
// (e.g. "MinterRAMV0") and, when trustedFilters is non-empty, only those
// minter filter addresses.
func NewResolver(supportedTypes []string, trustedFilters []common.Address) *Resolver {
	typeMap := make(map[string]bool, len(supportedTypes))
	for _, t := range supportedTypes {
		typeMap[t] = true
	}
	filterMap := make(map[common.Address]bool, len(trustedFilters))
	for _, f := range trustedFilters {
		filterMap[f] = true
	}
	return &Resolver{supportedTypes: typeMap, trustedFilters: filterMap}
}

// Resolve walks the on-chain resolution chain for a project:
// core → minter filter → project minter → minter type, validating the type
// against the configured whitelist, and fetches the project's display
// metadata from the core contract.
func (r *Resolver) Resolve(
	ctx context.Context,
	client ethclients.ETHClient,
	core common.Address,
	project *big.Int,
) (*Resolution, error) {
	filter, err := minterFilterFor(ctx, client, core)
	if err != nil {
		return nil, fmt.Errorf("could not get minter filter from core %s: %w", core.Hex(), err)
	}
	if len(r.trustedFilters) > 0 && !r.trustedFilters[filter] {
		return nil, fmt.Errorf("filter %s: %w", filter.Hex(), ErrUnsupportedFilter)
	}

	minterAddr, err := minterForProject(ctx, client, filter, project, core)
	if err != nil {
		return nil, fmt.Errorf("could not get minter for project %s: %w", project, err)
	}
	if minterAddr == (common.Address{}) {
		return nil, ErrNoMinterAssigned
	}

	approved, err := approvedMinters(ctx, client, filter)
	if err != nil {
		return nil, fmt.Errorf("could not list approved minters: %w", err)
	}

	minterType := ""
	for _, m := range approved {
		if m.MinterAddress == minterAddr {
			minterType = m.MinterType
			break
		}
	}
	if minterType == "" {
		return nil, fmt.Errorf("minter %s: %w", minterAddr.Hex(), ErrUnknownMinter)
	}
	if !r.supportedTypes[minterType] {
		return nil, fmt.Errorf("minter %s reports type %q: %w", minterAddr.Hex(), minterType, ErrUnsupportedMinterType)
	}

	name, artist, err := projectDetails(ctx, client, core, project)
	if err != nil {
		return nil, fmt.Errorf("could not get project details: %w", err)
	}

	return &Resolution{
		ProjectName:  name,
		Artist:       artist,
		MinterFilter: filter,
		Minter:       minterAddr,
		MinterType:   minterType,
	}, nil
}

// minterFilterFor fetches the canonical minter filter address from the core
// contract.
func minterFilterFor(parentCtx context.Context, client ethclients.ETHClient, core common.Address) (common.Address, error) {
	out, err := coreCall(parentCtx, client, core, "minterContract")
	if err != nil {
		return common.Address{}, err
	}
	addr, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("minterContract: unexpected output type")
	}
	return addr, nil
}

// projectDetails fetches the project's name and artist from the core
// contract. The remaining metadata fields are ignored here.
func projectDetails(parentCtx context.Context, client ethclients.ETHClient, core common.Address, project *big.Int) (string, string, error) {
	out, err := coreCall(parentCtx, client, core, "projectDetails", project)
	if err != nil {
		return "", "", err
	}
	if len(out) != 5 {
		return "", "", fmt.Errorf("projectDetails: expected 5 outputs, got %d", len(out))
	}
	name, ok := out[0].(string)
	if !ok {
		return "", "", fmt.Errorf("projectDetails: unexpected type for projectName")
	}
	artist, ok := out[1].(string)
	if !ok {
		return "", "", fmt.Errorf("projectDetails: unexpected type for artist")
	}
	return name, artist, nil
}

// minterForProject fetches the minter assigned to a project by the filter.
// An unassigned project returns the zero address rather than an error on
// some filter versions, so the caller checks for it.
func minterForProject(parentCtx context.Context, client ethclients.ETHClient, filter common.Address, project *big.Int, core common.Address) (common.Address, error) {
	out, err := filterCall(parentCtx, client, filter, "getMinterForProject", project, core)
	if err != nil {
		return common.Address{}, err
	}
	addr, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("getMinterForProject: unexpected output type")
	}
	return addr, nil
}

// approvedMinters fetches the filter's globally approved minter set with
// each minter's type string.
func approvedMinters(parentCtx context.Context, client ethclients.ETHClient, filter common.Address) ([]MinterWithType, error) {
	out, err := filterCall(parentCtx, client, filter, "getAllGloballyApprovedMinters")
	if err != nil {
		return nil, err
	}
	minters, ok := ethabi.ConvertType(out[0], new([]MinterWithType)).(*[]MinterWithType)
	if !ok {
		return nil, fmt.Errorf("getAllGloballyApprovedMinters: unexpected output type")
	}
	return *minters, nil
}

func coreCall(parentCtx context.Context, client ethclients.ETHClient, core common.Address, method string, args ...interface{}) ([]interface{}, error) {
	return contractCall(parentCtx, client, abi.GenArt721CoreV3ABI, core, method, args...)
}

func filterCall(parentCtx context.Context, client ethclients.ETHClient, filter common.Address, method string, args ...interface{}) ([]interface{}, error) {
	return contractCall(parentCtx, client, abi.MinterFilterV2ABI, filter, method, args...)
}

func contractCall(
	parentCtx context.Context,
	client ethclients.ETHClient,
	contractABI ethabi.ABI,
	to common.Address,
	method string,
	args ...interface{},
) ([]interface{}, error) {
	ctx, cancel := context.WithTimeout(parentCtx, defaultRPCTimeout)
	defer cancel()

	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	raw, err := client.CallContract(ctx, ethereum.CallMsg{
		To:   &to,
		Data: data,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("eth_call for %s on %s failed: %w", method, to.Hex(), err)
	}

	out, err := contractABI.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s returned no outputs", method)
	}
	return out, nil
}
