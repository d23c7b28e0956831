// Package abi holds the contract ABI fragments this module interacts with,
// parsed once at load time. Callers address methods and events through the
// parsed registries (e.g. MinterRAMV0ABI.Methods["createBid"].ID) instead of
// hardcoded selector bytes, so a signature change is caught in one place.
package abi

import (
	"strings"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
)

// genArt721CoreV3JSON covers the two core-contract reads the auction UI
// needs: project metadata and the canonical minter-filter address.
const genArt721CoreV3JSON = `[
  {"type":"function","stateMutability":"view","name":"projectDetails",
   "inputs":[{"name":"_projectId","type":"uint256"}],
   "outputs":[
     {"name":"projectName","type":"string"},
     {"name":"artist","type":"string"},
     {"name":"description","type":"string"},
     {"name":"website","type":"string"},
     {"name":"license","type":"string"}]},
  {"type":"function","stateMutability":"view","name":"minterContract",
   "inputs":[],
   "outputs":[{"name":"","type":"address"}]}
]`

// minterFilterV2JSON covers project-to-minter resolution.
const minterFilterV2JSON = `[
  {"type":"function","stateMutability":"view","name":"getMinterForProject",
   "inputs":[
     {"name":"_projectId","type":"uint256"},
     {"name":"_coreContract","type":"address"}],
   "outputs":[{"name":"","type":"address"}]},
  {"type":"function","stateMutability":"view","name":"getAllGloballyApprovedMinters",
   "inputs":[],
   "outputs":[{"name":"mintersWithTypes","type":"tuple[]","components":[
     {"name":"minterAddress","type":"address"},
     {"name":"minterType","type":"string"}]}]}
]`

// minterRAMV0JSON is the ranked-auction minter surface: auction summary
// reads, the price curve, bid placement, and the three bid lifecycle events.
const minterRAMV0JSON = `[
  {"type":"function","stateMutability":"view","name":"getAuctionDetails",
   "inputs":[
     {"name":"_projectId","type":"uint256"},
     {"name":"_coreContract","type":"address"}],
   "outputs":[
     {"name":"auctionTimestampStart","type":"uint256"},
     {"name":"auctionTimestampEnd","type":"uint256"},
     {"name":"basePrice","type":"uint256"},
     {"name":"numTokensInAuction","type":"uint256"},
     {"name":"numBids","type":"uint256"},
     {"name":"numBidsMintedTokens","type":"uint256"},
     {"name":"numBidsErrorRefunded","type":"uint256"},
     {"name":"minBidSlotIndex","type":"uint256"},
     {"name":"allowExtraTime","type":"bool"},
     {"name":"adminArtistOnlyMintPeriodIfSellout","type":"bool"},
     {"name":"revenuesCollected","type":"bool"},
     {"name":"projectMinterState","type":"uint8"}]},
  {"type":"function","stateMutability":"view","name":"getLowestBidValue",
   "inputs":[
     {"name":"_projectId","type":"uint256"},
     {"name":"_coreContract","type":"address"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","stateMutability":"view","name":"getMinimumNextBid",
   "inputs":[
     {"name":"_projectId","type":"uint256"},
     {"name":"_coreContract","type":"address"}],
   "outputs":[
     {"name":"minNextBidValueInWei","type":"uint256"},
     {"name":"minNextBidSlotIndex","type":"uint256"}]},
  {"type":"function","stateMutability":"view","name":"slotIndexToBidValue",
   "inputs":[
     {"name":"_projectId","type":"uint256"},
     {"name":"_coreContract","type":"address"},
     {"name":"_slotIndex","type":"uint16"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","stateMutability":"payable","name":"createBid",
   "inputs":[
     {"name":"_projectId","type":"uint256"},
     {"name":"_coreContract","type":"address"},
     {"name":"_slotIndex","type":"uint16"}],
   "outputs":[]},
  {"type":"function","stateMutability":"payable","name":"topUpBid",
   "inputs":[
     {"name":"_projectId","type":"uint256"},
     {"name":"_coreContract","type":"address"},
     {"name":"_bidId","type":"uint256"},
     {"name":"_newSlotIndex","type":"uint16"}],
   "outputs":[]},
  {"type":"event","name":"BidCreated","anonymous":false,
   "inputs":[
     {"name":"projectId","type":"uint256","indexed":true},
     {"name":"coreContract","type":"address","indexed":true},
     {"name":"slotIndex","type":"uint256","indexed":false},
     {"name":"bidId","type":"uint256","indexed":false},
     {"name":"bidder","type":"address","indexed":false}]},
  {"type":"event","name":"BidRemoved","anonymous":false,
   "inputs":[
     {"name":"projectId","type":"uint256","indexed":true},
     {"name":"coreContract","type":"address","indexed":true},
     {"name":"bidId","type":"uint256","indexed":false}]},
  {"type":"event","name":"BidToppedUp","anonymous":false,
   "inputs":[
     {"name":"projectId","type":"uint256","indexed":true},
     {"name":"coreContract","type":"address","indexed":true},
     {"name":"bidId","type":"uint256","indexed":false},
     {"name":"newSlotIndex","type":"uint256","indexed":false}]}
]`

var (
	GenArt721CoreV3ABI = mustParse(genArt721CoreV3JSON)
	MinterFilterV2ABI  = mustParse(minterFilterV2JSON)
	MinterRAMV0ABI     = mustParse(minterRAMV0JSON)
)

func mustParse(def string) ethabi.ABI {
	parsed, err := ethabi.JSON(strings.NewReader(def))
	if err != nil {
		panic("abi: invalid embedded ABI definition: " + err.Error())
	}
	return parsed
}
