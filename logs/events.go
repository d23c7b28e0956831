package logs

import "github.com/ryley-o/ab-mint-onchain/abi"

var (
	BidCreatedEvent  = abi.MinterRAMV0ABI.Events["BidCreated"].ID
	BidRemovedEvent  = abi.MinterRAMV0ABI.Events["BidRemoved"].ID
	BidToppedUpEvent = abi.MinterRAMV0ABI.Events["BidToppedUp"].ID
)
