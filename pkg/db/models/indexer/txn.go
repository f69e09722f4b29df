package indexer

// BlockInfo carries the block reference attached to a listing row.
type BlockInfo struct {
	BlockHeight uint64 `json:"block_height"`
}

// ActionSummary is one action of a receipt, denormalized for rendering.
// Method is nil for actions that are not function calls. Deposit and Args
// are present only on the receipt-level listings that request them.
type ActionSummary struct {
	Action  string  `json:"action"`
	Method  *string `json:"method"`
	Deposit string  `json:"deposit,omitempty"`
	Args    *string `json:"args,omitempty"`
}

// ActionsAggregate sums the deposits across a receipt's actions. Amounts
// are yocto-denominated decimal strings.
type ActionsAggregate struct {
	Deposit string `json:"deposit"`
}

// OutcomeSummary collapses execution outcomes to a tri-state status:
// true = all succeeded, false = any failed, nil = still pending.
type OutcomeSummary struct {
	Status *bool `json:"status"`
}

// OutcomesAggregate carries the total fee for a transaction: the receipt
// conversion burn plus the burns of every receipt it originated.
type OutcomesAggregate struct {
	TransactionFee string `json:"transaction_fee"`
}

// Txn is one row of a transaction listing with enough denormalized data
// to render without further queries. ID is the store's surrogate id used
// for cursor pagination; BlockTimestamp is nanoseconds since epoch,
// carried as a decimal string.
type Txn struct {
	ID                   int64             `json:"id,omitempty"`
	ReceiptID            string            `json:"receipt_id,omitempty"`
	PredecessorAccountID string            `json:"predecessor_account_id,omitempty"`
	SignerAccountID      string            `json:"signer_account_id,omitempty"`
	ReceiverAccountID    string            `json:"receiver_account_id"`
	TransactionHash      string            `json:"transaction_hash"`
	IncludedInBlockHash  string            `json:"included_in_block_hash"`
	BlockTimestamp       string            `json:"block_timestamp"`
	Block                BlockInfo         `json:"block"`
	Actions              []ActionSummary   `json:"actions"`
	ActionsAgg           ActionsAggregate  `json:"actions_agg"`
	Outcomes             OutcomeSummary    `json:"outcomes"`
	OutcomesAgg          OutcomesAggregate `json:"outcomes_agg"`
}

// ReceiptBlock is the block reference of a receipt listing row.
type ReceiptBlock struct {
	BlockHash      string `json:"block_hash,omitempty"`
	BlockHeight    uint64 `json:"block_height"`
	BlockTimestamp string `json:"block_timestamp"`
}

// ReceiptOutcome is the execution outcome of a single receipt. A nil
// Status means the outcome has not been indexed yet (pending).
type ReceiptOutcome struct {
	GasBurnt          string `json:"gas_burnt"`
	TokensBurnt       string `json:"tokens_burnt"`
	ExecutorAccountID string `json:"executor_account_id"`
	Status            *bool  `json:"status"`
}

// Receipt is one row of a receipt listing.
type Receipt struct {
	ID                   int64            `json:"id"`
	ReceiptID            string           `json:"receipt_id"`
	TransactionHash      string           `json:"transaction_hash"`
	PredecessorAccountID string           `json:"predecessor_account_id"`
	ReceiverAccountID    string           `json:"receiver_account_id"`
	Block                *ReceiptBlock    `json:"block"`
	Outcome              *ReceiptOutcome  `json:"outcome"`
	Actions              []ActionSummary  `json:"actions"`
	ActionsAgg           ActionsAggregate `json:"actions_agg"`
}

// CountRow is the count endpoint payload. Cost is set only when the
// planner estimate was returned instead of an exact count; the field's
// presence is the discriminator between the two.
type CountRow struct {
	Cost  *float64 `json:"cost,omitempty"`
	Count int64    `json:"count"`
}
