package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	models "github.com/nearscan/explorer-api/pkg/db/models/indexer"
	"github.com/nearscan/explorer-api/pkg/utils"
)

// actionFunctionCall is the action kind that carries a method name.
const actionFunctionCall = "FUNCTION_CALL"

var txnHeader = []string{
	"Status",
	"Txn Hash",
	"Method",
	"Deposit Value",
	"Txn Fee",
	"From",
	"To",
	"Block",
	"Time",
}

var receiptHeader = []string{
	"Status",
	"Receipt",
	"Txn Hash",
	"Method",
	"Deposit Value",
	"From",
	"To",
	"Block",
	"Time",
}

// StatusLabel renders the tri-state execution status. A nil status means
// no outcome has been indexed yet.
func StatusLabel(status *bool) string {
	switch {
	case status == nil:
		return "Pending"
	case *status:
		return "Success"
	default:
		return "Failed"
	}
}

// methodLabel picks the display method for a row from its first action:
// the method name of a function call, the action kind for every other
// kind, and "Unknown" when there are no actions or a function call
// carries no method name.
func methodLabel(actions []models.ActionSummary) string {
	if len(actions) == 0 {
		return "Unknown"
	}
	a := actions[0]
	if a.Action == actionFunctionCall {
		if a.Method != nil && *a.Method != "" {
			return *a.Method
		}
		return "Unknown"
	}
	if a.Action != "" {
		return a.Action
	}
	return "Unknown"
}

// accountLabel substitutes the implicit system account for rows with no
// predecessor or receiver.
func accountLabel(account string) string {
	if account == "" {
		return "system"
	}
	return account
}

// WriteTxns streams transactions as CSV rows, flushing after each row so
// a slow client never buffers the whole export.
func WriteTxns(w io.Writer, txns []models.Txn) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(txnHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, t := range txns {
		row := []string{
			StatusLabel(t.Outcomes.Status),
			t.TransactionHash,
			methodLabel(t.Actions),
			utils.YoctoToNear(t.ActionsAgg.Deposit),
			utils.YoctoToNear(t.OutcomesAgg.TransactionFee),
			accountLabel(t.PredecessorAccountID),
			accountLabel(t.ReceiverAccountID),
			strconv.FormatUint(t.Block.BlockHeight, 10),
			utils.FormatNanos(t.BlockTimestamp),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return fmt.Errorf("flush csv: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteReceipts streams receipts as CSV rows.
func WriteReceipts(w io.Writer, receipts []models.Receipt) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(receiptHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, r := range receipts {
		var status *bool
		var height uint64
		var ts string
		if r.Outcome != nil {
			status = r.Outcome.Status
		}
		if r.Block != nil {
			height = r.Block.BlockHeight
			ts = r.Block.BlockTimestamp
		}

		row := []string{
			StatusLabel(status),
			r.ReceiptID,
			r.TransactionHash,
			methodLabel(r.Actions),
			utils.YoctoToNear(r.ActionsAgg.Deposit),
			accountLabel(r.PredecessorAccountID),
			accountLabel(r.ReceiverAccountID),
			strconv.FormatUint(height, 10),
			utils.FormatNanos(ts),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return fmt.Errorf("flush csv: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
