package domain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

// QuorumStatus is the outcome of a signature collection round.
type QuorumStatus string

const (
	QuorumPending  QuorumStatus = "pending"
	QuorumObtained QuorumStatus = "obtained"
	QuorumFailed   QuorumStatus = "failed"
)

// RelayAction is the artifact handed to the validator set: the message hash
// they sign and the quorum outcome for it.
type RelayAction struct {
	MessageHash  string       `json:"message_hash"`
	QuorumStatus QuorumStatus `json:"quorum_status"`
}

// MessageHash computes the keccak-256 digest over the event's canonical
// fields. Same event, same hash, independent of process or time.
func MessageHash(e *DepositEvent) string {
	canonical := fmt.Sprintf("%s-%s-%s-%d-%d",
		e.Recipient,
		e.TokenAddress,
		e.Amount.String(),
		e.Nonce,
		e.DestinationChainID,
	)
	return crypto.Keccak256Hash([]byte(canonical)).Hex()
}

// Report statuses sent to the monitoring sink.
const (
	ReportStatusProcessed   = "PROCESSED"
	ReportStatusRelayFailed = "RELAY_FAILED"
)

// ReportSummary is the payload delivered to the monitoring sink after the
// relay action completed (or failed).
type ReportSummary struct {
	ReportID      string       `json:"report_id"`
	TxHash        string       `json:"tx_hash"`
	SourceChainID ChainID      `json:"source_chain"`
	DestChainID   ChainID      `json:"dest_chain"`
	Nonce         uint64       `json:"nonce"`
	Amount        string       `json:"amount"`
	ValueUSD      *float64     `json:"value_usd,omitempty"`
	QuorumStatus  QuorumStatus `json:"quorum_status"`
	Status        string       `json:"status"`
}
