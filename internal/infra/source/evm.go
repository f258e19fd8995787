package source

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/vietddude/bridge-listener/internal/core/domain"
	"github.com/vietddude/bridge-listener/internal/infra/rpc"
)

// Deposit(address indexed sender, address indexed recipient,
// address token, uint256 amount, uint256 nonce, uint256 destinationChainId)
var depositTopic = crypto.Keccak256Hash(
	[]byte("Deposit(address,address,address,uint256,uint256,uint256)"),
).Hex()

// Blocks fetched per eth_getLogs call when catching up.
const logRangeLimit = 50

// EVMSource reads bridge Deposit logs from an EVM chain over JSON-RPC.
// The from-block cursor lives in memory only; on restart it resumes from
// the chain head.
type EVMSource struct {
	chainID   domain.ChainID
	contract  string
	client    *rpc.Client
	fromBlock uint64
	queue     []*domain.DepositEvent
}

// NewEVMSource creates a source polling the given bridge contract.
func NewEVMSource(chainID domain.ChainID, contract string, client *rpc.Client) *EVMSource {
	return &EVMSource{
		chainID:  chainID,
		contract: contract,
		client:   client,
	}
}

func (s *EVMSource) ChainID() domain.ChainID {
	return s.chainID
}

// Poll returns the next buffered event, fetching a new log range when the
// buffer is empty.
func (s *EVMSource) Poll(ctx context.Context) (*domain.DepositEvent, error) {
	if ev := s.pop(); ev != nil {
		return ev, nil
	}

	latest, err := s.latestBlock(ctx)
	if err != nil {
		return nil, fmt.Errorf("eth_blockNumber failed: %w", err)
	}

	if s.fromBlock == 0 {
		// First poll: only deposits from here on.
		s.fromBlock = latest + 1
		return nil, nil
	}
	if latest < s.fromBlock {
		return nil, nil
	}

	toBlock := min(latest, s.fromBlock+logRangeLimit-1)
	if err := s.fetchLogs(ctx, s.fromBlock, toBlock); err != nil {
		return nil, err
	}
	s.fromBlock = toBlock + 1

	return s.pop(), nil
}

func (s *EVMSource) pop() *domain.DepositEvent {
	if len(s.queue) == 0 {
		return nil
	}
	ev := s.queue[0]
	s.queue = s.queue[1:]
	return ev
}

func (s *EVMSource) latestBlock(ctx context.Context) (uint64, error) {
	var blockHex string
	if err := s.client.Call(ctx, "eth_blockNumber", []any{}, &blockHex); err != nil {
		return 0, err
	}
	return hexutil.DecodeUint64(blockHex)
}

type evmLog struct {
	Address         string   `json:"address"`
	Topics          []string `json:"topics"`
	Data            string   `json:"data"`
	TransactionHash string   `json:"transactionHash"`
	BlockNumber     string   `json:"blockNumber"`
}

func (s *EVMSource) fetchLogs(ctx context.Context, from, to uint64) error {
	filter := map[string]any{
		"fromBlock": hexutil.EncodeUint64(from),
		"toBlock":   hexutil.EncodeUint64(to),
		"address":   s.contract,
		"topics":    []any{depositTopic},
	}

	var logs []evmLog
	if err := s.client.Call(ctx, "eth_getLogs", []any{filter}, &logs); err != nil {
		return fmt.Errorf("eth_getLogs failed: %w", err)
	}

	now := time.Now()
	for _, lg := range logs {
		ev, err := parseDepositLog(s.chainID, lg)
		if err != nil {
			// A malformed log is not transient; skip it rather than
			// stalling the cursor.
			continue
		}
		ev.DetectedAt = now
		s.queue = append(s.queue, ev)
	}
	return nil
}

// parseDepositLog decodes one Deposit log. Indexed fields arrive as
// topics, the rest as 32-byte words in data.
func parseDepositLog(chainID domain.ChainID, lg evmLog) (*domain.DepositEvent, error) {
	if len(lg.Topics) != 3 {
		return nil, fmt.Errorf("expected 3 topics, got %d", len(lg.Topics))
	}

	data, err := hexutil.Decode(lg.Data)
	if err != nil {
		return nil, fmt.Errorf("decode log data: %w", err)
	}
	if len(data) != 4*32 {
		return nil, fmt.Errorf("expected 4 data words, got %d bytes", len(data))
	}

	word := func(i int) []byte { return data[i*32 : (i+1)*32] }

	return &domain.DepositEvent{
		TxHash:             lg.TransactionHash,
		SourceChainID:      chainID,
		DestinationChainID: domain.ChainID(new(big.Int).SetBytes(word(3)).Uint64()),
		Sender:             common.BytesToAddress(common.FromHex(lg.Topics[1])).Hex(),
		Recipient:          common.BytesToAddress(common.FromHex(lg.Topics[2])).Hex(),
		TokenAddress:       common.BytesToAddress(word(0)).Hex(),
		Amount:             new(big.Int).SetBytes(word(1)),
		Nonce:              new(big.Int).SetBytes(word(2)).Uint64(),
	}, nil
}
