package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/execution-body/pkg/body"
	"github.com/ethpandaops/execution-body/pkg/ethereum"
	"github.com/ethpandaops/execution-body/pkg/processor"
	"github.com/ethpandaops/execution-body/pkg/store"
	"github.com/ethpandaops/execution-body/pkg/transaction"
)

const (
	maxBulkBlocks = 1000
)

// BodyReader loads stored container encodings.
type BodyReader interface {
	GetRaw(ctx context.Context, blockHash common.Hash) ([]byte, error)
}

// RangeProcessor fetches and stores block bodies.
type RangeProcessor interface {
	ProcessRange(ctx context.Context, from, to uint64) (*processor.Stats, error)
}

type Handler struct {
	log       logrus.FieldLogger
	processor RangeProcessor
	bodies    BodyReader
}

func NewHandler(log logrus.FieldLogger, processor RangeProcessor, bodies BodyReader) *Handler {
	return &Handler{
		log:       log.WithField("component", "api"),
		processor: processor,
		bodies:    bodies,
	}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/blocks/{block_number}", h.fetchSingleBlock)
	mux.HandleFunc("POST /api/v1/blocks", h.fetchMultipleBlocks)
	mux.HandleFunc("GET /api/v1/bodies/{block_hash}", h.getBody)
}

type SingleBlockResponse struct {
	Status           string `json:"status"`
	BlockNumber      uint64 `json:"block_number"`
	TransactionCount uint64 `json:"transaction_count"`
	UncleCount       uint64 `json:"uncle_count"`
}

type BlockResult struct {
	BlockNumber      uint64 `json:"block_number"`
	Status           string `json:"status"`
	TransactionCount uint64 `json:"transaction_count,omitempty"`
	Error            string `json:"error,omitempty"`
}

type BulkBlocksRequest struct {
	Blocks []uint64 `json:"blocks"`
}

type BulkBlocksResponse struct {
	Status  string `json:"status"`
	Summary struct {
		Total  int `json:"total"`
		Stored int `json:"stored"`
		Failed int `json:"failed"`
	} `json:"summary"`
	Results []BlockResult `json:"results"`
}

// BodyResponse is the JSON view of a stored body.
type BodyResponse struct {
	BlockHash        common.Hash                `json:"block_hash"`
	TransactionsRoot common.Hash                `json:"transactions_root"`
	UnclesRoot       common.Hash                `json:"uncles_root"`
	Transactions     []*transaction.Transaction `json:"transactions"`
	Uncles           body.HeaderList            `json:"uncles"`
}

type ErrorResponse struct {
	Error       string `json:"error"`
	BlockNumber any    `json:"block_number,omitempty"`
	BlockHash   string `json:"block_hash,omitempty"`
}

func (h *Handler) fetchSingleBlock(w http.ResponseWriter, r *http.Request) {
	blockNumberStr := r.PathValue("block_number")

	blockNumber, err := strconv.ParseUint(blockNumberStr, 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, ErrorResponse{Error: "invalid block number format", BlockNumber: blockNumberStr})

		return
	}

	stats, err := h.processor.ProcessRange(r.Context(), blockNumber, blockNumber)
	if err != nil {
		h.writeError(w, statusFor(err), ErrorResponse{Error: err.Error(), BlockNumber: blockNumber})

		return
	}

	h.writeJSON(w, http.StatusOK, SingleBlockResponse{
		Status:           "stored",
		BlockNumber:      blockNumber,
		TransactionCount: stats.Transactions,
		UncleCount:       stats.Uncles,
	})
}

func (h *Handler) fetchMultipleBlocks(w http.ResponseWriter, r *http.Request) {
	var req BulkBlocksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})

		return
	}

	if len(req.Blocks) == 0 {
		h.writeError(w, http.StatusBadRequest, ErrorResponse{Error: "no blocks provided"})

		return
	}

	if len(req.Blocks) > maxBulkBlocks {
		h.writeError(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: fmt.Sprintf("too many blocks (limit: %d)", maxBulkBlocks)})

		return
	}

	response := BulkBlocksResponse{
		Results: make([]BlockResult, 0, len(req.Blocks)),
	}

	response.Summary.Total = len(req.Blocks)

	for _, blockNumber := range req.Blocks {
		stats, err := h.processor.ProcessRange(r.Context(), blockNumber, blockNumber)
		if err != nil {
			response.Results = append(response.Results, BlockResult{
				BlockNumber: blockNumber,
				Status:      "failed",
				Error:       err.Error(),
			})
			response.Summary.Failed++

			continue
		}

		response.Results = append(response.Results, BlockResult{
			BlockNumber:      blockNumber,
			Status:           "stored",
			TransactionCount: stats.Transactions,
		})
		response.Summary.Stored++
	}

	switch {
	case response.Summary.Failed > 0 && response.Summary.Stored > 0:
		response.Status = "partial"
		h.writeJSON(w, http.StatusMultiStatus, response)
	case response.Summary.Failed > 0:
		response.Status = "failed"
		h.writeJSON(w, http.StatusInternalServerError, response)
	default:
		response.Status = "stored"
		h.writeJSON(w, http.StatusOK, response)
	}
}

func (h *Handler) getBody(w http.ResponseWriter, r *http.Request) {
	hashStr := r.PathValue("block_hash")

	raw, err := hexutil.Decode(hashStr)
	if err != nil || len(raw) != common.HashLength {
		h.writeError(w, http.StatusBadRequest, ErrorResponse{Error: "invalid block hash", BlockHash: hashStr})

		return
	}

	hash := common.BytesToHash(raw)

	encoded, err := h.bodies.GetRaw(r.Context(), hash)
	if err != nil {
		h.writeError(w, statusFor(err), ErrorResponse{Error: err.Error(), BlockHash: hash.Hex()})

		return
	}

	if r.URL.Query().Get("format") != "json" {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.WriteHeader(http.StatusOK)

		if _, err := w.Write(encoded); err != nil {
			h.log.WithError(err).Error("failed to write response")
		}

		return
	}

	response, err := bodyResponse(hash, encoded)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error(), BlockHash: hash.Hex()})

		return
	}

	h.writeJSON(w, http.StatusOK, response)
}

func bodyResponse(hash common.Hash, encoded []byte) (*BodyResponse, error) {
	b, err := body.DecodeSSZ(encoded)
	if err != nil {
		return nil, err
	}

	txRoot, err := b.TransactionsRoot()
	if err != nil {
		return nil, err
	}

	unclesRoot, err := b.UnclesRoot()
	if err != nil {
		return nil, err
	}

	return &BodyResponse{
		BlockHash:        hash,
		TransactionsRoot: txRoot,
		UnclesRoot:       unclesRoot,
		Transactions:     b.Transactions,
		Uncles:           b.Uncles,
	}, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, ethereum.ErrBlockNotFound):
		return http.StatusNotFound
	case errors.Is(err, ethereum.ErrRootMismatch), errors.Is(err, ethereum.ErrNoHealthyNode):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.WithError(err).Error("failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, resp ErrorResponse) {
	h.writeJSON(w, status, resp)
}
