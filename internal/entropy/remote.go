package entropy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const randomOrgURL = "https://api.random.org/json-rpc/4/invoke"

// Remote draws true random numbers from random.org through a local pool and
// falls back to another source whenever the pool cannot be refilled.
type Remote struct {
	apiKey   string
	url      string
	client   *http.Client
	fallback Source

	mu   sync.Mutex
	pool []float64
}

// NewRemote creates a random.org source. Returns nil if apiKey is empty.
func NewRemote(apiKey string, fallback Source) *Remote {
	if apiKey == "" {
		return nil
	}
	if fallback == nil {
		fallback = Crypto{}
	}
	return &Remote{
		apiKey:   apiKey,
		url:      randomOrgURL,
		client:   &http.Client{Timeout: 15 * time.Second},
		fallback: fallback,
	}
}

// Float64 returns a float in [0, 1) from the pool, refilling when low.
func (r *Remote) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.pool) < 10 {
		r.refill()
	}
	if len(r.pool) == 0 {
		return r.fallback.Float64()
	}
	v := r.pool[0]
	r.pool = r.pool[1:]
	return v
}

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
	ID      int       `json:"id"`
}

type rpcParams struct {
	APIKey        string `json:"apiKey"`
	N             int    `json:"n"`
	DecimalPlaces int    `json:"decimalPlaces"`
}

type rpcResponse struct {
	Result struct {
		Random struct {
			Data []float64 `json:"data"`
		} `json:"random"`
	} `json:"result"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// poolSize is how many fractions one refill asks for.
const poolSize = 100

func (r *Remote) refill() {
	data, err := r.fetch()
	if err != nil {
		slog.Debug("random.org refill failed", "error", err)
		return
	}
	for _, v := range data {
		if v >= 0 && v < 1 {
			r.pool = append(r.pool, v)
		}
	}
	slog.Debug("random.org pool refilled", "count", len(r.pool))
}

func (r *Remote) fetch() ([]float64, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  "generateDecimalFractions",
		Params:  rpcParams{APIKey: r.apiKey, N: poolSize, DecimalPlaces: 6},
		ID:      1,
	})
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Post(r.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("random.org status %d", resp.StatusCode)
	}

	var out rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if out.Error != nil {
		return nil, errors.New(out.Error.Message)
	}
	return out.Result.Random.Data, nil
}
