package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	berr "github.com/next-trace/scg-banking-services/contract/errors"
)

// Directory is the one designed transport for reading a remote client
// profile. The broker-backed and HTTP-backed implementations are
// interchangeable and selected by configuration, never duplicated at call
// sites. A missing client is reported with ErrClientNotFound.
type Directory interface {
	Lookup(ctx context.Context, id uuid.UUID) (*Profile, error)
}

// Requester is the slice of the rpc bridge the broker directory needs.
type Requester interface {
	Request(ctx context.Context, queue string, payload []byte, timeout time.Duration) ([]byte, error)
}

// BrokerDirectory fetches profiles over the RPC bridge. The reply is the
// profile JSON or the explicit null marker for a miss.
type BrokerDirectory struct {
	req     Requester
	timeout time.Duration
}

func NewBrokerDirectory(req Requester, timeout time.Duration) *BrokerDirectory {
	return &BrokerDirectory{req: req, timeout: timeout}
}

var _ Directory = (*BrokerDirectory)(nil)

func (d *BrokerDirectory) Lookup(ctx context.Context, id uuid.UUID) (*Profile, error) {
	body, err := d.req.Request(ctx, RequestQueue, []byte(GetClientByIDPrefix+id.String()), d.timeout)
	if err != nil {
		return nil, fmt.Errorf("lookup client %s: %w", id, err)
	}

	if isNull(body) {
		return nil, fmt.Errorf("lookup client %s: %w", id, berr.ErrClientNotFound)
	}

	var p Profile
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("lookup client %s: decode reply: %w", id, err)
	}

	return &p, nil
}

// HTTPDirectory fetches profiles from the client service's HTTP endpoint,
// used interchangeably with the broker transport as a fallback.
type HTTPDirectory struct {
	base string
	hc   *http.Client
}

func NewHTTPDirectory(base string, hc *http.Client) *HTTPDirectory {
	if hc == nil {
		hc = http.DefaultClient
	}

	return &HTTPDirectory{base: base, hc: hc}
}

var _ Directory = (*HTTPDirectory)(nil)

func (d *HTTPDirectory) Lookup(ctx context.Context, id uuid.UUID) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.base+"/clients/"+id.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("lookup client %s: %w", id, err)
	}

	res, err := d.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lookup client %s: %w", id, err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("lookup client %s: %w", id, berr.ErrClientNotFound)
	default:
		return nil, fmt.Errorf("lookup client %s: unexpected status %d", id, res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("lookup client %s: %w", id, err)
	}

	if isNull(body) {
		return nil, fmt.Errorf("lookup client %s: %w", id, berr.ErrClientNotFound)
	}

	var p Profile
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("lookup client %s: decode body: %w", id, err)
	}

	return &p, nil
}

// CachedDirectory is a read-through Redis cache in front of another
// Directory. Cache failures degrade to the inner transport; misses are not
// negatively cached, so a just-created client is visible immediately.
type CachedDirectory struct {
	next   Directory
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedDirectory(next Directory, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedDirectory {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &CachedDirectory{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

var _ Directory = (*CachedDirectory)(nil)

func (d *CachedDirectory) Lookup(ctx context.Context, id uuid.UUID) (*Profile, error) {
	key := "client:profile:" + id.String()

	cached, err := d.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var p Profile
		if uerr := json.Unmarshal(cached, &p); uerr == nil {
			return &p, nil
		}

		d.logger.Warn("dropping undecodable cache entry", "key", key)
		d.rdb.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		d.logger.Warn("profile cache read failed", "key", key, "err", err)
	}

	p, err := d.next.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	if body, merr := json.Marshal(p); merr == nil {
		if serr := d.rdb.Set(ctx, key, body, d.ttl).Err(); serr != nil {
			d.logger.Warn("profile cache write failed", "key", key, "err", serr)
		}
	}

	return p, nil
}

func isNull(body []byte) bool {
	return len(bytes.TrimSpace(body)) == 0 || bytes.Equal(bytes.TrimSpace(body), []byte("null"))
}
