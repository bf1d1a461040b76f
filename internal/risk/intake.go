package risk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/castward/castlink/internal/domain/repository"
	"github.com/castward/castlink/internal/metrics"
	"github.com/castward/castlink/internal/observability/logger"
)

// ReputationClient queries an IP reputation service. Implementations must be
// safe for concurrent use.
type ReputationClient interface {
	Lookup(ctx context.Context, ip string) (*Reputation, error)
}

// Reputation is the normalized view of an IP lookup.
type Reputation struct {
	Proxy       bool
	VPN         bool
	Tor         bool
	RiskScore   int
	CountryCode string
	CountryName string
}

// HTTPReputationClient talks to a proxycheck-style endpoint:
// GET {base}/{ip}?key=...&vpn=1&risk=1 returning
// {"status":"ok","<ip>":{"proxy":"yes","type":"VPN","risk":66,...}}.
type HTTPReputationClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewHTTPReputationClient(baseURL, apiKey string) *HTTPReputationClient {
	return &HTTPReputationClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *HTTPReputationClient) Lookup(ctx context.Context, ip string) (*Reputation, error) {
	u := fmt.Sprintf("%s/%s?key=%s&vpn=1&risk=1", c.baseURL, url.PathEscape(ip), url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reputation lookup: status %d", resp.StatusCode)
	}

	// The per-IP payload lives under a key named after the IP itself.
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("reputation lookup: %w", err)
	}
	if status, ok := envelope["status"]; ok {
		var st string
		_ = json.Unmarshal(status, &st)
		if st != "ok" && st != "warning" {
			return nil, fmt.Errorf("reputation lookup: status %q", st)
		}
	}
	entry, ok := envelope[ip]
	if !ok {
		return nil, fmt.Errorf("reputation lookup: no entry for ip")
	}

	var body struct {
		Proxy   string `json:"proxy"`
		Type    string `json:"type"`
		Risk    int    `json:"risk"`
		Country string `json:"country"`
		ISOCode string `json:"isocode"`
	}
	if err := json.Unmarshal(entry, &body); err != nil {
		return nil, fmt.Errorf("reputation lookup: %w", err)
	}

	kind := strings.ToUpper(body.Type)
	return &Reputation{
		Proxy:       strings.EqualFold(body.Proxy, "yes"),
		VPN:         kind == "VPN",
		Tor:         kind == "TOR",
		RiskScore:   body.Risk,
		CountryCode: body.ISOCode,
		CountryName: body.Country,
	}, nil
}

// Tracker turns a login event into a durable risk record.
type Tracker struct {
	client ReputationClient
	repo   repository.RiskRepository
}

func NewTracker(client ReputationClient, repo repository.RiskRepository) *Tracker {
	return &Tracker{client: client, repo: repo}
}

// Track looks up the IP and appends a record. A failed lookup degrades to a
// neutral record; intake never blocks or fails a login.
func (t *Tracker) Track(ctx context.Context, identity, ip, userAgent, provider string) (*repository.RiskRecord, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("risk.tracker"))

	rec := &repository.RiskRecord{
		ID:        uuid.NewString(),
		Identity:  identity,
		IP:        ip,
		UserAgent: userAgent,
		Provider:  provider,
		CreatedAt: time.Now().UTC(),
	}

	if t.client != nil && ip != "" {
		rep, err := t.client.Lookup(ctx, ip)
		if err != nil {
			metrics.RiskLookups.WithLabelValues("error").Inc()
			log.Warn("reputation lookup failed, recording neutral", logger.Err(err))
		} else {
			metrics.RiskLookups.WithLabelValues("ok").Inc()
			rec.Proxy = rep.Proxy
			rec.VPN = rep.VPN
			rec.Tor = rep.Tor
			rec.RiskScore = rep.RiskScore
			rec.CountryCode = rep.CountryCode
			rec.CountryName = rep.CountryName
		}
	} else {
		metrics.RiskLookups.WithLabelValues("skipped").Inc()
	}

	if err := t.repo.Append(ctx, rec); err != nil {
		log.Error("risk record append failed", logger.Err(err))
		return nil, err
	}
	return rec, nil
}

// Dispatch runs Track on its own goroutine with a detached timeout. The
// caller's request finishes without waiting; a panic inside intake can never
// take the login path down with it.
func (t *Tracker) Dispatch(identity, ip, userAgent, provider string) {
	base := logger.L().With(logger.Layer("service"), logger.Component("risk.tracker"))
	go func() {
		defer func() {
			if r := recover(); r != nil {
				base.Error("risk intake panic", logger.Any("panic", r))
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		ctx = logger.ToContext(ctx, base)
		_, _ = t.Track(ctx, identity, ip, userAgent, provider)
	}()
}
