// Package ingest validates incoming quote payloads, resolves their master data
// references and hands them to the ledger.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/marvey11/codescape-financial-api/internal/contracts"
	"github.com/marvey11/codescape-financial-api/internal/masterdata"
	"github.com/marvey11/codescape-financial-api/pkg/logger"
)

// ExchangeRef is an exchange given either by name or by numeric id
type ExchangeRef string

// UnmarshalJSON accepts both a JSON string and a JSON number
func (r *ExchangeRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = ExchangeRef(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("exchange must be a name or an id: %w", err)
	}
	*r = ExchangeRef(n.String())
	return nil
}

// Item is one dated quote of an ingestion payload. Quote is a pointer so
// that a missing quote is told apart from a quote of 0.
type Item struct {
	Date  string           `json:"date" validate:"required,datetime=2006-01-02"`
	Quote *decimal.Decimal `json:"quote" validate:"required,gte=0"`
}

// Request is the ingestion payload for one entity pair
type Request struct {
	ISIN     string      `json:"isin" validate:"required,len=12,alphanum"`
	Exchange ExchangeRef `json:"exchange" validate:"required"`
	Quotes   []Item      `json:"quotes" validate:"required,min=1,dive"`
}

// Result summarizes a completed ingestion
type Result struct {
	ISIN     string `json:"isin"`
	Exchange string `json:"exchange"`
	Stored   int    `json:"stored"`
}

// Throttle paces bulk ingestion
type Throttle interface {
	Wait(ctx context.Context) error
}

// Service is the ingestion entry point shared by the API and the CLI
type Service struct {
	ledger   contracts.Ledger
	md       contracts.MasterData
	validate *validator.Validate
	throttle Throttle
	logger   *logger.Logger
}

// NewService creates a new ingestion service
func NewService(ledger contracts.Ledger, md contracts.MasterData, log *logger.Logger) *Service {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})

	return &Service{
		ledger:   ledger,
		md:       md,
		validate: v,
		logger:   log.WithField("module", "ingest"),
	}
}

// WithThrottle makes IngestAll wait on t before every request
func (s *Service) WithThrottle(t Throttle) *Service {
	s.throttle = t
	return s
}

// Ingest validates req, resolves its references and upserts its quotes as a
// single batch.
func (s *Service) Ingest(ctx context.Context, req Request) (*Result, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", contracts.ErrInvalidArgument, describe(err))
	}

	sec, err := s.md.SecurityByISIN(ctx, req.ISIN)
	if err != nil {
		return nil, fmt.Errorf("resolve security: %w", err)
	}
	ex, err := masterdata.ResolveExchange(ctx, s.md, string(req.Exchange))
	if err != nil {
		return nil, fmt.Errorf("resolve exchange: %w", err)
	}

	quotes := make([]contracts.Quote, 0, len(req.Quotes))
	for _, it := range req.Quotes {
		d, err := time.Parse(contracts.DateFormat, it.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid date %q", contracts.ErrInvalidArgument, it.Date)
		}
		quotes = append(quotes, contracts.Quote{Date: d, Price: *it.Quote})
	}

	if err := s.ledger.UpsertBatch(ctx, sec.ISIN, ex.ID, quotes); err != nil {
		s.logger.WithError(err).WithPair(sec.ISIN, ex.Name).Error("Failed to upsert quotes")
		return nil, fmt.Errorf("upsert quotes: %w", err)
	}

	s.logger.WithPair(sec.ISIN, ex.Name).WithField("quotes", len(quotes)).Info("Quotes ingested")

	return &Result{ISIN: sec.ISIN, Exchange: ex.Name, Stored: len(quotes)}, nil
}

// IngestAll runs Ingest for every request in order and stops at the first
// failure. A configured Throttle is waited on before each request. Results of
// the requests already stored are returned with it.
func (s *Service) IngestAll(ctx context.Context, reqs []Request) ([]Result, error) {
	results := make([]Result, 0, len(reqs))
	for i, req := range reqs {
		if s.throttle != nil {
			if err := s.throttle.Wait(ctx); err != nil {
				return results, fmt.Errorf("request %d (%s): throttle: %w", i, req.ISIN, err)
			}
		}
		r, err := s.Ingest(ctx, req)
		if err != nil {
			return results, fmt.Errorf("request %d (%s): %w", i, req.ISIN, err)
		}
		results = append(results, *r)
	}
	return results, nil
}

// Decode reads either a single Request object or an array of them
func Decode(r io.Reader) ([]Request, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty payload", contracts.ErrInvalidArgument)
	}

	if raw[0] == '[' {
		var reqs []Request
		if err := json.Unmarshal(raw, &reqs); err != nil {
			return nil, fmt.Errorf("%w: %v", contracts.ErrInvalidArgument, err)
		}
		return reqs, nil
	}

	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", contracts.ErrInvalidArgument, err)
	}
	return []Request{req}, nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}
