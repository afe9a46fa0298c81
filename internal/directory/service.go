package directory

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
)

// Operation names, shared with the tool layer.
const (
	OpListTopCompanies     = "list_top_companies"
	OpListCompaniesByBatch = "list_companies_by_batch"
	OpSearchCompanies      = "search_companies"
	OpListAllBatches       = "list_all_batches"
	OpSearchBatches        = "search_batches"
)

// DefaultTopLimit is the list_top_companies limit when none is given.
const DefaultTopLimit = 10

// Service exposes the directory operations. It holds no per-call state, so
// a single instance serves any number of callers.
type Service struct {
	client *Client
	logger zerolog.Logger
}

// NewService creates a service backed by client.
func NewService(client *Client, logger zerolog.Logger) *Service {
	return &Service{
		client: client,
		logger: logger.With().Str("component", "directory_service").Logger(),
	}
}

// TopCompanies returns the first limit entries of the top-companies list.
func (s *Service) TopCompanies(ctx context.Context, limit int) ([]Company, error) {
	companies, err := s.client.FetchCompanies(ctx, OpListTopCompanies, "companies/top.json")
	if err != nil {
		return nil, err
	}
	return Head(companies, limit), nil
}

// BatchCompanies returns every company in batch. The identifier is only
// lowercased; callers supply an already valid slug.
func (s *Service) BatchCompanies(ctx context.Context, batch string) ([]Company, error) {
	return s.client.FetchCompanies(ctx, OpListCompaniesByBatch, "batches/"+strings.ToLower(batch)+".json")
}

// MatchingCompanies returns all companies whose name or one-liner contains
// keyword.
func (s *Service) MatchingCompanies(ctx context.Context, keyword string) ([]Company, error) {
	companies, err := s.client.FetchCompanies(ctx, OpSearchCompanies, "companies/all.json")
	if err != nil {
		return nil, err
	}
	return MatchCompanies(OpSearchCompanies, companies, keyword)
}

// Batches returns the known batches in chronological order.
func (s *Service) Batches() ([]Batch, error) {
	batches, err := KnownBatches()
	if err != nil {
		return nil, err
	}
	SortBatches(batches)
	return batches, nil
}

// ListTopCompanies is the envelope form of TopCompanies.
func (s *Service) ListTopCompanies(ctx context.Context, limit int) Envelope {
	companies, err := s.TopCompanies(ctx, limit)
	if err != nil {
		return s.fail(OpListTopCompanies, err)
	}
	return Success(KeyCompanies, companies)
}

// ListCompaniesByBatch is the envelope form of BatchCompanies. The batch is
// echoed back exactly as given.
func (s *Service) ListCompaniesByBatch(ctx context.Context, batch string) Envelope {
	companies, err := s.BatchCompanies(ctx, batch)
	if err != nil {
		return s.fail(OpListCompaniesByBatch, err)
	}
	return Envelope{KeyBatch: batch, KeyCompanies: companies}
}

// SearchCompanies is the envelope form of MatchingCompanies.
func (s *Service) SearchCompanies(ctx context.Context, keyword string) Envelope {
	matches, err := s.MatchingCompanies(ctx, keyword)
	if err != nil {
		return s.fail(OpSearchCompanies, err)
	}
	return Success(KeyMatches, matches)
}

// ListAllBatches is the envelope form of Batches.
func (s *Service) ListAllBatches() Envelope {
	batches, err := s.Batches()
	if err != nil {
		return s.fail(OpListAllBatches, err)
	}
	return Success(KeyBatches, batches)
}

// SearchBatches filters ListAllBatches by name. An error envelope from the
// listing is passed through unchanged.
func (s *Service) SearchBatches(query string) Envelope {
	all := s.ListAllBatches()
	if _, failed := all.Err(); failed {
		return all
	}
	batches, ok := all[KeyBatches].([]Batch)
	if !ok {
		return s.fail(OpSearchBatches, &QueryError{Op: OpSearchBatches, Message: "batch listing returned no batches"})
	}
	return Success(KeyMatches, FilterBatches(batches, query))
}

func (s *Service) fail(op string, err error) Envelope {
	var qe *QueryError
	if !errors.As(err, &qe) {
		qe = &QueryError{Op: op, Message: err.Error(), Err: err}
	}
	s.logger.Warn().
		Str("op", op).
		Str("url", qe.URL).
		Int("status", qe.StatusCode).
		Str("error", qe.Message).
		Msg("Directory query failed")
	return Failure(qe)
}
