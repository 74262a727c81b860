package service

import (
	"context"
	"strings"

	"github.com/fyrsmithlabs/appsrag/internal/contracts"
	"github.com/fyrsmithlabs/appsrag/internal/retriever"
)

// Query runs fused retrieval and returns the ranked records. An empty
// query lists every indexed record, filters and ranking still applied.
func (s *Service) Query(ctx context.Context, query string, filters retriever.Filters, k int) ([]retriever.ScoredRecord, error) {
	results, err := s.retr.Retrieve(ctx, query, filters, k)
	if err != nil {
		return nil, err
	}
	s.rememberResults("query", query, resultAppIDs(results))
	return results, nil
}

// Retrieve runs fused retrieval and wraps the results in the validated
// agent envelope. Unlike Query it enforces the contract limits on the
// way in, so an agent caller gets a contract error instead of a
// silently clamped request.
func (s *Service) Retrieve(ctx context.Context, query string, k int, status, method string) (*contracts.Envelope, error) {
	request, err := contracts.NewRetrieveRequest(query, k, status, method)
	if err != nil {
		return nil, err
	}

	ranked, err := s.retr.Retrieve(ctx, request.Query, retriever.Filters{
		Status: request.Status,
		Method: request.Method,
	}, request.K)
	if err != nil {
		return nil, err
	}

	items := make([]contracts.RetrieveItem, 0, len(ranked))
	for _, sr := range ranked {
		items = append(items, contracts.RetrieveItem{
			AppID:    sr.Record.ID,
			Company:  sr.Record.Company,
			Role:     sr.Record.Role,
			Status:   string(sr.Record.Status),
			Method:   string(sr.Record.Method),
			Tags:     sr.Record.Tags,
			Score:    sr.Score,
			Context:  contextSnippet(sr.Record.SearchText()),
			Evidence: sr.Record.Artifacts.Evidence,
		})
	}

	env, err := contracts.BuildEnvelope(request, items, s.cfg.Embeddings.Provider, s.now().UTC())
	if err != nil {
		return nil, err
	}
	s.rememberResults("retrieve", request.Query, resultAppIDs(ranked))
	return env, nil
}

// contextSnippet flattens a record's search text to one line within the
// contract's context budget.
func contextSnippet(text string) string {
	flat := strings.Join(strings.Fields(text), " ")
	if len(flat) > contracts.MaxContextLength {
		flat = flat[:contracts.MaxContextLength]
	}
	return flat
}

func resultAppIDs(results []retriever.ScoredRecord) []string {
	ids := make([]string, 0, len(results))
	for _, sr := range results {
		ids = append(ids, sr.Record.ID)
	}
	return ids
}
