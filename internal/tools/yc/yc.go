// Package yc provides the YC directory tools.
package yc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/google/jsonschema-go/jsonschema"

	"yc-mcp-go/internal/directory"
	"yc-mcp-go/internal/tools"
)

// Register adds every directory tool to r.
func Register(r *tools.Registry, svc *directory.Service) error {
	for _, tool := range []tools.Tool{
		NewListTopCompanies(svc),
		NewListCompaniesByBatch(svc),
		NewSearchCompanies(svc),
		NewListAllBatches(svc),
		NewSearchBatches(svc),
	} {
		if err := r.Register(tool); err != nil {
			return err
		}
	}
	return nil
}

func stringProp(name, description string) tools.Property {
	return tools.Property{
		Name:     name,
		Schema:   &jsonschema.Schema{Type: "string", Description: description},
		Required: true,
	}
}

func required(name string, v *string) (string, error) {
	if v == nil {
		return "", &tools.Error{Code: tools.ErrInvalidArguments, Message: fmt.Sprintf("missing required argument %q", name)}
	}
	return *v, nil
}

// ListTopCompanies lists the top YC companies.
type ListTopCompanies struct {
	tools.DefaultTool
	svc *directory.Service
}

type listTopCompaniesArgs struct {
	Limit json.RawMessage `json:"limit"`
}

// parseLimit accepts any JSON number with an integral value, so 5 and 5.0
// are the same limit. A null or absent limit takes the default.
func parseLimit(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return directory.DefaultTopLimit, nil
	}

	var n json.Number
	if raw[0] == '"' || json.Unmarshal(raw, &n) != nil {
		return 0, &tools.Error{
			Code:    tools.ErrInvalidArguments,
			Message: fmt.Sprintf("invalid arguments: limit must be an integer, got %s", raw),
		}
	}
	if i, err := n.Int64(); err == nil && i >= math.MinInt && i <= math.MaxInt {
		return int(i), nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || f < math.MinInt || f >= math.MaxInt {
		return 0, &tools.Error{
			Code:    tools.ErrInvalidArguments,
			Message: fmt.Sprintf("invalid arguments: limit must be an integer, got %s", n),
		}
	}
	return int(f), nil
}

func NewListTopCompanies(svc *directory.Service) *ListTopCompanies {
	schema := tools.ObjectSchema([]tools.Property{{
		Name: "limit",
		Schema: &jsonschema.Schema{
			Type:        "integer",
			Description: "Maximum number of companies to return",
			Default:     json.RawMessage(strconv.Itoa(directory.DefaultTopLimit)),
		},
	}})
	return &ListTopCompanies{
		DefaultTool: tools.NewDefaultTool(
			directory.OpListTopCompanies,
			"List top companies",
			"List the top YC companies.\n\nReturns a dictionary with the list of top companies under \"companies\".",
			schema,
			true,
		),
		svc: svc,
	}
}

func (t *ListTopCompanies) Call(ctx context.Context, args json.RawMessage) (directory.Envelope, error) {
	var params listTopCompaniesArgs
	if err := tools.DecodeArgs(args, &params); err != nil {
		return nil, err
	}
	limit, err := parseLimit(params.Limit)
	if err != nil {
		return nil, err
	}
	return t.svc.ListTopCompanies(ctx, limit), nil
}

// ListCompaniesByBatch queries the companies of one batch.
type ListCompaniesByBatch struct {
	tools.DefaultTool
	svc *directory.Service
}

type listCompaniesByBatchArgs struct {
	Batch *string `json:"batch"`
}

func NewListCompaniesByBatch(svc *directory.Service) *ListCompaniesByBatch {
	return &ListCompaniesByBatch{
		DefaultTool: tools.NewDefaultTool(
			directory.OpListCompaniesByBatch,
			"List companies by batch",
			"Query companies from a specific YC batch.\n\nReturns the batch identifier as given under \"batch\" and its companies under \"companies\".",
			tools.ObjectSchema([]tools.Property{
				stringProp("batch", "The YC batch identifier (e.g., \"W21\")"),
			}),
			true,
		),
		svc: svc,
	}
}

func (t *ListCompaniesByBatch) Call(ctx context.Context, args json.RawMessage) (directory.Envelope, error) {
	var params listCompaniesByBatchArgs
	if err := tools.DecodeArgs(args, &params); err != nil {
		return nil, err
	}
	batch, err := required("batch", params.Batch)
	if err != nil {
		return nil, err
	}
	return t.svc.ListCompaniesByBatch(ctx, batch), nil
}

// SearchCompanies searches company names and one-liners.
type SearchCompanies struct {
	tools.DefaultTool
	svc *directory.Service
}

type searchCompaniesArgs struct {
	Keyword *string `json:"keyword"`
}

func NewSearchCompanies(svc *directory.Service) *SearchCompanies {
	return &SearchCompanies{
		DefaultTool: tools.NewDefaultTool(
			directory.OpSearchCompanies,
			"Search companies",
			"Search for companies with a keyword in name/description.\n\nReturns matching companies under \"matches\".",
			tools.ObjectSchema([]tools.Property{
				stringProp("keyword", "The search term to look for in company names and descriptions"),
			}),
			true,
		),
		svc: svc,
	}
}

func (t *SearchCompanies) Call(ctx context.Context, args json.RawMessage) (directory.Envelope, error) {
	var params searchCompaniesArgs
	if err := tools.DecodeArgs(args, &params); err != nil {
		return nil, err
	}
	keyword, err := required("keyword", params.Keyword)
	if err != nil {
		return nil, err
	}
	return t.svc.SearchCompanies(ctx, keyword), nil
}

// ListAllBatches lists the known batches.
type ListAllBatches struct {
	tools.DefaultTool
	svc *directory.Service
}

func NewListAllBatches(svc *directory.Service) *ListAllBatches {
	return &ListAllBatches{
		DefaultTool: tools.NewDefaultTool(
			directory.OpListAllBatches,
			"List all batches",
			"List all available YC batches with their company counts.\n\nReturns all YC batches and their details under \"batches\", oldest first.",
			nil,
			false,
		),
		svc: svc,
	}
}

func (t *ListAllBatches) Call(ctx context.Context, args json.RawMessage) (directory.Envelope, error) {
	var params struct{}
	if err := tools.DecodeArgs(args, &params); err != nil {
		return nil, err
	}
	return t.svc.ListAllBatches(), nil
}

// SearchBatches searches the known batches by name or year.
type SearchBatches struct {
	tools.DefaultTool
	svc *directory.Service
}

type searchBatchesArgs struct {
	Query *string `json:"query"`
}

func NewSearchBatches(svc *directory.Service) *SearchBatches {
	return &SearchBatches{
		DefaultTool: tools.NewDefaultTool(
			directory.OpSearchBatches,
			"Search batches",
			"Search for YC batches by name or year.\n\nReturns matching batches under \"matches\".",
			tools.ObjectSchema([]tools.Property{
				stringProp("query", "Search term to find matching batches (e.g., \"2021\", \"Winter\", etc.)"),
			}),
			false,
		),
		svc: svc,
	}
}

func (t *SearchBatches) Call(ctx context.Context, args json.RawMessage) (directory.Envelope, error) {
	var params searchBatchesArgs
	if err := tools.DecodeArgs(args, &params); err != nil {
		return nil, err
	}
	query, err := required("query", params.Query)
	if err != nil {
		return nil, err
	}
	return t.svc.SearchBatches(query), nil
}
