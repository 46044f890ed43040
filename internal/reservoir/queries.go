package reservoir

import (
	"context"
	"net/url"
)

// QueryOptions carries process-wide switches into query construction.
type QueryOptions struct {
	NormalizeRoyalties bool // whether prices should be normalized to include royalties
}

// CollectionsQuery selects a collection by contract.
type CollectionsQuery struct {
	Contract           string
	IncludeTopBid      bool
	NormalizeRoyalties bool
}

// NewCollectionsQuery builds the collection-by-contract query used by the token page.
func NewCollectionsQuery(contract string, opts QueryOptions) CollectionsQuery {
	return CollectionsQuery{
		Contract:           contract,
		IncludeTopBid:      true,
		NormalizeRoyalties: opts.NormalizeRoyalties,
	}
}

func (q CollectionsQuery) values() url.Values {
	v := url.Values{}
	if q.Contract != "" {
		v.Set("contract", q.Contract)
	}
	v.Set("includeTopBid", boolString(q.IncludeTopBid))
	v.Set("normalizeRoyalties", boolString(q.NormalizeRoyalties))

	return v
}

// TokensQuery selects tokens by "<contract>:<id>" reference.
type TokensQuery struct {
	Tokens                []string
	IncludeAttributes     bool
	IncludeTopBid         bool
	NormalizeRoyalties    bool
	IncludeDynamicPricing bool
}

// NewTokensQuery builds the token-by-id query used by the token page.
func NewTokensQuery(tokenRef string, opts QueryOptions) TokensQuery {
	return TokensQuery{
		Tokens:                []string{tokenRef},
		IncludeAttributes:     true,
		IncludeTopBid:         true,
		NormalizeRoyalties:    opts.NormalizeRoyalties,
		IncludeDynamicPricing: true,
	}
}

func (q TokensQuery) values() url.Values {
	v := url.Values{}
	for _, t := range q.Tokens {
		v.Add("tokens", t)
	}
	v.Set("includeAttributes", boolString(q.IncludeAttributes))
	v.Set("includeTopBid", boolString(q.IncludeTopBid))
	v.Set("normalizeRoyalties", boolString(q.NormalizeRoyalties))
	v.Set("includeDynamicPricing", boolString(q.IncludeDynamicPricing))

	return v
}

// UserTokensQuery narrows an account's holdings to specific tokens.
type UserTokensQuery struct {
	Tokens []string
}

func (q UserTokensQuery) values() url.Values {
	v := url.Values{}
	for _, t := range q.Tokens {
		v.Add("tokens", t)
	}

	return v
}

// GetCollections fetches the collections endpoint.
func (c *Client) GetCollections(ctx context.Context, query CollectionsQuery) (*CollectionsResponse, error) {
	var out CollectionsResponse
	if err := c.get(ctx, "collections", []string{"collections", "v5"}, query.values(), &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// GetTokens fetches the tokens endpoint.
func (c *Client) GetTokens(ctx context.Context, query TokensQuery) (*TokensResponse, error) {
	var out TokensResponse
	if err := c.get(ctx, "tokens", []string{"tokens", "v5"}, query.values(), &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// GetAttributes fetches every attribute aggregate of a collection.
func (c *Client) GetAttributes(ctx context.Context, collectionID string) (*AttributesResponse, error) {
	var out AttributesResponse
	pathElems := []string{"collections", url.PathEscape(collectionID), "attributes", "all", "v2"}
	if err := c.get(ctx, "attributes", pathElems, nil, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// GetUserTokens fetches an account's holdings.
func (c *Client) GetUserTokens(
	ctx context.Context,
	account string,
	query UserTokensQuery,
) (*UserTokensResponse, error) {
	var out UserTokensResponse
	pathElems := []string{"users", url.PathEscape(account), "tokens", "v6"}
	if err := c.get(ctx, "user_tokens", pathElems, query.values(), &out); err != nil {
		return nil, err
	}

	return &out, nil
}
