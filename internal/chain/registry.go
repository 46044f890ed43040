package chain

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Chain describes a marketplace chain the storefront can render tokens for.
type Chain struct {
	ID          int    // the EVM chain ID
	Name        string // display name, e.g., "Ethereum"
	RoutePrefix string // the route segment identifying the chain, e.g., "ethereum"
	BaseURL     string // the marketplace data API base URL for the chain
	APIKey      string // the API key sent as x-api-key; may be blank
	ProxyAPI    string // the path under the storefront origin that proxies the marketplace API
}

// Registry holds the supported chains. The first chain is the default.
type Registry struct {
	chains []Chain
}

// NewRegistry builds a registry over the given chains. At least one chain is required.
func NewRegistry(chains ...Chain) (*Registry, error) {
	if len(chains) == 0 {
		return nil, errors.New("at least one chain must be configured")
	}

	seen := make(map[string]struct{}, len(chains))
	for _, c := range chains {
		if c.RoutePrefix == "" {
			return nil, fmt.Errorf("chain '%s' has no route prefix", c.Name)
		}
		if c.BaseURL == "" {
			return nil, fmt.Errorf("chain '%s' has no base URL", c.RoutePrefix)
		}
		if _, dup := seen[c.RoutePrefix]; dup {
			return nil, fmt.Errorf("duplicate chain route prefix '%s'", c.RoutePrefix)
		}
		seen[c.RoutePrefix] = struct{}{}
	}

	return &Registry{chains: append([]Chain(nil), chains...)}, nil
}

// DefaultChains returns the built-in chain list, applying apiKey to every chain.
func DefaultChains(apiKey string) []Chain {
	return []Chain{
		{ID: 1, Name: "Ethereum", RoutePrefix: "ethereum", BaseURL: "https://api.reservoir.tools", APIKey: apiKey, ProxyAPI: "/api/reservoir/ethereum"},
		{ID: 137, Name: "Polygon", RoutePrefix: "polygon", BaseURL: "https://api-polygon.reservoir.tools", APIKey: apiKey, ProxyAPI: "/api/reservoir/polygon"},
		{ID: 10, Name: "Optimism", RoutePrefix: "optimism", BaseURL: "https://api-optimism.reservoir.tools", APIKey: apiKey, ProxyAPI: "/api/reservoir/optimism"},
		{ID: 42161, Name: "Arbitrum", RoutePrefix: "arbitrum", BaseURL: "https://api-arbitrum.reservoir.tools", APIKey: apiKey, ProxyAPI: "/api/reservoir/arbitrum"},
	}
}

// Default returns the default chain.
func (r *Registry) Default() Chain {
	return r.chains[0]
}

// Find resolves a route prefix to a chain, falling back to the default chain
// when the prefix is unknown.
func (r *Registry) Find(routePrefix string) Chain {
	if c, ok := r.Lookup(routePrefix); ok {
		return c
	}

	return r.Default()
}

// Lookup resolves a route prefix to a chain, reporting whether it is known.
func (r *Registry) Lookup(routePrefix string) (Chain, bool) {
	for _, c := range r.chains {
		if strings.EqualFold(c.RoutePrefix, routePrefix) {
			return c, true
		}
	}

	return Chain{}, false
}

// Chains returns a copy of the configured chains.
func (r *Registry) Chains() []Chain {
	return append([]Chain(nil), r.chains...)
}

// FromYAML reads a registry from a YAML representation. Chains that leave api_key
// blank inherit defaultAPIKey.
func FromYAML(reader io.Reader, defaultAPIKey string) (*Registry, error) {
	var ymlRegistry yamlRegistry
	decoder := yaml.NewDecoder(reader)
	if err := decoder.Decode(&ymlRegistry); err != nil {
		return nil, fmt.Errorf("failed to decode chain registry from YAML: %w", err)
	}

	chains := make([]Chain, 0, len(ymlRegistry.Chains))
	for _, ymlChain := range ymlRegistry.Chains {
		apiKey := ymlChain.APIKey
		if apiKey == "" {
			apiKey = defaultAPIKey
		}

		proxyAPI := ymlChain.ProxyAPI
		if proxyAPI == "" {
			proxyAPI = "/api/reservoir/" + ymlChain.RoutePrefix
		}

		chains = append(chains, Chain{
			ID:          ymlChain.ID,
			Name:        ymlChain.Name,
			RoutePrefix: ymlChain.RoutePrefix,
			BaseURL:     strings.TrimRight(ymlChain.BaseURL, "/"),
			APIKey:      apiKey,
			ProxyAPI:    proxyAPI,
		})
	}

	return NewRegistry(chains...)
}

type yamlChain struct {
	ID          int    `yaml:"id"`
	Name        string `yaml:"name"`
	RoutePrefix string `yaml:"route_prefix"`
	BaseURL     string `yaml:"base_url"`
	APIKey      string `yaml:"api_key"`
	ProxyAPI    string `yaml:"proxy_api"`
}

type yamlRegistry struct {
	Chains []yamlChain `yaml:"chains"`
}
