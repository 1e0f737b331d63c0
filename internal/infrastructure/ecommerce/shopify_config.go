package ecommerce

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultShopifyAPIVersion is the Admin API version used when none is configured
const DefaultShopifyAPIVersion = "2025-01"

// ShopifyConfig holds configuration for the Shopify Admin GraphQL API
type ShopifyConfig struct {
	// ShopDomain is the myshopify.com domain of the shop
	ShopDomain string
	// AccessToken is the Admin API access token
	AccessToken string
	// APIVersion is the Admin API version, e.g. 2025-01
	APIVersion string
	// Endpoint overrides the GraphQL URL derived from ShopDomain
	Endpoint string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

// Errors for Shopify configuration
var (
	ErrShopifyConfigMissingShop  = errors.New("shopify: shop domain or endpoint is required")
	ErrShopifyConfigMissingToken = errors.New("shopify: access token is required")
)

// Validate validates the configuration and fills defaults
func (c *ShopifyConfig) Validate() error {
	if c.ShopDomain == "" && c.Endpoint == "" {
		return ErrShopifyConfigMissingShop
	}
	if c.AccessToken == "" {
		return ErrShopifyConfigMissingToken
	}
	if c.APIVersion == "" {
		c.APIVersion = DefaultShopifyAPIVersion
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}

// GraphQLURL returns the Admin GraphQL endpoint
func (c *ShopifyConfig) GraphQLURL() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	domain := strings.TrimPrefix(strings.TrimPrefix(c.ShopDomain, "https://"), "http://")
	domain = strings.TrimSuffix(domain, "/")
	return fmt.Sprintf("https://%s/admin/api/%s/graphql.json", domain, c.APIVersion)
}
