package ecommerce

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// graphQLRequest is the JSON body sent to the Admin API
type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphQLResponse is the envelope of every Admin API answer
type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type shopifyUserError struct {
	Field   []string `json:"field,omitempty"`
	Message string   `json:"message"`
}

type shopifyVariant struct {
	ID      string          `json:"id"`
	Title   string          `json:"title"`
	SKU     string          `json:"sku"`
	Price   decimal.Decimal `json:"price"`
	Product struct {
		Title string `json:"title"`
	} `json:"product"`
}

type shopifyPageInfo struct {
	HasNextPage     bool   `json:"hasNextPage"`
	HasPreviousPage bool   `json:"hasPreviousPage"`
	StartCursor     string `json:"startCursor"`
	EndCursor       string `json:"endCursor"`
}

type variantSearchData struct {
	Products struct {
		Edges []struct {
			Node struct {
				Variants struct {
					Edges []struct {
						Node shopifyVariant `json:"node"`
					} `json:"edges"`
				} `json:"variants"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"products"`
}

type locationsData struct {
	Locations struct {
		Nodes []struct {
			ID string `json:"id"`
		} `json:"nodes"`
	} `json:"locations"`
}

type productSetData struct {
	ProductSet struct {
		Product *struct {
			ID       string `json:"id"`
			Variants struct {
				Nodes []shopifyVariant `json:"nodes"`
			} `json:"variants"`
		} `json:"product"`
		UserErrors []shopifyUserError `json:"userErrors"`
	} `json:"productSet"`
}

type inventoryQuantity struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type inventoryListData struct {
	Products struct {
		PageInfo shopifyPageInfo `json:"pageInfo"`
		Edges    []struct {
			Node struct {
				Title         string `json:"title"`
				FeaturedImage *struct {
					URL string `json:"url"`
				} `json:"featuredImage"`
				Variants struct {
					Edges []struct {
						Node struct {
							ID            string `json:"id"`
							SKU           string `json:"sku"`
							InventoryItem *struct {
								ID              string `json:"id"`
								InventoryLevels struct {
									Edges []struct {
										Node struct {
											Location struct {
												ID string `json:"id"`
											} `json:"location"`
											Quantities []inventoryQuantity `json:"quantities"`
										} `json:"node"`
									} `json:"edges"`
								} `json:"inventoryLevels"`
							} `json:"inventoryItem"`
						} `json:"node"`
					} `json:"edges"`
				} `json:"variants"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"products"`
}

type inventoryAdjustData struct {
	InventoryAdjustQuantities struct {
		UserErrors []shopifyUserError `json:"userErrors"`
	} `json:"inventoryAdjustQuantities"`
}
