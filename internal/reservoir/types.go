package reservoir

import "strings"

const (
	KindERC721  = "erc721"
	KindERC1155 = "erc1155"
)

// CollectionsResponse is the payload of the collections endpoint. The zero value
// marshals to an empty object and is a valid, render-safe snapshot.
type CollectionsResponse struct {
	Collections  []Collection `json:"collections,omitempty"`
	Continuation string       `json:"continuation,omitempty"`
}

// First returns the first collection, or nil when there is none.
func (r *CollectionsResponse) First() *Collection {
	if r == nil || len(r.Collections) == 0 {
		return nil
	}

	return &r.Collections[0]
}

type Collection struct {
	ID                        string     `json:"id,omitempty"`
	Slug                      string     `json:"slug,omitempty"`
	Name                      string     `json:"name,omitempty"`
	Image                     string     `json:"image,omitempty"`
	Banner                    string     `json:"banner,omitempty"`
	Description               string     `json:"description,omitempty"`
	TokenCount                string     `json:"tokenCount,omitempty"`
	OpenseaVerificationStatus string     `json:"openseaVerificationStatus,omitempty"`
	Royalties                 *Royalties `json:"royalties,omitempty"`
	FloorAsk                  *Order     `json:"floorAsk,omitempty"`
	TopBid                    *Order     `json:"topBid,omitempty"`
	PrimaryContract           string     `json:"primaryContract,omitempty"`
	CollectionBidSupported    bool       `json:"collectionBidSupported,omitempty"`
	OwnerCount                int64      `json:"ownerCount,omitempty"`
	Volume                    *Volume    `json:"volume,omitempty"`
	ContractKind              string     `json:"contractKind,omitempty"`
}

// IsVerified reports whether the collection carries OpenSea's verified status.
func (c *Collection) IsVerified() bool {
	return c != nil && c.OpenseaVerificationStatus == "verified"
}

type Royalties struct {
	Recipient string `json:"recipient,omitempty"`
	BPS       int64  `json:"bps,omitempty"`
}

type Volume struct {
	OneDay    float64 `json:"1day,omitempty"`
	SevenDay  float64 `json:"7day,omitempty"`
	ThirtyDay float64 `json:"30day,omitempty"`
	AllTime   float64 `json:"allTime,omitempty"`
}

// TokensResponse is the payload of the tokens endpoint. The zero value marshals to
// an empty object and is a valid, render-safe snapshot.
type TokensResponse struct {
	Tokens       []TokenDetails `json:"tokens,omitempty"`
	Continuation string         `json:"continuation,omitempty"`
}

// First returns the first token entry, or nil when there is none.
func (r *TokensResponse) First() *TokenDetails {
	if r == nil || len(r.Tokens) == 0 {
		return nil
	}

	return &r.Tokens[0]
}

type TokenDetails struct {
	Token  *Token  `json:"token,omitempty"`
	Market *Market `json:"market,omitempty"`
}

type Token struct {
	Contract    string           `json:"contract,omitempty"`
	TokenID     string           `json:"tokenId,omitempty"`
	Name        string           `json:"name,omitempty"`
	Description string           `json:"description,omitempty"`
	Image       string           `json:"image,omitempty"`
	Media       string           `json:"media,omitempty"`
	Kind        string           `json:"kind,omitempty"`
	IsFlagged   bool             `json:"isFlagged,omitempty"`
	Rarity      float64          `json:"rarity,omitempty"`
	RarityRank  int64            `json:"rarityRank,omitempty"`
	Supply      string           `json:"supply,omitempty"`
	Owner       string           `json:"owner,omitempty"`
	Collection  *TokenCollection `json:"collection,omitempty"`
	Attributes  []Attribute      `json:"attributes,omitempty"`
}

// IsMultiUnit reports whether one owner may hold several units of the token.
func (t *Token) IsMultiUnit() bool {
	return t != nil && strings.EqualFold(t.Kind, KindERC1155)
}

type TokenCollection struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Image string `json:"image,omitempty"`
	Slug  string `json:"slug,omitempty"`
}

type Attribute struct {
	Key           string   `json:"key,omitempty"`
	Kind          string   `json:"kind,omitempty"`
	Value         string   `json:"value,omitempty"`
	TokenCount    int64    `json:"tokenCount,omitempty"`
	OnSaleCount   int64    `json:"onSaleCount,omitempty"`
	FloorAskPrice *float64 `json:"floorAskPrice,omitempty"`
	TopBidValue   *float64 `json:"topBidValue,omitempty"`
}

type Market struct {
	FloorAsk *Order `json:"floorAsk,omitempty"`
	TopBid   *Order `json:"topBid,omitempty"`
}

type Order struct {
	ID         string  `json:"id,omitempty"`
	Price      *Price  `json:"price,omitempty"`
	Maker      string  `json:"maker,omitempty"`
	ValidFrom  int64   `json:"validFrom,omitempty"`
	ValidUntil int64   `json:"validUntil,omitempty"`
	Source     *Source `json:"source,omitempty"`
}

type Price struct {
	Currency *Currency `json:"currency,omitempty"`
	Amount   *Amount   `json:"amount,omitempty"`
}

type Currency struct {
	Contract string `json:"contract,omitempty"`
	Name     string `json:"name,omitempty"`
	Symbol   string `json:"symbol,omitempty"`
	Decimals int    `json:"decimals,omitempty"`
}

type Amount struct {
	Raw     string  `json:"raw,omitempty"`
	Decimal float64 `json:"decimal,omitempty"`
	USD     float64 `json:"usd,omitempty"`
	Native  float64 `json:"native,omitempty"`
}

type Source struct {
	ID     string `json:"id,omitempty"`
	Domain string `json:"domain,omitempty"`
	Name   string `json:"name,omitempty"`
	Icon   string `json:"icon,omitempty"`
	URL    string `json:"url,omitempty"`
}

// AttributesResponse is the payload of the collection attributes endpoint.
type AttributesResponse struct {
	Attributes []CollectionAttribute `json:"attributes,omitempty"`
}

type CollectionAttribute struct {
	Key            string           `json:"key,omitempty"`
	AttributeCount int64            `json:"attributeCount,omitempty"`
	Kind           string           `json:"kind,omitempty"`
	Values         []AttributeValue `json:"values,omitempty"`
}

type AttributeValue struct {
	Value         string   `json:"value,omitempty"`
	Count         int64    `json:"count,omitempty"`
	FloorAskPrice *float64 `json:"floorAskPrice,omitempty"`
}

// UserTokensResponse is the payload of the per-wallet holdings endpoint.
type UserTokensResponse struct {
	Tokens       []UserToken `json:"tokens,omitempty"`
	Continuation string      `json:"continuation,omitempty"`
}

type UserToken struct {
	Token     *Token     `json:"token,omitempty"`
	Ownership *Ownership `json:"ownership,omitempty"`
}

type Ownership struct {
	TokenCount  string `json:"tokenCount,omitempty"`
	OnSaleCount string `json:"onSaleCount,omitempty"`
	AcquiredAt  string `json:"acquiredAt,omitempty"`
}
