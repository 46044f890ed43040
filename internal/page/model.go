package page

import (
	"fmt"
	"strconv"

	tpbig "github.com/jrh3k5/tokenpage/internal/big"
	"github.com/jrh3k5/tokenpage/internal/opensea"
	"github.com/jrh3k5/tokenpage/internal/ownership"
	"github.com/jrh3k5/tokenpage/internal/refresh"
	"github.com/jrh3k5/tokenpage/internal/reservoir"
	"github.com/jrh3k5/tokenpage/internal/token"
	"github.com/jrh3k5/tokenpage/internal/viewstate"
)

const (
	// NoPrice is shown in place of a missing price.
	NoPrice = "-"
	// FlaggedText explains the flag shown next to a banned token.
	FlaggedText = "Not tradeable on OpenSea"
	// PortfolioPath is where a holder of a multi-unit token goes to sell it.
	PortfolioPath = "/portfolio"
)

// Input is everything the token page is rendered from.
type Input struct {
	ID         token.Identifier
	Collection *reservoir.Collection
	Details    *reservoir.TokenDetails
	Attributes *reservoir.AttributesResponse
	Ownership  ownership.Fact
	// OwnerDisplay is the resolved owner name, "" until it is known and the view is mounted.
	OwnerDisplay string
	BanStatus    opensea.BanStatus
	Mounted      bool
	SmallDevice  bool
	Tabs         []viewstate.Tab
	ActiveTab    viewstate.Tab
	Refresh      refresh.ButtonState
}

// AttributeCard is one trait of the token.
type AttributeCard struct {
	Key        string
	Value      string
	TokenCount int64
	// Percent is the share of the collection holding this trait, formatted like "1.25%".
	Percent string
	Floor   string
}

// Model is the render-ready token page.
type Model struct {
	Title       string
	Description string
	Image       string

	TokenName      string
	CollectionName string
	CollectionPath string
	Verified       bool
	Flagged        bool
	FlaggedText    string

	MultiUnit    bool
	CountOwned   int64
	IsOwner      bool
	OwnedText    string
	SellPath     string
	ShowOwner    bool
	OwnerDisplay string
	OwnerPath    string

	Rarity   string
	FloorAsk string
	TopBid   string

	ShowActions      bool
	Refresh          refresh.ButtonState
	Tabs             []viewstate.Tab
	ActiveTab        viewstate.Tab
	SmallDevice      bool
	AttributesInline bool
	Attributes       []AttributeCard
}

// Build derives the page model. It never fails; missing data falls back to empty values.
func Build(in Input) Model {
	var t *reservoir.Token
	var market *reservoir.Market
	if in.Details != nil {
		t = in.Details.Token
		market = in.Details.Market
	}

	collectionTokenCount := collectionTokenCount(in.Collection)

	m := Model{
		Title:          token.PageTitle(t),
		Description:    token.Description(in.Collection),
		Image:          token.Image(t, in.Collection),
		TokenName:      token.Name(t, in.ID.TokenID),
		CollectionName: token.CollectionName(in.Collection),
		CollectionPath: token.CollectionPath(in.ID.Chain, in.Collection),
		Verified:       in.Collection.IsVerified(),
		Flagged:        in.BanStatus.Flagged(),
		MultiUnit:      t.IsMultiUnit(),
		CountOwned:     in.Ownership.CountOwned(),
		IsOwner:        in.Ownership.IsOwner(),
		Rarity:         RarityText(t, collectionTokenCount),
		ShowActions:    in.Mounted,
		Refresh:        in.Refresh,
		Tabs:           in.Tabs,
		ActiveTab:      in.ActiveTab,
		SmallDevice:    in.SmallDevice,
		FloorAsk:       NoPrice,
		TopBid:         NoPrice,
	}

	if m.Flagged {
		m.FlaggedText = FlaggedText
	}

	if len(m.Tabs) == 0 {
		m.Tabs = []viewstate.Tab{viewstate.TabInfo}
	}
	if m.ActiveTab == "" {
		m.ActiveTab = viewstate.TabInfo
	}

	if t != nil {
		if m.MultiUnit && m.CountOwned > 0 {
			m.OwnedText = fmt.Sprintf("You own %d", m.CountOwned)
			m.SellPath = PortfolioPath
		}

		if !m.MultiUnit {
			m.ShowOwner = true
			m.OwnerPath = ownership.ProfilePath(in.Ownership.EffectiveOwner())
			if in.Mounted {
				m.OwnerDisplay = in.OwnerDisplay
			}
		}
	}

	if market != nil {
		m.FloorAsk = PriceText(market.FloorAsk)
		m.TopBid = PriceText(market.TopBid)
	}

	m.Attributes = attributeCards(t, in.Attributes, collectionTokenCount)
	m.AttributesInline = !m.SmallDevice && token.HasAttributes(t)

	return m
}

func collectionTokenCount(c *reservoir.Collection) int64 {
	if c == nil {
		return 0
	}

	count, err := tpbig.CountFromString(c.TokenCount)
	if err != nil {
		return 0
	}

	return count
}

// RarityText renders the token's rarity rank against the collection size, or "" when
// either is unknown.
func RarityText(t *reservoir.Token, collectionTokenCount int64) string {
	if t == nil || t.RarityRank <= 0 || collectionTokenCount <= 0 {
		return ""
	}

	return fmt.Sprintf("Rarity rank: %d / %d", t.RarityRank, collectionTokenCount)
}

// PriceText renders an order's price as "<amount> <symbol>", or NoPrice when absent.
func PriceText(order *reservoir.Order) string {
	if order == nil || order.Price == nil || order.Price.Amount == nil {
		return NoPrice
	}

	amount := formatAmount(order.Price.Amount.Decimal)
	if order.Price.Currency == nil || order.Price.Currency.Symbol == "" {
		return amount
	}

	return amount + " " + order.Price.Currency.Symbol
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}

// Percent renders count as a share of total, "0%" when total is unknown.
func Percent(count int64, total int64) string {
	if total <= 0 || count <= 0 {
		return "0%"
	}

	return strconv.FormatFloat(float64(count)*100/float64(total), 'f', 2, 64) + "%"
}

func attributeCards(t *reservoir.Token, aggregates *reservoir.AttributesResponse, total int64) []AttributeCard {
	attributes := token.Attributes(t)
	cards := make([]AttributeCard, 0, len(attributes))
	for _, attribute := range attributes {
		count := attribute.TokenCount
		floor := attribute.FloorAskPrice
		if aggregate := findAggregate(aggregates, attribute.Key, attribute.Value); aggregate != nil {
			if count <= 0 {
				count = aggregate.Count
			}
			if floor == nil {
				floor = aggregate.FloorAskPrice
			}
		}

		card := AttributeCard{
			Key:        attribute.Key,
			Value:      attribute.Value,
			TokenCount: count,
			Percent:    Percent(count, total),
			Floor:      NoPrice,
		}
		if floor != nil {
			card.Floor = formatAmount(*floor)
		}

		cards = append(cards, card)
	}

	return cards
}

func findAggregate(aggregates *reservoir.AttributesResponse, key string, value string) *reservoir.AttributeValue {
	if aggregates == nil {
		return nil
	}

	for i := range aggregates.Attributes {
		if aggregates.Attributes[i].Key != key {
			continue
		}

		for j := range aggregates.Attributes[i].Values {
			if aggregates.Attributes[i].Values[j].Value == value {
				return &aggregates.Attributes[i].Values[j]
			}
		}
	}

	return nil
}
