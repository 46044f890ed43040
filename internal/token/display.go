package token

import (
	"github.com/jrh3k5/tokenpage/internal/reservoir"
)

// Name returns the token's display name, falling back to "#<tokenId>". tokenID is used
// when the token record is missing or carries no ID of its own.
func Name(t *reservoir.Token, tokenID string) string {
	if t != nil && t.Name != "" {
		return t.Name
	}

	if t != nil && t.TokenID != "" {
		tokenID = t.TokenID
	}

	return "#" + tokenID
}

// PageTitle returns the document title: the token name, else "<tokenId> - <collection name>".
func PageTitle(t *reservoir.Token) string {
	if t == nil {
		return ""
	}

	if t.Name != "" {
		return t.Name
	}

	collectionName := ""
	if t.Collection != nil {
		collectionName = t.Collection.Name
	}

	return t.TokenID + " - " + collectionName
}

// Image returns the share image: the token image, else the collection banner, else "".
func Image(t *reservoir.Token, c *reservoir.Collection) string {
	if t != nil && t.Image != "" {
		return t.Image
	}

	if c != nil {
		return c.Banner
	}

	return ""
}

// Description returns the page description taken from the collection, else "".
func Description(c *reservoir.Collection) string {
	if c == nil {
		return ""
	}

	return c.Description
}

// RecordedOwner returns the owner recorded on the token, else "".
func RecordedOwner(t *reservoir.Token) string {
	if t == nil {
		return ""
	}

	return t.Owner
}

// Attributes returns the token's attributes, never nil.
func Attributes(t *reservoir.Token) []reservoir.Attribute {
	if t == nil || t.Attributes == nil {
		return []reservoir.Attribute{}
	}

	return t.Attributes
}

// HasAttributes reports whether the token carries at least one attribute.
func HasAttributes(t *reservoir.Token) bool {
	return len(Attributes(t)) > 0
}

// CollectionName returns the collection's name, else "".
func CollectionName(c *reservoir.Collection) string {
	if c == nil {
		return ""
	}

	return c.Name
}

// CollectionPath returns the storefront path of the collection page for the chain.
func CollectionPath(chain string, c *reservoir.Collection) string {
	id := ""
	if c != nil {
		id = c.ID
	}

	return "/collection/" + chain + "/" + id
}
