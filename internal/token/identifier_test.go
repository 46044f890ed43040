package token_test

import (
	"github.com/jrh3k5/tokenpage/internal/token"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Identifier", func() {
	It("derives the contract and token reference", func() {
		id, err := token.ParseIdentifier("ethereum", "0xABC:1:100", "42")
		Expect(err).ToNot(HaveOccurred())
		Expect(id.Contract()).To(Equal("0xABC"))
		Expect(id.Ref()).To(Equal("0xABC:42"))
		Expect(id.CollectionID).To(Equal("0xABC:1:100"))
		Expect(id.Key()).To(Equal("ethereum/0xABC:1:100/42"))
	})

	It("accepts a plain contract as the collection", func() {
		id, err := token.ParseIdentifier("polygon", " 0xdef ", "7")
		Expect(err).ToNot(HaveOccurred())
		Expect(id.Contract()).To(Equal("0xdef"))
		Expect(id.Ref()).To(Equal("0xdef:7"))
	})

	DescribeTable("rejects unusable route parameters",
		func(collectionID string, tokenID string) {
			_, err := token.ParseIdentifier("ethereum", collectionID, tokenID)
			Expect(err).To(MatchError(token.ErrInvalidIdentifier))
		},
		Entry("missing collection", "", "1"),
		Entry("collection without contract", ":1:100", "1"),
		Entry("missing token", "0xabc", ""),
		Entry("token with a separator", "0xabc", "1:2"),
	)
})
