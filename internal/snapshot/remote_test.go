package snapshot_test

import (
	"context"
	"net/http"

	"github.com/jarcoal/httpmock"
	"github.com/jrh3k5/tokenpage/internal/snapshot"
	"github.com/jrh3k5/tokenpage/internal/token"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("RemoteSource", func() {
	const propsURL = "http://tokenpage.local/api/token/ethereum/0xABC/42"

	id := token.Identifier{Chain: "ethereum", CollectionID: "0xABC", TokenID: "42"}

	It("reads the props rendered by the server", func() {
		httpmock.RegisterResponder(
			http.MethodGet,
			propsURL,
			httpmock.NewStringResponder(http.StatusOK, `{"id":"42","collectionId":"0xABC","ssr":{"collection":`+collectionsBody+`,"tokens":`+tokensBody+`}}`),
		)

		result := snapshot.NewRemoteSource(client, "http://tokenpage.local/").Produce(context.Background(), id)
		Expect(result.Props.ID).To(Equal("42"))
		Expect(result.Props.SSR.Collection.First().Name).To(Equal("Apes"))
		Expect(result.Props.SSR.Tokens.First().Token.TokenID).To(Equal("42"))
	})

	It("degrades to empty props when the server is unavailable", func() {
		httpmock.RegisterResponder(http.MethodGet, propsURL, httpmock.NewStringResponder(http.StatusServiceUnavailable, ""))

		result := snapshot.NewRemoteSource(client, "http://tokenpage.local").Produce(context.Background(), id)
		Expect(result.Props.ID).To(Equal("42"))
		Expect(result.Props.CollectionID).To(Equal("0xABC"))
		Expect(result.Props.SSR.Collection.First()).To(BeNil())
		Expect(result.Props.SSR.Tokens.First()).To(BeNil())
	})
})
