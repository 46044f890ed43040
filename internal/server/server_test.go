package server_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/jarcoal/httpmock"
	"github.com/jrh3k5/tokenpage/internal/chain"
	"github.com/jrh3k5/tokenpage/internal/reservoir"
	"github.com/jrh3k5/tokenpage/internal/server"
	"github.com/jrh3k5/tokenpage/internal/snapshot"
	"github.com/jrh3k5/tokenpage/internal/token"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const ethBaseURL = "https://eth.example.local"

type staleRecorder struct {
	*snapshot.Store
	marked []token.Identifier
}

func (s *staleRecorder) MarkStale(id token.Identifier) {
	s.marked = append(s.marked, id)
	s.Store.MarkStale(id)
}

var _ = Describe("Server", func() {
	var (
		store   *staleRecorder
		handler http.Handler
	)

	BeforeEach(func() {
		registry, err := chain.NewRegistry(
			chain.Chain{ID: 1, Name: "Ethereum", RoutePrefix: "ethereum", BaseURL: ethBaseURL, APIKey: "eth-key", ProxyAPI: "/api/reservoir/ethereum"},
		)
		Expect(err).ToNot(HaveOccurred())

		producer := snapshot.NewProducer(registry, func(c chain.Chain) reservoir.Gateway {
			return reservoir.NewClient(client, c.BaseURL, c.APIKey)
		}, reservoir.QueryOptions{}, 20)

		snapshots, err := snapshot.NewStore(producer, 16)
		Expect(err).ToNot(HaveOccurred())
		DeferCleanup(snapshots.Wait)

		store = &staleRecorder{Store: snapshots}
		handler = server.NewServer(registry, store, client).Handler()
	})

	serve := func(method string, target string, body string) *httptest.ResponseRecorder {
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}

		req := httptest.NewRequest(method, target, reader).WithContext(context.Background())
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		return recorder
	}

	It("reports health", func() {
		resp := serve(http.MethodGet, "/health", "")

		Expect(resp.Code).To(Equal(http.StatusOK))
		Expect(resp.Body.String()).To(MatchJSON(`{"status":"ok"}`))
	})

	It("exposes metrics", func() {
		serve(http.MethodGet, "/health", "")

		resp := serve(http.MethodGet, "/metrics", "")
		Expect(resp.Code).To(Equal(http.StatusOK))
		Expect(resp.Body.String()).To(ContainSubstring("tokenpage_http_requests_total"))
	})

	Context("token snapshots", func() {
		It("generates an unseen token before responding", func() {
			httpmock.RegisterResponder(http.MethodGet, ethBaseURL+"/collections/v5",
				httpmock.NewStringResponder(http.StatusOK, `{"collections":[{"id":"0xABC","name":"Apes"}]}`))
			httpmock.RegisterResponder(http.MethodGet, ethBaseURL+"/tokens/v5",
				httpmock.NewStringResponder(http.StatusOK, `{"tokens":[{"token":{"contract":"0xABC","tokenId":"42"}}]}`))

			resp := serve(http.MethodGet, "/api/token/ethereum/0xABC/42", "")

			Expect(resp.Code).To(Equal(http.StatusOK))
			Expect(resp.Header().Get("Cache-Control")).To(Equal("s-maxage=20, stale-while-revalidate"))
			Expect(resp.Body.String()).To(MatchJSON(`{
				"id": "42",
				"collectionId": "0xABC",
				"ssr": {
					"collection": {"collections": [{"id": "0xABC", "name": "Apes"}]},
					"tokens": {"tokens": [{"token": {"contract": "0xABC", "tokenId": "42"}}]}
				}
			}`))
		})

		It("serves the cached snapshot on later requests", func() {
			httpmock.RegisterResponder(http.MethodGet, ethBaseURL+"/collections/v5", httpmock.NewStringResponder(http.StatusOK, `{}`))
			httpmock.RegisterResponder(http.MethodGet, ethBaseURL+"/tokens/v5", httpmock.NewStringResponder(http.StatusOK, `{}`))

			Expect(serve(http.MethodGet, "/api/token/ethereum/0xABC/42", "").Code).To(Equal(http.StatusOK))
			Expect(serve(http.MethodGet, "/api/token/ethereum/0xABC/42", "").Code).To(Equal(http.StatusOK))

			Expect(httpmock.GetTotalCallCount()).To(Equal(2))
		})

		It("still renders when the upstream is down", func() {
			httpmock.RegisterNoResponder(httpmock.NewStringResponder(http.StatusInternalServerError, ""))

			resp := serve(http.MethodGet, "/api/token/ethereum/0xABC/42", "")

			Expect(resp.Code).To(Equal(http.StatusOK))
			Expect(resp.Body.String()).To(MatchJSON(`{"id":"42","collectionId":"0xABC","ssr":{"collection":{},"tokens":{}}}`))
		})

		It("rejects an identifier without a contract", func() {
			resp := serve(http.MethodGet, "/api/token/ethereum/:1/42", "")

			Expect(resp.Code).To(Equal(http.StatusBadRequest))
			Expect(httpmock.GetTotalCallCount()).To(BeZero())
		})
	})

	Context("refresh proxy", func() {
		It("forwards the refresh with the chain's API key and marks the snapshot stale", func() {
			httpmock.RegisterResponder(http.MethodPost, ethBaseURL+"/tokens/refresh/v1", func(req *http.Request) (*http.Response, error) {
				Expect(req.Header.Get("x-api-key")).To(Equal("eth-key"))

				body, err := io.ReadAll(req.Body)
				Expect(err).ToNot(HaveOccurred())
				Expect(body).To(MatchJSON(`{"token":"0xABC:42"}`))

				return httpmock.NewStringResponse(http.StatusOK, `{}`), nil
			})

			resp := serve(http.MethodPost, "/api/reservoir/ethereum/tokens/refresh/v1", `{"token":"0xABC:42"}`)

			Expect(resp.Code).To(Equal(http.StatusOK))
			Expect(store.marked).To(Equal([]token.Identifier{{Chain: "ethereum", CollectionID: "0xABC", TokenID: "42"}}))
		})

		It("relays an upstream rejection", func() {
			httpmock.RegisterResponder(http.MethodPost, ethBaseURL+"/tokens/refresh/v1",
				httpmock.NewStringResponder(http.StatusTooManyRequests, `{"message":"slow down"}`))

			resp := serve(http.MethodPost, "/api/reservoir/ethereum/tokens/refresh/v1", `{"token":"0xABC:42"}`)

			Expect(resp.Code).To(Equal(http.StatusTooManyRequests))
			Expect(store.marked).To(BeEmpty())
		})

		DescribeTable("maps upstream statuses that are not the caller's to a bad gateway",
			func(upstream int) {
				httpmock.RegisterResponder(http.MethodPost, ethBaseURL+"/tokens/refresh/v1",
					httpmock.NewStringResponder(upstream, ""))

				resp := serve(http.MethodPost, "/api/reservoir/ethereum/tokens/refresh/v1", `{"token":"0xABC:42"}`)

				Expect(resp.Code).To(Equal(http.StatusBadGateway))
				Expect(resp.Body.String()).To(MatchJSON(`{"error":"refresh request failed"}`))
				Expect(store.marked).To(BeEmpty())
			},
			Entry("no content", http.StatusNoContent),
			Entry("not modified", http.StatusNotModified),
			Entry("rejected API key", http.StatusUnauthorized),
			Entry("forbidden API key", http.StatusForbidden),
			Entry("upstream outage", http.StatusServiceUnavailable),
		)

		It("reports a network failure as a bad gateway", func() {
			httpmock.RegisterResponder(http.MethodPost, ethBaseURL+"/tokens/refresh/v1", httpmock.NewErrorResponder(io.ErrUnexpectedEOF))

			resp := serve(http.MethodPost, "/api/reservoir/ethereum/tokens/refresh/v1", `{"token":"0xABC:42"}`)

			Expect(resp.Code).To(Equal(http.StatusBadGateway))
		})

		DescribeTable("rejects bad requests",
			func(target string, body string, status int) {
				Expect(serve(http.MethodPost, target, body).Code).To(Equal(status))
				Expect(httpmock.GetTotalCallCount()).To(BeZero())
			},
			Entry("unknown chain", "/api/reservoir/solana/tokens/refresh/v1", `{"token":"0xABC:42"}`, http.StatusNotFound),
			Entry("malformed body", "/api/reservoir/ethereum/tokens/refresh/v1", `{"token":`, http.StatusBadRequest),
			Entry("missing token", "/api/reservoir/ethereum/tokens/refresh/v1", `{}`, http.StatusBadRequest),
			Entry("unqualified token", "/api/reservoir/ethereum/tokens/refresh/v1", `{"token":"42"}`, http.StatusBadRequest),
		)
	})
})
