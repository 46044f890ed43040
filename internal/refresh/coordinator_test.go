package refresh_test

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/jarcoal/httpmock"
	"github.com/jrh3k5/tokenpage/internal/notify"
	"github.com/jrh3k5/tokenpage/internal/refresh"
	"github.com/jrh3k5/tokenpage/internal/reservoir"
	"github.com/jrh3k5/tokenpage/internal/token"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const (
	proxyBaseURL = "https://tokens.example.local/api/reservoir/ethereum"
	refreshURL   = proxyBaseURL + "/tokens/refresh/v1"
)

type countingMutator struct {
	calls int
	err   error
}

func (m *countingMutator) Mutate(context.Context) error {
	m.calls++

	return m.err
}

var _ = Describe("Coordinator", func() {
	var (
		ctx         context.Context
		id          token.Identifier
		recorder    *notify.Recorder
		mutator     *countingMutator
		coordinator *refresh.Coordinator
	)

	BeforeEach(func() {
		ctx = context.Background()
		id = token.Identifier{Chain: "ethereum", CollectionID: "0xabc", TokenID: "42"}
		recorder = &notify.Recorder{}
		mutator = &countingMutator{}
		coordinator = refresh.NewCoordinator(id, reservoir.NewClient(client, proxyBaseURL, ""), mutator, recorder)
	})

	It("posts the token reference and notifies acceptance", func() {
		httpmock.RegisterResponder(http.MethodPost, refreshURL, func(req *http.Request) (*http.Response, error) {
			Expect(req.Header.Get("Content-Type")).To(Equal("application/json"))
			Expect(req.Header.Get("x-api-key")).To(BeEmpty())

			body, err := io.ReadAll(req.Body)
			Expect(err).ToNot(HaveOccurred())
			Expect(body).To(MatchJSON(`{"token":"0xabc:42"}`))

			return httpmock.NewStringResponse(http.StatusOK, `{}`), nil
		})

		Expect(coordinator.Refresh(ctx)).To(Succeed())
		Expect(coordinator.State()).To(Equal(refresh.StateIdle))
		Expect(recorder.Toasts()).To(Equal([]notify.Toast{refresh.AcceptedToast}))
	})

	It("treats any non-200 status as a failure", func() {
		httpmock.RegisterResponder(http.MethodPost, refreshURL, httpmock.NewStringResponder(http.StatusAccepted, `{}`))

		err := coordinator.Refresh(ctx)
		Expect(err).To(MatchError(refresh.ErrRequestFailed))
		Expect(err).To(MatchError(reservoir.ErrUnexpectedStatus))
		Expect(coordinator.InFlight()).To(BeFalse())
		Expect(recorder.Toasts()).To(Equal([]notify.Toast{refresh.FailedToast}))
	})

	It("treats a network failure as a failure and returns the cause", func() {
		cause := errors.New("connection reset")
		httpmock.RegisterResponder(http.MethodPost, refreshURL, httpmock.NewErrorResponder(cause))

		err := coordinator.Refresh(ctx)
		Expect(err).To(MatchError(refresh.ErrRequestFailed))
		Expect(errors.Is(err, cause)).To(BeTrue())
		Expect(coordinator.Button()).To(Equal(refresh.ButtonState{Cursor: "pointer"}))
		Expect(recorder.Toasts()).To(Equal([]notify.Toast{refresh.FailedToast}))
	})

	It("issues exactly one request for two rapid clicks", func() {
		started := make(chan struct{})
		release := make(chan struct{})
		httpmock.RegisterResponder(http.MethodPost, refreshURL, func(*http.Request) (*http.Response, error) {
			close(started)
			<-release

			return httpmock.NewStringResponse(http.StatusOK, `{}`), nil
		})

		first := make(chan error, 1)
		go func() {
			first <- coordinator.Refresh(ctx)
		}()
		Eventually(started).Should(BeClosed())

		inFlightButton := coordinator.Button()
		Expect(inFlightButton).To(Equal(refresh.ButtonState{Disabled: true, Cursor: "not-allowed", Spinning: true}))

		Expect(coordinator.Refresh(ctx)).To(MatchError(refresh.ErrInFlight))
		Expect(coordinator.State()).To(Equal(refresh.StateInFlight))
		Expect(coordinator.Button()).To(Equal(inFlightButton))
		Expect(recorder.Toasts()).To(BeEmpty())

		close(release)
		Eventually(first).Should(Receive(BeNil()))

		Expect(httpmock.GetCallCountInfo()["POST "+refreshURL]).To(Equal(1))
		Expect(recorder.Toasts()).To(Equal([]notify.Toast{refresh.AcceptedToast}))
		Expect(coordinator.State()).To(Equal(refresh.StateIdle))
	})

	It("allows another refresh once the previous one settled", func() {
		httpmock.RegisterResponder(http.MethodPost, refreshURL, httpmock.NewStringResponder(http.StatusOK, `{}`))

		Expect(coordinator.Refresh(ctx)).To(Succeed())
		Expect(coordinator.Refresh(ctx)).To(Succeed())
		Expect(httpmock.GetTotalCallCount()).To(Equal(2))
	})

	Context("RefreshMedia", func() {
		It("mutates the live data and notifies independently of Refresh", func() {
			httpmock.RegisterResponder(http.MethodPost, refreshURL, httpmock.NewStringResponder(http.StatusOK, `{}`))

			Expect(coordinator.RefreshMedia(ctx)).To(Succeed())
			Expect(coordinator.Refresh(ctx)).To(Succeed())

			Expect(mutator.calls).To(Equal(1))
			Expect(recorder.Toasts()).To(Equal([]notify.Toast{refresh.AcceptedToast, refresh.AcceptedToast}))
		})

		It("returns the mutate failure after notifying", func() {
			mutator.err = errors.New("upstream down")

			Expect(coordinator.RefreshMedia(ctx)).To(MatchError(ContainSubstring("upstream down")))
			Expect(recorder.Toasts()).To(HaveLen(1))
		})
	})
})
