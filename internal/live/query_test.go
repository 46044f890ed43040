package live_test

import (
	"context"
	"errors"

	"github.com/jrh3k5/tokenpage/internal/live"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Query", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("serves the seed until the first fetch succeeds", func() {
		fetched := make(chan struct{})
		release := make(chan struct{})
		query := live.NewQuery("a", "seed", func(_ context.Context, key string) (string, error) {
			close(fetched)
			<-release

			return "fresh " + key, nil
		})

		done := make(chan error, 1)
		go func() {
			done <- query.Revalidate(ctx)
		}()

		Eventually(fetched).Should(BeClosed())
		Expect(query.Get()).To(Equal("seed"))

		close(release)
		Eventually(done).Should(Receive(BeNil()))
		Expect(query.Get()).To(Equal("fresh a"))
	})

	It("keeps the last good value when a fetch fails", func() {
		fetchErr := errors.New("upstream down")
		query := live.NewQuery("a", "seed", func(context.Context, string) (string, error) {
			return "", fetchErr
		})

		Expect(query.Revalidate(ctx)).To(MatchError(fetchErr))
		Expect(query.Get()).To(Equal("seed"))
	})

	It("drops a result fetched for a key that has been superseded", func() {
		started := make(chan string, 2)
		releases := map[string]chan struct{}{
			"a": make(chan struct{}),
			"b": make(chan struct{}),
		}
		query := live.NewQuery("a", "", func(_ context.Context, key string) (string, error) {
			started <- key
			<-releases[key]

			return "value " + key, nil
		})

		staleDone := make(chan error, 1)
		go func() {
			staleDone <- query.Revalidate(ctx)
		}()
		Eventually(started).Should(Receive(Equal("a")))

		Expect(query.SetKey("b")).To(BeTrue())
		freshDone := make(chan error, 1)
		go func() {
			freshDone <- query.Revalidate(ctx)
		}()
		Eventually(started).Should(Receive(Equal("b")))

		close(releases["b"])
		Eventually(freshDone).Should(Receive(BeNil()))
		close(releases["a"])
		Eventually(staleDone).Should(Receive(BeNil()))

		Expect(query.Key()).To(Equal("b"))
		Expect(query.Get()).To(Equal("value b"))
	})

	It("keeps the newer value when an older fetch for the same key settles last", func() {
		calls := make(chan chan string, 2)
		query := live.NewQuery("k", "seed", func(context.Context, string) (string, error) {
			reply := make(chan string)
			calls <- reply

			return <-reply, nil
		})

		olderDone := make(chan error, 1)
		go func() {
			olderDone <- query.Revalidate(ctx)
		}()
		var older chan string
		Eventually(calls).Should(Receive(&older))

		newerDone := make(chan error, 1)
		go func() {
			newerDone <- query.Revalidate(ctx)
		}()
		var newer chan string
		Eventually(calls).Should(Receive(&newer))

		newer <- "new"
		Eventually(newerDone).Should(Receive(BeNil()))
		Expect(query.Get()).To(Equal("new"))

		older <- "old"
		Eventually(olderDone).Should(Receive(BeNil()))
		Expect(query.Get()).To(Equal("new"))
	})

	It("applies an older fetch that settles before the newer one", func() {
		calls := make(chan chan string, 2)
		query := live.NewQuery("k", "seed", func(context.Context, string) (string, error) {
			reply := make(chan string)
			calls <- reply

			return <-reply, nil
		})

		olderDone := make(chan error, 1)
		go func() {
			olderDone <- query.Revalidate(ctx)
		}()
		var older chan string
		Eventually(calls).Should(Receive(&older))

		newerDone := make(chan error, 1)
		go func() {
			newerDone <- query.Revalidate(ctx)
		}()
		var newer chan string
		Eventually(calls).Should(Receive(&newer))

		older <- "old"
		Eventually(olderDone).Should(Receive(BeNil()))
		Expect(query.Get()).To(Equal("old"))

		newer <- "new"
		Eventually(newerDone).Should(Receive(BeNil()))
		Expect(query.Get()).To(Equal("new"))
	})

	It("drops a fetch started before the key moved away and back", func() {
		calls := make(chan chan string, 2)
		query := live.NewQuery("a", "", func(context.Context, string) (string, error) {
			reply := make(chan string)
			calls <- reply

			return <-reply, nil
		})

		staleDone := make(chan error, 1)
		go func() {
			staleDone <- query.Revalidate(ctx)
		}()
		var stale chan string
		Eventually(calls).Should(Receive(&stale))

		Expect(query.SetKey("b")).To(BeTrue())
		Expect(query.SetKey("a")).To(BeTrue())

		stale <- "before the switch"
		Eventually(staleDone).Should(Receive(BeNil()))
		Expect(query.Get()).To(BeEmpty())
	})

	It("discards the previous key's value as soon as the key changes", func() {
		query := live.NewQuery("a", "value a", func(context.Context, string) (string, error) {
			return "", errors.New("should not matter")
		})

		var seen []string
		query.Subscribe(func(value string) {
			seen = append(seen, value)
		})

		Expect(query.SetKey("a")).To(BeFalse())
		Expect(query.SetKey("b")).To(BeTrue())
		Expect(query.Get()).To(BeEmpty())
		Expect(seen).To(Equal([]string{""}))
	})

	It("does not fetch while disabled", func() {
		calls := 0
		query := live.NewQuery("", 7, func(context.Context, string) (int, error) {
			calls++

			return 1, nil
		})

		Expect(query.Enabled()).To(BeFalse())
		Expect(query.Revalidate(ctx)).To(Succeed())
		Expect(calls).To(BeZero())
		Expect(query.Get()).To(Equal(7))
	})

	It("notifies subscribers of fetched values", func() {
		query := live.NewQuery("a", 0, func(context.Context, string) (int, error) {
			return 5, nil
		})

		var seen []int
		query.Subscribe(func(value int) {
			seen = append(seen, value)
		})

		Expect(query.Revalidate(ctx)).To(Succeed())
		Expect(seen).To(Equal([]int{5}))
	})
})
