package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jrh3k5/tokenpage/internal/chain"
	"github.com/jrh3k5/tokenpage/internal/config"
	"github.com/jrh3k5/tokenpage/internal/ens"
	"github.com/jrh3k5/tokenpage/internal/live"
	"github.com/jrh3k5/tokenpage/internal/notify"
	"github.com/jrh3k5/tokenpage/internal/opensea"
	"github.com/jrh3k5/tokenpage/internal/ownership"
	"github.com/jrh3k5/tokenpage/internal/page"
	"github.com/jrh3k5/tokenpage/internal/refresh"
	"github.com/jrh3k5/tokenpage/internal/reservoir"
	"github.com/jrh3k5/tokenpage/internal/snapshot"
	"github.com/jrh3k5/tokenpage/internal/token"
	"github.com/jrh3k5/tokenpage/internal/viewstate"
	"github.com/manifoldco/promptui"
)

const (
	defaultWidth = 1280
	// ownerNameWait bounds how long a render waits for the owner's name before showing
	// the page without it.
	ownerNameWait = 2 * time.Second
)

const (
	actionInfoTab       = "Show info"
	actionAttributesTab = "Show attributes"
	actionRefresh       = "Refresh metadata"
	actionRefreshMedia  = "Refresh media"
	actionAccount       = "Switch account"
	actionResize        = "Resize viewport"
	actionQuit          = "Quit"
)

var errUserCanceled = errors.New("user canceled operation")

type viewer struct {
	out         io.Writer
	id          token.Identifier
	data        *live.Synchronizer
	identity    *ownership.Identity
	controller  *viewstate.Controller
	coordinator *refresh.Coordinator
	width       int
	stale       atomic.Bool
}

func runView(ctx context.Context, cfg *config.Config, registry *chain.Registry, httpClient *http.Client) error {
	chainPrefix := getArg("--chain=", registry.Default().RoutePrefix)
	id, err := token.ParseIdentifier(chainPrefix, getArg("--contract=", ""), getArg("--id=", ""))
	if err != nil {
		return fmt.Errorf("--contract and --id must identify a token: %w", err)
	}

	width, err := strconv.Atoi(getArg("--width=", strconv.Itoa(defaultWidth)))
	if err != nil {
		return fmt.Errorf("failed to parse --width: %w", err)
	}

	account := strings.TrimSpace(getArg("--account=", ""))
	if err := validateAccount(account); err != nil {
		return fmt.Errorf("invalid --account '%s': %w", account, err)
	}

	var initialTab viewstate.Tab
	if tabName := getArg("--tab=", ""); tabName != "" {
		if initialTab, err = viewstate.ParseTab(tabName); err != nil {
			return fmt.Errorf("invalid --tab: %w", err)
		}
	}

	c := registry.Find(id.Chain)
	gateway := reservoir.NewClient(httpClient, c.BaseURL, c.APIKey)

	var source snapshot.Source
	if serverURL := getArg("--server=", ""); serverURL != "" {
		source = snapshot.NewRemoteSource(httpClient, serverURL)
	} else {
		source = snapshot.NewProducer(registry, func(target chain.Chain) reservoir.Gateway {
			return reservoir.NewClient(httpClient, target.BaseURL, target.APIKey)
		}, cfg.QueryOptions(), cfg.RevalidateSeconds)
	}

	// the refresh goes through the hosting layer's proxy when one is given
	var refresher refresh.Refresher = gateway
	if origin := strings.TrimSuffix(getArg("--origin=", ""), "/"); origin != "" {
		refresher = reservoir.NewClient(httpClient, origin+c.ProxyAPI, "")
	}

	resolver := ens.NewCachingResolver(ens.NewHTTPResolver(httpClient, cfg.ENSBaseURL), cfg.ENSCacheSize, cfg.ENSCacheTTL())
	bans := opensea.NewHTTPClient(httpClient, cfg.OpenSeaBaseURL, cfg.OpenSeaAPIKey)

	out := os.Stdout
	sink := notify.Fanout{
		notify.SlogSink{},
		notify.SinkFunc(func(_ context.Context, toast notify.Toast) {
			_, _ = fmt.Fprintf(out, "%s %s\n", promptui.Styler(promptui.FGBold)(toast.Title), toast.Description)
		}),
	}

	snap := source.Produce(ctx, id)
	data := live.NewSynchronizer(id, snap.Props, gateway, bans, cfg.QueryOptions())

	v := &viewer{
		out:         out,
		id:          id,
		data:        data,
		identity:    ownership.NewIdentity(resolver),
		controller:  viewstate.NewController(),
		coordinator: refresh.NewCoordinator(id, refresher, data, sink),
		width:       width,
	}
	data.OnChange(func() {
		v.stale.Store(true)
	})

	// first render matches the snapshot exactly, before anything is fetched
	if err := v.render(ctx); err != nil {
		return err
	}

	data.Start(ctx)
	data.SetAccount(ctx, account)
	v.controller.Mount()
	v.controller.OnBreakpoint(viewstate.Classify(v.width), v.attributeCount())
	if initialTab != "" {
		if err := v.controller.Select(initialTab, v.attributeCount()); err != nil {
			slog.WarnContext(ctx, "Starting on the default tab", "tab", initialTab, "error", err)
		}
	}

	if err := v.render(ctx); err != nil {
		return err
	}

	return v.loop(ctx)
}

func (v *viewer) attributeCount() int {
	return len(token.Attributes(v.data.Token()))
}

func (v *viewer) render(ctx context.Context) error {
	v.stale.Store(false)
	attributeCount := v.attributeCount()
	fact := v.data.Ownership()

	if v.controller.Mounted() {
		select {
		case <-v.identity.Lookup(ctx, fact.EffectiveOwner()):
		case <-time.After(ownerNameWait):
			slog.DebugContext(ctx, "Owner name not resolved yet", "owner", fact.EffectiveOwner())
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	model := page.Build(page.Input{
		ID:           v.id,
		Collection:   v.data.Collection(),
		Details:      v.data.TokenDetails(),
		Attributes:   v.data.Attributes(),
		Ownership:    fact,
		OwnerDisplay: v.identity.Display(v.controller.Mounted()),
		BanStatus:    v.data.BanStatus(),
		Mounted:      v.controller.Mounted(),
		SmallDevice:  v.controller.SmallDevice(),
		Tabs:         v.controller.AvailableTabs(attributeCount),
		ActiveTab:    v.controller.ActiveTab(attributeCount),
		Refresh:      v.coordinator.Button(),
	})

	_, _ = fmt.Fprintln(v.out)

	return page.Render(v.out, model)
}

func (v *viewer) loop(ctx context.Context) error {
	for {
		action, err := v.promptAction()
		if err != nil {
			return err
		}

		if action == actionQuit {
			return nil
		}

		if err := v.handle(ctx, action); err != nil {
			if errors.Is(err, errUserCanceled) {
				return err
			}

			slog.ErrorContext(ctx, "Action failed", "action", action, "error", err)
		}

		if !v.stale.Load() {
			continue
		}

		if err := v.render(ctx); err != nil {
			return err
		}
	}
}

func (v *viewer) promptAction() (string, error) {
	selector := promptui.Select{
		Label: "Token " + v.id.Ref(),
		Items: []string{
			actionInfoTab,
			actionAttributesTab,
			actionRefresh,
			actionRefreshMedia,
			actionAccount,
			actionResize,
			actionQuit,
		},
	}

	_, action, err := selector.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return "", errUserCanceled
		}

		return "", fmt.Errorf("action prompt failed: %w", err)
	}

	return action, nil
}

func (v *viewer) handle(ctx context.Context, action string) error {
	switch action {
	case actionInfoTab:
		return v.selectTab(viewstate.TabInfo)
	case actionAttributesTab:
		return v.selectTab(viewstate.TabAttributes)
	case actionRefresh:
		return v.coordinator.Refresh(ctx)
	case actionRefreshMedia:
		return v.coordinator.RefreshMedia(ctx)
	case actionAccount:
		account, err := v.promptAccount()
		if err != nil {
			return err
		}

		v.data.SetAccount(ctx, account)
		v.stale.Store(true)

		return nil
	case actionResize:
		width, err := v.promptWidth()
		if err != nil {
			return err
		}

		v.width = width
		if v.controller.OnBreakpoint(viewstate.Classify(width), v.attributeCount()) {
			v.stale.Store(true)
		}

		return nil
	default:
		return fmt.Errorf("unknown action '%s'", action)
	}
}

func (v *viewer) selectTab(tab viewstate.Tab) error {
	if err := v.controller.Select(tab, v.attributeCount()); err != nil {
		return err
	}

	v.stale.Store(true)

	return nil
}

func validateAccount(account string) error {
	if account == "" || common.IsHexAddress(account) {
		return nil
	}

	return errors.New("not a hex address")
}

func (v *viewer) promptAccount() (string, error) {
	accountPrompt := promptui.Prompt{
		Label:    "Wallet account (blank to disconnect)",
		Default:  v.data.Account(),
		Validate: validateAccount,
	}

	account, err := accountPrompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return "", errUserCanceled
		}

		return "", fmt.Errorf("account prompt failed: %w", err)
	}

	return strings.TrimSpace(account), nil
}

func (v *viewer) promptWidth() (int, error) {
	widthPrompt := promptui.Prompt{
		Label:   "Viewport width",
		Default: strconv.Itoa(v.width),
		Validate: func(input string) error {
			width, err := strconv.Atoi(input)
			if err != nil || width <= 0 {
				return errors.New("width must be a positive number")
			}

			return nil
		},
	}

	input, err := widthPrompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return 0, errUserCanceled
		}

		return 0, fmt.Errorf("width prompt failed: %w", err)
	}

	return strconv.Atoi(input)
}
