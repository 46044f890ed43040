package viewstate

import (
	"errors"
	"fmt"
	"sync"
)

// SmallMaxWidth is the widest viewport, in pixels, classified as small.
const SmallMaxWidth = 900

var (
	// ErrNoAttributes is returned when selecting the attributes tab of a token without attributes.
	ErrNoAttributes = errors.New("token has no attributes")
	// ErrTabUnavailable is returned when selecting a tab the current layout does not offer.
	ErrTabUnavailable = errors.New("tab is not available in the current layout")
	// ErrUnknownTab is returned for a tab name that is not recognized.
	ErrUnknownTab = errors.New("unknown tab")
)

type Tab string

const (
	TabInfo       Tab = "info"
	TabAttributes Tab = "attributes"
)

// ParseTab resolves a tab by name.
func ParseTab(name string) (Tab, error) {
	switch Tab(name) {
	case TabInfo, TabAttributes:
		return Tab(name), nil
	default:
		return "", fmt.Errorf("failed to parse tab '%s': %w", name, ErrUnknownTab)
	}
}

type Breakpoint int

const (
	BreakpointUnknown Breakpoint = iota
	BreakpointSmall
	BreakpointLarge
)

func (b Breakpoint) String() string {
	switch b {
	case BreakpointSmall:
		return "small"
	case BreakpointLarge:
		return "large"
	default:
		return "unknown"
	}
}

// Classify maps a viewport width to its breakpoint. A non-positive width is unknown.
func Classify(width int) Breakpoint {
	switch {
	case width <= 0:
		return BreakpointUnknown
	case width <= SmallMaxWidth:
		return BreakpointSmall
	default:
		return BreakpointLarge
	}
}

// Controller owns the active tab.
//
// The tab starts as info. After Mount, each change of breakpoint classification picks a
// default once: attributes on a small viewport when the token has attributes, info
// otherwise. A user's Select is kept until the next classification change.
type Controller struct {
	mu         sync.Mutex
	mounted    bool
	breakpoint Breakpoint
	tab        Tab
}

func NewController() *Controller {
	return &Controller{
		tab: TabInfo,
	}
}

// Mount marks the view as mounted on the client. Breakpoints reported before this are ignored.
func (c *Controller) Mount() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mounted = true
}

// Mounted reports whether Mount has been called.
func (c *Controller) Mounted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.mounted
}

// OnBreakpoint reports the current breakpoint classification and the number of attributes
// of the token. It returns true when the classification changed and the default tab was
// applied, and false when nothing changed.
func (c *Controller) OnBreakpoint(breakpoint Breakpoint, attributeCount int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.mounted || breakpoint == c.breakpoint {
		return false
	}

	c.breakpoint = breakpoint
	if breakpoint == BreakpointSmall && attributeCount > 0 {
		c.tab = TabAttributes
	} else {
		c.tab = TabInfo
	}

	return true
}

// Select applies a user's tab choice.
func (c *Controller) Select(tab Tab, attributeCount int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch tab {
	case TabInfo:
	case TabAttributes:
		if attributeCount <= 0 {
			return fmt.Errorf("failed to select tab '%s': %w", tab, ErrNoAttributes)
		}
		if !c.smallDevice() {
			return fmt.Errorf("failed to select tab '%s' on a %s viewport: %w", tab, c.breakpoint, ErrTabUnavailable)
		}
	default:
		return fmt.Errorf("failed to select tab '%s': %w", tab, ErrUnknownTab)
	}

	c.tab = tab

	return nil
}

// Tab returns the selected tab.
func (c *Controller) Tab() Tab {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.tab
}

// ActiveTab returns the tab to render. It falls back to info when attributes are selected
// but can no longer be shown.
func (c *Controller) ActiveTab(attributeCount int) Tab {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tab == TabAttributes && (attributeCount <= 0 || !c.smallDevice()) {
		return TabInfo
	}

	return c.tab
}

// SmallDevice reports whether the mounted view is laid out for a small viewport.
func (c *Controller) SmallDevice() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.smallDevice()
}

func (c *Controller) smallDevice() bool {
	return c.mounted && c.breakpoint == BreakpointSmall
}

// AvailableTabs lists the tab triggers to render, in display order.
func (c *Controller) AvailableTabs(attributeCount int) []Tab {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.smallDevice() && attributeCount > 0 {
		return []Tab{TabAttributes, TabInfo}
	}

	return []Tab{TabInfo}
}
