package reddit

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
)

// ErrWidgetNotFound is returned when no widget matches a lookup.
var ErrWidgetNotFound = errors.New("reddit: widget not found")

// Widget is one of the concrete widget kinds below. Callers dispatch with a
// type switch.
type Widget interface {
	WidgetID() string
	Name() string
}

// Styles carries widget header and background colors.
type Styles struct {
	BackgroundColor string `json:"backgroundColor"`
	HeaderColor     string `json:"headerColor"`
}

// TextAreaWidget is a free-form Markdown widget.
type TextAreaWidget struct {
	ID        string `json:"-"`
	ShortName string `json:"shortName"`
	Text      string `json:"text"`
	Styles    Styles `json:"styles"`
}

// ImageData is one image in an ImageWidget.
type ImageData struct {
	URL     string `json:"url"`
	LinkURL string `json:"linkUrl"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

// ImageWidget shows one or more linked images.
type ImageWidget struct {
	ID        string      `json:"-"`
	ShortName string      `json:"shortName"`
	Data      []ImageData `json:"data"`
	Styles    Styles      `json:"styles"`
}

// CalendarEvent is one event in a CalendarWidget.
type CalendarEvent struct {
	Title       string  `json:"title"`
	StartTime   float64 `json:"startTime"`
	EndTime     float64 `json:"endTime"`
	Location    string  `json:"location"`
	Description string  `json:"description"`
}

// CalendarWidget mirrors a Google Calendar. It is read-only here.
type CalendarWidget struct {
	ID        string          `json:"-"`
	ShortName string          `json:"shortName"`
	Data      []CalendarEvent `json:"data"`
}

// MenuLink is a top bar link or submenu.
type MenuLink struct {
	Text     string     `json:"text"`
	URL      string     `json:"url,omitempty"`
	Children []MenuLink `json:"children,omitempty"`
}

// MenuWidget is the top bar menu.
type MenuWidget struct {
	ID       string     `json:"-"`
	Data     []MenuLink `json:"data"`
	ShowWiki bool       `json:"showWiki"`
}

// UnknownWidget holds kinds the bot does not edit.
type UnknownWidget struct {
	ID        string
	Kind      string
	ShortName string
}

// WidgetID implements Widget.
func (w *TextAreaWidget) WidgetID() string { return w.ID }

// Name implements Widget.
func (w *TextAreaWidget) Name() string { return w.ShortName }

// WidgetID implements Widget.
func (w *ImageWidget) WidgetID() string { return w.ID }

// Name implements Widget.
func (w *ImageWidget) Name() string { return w.ShortName }

// WidgetID implements Widget.
func (w *CalendarWidget) WidgetID() string { return w.ID }

// Name implements Widget.
func (w *CalendarWidget) Name() string { return w.ShortName }

// WidgetID implements Widget.
func (w *MenuWidget) WidgetID() string { return w.ID }

// Name implements Widget. Menus have no short name.
func (w *MenuWidget) Name() string { return "" }

// WidgetID implements Widget.
func (w *UnknownWidget) WidgetID() string { return w.ID }

// Name implements Widget.
func (w *UnknownWidget) Name() string { return w.ShortName }

// Widgets holds the subreddit's widgets in display order.
type Widgets struct {
	Sidebar []Widget
	Topbar  []Widget
}

type widgetsResponse struct {
	Items  map[string]json.RawMessage `json:"items"`
	Layout struct {
		Sidebar struct {
			Order []string `json:"order"`
		} `json:"sidebar"`
		Topbar struct {
			Order []string `json:"order"`
		} `json:"topbar"`
	} `json:"layout"`
}

// Widgets lists the sidebar and top bar widgets.
func (c *Client) Widgets(ctx context.Context, sub string) (Widgets, error) {
	resp, err := call[widgetsResponse](ctx, c, http.MethodGet, "/r/"+sub+"/api/widgets", nil, nil, nil)
	if err != nil {
		return Widgets{}, fmt.Errorf("list widgets: %w", err)
	}
	sidebar, err := decodeWidgets(resp.Items, resp.Layout.Sidebar.Order)
	if err != nil {
		return Widgets{}, err
	}
	topbar, err := decodeWidgets(resp.Items, resp.Layout.Topbar.Order)
	if err != nil {
		return Widgets{}, err
	}
	return Widgets{Sidebar: sidebar, Topbar: topbar}, nil
}

func decodeWidgets(items map[string]json.RawMessage, order []string) ([]Widget, error) {
	out := make([]Widget, 0, len(order))
	for _, id := range order {
		raw, ok := items[id]
		if !ok {
			continue
		}
		w, err := decodeWidget(id, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

func decodeWidget(id string, raw json.RawMessage) (Widget, error) {
	var head struct {
		Kind      string `json:"kind"`
		ShortName string `json:"shortName"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("decode widget %s: %w", id, err)
	}
	var target Widget
	switch head.Kind {
	case "textarea":
		target = &TextAreaWidget{ID: id}
	case "image":
		target = &ImageWidget{ID: id}
	case "calendar":
		target = &CalendarWidget{ID: id}
	case "menu":
		target = &MenuWidget{ID: id}
	default:
		return &UnknownWidget{ID: id, Kind: head.Kind, ShortName: head.ShortName}, nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return nil, fmt.Errorf("decode %s widget %s: %w", head.Kind, id, err)
	}
	return target, nil
}

// UpdateWidget replaces a widget's editable content.
func (c *Client) UpdateWidget(ctx context.Context, sub string, w Widget) error {
	var payload any
	switch w := w.(type) {
	case *TextAreaWidget:
		payload = struct {
			Kind string `json:"kind"`
			*TextAreaWidget
		}{"textarea", w}
	case *ImageWidget:
		payload = struct {
			Kind string `json:"kind"`
			*ImageWidget
		}{"image", w}
	case *MenuWidget:
		payload = struct {
			Kind string `json:"kind"`
			*MenuWidget
		}{"menu", w}
	default:
		return fmt.Errorf("widget %s: unsupported kind %T", w.WidgetID(), w)
	}
	if w.WidgetID() == "" {
		return fmt.Errorf("widget id is required")
	}
	_, err := call[json.RawMessage](ctx, c, http.MethodPut, "/r/"+sub+"/api/widget/"+w.WidgetID(), nil, nil, payload)
	if err != nil {
		return fmt.Errorf("update widget %s: %w", w.WidgetID(), err)
	}
	return nil
}
