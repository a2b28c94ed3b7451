package reddit

import (
	"context"
	"net/http"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const widgetsJSON = `{
  "items": {
    "widget_lb": {"kind":"textarea","shortName":"Dojo Leaderboard (Sep '26)","text":"old","styles":{"headerColor":"#000"}},
    "widget_img": {"kind":"image","shortName":"Tekken Dojo","data":[{"url":"https://i.redd.it/x.png","linkUrl":"https://www.reddit.com/r/Tekken/comments/old/","width":300,"height":100}]},
    "widget_cal": {"kind":"calendar","shortName":"Upcoming Events","data":[{"title":"EVO","startTime":1790000000,"endTime":1790086400,"location":"Las Vegas"}]},
    "widget_menu": {"kind":"menu","showWiki":true,"data":[{"text":"Tekken Dojo","url":"https://www.reddit.com/r/Tekken/comments/old/"},{"text":"More","children":[{"text":"Wiki","url":"/r/Tekken/wiki"}]}]},
    "widget_rules": {"kind":"subreddit-rules","shortName":"Rules"}
  },
  "layout": {
    "sidebar": {"order": ["widget_lb","widget_img","widget_cal","widget_rules"]},
    "topbar": {"order": ["widget_menu"]}
  }
}`

func TestWidgetsDecodesVariants(t *testing.T) {
	t.Parallel()

	api, srv := newFakeAPI(t)
	api.json("GET /r/Tekken/api/widgets", widgetsJSON)

	got, err := newTestClient(srv).Widgets(context.Background(), "Tekken")
	require.NoError(t, err)
	require.Len(t, got.Sidebar, 4)
	require.Len(t, got.Topbar, 1)

	text, ok := got.Sidebar[0].(*TextAreaWidget)
	require.True(t, ok)
	assert.Equal(t, "widget_lb", text.WidgetID())
	assert.Equal(t, "old", text.Text)
	assert.Equal(t, "#000", text.Styles.HeaderColor)

	img, ok := got.Sidebar[1].(*ImageWidget)
	require.True(t, ok)
	assert.Equal(t, "https://www.reddit.com/r/Tekken/comments/old/", img.Data[0].LinkURL)

	cal, ok := got.Sidebar[2].(*CalendarWidget)
	require.True(t, ok)
	assert.Equal(t, "Las Vegas", cal.Data[0].Location)

	unknown, ok := got.Sidebar[3].(*UnknownWidget)
	require.True(t, ok)
	assert.Equal(t, "subreddit-rules", unknown.Kind)

	menu, ok := got.Topbar[0].(*MenuWidget)
	require.True(t, ok)
	assert.True(t, menu.ShowWiki)
	assert.Len(t, menu.Data[1].Children, 1)
}

func TestUpdateWidgetSendsKind(t *testing.T) {
	t.Parallel()

	api, srv := newFakeAPI(t)
	api.json("PUT /r/Tekken/api/widget/widget_lb", `{}`)
	c := newTestClient(srv)

	err := c.UpdateWidget(context.Background(), "Tekken", &TextAreaWidget{ID: "widget_lb", ShortName: "Dojo Leaderboard (Oct '26)", Text: "new"})
	require.NoError(t, err)

	var sent map[string]any
	require.NoError(t, json.Unmarshal([]byte(api.last(http.MethodPut, "/r/Tekken/api/widget/widget_lb").Body), &sent))
	assert.Equal(t, "textarea", sent["kind"])
	assert.Equal(t, "new", sent["text"])
	assert.Equal(t, "Dojo Leaderboard (Oct '26)", sent["shortName"])
	assert.NotContains(t, sent, "ID")

	assert.Error(t, c.UpdateWidget(context.Background(), "Tekken", &CalendarWidget{ID: "widget_cal"}))
	assert.Error(t, c.UpdateWidget(context.Background(), "Tekken", &TextAreaWidget{}))
}
