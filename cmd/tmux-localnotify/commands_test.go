package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/cristianoliveira/tmux-localnotify/internal/notification"
	"github.com/cristianoliveira/tmux-localnotify/internal/options"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	raw       []byte
	patch     []byte
	id        int32
	state     notification.State
	badge     int
	found     bool
	err       error
	records   []record
	clearAll  bool
	cancelAll bool
}

func (f *fakeClient) Schedule(_ context.Context, raw []byte) (record, error) {
	f.raw = raw
	return f.rec(), f.err
}

func (f *fakeClient) Update(_ context.Context, id int32, patch []byte) (record, error) {
	f.id, f.patch = id, patch
	return f.rec(), f.err
}

func (f *fakeClient) Get(_ context.Context, id int32) (record, bool, error) {
	f.id = id
	return f.rec(), f.found, f.err
}

func (f *fakeClient) List(_ context.Context, state notification.State) ([]record, error) {
	f.state = state
	return f.records, f.err
}

func (f *fakeClient) Clear(_ context.Context, id int32) (bool, error) {
	f.id = id
	return f.found, f.err
}

func (f *fakeClient) Cancel(_ context.Context, id int32) (bool, error) {
	f.id = id
	return f.found, f.err
}

func (f *fakeClient) ClearAll(context.Context) error {
	f.clearAll = true
	return f.err
}

func (f *fakeClient) CancelAll(context.Context) error {
	f.cancelAll = true
	return f.err
}

func (f *fakeClient) Badge(context.Context) (int, error) { return f.badge, f.err }

func (f *fakeClient) SetBadge(_ context.Context, n int) error {
	f.badge = n
	return f.err
}

func (f *fakeClient) rec() record {
	return record{
		State: notification.StateScheduled,
		Options: options.Options{
			ID:      7,
			Trigger: options.Trigger{At: 1000, Every: options.UnitNone, Interval: 1},
			Content: json.RawMessage(`{"title":"Stretch"}`),
		},
	}
}

func execute(t *testing.T, c *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c.SetOut(&out)
	c.SetErr(&out)
	c.SetIn(strings.NewReader(""))
	c.SetArgs(args)
	c.SetContext(context.Background())
	err := c.Execute()
	return out.String(), err
}

func TestNewCommandsPanicWhenClientIsNil(t *testing.T) {
	constructors := map[string]func(){
		"schedule":   func() { NewScheduleCmd(nil) },
		"update":     func() { NewUpdateCmd(nil) },
		"get":        func() { NewGetCmd(nil) },
		"list":       func() { NewListCmd(nil) },
		"clear":      func() { NewClearCmd(nil) },
		"clear-all":  func() { NewClearAllCmd(nil) },
		"cancel":     func() { NewCancelCmd(nil) },
		"cancel-all": func() { NewCancelAllCmd(nil) },
		"badge":      func() { NewBadgeCmd(nil) },
	}
	for name, fn := range constructors {
		t.Run(name, func(t *testing.T) {
			assert.PanicsWithValue(t, "New"+commandFuncName(name)+"Cmd: client dependency cannot be nil", fn)
		})
	}
}

func commandFuncName(use string) string {
	var b strings.Builder
	for _, part := range strings.Split(use, "-") {
		b.WriteString(strings.ToUpper(part[:1]) + part[1:])
	}
	return b.String()
}

func TestScheduleWithJSONArgument(t *testing.T) {
	client := &fakeClient{}
	out, err := execute(t, NewScheduleCmd(client), `{"id":7,"at":1000}`)
	require.NoError(t, err)

	assert.JSONEq(t, `{"id":7,"at":1000}`, string(client.raw))
	assert.Contains(t, out, `"state": "SCHEDULED"`)
	assert.Contains(t, out, `"id": 7`)
}

func TestScheduleFromFlags(t *testing.T) {
	client := &fakeClient{}
	_, err := execute(t, NewScheduleCmd(client),
		"--id", "3", "--in", "60", "--every", "day", "--count", "2", "--title", "Standup", "--text", "now", "--badge", "1")
	require.NoError(t, err)

	assert.JSONEq(t, `{"id":3,"trigger":{"in":60,"every":"day","count":2},
		"content":{"title":"Standup","text":"now"},"badge":1}`, string(client.raw))
}

func TestScheduleFromFlagsTextOnly(t *testing.T) {
	client := &fakeClient{}
	_, err := execute(t, NewScheduleCmd(client), "--id", "4", "--at", "5000", "--text", "plain")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":4,"trigger":{"at":5000},"content":"plain"}`, string(client.raw))
}

func TestScheduleRequiresID(t *testing.T) {
	client := &fakeClient{}
	_, err := execute(t, NewScheduleCmd(client), "--in", "5")
	require.Error(t, err)
	assert.Nil(t, client.raw)
}

func TestScheduleWrapsClientErrors(t *testing.T) {
	client := &fakeClient{err: options.ErrInvalidRequest}
	_, err := execute(t, NewScheduleCmd(client), `{"id":"x"}`)
	require.ErrorIs(t, err, options.ErrInvalidRequest)
}

func TestUpdate(t *testing.T) {
	client := &fakeClient{}
	_, err := execute(t, NewUpdateCmd(client), "7", `{"content":"new"}`)
	require.NoError(t, err)
	assert.Equal(t, int32(7), client.id)
	assert.Equal(t, `{"content":"new"}`, string(client.patch))

	_, err = execute(t, NewUpdateCmd(client), "abc", `{}`)
	require.Error(t, err)
}

func TestGet(t *testing.T) {
	client := &fakeClient{found: true}
	out, err := execute(t, NewGetCmd(client), "7")
	require.NoError(t, err)
	assert.Contains(t, out, `"title": "Stretch"`)

	client.found = false
	_, err = execute(t, NewGetCmd(client), "8")
	require.ErrorContains(t, err, "notification 8 not found")
}

func TestListTableAndState(t *testing.T) {
	client := &fakeClient{}
	client.records = []record{client.rec()}

	out, err := execute(t, NewListCmd(client), "--state", "scheduled")
	require.NoError(t, err)
	assert.Equal(t, notification.StateScheduled, client.state)
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "Stretch")
	assert.Contains(t, out, "SCHEDULED")
}

func TestListJSON(t *testing.T) {
	client := &fakeClient{}
	client.records = []record{client.rec()}

	out, err := execute(t, NewListCmd(client), "--format", "json")
	require.NoError(t, err)
	assert.Equal(t, notification.State(""), client.state)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "SCHEDULED", decoded[0]["state"])
}

func TestListRejectsUnknownStateAndFormat(t *testing.T) {
	_, err := execute(t, NewListCmd(&fakeClient{}), "--state", "pending")
	require.ErrorIs(t, err, options.ErrInvalidRequest)

	_, err = execute(t, NewListCmd(&fakeClient{}), "--format", "xml")
	require.Error(t, err)
}

func TestClearAndCancel(t *testing.T) {
	client := &fakeClient{found: true}
	_, err := execute(t, NewClearCmd(client), "5")
	require.NoError(t, err)
	assert.Equal(t, int32(5), client.id)

	_, err = execute(t, NewCancelCmd(client), "6")
	require.NoError(t, err)
	assert.Equal(t, int32(6), client.id)

	client.found = false
	_, err = execute(t, NewClearCmd(client), "5")
	require.ErrorContains(t, err, "not found")
	_, err = execute(t, NewCancelCmd(client), "6")
	require.ErrorContains(t, err, "not found")
}

func TestClearAll(t *testing.T) {
	client := &fakeClient{}
	_, err := execute(t, NewClearAllCmd(client))
	require.NoError(t, err)
	assert.True(t, client.clearAll)

	client.err = errors.New("store down")
	_, err = execute(t, NewClearAllCmd(client))
	require.ErrorContains(t, err, "store down")
}

func TestCancelAllConfirmation(t *testing.T) {
	t.Setenv("CI", "")
	t.Setenv("BATS_TMPDIR", "")

	client := &fakeClient{}
	_, err := execute(t, NewCancelAllCmd(client))
	require.NoError(t, err)
	assert.False(t, client.cancelAll, "empty answer declines")

	_, err = execute(t, NewCancelAllCmd(client), "--yes")
	require.NoError(t, err)
	assert.True(t, client.cancelAll)
}

func TestConfirm(t *testing.T) {
	var out bytes.Buffer
	assert.True(t, confirm(strings.NewReader("yes\n"), &out, "? "))
	assert.True(t, confirm(strings.NewReader("Y"), &out, "? "))
	assert.False(t, confirm(strings.NewReader("n\n"), &out, "? "))
	assert.False(t, confirm(strings.NewReader(""), &out, "? "))
}

func TestBadge(t *testing.T) {
	client := &fakeClient{badge: 4}
	out, err := execute(t, NewBadgeCmd(client))
	require.NoError(t, err)
	assert.Equal(t, "4\n", out)

	_, err = execute(t, NewBadgeCmd(client), "0")
	require.NoError(t, err)
	assert.Equal(t, 0, client.badge)

	_, err = execute(t, NewBadgeCmd(client), "many")
	require.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, NewVersionCmd())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "tmux-localnotify version "))
}

func TestParseID(t *testing.T) {
	id, err := parseID(" 42 ")
	require.NoError(t, err)
	assert.Equal(t, int32(42), id)

	for _, bad := range []string{"", "0", "x1", "99999999999"} {
		_, err := parseID(bad)
		assert.Error(t, err, bad)
	}
}
