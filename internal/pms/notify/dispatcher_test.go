package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Saviken/TNH-Performance-Target/internal/pms/entity"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/sse"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	got []uint64
	err error
}

func (p *recordingPublisher) Publish(n *entity.Notification) error {
	p.got = append(p.got, n.RecipientID)
	return p.err
}

func TestDispatchOnePerAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	finance := testutil.SeedBranch(t, db, "Finance")
	admin := testutil.SeedUser(t, db, "admin1", entity.RoleAdmin, nil)
	ceo := testutil.SeedUser(t, db, "ceo1", entity.RoleCEO, finance)
	super := testutil.SeedSuperuser(t, db, "root")
	testutil.SeedUser(t, db, "staff1", entity.RoleStaff, finance)
	testutil.SeedUser(t, db, "hod1", entity.RoleHeadOfDepartment, finance)
	gone := testutil.SeedUser(t, db, "admin2", entity.RoleAdmin, nil)
	testutil.Deactivate(t, db, gone)

	pub := &recordingPublisher{}
	d := NewDispatcher(db, nil, WithPublisher(pub))

	n := d.Dispatch(context.Background(), Event{
		Kind: "posts", EntityID: 1, Action: "submit",
		Message: "Post was submitted for approval.", BranchName: "Finance",
	})
	require.Equal(t, 3, n)

	var list []entity.Notification
	require.NoError(t, db.Order("recipient_id").Find(&list).Error)
	require.Len(t, list, 3)
	want := []uint64{admin.ID, ceo.ID, super.ID}
	for i, item := range list {
		assert.Equal(t, want[i], item.RecipientID)
		assert.Equal(t, "Post was submitted for approval.", item.Message)
		assert.Equal(t, "/pages/finance", item.URL)
		assert.False(t, item.IsRead)
	}
	assert.ElementsMatch(t, want, pub.got)
}

func TestDispatchBranchScope(t *testing.T) {
	db := testutil.SetupTestDB(t)
	finance := testutil.SeedBranch(t, db, "Finance")
	ict := testutil.SeedBranch(t, db, "ICT")
	inFinance := testutil.SeedUser(t, db, "fin-admin", entity.RoleAdmin, finance)
	testutil.SeedUser(t, db, "ict-admin", entity.RoleAdmin, ict)
	global := testutil.SeedUser(t, db, "global-admin", entity.RoleAdmin, nil)

	d := NewDispatcher(db, nil, WithScope(ScopeBranch))
	n := d.Dispatch(context.Background(), Event{Kind: "posts", EntityID: 1, Action: "submit", Message: "m", BranchID: &finance.ID, BranchName: finance.Name})
	require.Equal(t, 2, n)

	var ids []uint64
	require.NoError(t, db.Model(&entity.Notification{}).Order("recipient_id").Pluck("recipient_id", &ids).Error)
	assert.Equal(t, []uint64{inFinance.ID, global.ID}, ids)
}

func TestDispatchUnknownBranchFallsBack(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SeedUser(t, db, "admin1", entity.RoleAdmin, nil)

	d := NewDispatcher(db, nil)
	require.Equal(t, 1, d.Dispatch(context.Background(), Event{Message: "m", BranchName: "Radiology"}))

	var got entity.Notification
	require.NoError(t, db.First(&got).Error)
	assert.Equal(t, DefaultRoute, got.URL)
}

func TestDispatchPublishFailureKeepsNotifications(t *testing.T) {
	db := testutil.SetupTestDB(t)
	admin := testutil.SeedUser(t, db, "admin1", entity.RoleAdmin, nil)

	hub := sse.NewHub(nil)
	client := &sse.Client{ID: sse.ClientID(admin.ID, 1), UserID: admin.ID, Events: make(chan sse.Event, 1)}
	hub.Register(client)
	defer hub.Unregister(client.ID)

	d := NewDispatcher(db, nil, WithHub(hub), WithPublisher(&recordingPublisher{err: errors.New("nats down")}))
	require.Equal(t, 1, d.Dispatch(context.Background(), Event{Message: "hello"}))

	var count int64
	db.Model(&entity.Notification{}).Count(&count)
	assert.Equal(t, int64(1), count)

	select {
	case ev := <-client.Events:
		assert.Equal(t, "notification", ev.EventType)
		assert.Contains(t, ev.Data, "hello")
	case <-time.After(time.Second):
		t.Fatal("expected an SSE event")
	}
}

func TestDispatchNoRecipients(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SeedUser(t, db, "staff1", entity.RoleStaff, nil)

	d := NewDispatcher(db, nil)
	assert.Equal(t, 0, d.Dispatch(context.Background(), Event{Message: "m"}))
}
