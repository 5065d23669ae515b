package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"haulhub/internal/domain/entity"
)

var (
	customer = entity.Actor{Role: entity.RoleCustomer, ID: 7, Name: "Dana"}
	supplier = entity.Actor{Role: entity.RoleSupplier, ID: 3, Name: "Atlas Movers"}
	admin    = entity.Actor{Role: entity.RoleAdmin, ID: 1, Name: "Support"}
	driver   = entity.Actor{Role: entity.RoleDriver, ID: 12, Name: "Lee"}
)

func conversationBetween(a, b entity.Actor) entity.Conversation {
	return entity.Conversation{
		ID:     42,
		Status: entity.ConversationOpen,
		Participants: [2]entity.Participant{
			{Actor: a},
			{Actor: b},
		},
	}
}

func messageFrom(id int64, sender entity.Actor) entity.Message {
	return entity.Message{
		ID:        id,
		Sender:    sender,
		Body:      "x",
		CreatedAt: time.Now(),
		State:     entity.MessageConfirmed,
	}
}

func TestIsMineMatchesRoleAndID(t *testing.T) {
	id := NewIdentity()

	assert.True(t, id.IsMine(customer, messageFrom(1, customer)))
	assert.False(t, id.IsMine(customer, messageFrom(2, supplier)))

	// Same numeric id under a different role is a different actor.
	otherRoleSameID := entity.Actor{Role: entity.RoleDriver, ID: customer.ID}
	assert.False(t, id.IsMine(customer, messageFrom(3, otherRoleSameID)))
}

func TestOtherPartyResolvesRelativeToViewer(t *testing.T) {
	id := NewIdentity()
	conv := conversationBetween(customer, supplier)

	other, ok := id.OtherParty(customer, &conv)
	require.True(t, ok)
	assert.Equal(t, supplier.Ref(), other.Ref())

	other, ok = id.OtherParty(supplier, &conv)
	require.True(t, ok)
	assert.Equal(t, customer.Ref(), other.Ref())
}

func TestAdminObservingDisputeIsNeverMine(t *testing.T) {
	id := NewIdentity()
	conv := conversationBetween(customer, supplier)
	conv.DisputeID = 9

	assert.False(t, id.IsParticipant(admin, &conv))
	assert.True(t, id.IsObserver(admin, &conv))

	for _, sender := range []entity.Actor{customer, supplier, admin} {
		assert.False(t, id.IsMine(admin, messageFrom(1, sender)),
			"observer owns nothing, sender %s", sender)
	}

	_, ok := id.OtherParty(admin, &conv)
	assert.False(t, ok, "an observer has no single other party")

	_, ok = id.ParticipantFor(admin, &conv)
	assert.False(t, ok, "an observer has no read cursor")
}

func TestAdminAsStoredParticipantBehavesNormally(t *testing.T) {
	id := NewIdentity()
	conv := conversationBetween(admin, driver)

	assert.True(t, id.IsParticipant(admin, &conv))
	assert.False(t, id.IsObserver(admin, &conv))
	assert.True(t, id.IsMine(admin, messageFrom(1, admin)))

	other, ok := id.OtherParty(admin, &conv)
	require.True(t, ok)
	assert.Equal(t, driver.Ref(), other.Ref())
}

func TestNonAdminOutsiderIsNotAnObserver(t *testing.T) {
	id := NewIdentity()
	conv := conversationBetween(customer, supplier)

	assert.False(t, id.IsObserver(driver, &conv))
	assert.False(t, id.IsParticipant(driver, &conv))
}

func TestUnreadForCountsOnlyTheirConfirmedMessagesAboveCursor(t *testing.T) {
	id := NewIdentity()
	conv := conversationBetween(customer, supplier)
	conv.Participants[0].LastReadID = 10

	msgs := []entity.Message{
		messageFrom(9, supplier),  // below cursor
		messageFrom(11, supplier), // unread
		messageFrom(12, customer), // mine, never unread for me
		messageFrom(13, supplier), // unread
		{ID: -1, Sender: customer, State: entity.MessagePending}, // provisional, skipped
	}

	assert.Equal(t, 2, id.UnreadFor(customer, &conv, msgs))
	assert.Equal(t, 0, id.UnreadFor(admin, &conv, msgs), "observer has no unread")
}
