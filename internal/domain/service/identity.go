package service

import (
	"haulhub/internal/domain/entity"
)

// Identity answers "whose side is this" questions for a viewing actor. All
// methods are pure functions of their arguments: no state, no network.
//
// Admin is special-cased: when admin is stored as one of the two
// participants (admin-initiated threads) it behaves like any participant.
// When it is not, reviewing a dispute between two other parties, it is an
// omniscient observer: nothing is "mine", there is no admin read cursor, and
// there is no single "other party".
type Identity struct{}

func NewIdentity() Identity {
	return Identity{}
}

// IsParticipant reports whether the viewer is one of the conversation's two
// stored participants.
func (Identity) IsParticipant(viewer entity.Actor, conv *entity.Conversation) bool {
	return conv.Participant(viewer.Ref()) != nil
}

// IsObserver reports whether the viewer sees the conversation without being
// a stored participant. Only admin may observe.
func (id Identity) IsObserver(viewer entity.Actor, conv *entity.Conversation) bool {
	return viewer.Role == entity.RoleAdmin && !id.IsParticipant(viewer, conv)
}

// IsMine reports whether the viewer authored the message.
func (Identity) IsMine(viewer entity.Actor, msg entity.Message) bool {
	return msg.Sender.Ref() == viewer.Ref()
}

// OtherParty resolves the participant facing the viewer. It returns false
// for observers: an observer faces both parties and callers must render the
// stored participants instead.
func (id Identity) OtherParty(viewer entity.Actor, conv *entity.Conversation) (entity.Participant, bool) {
	if !id.IsParticipant(viewer, conv) {
		return entity.Participant{}, false
	}
	for i := range conv.Participants {
		if conv.Participants[i].Ref() != viewer.Ref() {
			return conv.Participants[i], true
		}
	}
	return entity.Participant{}, false
}

// ParticipantFor resolves the viewer's own stored participant entry, i.e.
// which read cursor is theirs. False for observers.
func (Identity) ParticipantFor(viewer entity.Actor, conv *entity.Conversation) (entity.Participant, bool) {
	p := conv.Participant(viewer.Ref())
	if p == nil {
		return entity.Participant{}, false
	}
	return *p, true
}

// UnreadFor counts messages the viewer has not read: confirmed messages
// above the viewer's cursor that the viewer did not author. Observers have
// no cursor, so nothing is unread for them.
func (id Identity) UnreadFor(viewer entity.Actor, conv *entity.Conversation, messages []entity.Message) int {
	p, ok := id.ParticipantFor(viewer, conv)
	if !ok {
		return 0
	}
	unread := 0
	for _, m := range messages {
		if m.Provisional() {
			continue
		}
		if m.ID > p.LastReadID && !id.IsMine(viewer, m) {
			unread++
		}
	}
	return unread
}
