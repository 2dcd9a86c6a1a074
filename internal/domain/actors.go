package domain

import "github.com/google/uuid"

// Reserved pseudo-actor identities. These are fixed by convention and
// seeded at startup, never created lazily on first message.
var (
	// SystemUserID authors lifecycle notices (assignment, close, requeue).
	SystemUserID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

	// ResponderUserID authors scripted replies before an agent connects.
	ResponderUserID = uuid.MustParse("00000000-0000-0000-0000-000000000002")
)

func IsReservedActor(id uuid.UUID) bool {
	return id == SystemUserID || id == ResponderUserID
}
