package video

import (
	"fmt"
	"net/url"
	"strings"
)

// JitsiBuilder constructs room and join URLs on a Jitsi Meet server.
type JitsiBuilder struct {
	serverURL string
}

func NewJitsiBuilder(serverURL string) *JitsiBuilder {
	if serverURL == "" {
		serverURL = "https://meet.jit.si"
	}
	return &JitsiBuilder{serverURL: strings.TrimRight(serverURL, "/")}
}

func (j *JitsiBuilder) RoomURL(roomName string) string {
	return fmt.Sprintf("%s/%s", j.serverURL, roomName)
}

// JoinURL appends participant identity to the room URL fragment so the
// Jitsi client picks up the display name and role.
func (j *JitsiBuilder) JoinURL(roomName, displayName, userID, role string, moderator bool) string {
	params := url.Values{}
	params.Set("displayName", displayName)
	params.Set("userId", userID)
	params.Set("role", role)
	if moderator {
		params.Set("isModerator", "true")
	}
	return j.RoomURL(roomName) + "#" + params.Encode()
}
