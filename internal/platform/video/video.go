// Package video holds the managed-platform client boundary: a Zoom REST
// client, the Jitsi room URL builder, and the WebRTC room configuration
// handed to browser clients. Everything beyond this boundary is opaque to
// the session state machine; platform failures surface as errors that the
// machine maps onto its failed/fallback transitions.
package video

import (
	"context"
	"time"
)

// MeetingRequest describes the meeting to create on the managed platform.
type MeetingRequest struct {
	Topic     string
	StartTime time.Time
	Duration  time.Duration
}

// Meeting is the platform's handle for a created meeting.
type Meeting struct {
	MeetingID string `json:"meeting_id"`
	Password  string `json:"password"`
	JoinURL   string `json:"join_url"`
	StartURL  string `json:"start_url"`
}

// PlatformClient creates and inspects meetings on the managed platform.
type PlatformClient interface {
	CreateMeeting(ctx context.Context, req MeetingRequest) (*Meeting, error)
	GetMeetingStatus(ctx context.Context, meetingID string) (string, error)
}

// ICEServer is one entry of the ICE configuration handed to WebRTC clients.
type ICEServer struct {
	URLs       string `json:"urls"`
	Username   string `json:"username,omitempty"`
	Credential string `json:"credential,omitempty"`
}

// ICEConfig builds the ICE server list from configured STUN and TURN
// endpoints.
type ICEConfig struct {
	STUNServers []string
	TURNServer  string
	TURNUser    string
	TURNSecret  string
}

func (c ICEConfig) Servers() []ICEServer {
	servers := make([]ICEServer, 0, len(c.STUNServers)+1)
	for _, s := range c.STUNServers {
		servers = append(servers, ICEServer{URLs: s})
	}
	if c.TURNServer != "" {
		servers = append(servers, ICEServer{
			URLs:       c.TURNServer,
			Username:   c.TURNUser,
			Credential: c.TURNSecret,
		})
	}
	return servers
}

// RoomConfig is the WebRTC room payload stored on a session and returned in
// join info.
type RoomConfig struct {
	RoomID          string            `json:"room_id"`
	ICEServers      []ICEServer       `json:"ice_servers"`
	Constraints     map[string]bool   `json:"constraints"`
	CodecPrefs      []string          `json:"codec_preferences"`
	BandwidthLimits map[string]int    `json:"bandwidth_limits"`
}

// NewRoomConfig builds the default room configuration for a WebRTC session.
func NewRoomConfig(roomID string, ice ICEConfig) RoomConfig {
	return RoomConfig{
		RoomID:      roomID,
		ICEServers:  ice.Servers(),
		Constraints: map[string]bool{"video": true, "audio": true},
		CodecPrefs:  []string{"VP8", "H264"},
		BandwidthLimits: map[string]int{
			"video": 500000,
			"audio": 64000,
		},
	}
}
