package sap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bluenviron/goaes67/pkg/description"
)

func TestExtractPayload(t *testing.T) {
	// SAP header (8 bytes) + content type + SDP
	enc := append([]byte{0x20, 0x00, 0xab, 0xcd, 192, 168, 1, 1},
		[]byte("application/sdp\x00v=0\r\ns=Main\r\n")...)

	payload := extractPayload(enc)
	require.Equal(t, []byte("v=0\r\ns=Main\r\n"), payload)

	require.Nil(t, extractPayload([]byte("no marker here")))
	require.Nil(t, extractPayload(nil))
}

func TestParseAnnouncement(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	sess := parseAnnouncement(append([]byte{0x20, 0x00, 0xab, 0xcd, 192, 168, 1, 1},
		[]byte("v=0\r\n"+
			"s=Stage box 1\r\n"+
			"c=IN IP4 239.69.0.121\r\n"+
			"m=audio 5004 RTP/AVP 96\r\n"+
			"a=rtpmap:96 L24/48000/2\r\n")...), now)

	require.NotNil(t, sess)
	require.Equal(t, &description.Session{
		Name:         "Stage box 1",
		Address:      "239.69.0.121",
		Port:         5004,
		PayloadType:  96,
		Codec:        description.CodecL24,
		SampleRate:   48000,
		ChannelCount: 2,
		LastSeen:     now,
	}, sess)

	// no descriptor
	require.Nil(t, parseAnnouncement([]byte{0x20, 0x00}, now))

	// descriptor without a session name
	require.Nil(t, parseAnnouncement([]byte("v=0\r\nc=IN IP4 239.69.0.121\r\n"), now))
}

func TestRegistryUpsert(t *testing.T) {
	r := NewRegistry()
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	sess := &description.Session{
		Name:     "Main",
		Address:  "239.69.0.121",
		Port:     5004,
		LastSeen: now,
	}

	require.True(t, r.Upsert(sess))

	// a repeated announcement refreshes in place
	sess2 := *sess
	sess2.Port = 5006
	sess2.LastSeen = now.Add(30 * time.Second)
	require.False(t, r.Upsert(&sess2))

	all := r.All()
	require.Equal(t, 1, len(all))
	require.Equal(t, 5006, all[0].Port)
	require.Equal(t, now.Add(30*time.Second), all[0].LastSeen)
}

func TestRegistryExpiry(t *testing.T) {
	r := NewRegistry()
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	r.Upsert(&description.Session{Name: "Main", LastSeen: now})

	// active immediately after arrival
	require.Equal(t, 1, len(r.Sessions(now)))

	// still active just before keep-alive runs out
	require.Equal(t, 1, len(r.Sessions(now.Add(60*time.Second-time.Nanosecond))))

	// inactive afterwards, but retained for audit
	require.Equal(t, 0, len(r.Sessions(now.Add(60*time.Second))))
	require.Equal(t, 1, len(r.All()))

	// a refresh makes it active again
	r.Upsert(&description.Session{Name: "Main", LastSeen: now.Add(2 * time.Minute)})
	require.Equal(t, 1, len(r.Sessions(now.Add(2*time.Minute))))
}
