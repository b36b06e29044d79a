/*
Package goaes67 is an AES67 receiver library for the Go programming language.

It discovers audio streams announced through SAP, receives their RTP
payloads from multicast groups, and mixes them into a single pull-based
float32 output.
*/
package goaes67

import (
	"net"
	"sync"
	"time"

	"github.com/bluenviron/goaes67/pkg/description"
	"github.com/bluenviron/goaes67/pkg/mixer"
	"github.com/bluenviron/goaes67/pkg/sap"
)

// Receiver is an AES67 receiver. It announces nothing and sends
// nothing: streams are discovered, received and mixed locally.
//
// The mixed output is pulled with Read by an external audio sink; the
// pull path never blocks on the network.
type Receiver struct {
	//
	// parameters (all optional)
	//
	// address and port session announcements are received on.
	// It defaults to 224.2.127.254:9875.
	DiscoveryAddress string
	// duration of audio each per-stream jitter buffer can absorb
	// before dropping incoming packets.
	// It defaults to 100 milliseconds.
	JitterBufferDuration time.Duration
	// interface announcements and streams are received on.
	// It defaults to all multicast-capable interfaces.
	MulticastInterface *net.Interface
	// size of the kernel read buffer of stream sockets.
	// It defaults to 512 KiB.
	UDPReadBufferSize int
	// function used to initialize UDP sockets.
	// It defaults to net.ListenPacket.
	ListenPacket func(network, address string) (net.PacketConn, error)
	//
	// callbacks (all optional)
	//
	// called when a session is announced for the first time.
	// Binding it to a stream receiver is left to the caller (Play),
	// which can decide to skip it.
	OnSessionNew func(*description.Session)
	// called when a playing stream fails fatally.
	// The failure concerns that stream only; discovery and other
	// streams keep running.
	OnStreamError func(*Stream, error)

	sapListener *sap.Listener
	mix         *mixer.Mixer
	streams     map[string]*Stream
	mutex       sync.Mutex
}

// Initialize validates the configuration and starts discovering
// sessions in the background.
func (r *Receiver) Initialize() error {
	if r.DiscoveryAddress == "" {
		r.DiscoveryAddress = "224.2.127.254:9875"
	}
	if r.JitterBufferDuration == 0 {
		r.JitterBufferDuration = 100 * time.Millisecond
	}
	if r.UDPReadBufferSize == 0 {
		r.UDPReadBufferSize = udpKernelReadBufferSize
	}
	if r.ListenPacket == nil {
		r.ListenPacket = net.ListenPacket
	}

	r.mix = mixer.New()
	r.streams = make(map[string]*Stream)

	r.sapListener = &sap.Listener{
		Address:      r.DiscoveryAddress,
		Interface:    r.MulticastInterface,
		ListenPacket: r.ListenPacket,
		OnSession:    r.OnSessionNew,
	}
	return r.sapListener.Initialize()
}

// Close closes the receiver and every playing stream.
func (r *Receiver) Close() {
	r.sapListener.Close()

	r.mutex.Lock()
	streams := r.streams
	r.streams = make(map[string]*Stream)
	r.mutex.Unlock()

	for _, s := range streams {
		r.detach(s)
		s.close()
	}
}

// Sessions returns the sessions that are currently announced and
// active.
func (r *Receiver) Sessions() []description.Session {
	return r.sapListener.Sessions()
}

// AllSessions returns every session announced since startup, including
// the ones no longer active.
func (r *Receiver) AllSessions() []description.Session {
	return r.sapListener.AllSessions()
}

// Play binds a stream receiver to the given session and adds its audio
// to the mixed output. Each channel of a multi-channel session becomes
// an independent member of the mix.
func (r *Receiver) Play(sess *description.Session) (*Stream, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.streams[sess.Name]; ok {
		return nil, ErrSessionAlreadyPlaying{Name: sess.Name}
	}

	s := &Stream{
		r:              r,
		Session:        *sess,
		bufferDuration: r.JitterBufferDuration,
	}
	err := s.initialize()
	if err != nil {
		return nil, err
	}

	r.streams[sess.Name] = s
	for _, out := range s.outputs {
		r.mix.Add(out)
	}
	s.start()

	return s, nil
}

// Stop tears down the stream bound to the given session name, removing
// its audio from the mixed output.
func (r *Receiver) Stop(name string) {
	r.mutex.Lock()
	s, ok := r.streams[name]
	delete(r.streams, name)
	r.mutex.Unlock()

	if !ok {
		return
	}

	r.detach(s)
	s.close()
}

// Streams returns the streams that are currently playing.
func (r *Receiver) Streams() []*Stream {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ret := make([]*Stream, 0, len(r.streams))
	for _, s := range r.streams {
		ret = append(ret, s)
	}
	return ret
}

// Read fills p with mixed audio and always returns len(p): streams
// that underrun contribute silence. It is intended to be called by the
// audio sink at its own cadence.
func (r *Receiver) Read(p []float32) (int, error) {
	return r.mix.Read(p)
}

func (r *Receiver) detach(s *Stream) {
	for _, out := range s.outputs {
		r.mix.Remove(out)
	}
}

// streamError is called by a stream receive loop that failed fatally.
func (r *Receiver) streamError(s *Stream, err error) {
	if r.OnStreamError != nil {
		r.OnStreamError(s, err)
	}
}
