package net

import (
	"testing"

	"go.uber.org/zap"
)

func TestAllowPacketUnderCeiling(t *testing.T) {
	s := &Session{pktPerSec: 100, log: zap.NewNop()}
	for i := 0; i < 100; i++ {
		if !s.allowPacket(1000) {
			t.Fatalf("packet %d rejected under the ceiling", i+1)
		}
	}
}

func TestAllowPacketKicksOverCeiling(t *testing.T) {
	s := &Session{pktPerSec: 100, log: zap.NewNop()}
	for i := 0; i < 100; i++ {
		s.allowPacket(1000)
	}
	if s.allowPacket(1000) {
		t.Fatalf("packet 101 in the same second should be rejected")
	}
}

func TestAllowPacketResetsEachSecond(t *testing.T) {
	s := &Session{pktPerSec: 100, log: zap.NewNop()}
	for i := 0; i < 100; i++ {
		s.allowPacket(1000)
	}
	if !s.allowPacket(1001) {
		t.Fatalf("counter should reset on a new second")
	}
}

func TestAllowPacketZeroMeansUnlimited(t *testing.T) {
	s := &Session{pktPerSec: 0, log: zap.NewNop()}
	for i := 0; i < 10_000; i++ {
		if !s.allowPacket(1000) {
			t.Fatalf("unlimited session rejected packet %d", i+1)
		}
	}
}

func TestFlushOutputDropsTickOnFullQueue(t *testing.T) {
	s := &Session{
		OutQueue: make(chan []byte, 2),
		log:      zap.NewNop(),
	}
	for i := 0; i < 4; i++ {
		s.Send([]byte{byte(i)})
	}

	if dropped := s.FlushOutput(); dropped != 2 {
		t.Fatalf("dropped = %d, want 2", dropped)
	}
	if got := len(s.OutQueue); got != 2 {
		t.Fatalf("queued packets = %d, want 2", got)
	}
	if len(s.outBuf) != 0 {
		t.Fatalf("outBuf not cleared after drop")
	}
	if s.IsClosed() {
		t.Fatalf("slow consumer must not be disconnected")
	}

	// Next tick starts from a clean buffer and delivers once there is room.
	<-s.OutQueue
	<-s.OutQueue
	s.Send([]byte{9})
	if dropped := s.FlushOutput(); dropped != 0 {
		t.Fatalf("dropped = %d with room in the queue", dropped)
	}
	if got := <-s.OutQueue; got[0] != 9 {
		t.Fatalf("next tick packet = %v", got)
	}
}

func TestSendAfterCloseDropped(t *testing.T) {
	s := &Session{OutQueue: make(chan []byte, 2), log: zap.NewNop()}
	s.closed.Store(true)
	s.Send([]byte{1})
	if len(s.outBuf) != 0 {
		t.Fatalf("send buffered after close")
	}
}

func TestSessionStore(t *testing.T) {
	store := NewSessionStore()
	a := &Session{ID: 1}
	b := &Session{ID: 2}

	store.Add(a)
	store.Add(b)
	if store.Len() != 2 || store.Get(1) != a {
		t.Fatalf("store state unexpected: len=%d", store.Len())
	}

	seen := 0
	store.ForEach(func(*Session) { seen++ })
	if seen != 2 {
		t.Fatalf("ForEach visited %d, want 2", seen)
	}

	store.Remove(1)
	if store.Get(1) != nil || store.Len() != 1 {
		t.Fatalf("remove failed: len=%d", store.Len())
	}
}
