package packet

import (
	"github.com/emberwold/server/internal/data"
	"github.com/emberwold/server/internal/gamemap"
)

// EntityData is the full per-entity replication payload. The same layout is
// used inside snapshots, delta spawn lists and delta update lists.
type EntityData struct {
	ID       uint64
	Name     string
	X, Y     float32
	DX, DY   float32
	HPCur    int32
	HPMax    int32
	Stats    [6]byte
	SpriteID uint16
}

func (e *EntityData) WriteTo(w *Writer) {
	w.WriteQ(e.ID)
	w.WriteS(e.Name)
	w.WriteF(e.X)
	w.WriteF(e.Y)
	w.WriteF(e.DX)
	w.WriteF(e.DY)
	w.WriteD(e.HPCur)
	w.WriteD(e.HPMax)
	for _, b := range e.Stats {
		w.WriteC(b)
	}
	w.WriteH(e.SpriteID)
}

func ReadEntityData(r *Reader) EntityData {
	var e EntityData
	e.ID = r.ReadQ()
	e.Name = r.ReadS()
	e.X = r.ReadF()
	e.Y = r.ReadF()
	e.DX = r.ReadF()
	e.DY = r.ReadF()
	e.HPCur = r.ReadD()
	e.HPMax = r.ReadD()
	for i := range e.Stats {
		e.Stats[i] = r.ReadC()
	}
	e.SpriteID = r.ReadH()
	return e
}

// PlayerInputMsg is the decoded C_OPCODE_INPUT payload.
type PlayerInputMsg struct {
	Sequence  uint32
	Timestamp uint64 // client milliseconds
	MoveX     float32
	MoveY     float32
	Action    uint8
	TargetX   float32
	TargetY   float32
}

func WritePlayerInput(m PlayerInputMsg) []byte {
	w := NewWriter(C_OPCODE_INPUT)
	w.WriteDU(m.Sequence)
	w.WriteQ(m.Timestamp)
	w.WriteF(m.MoveX)
	w.WriteF(m.MoveY)
	w.WriteC(m.Action)
	w.WriteF(m.TargetX)
	w.WriteF(m.TargetY)
	return w.Bytes()
}

func ReadPlayerInput(r *Reader) PlayerInputMsg {
	return PlayerInputMsg{
		Sequence:  r.ReadDU(),
		Timestamp: r.ReadQ(),
		MoveX:     r.ReadF(),
		MoveY:     r.ReadF(),
		Action:    r.ReadC(),
		TargetX:   r.ReadF(),
		TargetY:   r.ReadF(),
	}
}

// JoinMsg is the decoded C_OPCODE_JOIN payload.
type JoinMsg struct {
	Name    string
	Species uint8
	Class   uint8
}

func WriteJoin(m JoinMsg) []byte {
	w := NewWriter(C_OPCODE_JOIN)
	w.WriteS(m.Name)
	w.WriteC(m.Species)
	w.WriteC(m.Class)
	return w.Bytes()
}

func ReadJoin(r *Reader) JoinMsg {
	return JoinMsg{
		Name:    r.ReadS(),
		Species: r.ReadC(),
		Class:   r.ReadC(),
	}
}

func WritePing(ts uint64) []byte {
	w := NewWriter(C_OPCODE_PING)
	w.WriteQ(ts)
	return w.Bytes()
}

func WritePong(ts uint64) []byte {
	w := NewWriter(S_OPCODE_PONG)
	w.WriteQ(ts)
	return w.Bytes()
}

// WriteChunk appends one chunk payload: coordinate, tile array, feature list.
func WriteChunk(w *Writer, ch *gamemap.Chunk) {
	w.WriteD(ch.Coord.CX)
	w.WriteD(ch.Coord.CY)
	w.WriteH(uint16(len(ch.Tiles)))
	for _, t := range ch.Tiles {
		w.WriteH(t)
	}
	w.WriteH(uint16(len(ch.Features)))
	for _, f := range ch.Features {
		w.WriteC(f.TileX)
		w.WriteC(f.TileY)
		w.WriteH(f.FeatureID)
	}
}

func ReadChunk(r *Reader) *gamemap.Chunk {
	ch := &gamemap.Chunk{}
	ch.Coord.CX = r.ReadD()
	ch.Coord.CY = r.ReadD()
	tiles := int(r.ReadH())
	ch.Tiles = make([]uint16, tiles)
	for i := range ch.Tiles {
		ch.Tiles[i] = r.ReadH()
	}
	features := int(r.ReadH())
	for i := 0; i < features; i++ {
		ch.Features = append(ch.Features, gamemap.Feature{
			TileX:     r.ReadC(),
			TileY:     r.ReadC(),
			FeatureID: r.ReadH(),
		})
	}
	return ch
}

// WriteTerrainIndex appends the tile-ID index carried by snapshots.
func WriteTerrainIndex(w *Writer, idx []data.TerrainType) {
	w.WriteH(uint16(len(idx)))
	for _, t := range idx {
		w.WriteH(t.ID)
		var walk byte
		if t.Walkable {
			walk = 1
		}
		w.WriteC(walk)
		w.WriteS(t.SpriteID)
	}
}

func ReadTerrainIndex(r *Reader) []data.TerrainType {
	n := int(r.ReadH())
	out := make([]data.TerrainType, 0, n)
	for i := 0; i < n; i++ {
		t := data.TerrainType{ID: r.ReadH()}
		t.Walkable = r.ReadC() == 1
		t.SpriteID = r.ReadS()
		out = append(out, t)
	}
	return out
}

// WriteFeatureIndex appends the feature-ID index carried by snapshots.
func WriteFeatureIndex(w *Writer, idx []data.FeatureType) {
	w.WriteH(uint16(len(idx)))
	for _, f := range idx {
		w.WriteH(f.ID)
		var blocks byte
		if f.BlocksMovement {
			blocks = 1
		}
		w.WriteC(blocks)
		w.WriteS(f.SpriteID)
	}
}

func ReadFeatureIndex(r *Reader) []data.FeatureType {
	n := int(r.ReadH())
	out := make([]data.FeatureType, 0, n)
	for i := 0; i < n; i++ {
		f := data.FeatureType{ID: r.ReadH()}
		f.BlocksMovement = r.ReadC() == 1
		f.SpriteID = r.ReadS()
		out = append(out, f)
	}
	return out
}

// SnapshotMsg is the decoded S_OPCODE_SNAPSHOT payload (client side).
type SnapshotMsg struct {
	MapID          string
	MapName        string
	PlayerEntityID uint64
	TerrainIndex   []data.TerrainType
	FeatureIndex   []data.FeatureType
	Chunks         []*gamemap.Chunk
	Entities       []EntityData
}

func ReadSnapshot(r *Reader) SnapshotMsg {
	var m SnapshotMsg
	m.MapID = r.ReadS()
	m.MapName = r.ReadS()
	m.PlayerEntityID = r.ReadQ()
	m.TerrainIndex = ReadTerrainIndex(r)
	m.FeatureIndex = ReadFeatureIndex(r)
	chunks := int(r.ReadH())
	for i := 0; i < chunks; i++ {
		m.Chunks = append(m.Chunks, ReadChunk(r))
	}
	entities := int(r.ReadH())
	for i := 0; i < entities; i++ {
		m.Entities = append(m.Entities, ReadEntityData(r))
	}
	return m
}

// DeltaMsg is the decoded S_OPCODE_DELTA payload (client side). AckSequence
// and AckTimestamp echo the receiver's last admitted input so the client
// predictor can discard confirmed history.
type DeltaMsg struct {
	Sequence     uint32
	AckSequence  uint32
	AckTimestamp uint64
	Spawned      []EntityData
	Updated      []EntityData
	Despawned    []uint64
}

func ReadDelta(r *Reader) DeltaMsg {
	var m DeltaMsg
	m.Sequence = r.ReadDU()
	m.AckSequence = r.ReadDU()
	m.AckTimestamp = r.ReadQ()
	spawned := int(r.ReadH())
	for i := 0; i < spawned; i++ {
		m.Spawned = append(m.Spawned, ReadEntityData(r))
	}
	updated := int(r.ReadH())
	for i := 0; i < updated; i++ {
		m.Updated = append(m.Updated, ReadEntityData(r))
	}
	despawned := int(r.ReadH())
	for i := 0; i < despawned; i++ {
		m.Despawned = append(m.Despawned, r.ReadQ())
	}
	return m
}
