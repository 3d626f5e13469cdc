// emberbot is a headless load/behaviour client: it joins the world, wanders
// with predicted movement, and reconciles its position against the server's
// replication stream. Useful for soak-testing the tick loop and eyeballing
// prediction drift.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/emberwold/server/internal/client"
	"github.com/emberwold/server/internal/gamemap"
	"github.com/emberwold/server/internal/net/packet"
	"github.com/emberwold/server/internal/sim"
	"github.com/emberwold/server/internal/world"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "server address")
	name := flag.String("name", "", "character name (random when empty)")
	speed := flag.Float64("speed", 200, "movement speed in pixels per second, must match the server")
	duration := flag.Duration("duration", 0, "exit after this long (0 = run forever)")
	seed := flag.Int64("seed", 0, "wander RNG seed (0 = time-based)")
	flag.Parse()

	log, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(*addr, *name, *speed, *duration, *seed, log); err != nil {
		log.Fatal("機器人結束於錯誤", zap.Error(err))
	}
}

const tickInterval = time.Second / 60

func run(addr, name string, speed float64, duration time.Duration, seed int64, log *zap.Logger) error {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	if name == "" {
		name = fmt.Sprintf("bot%06d", rng.Intn(1_000_000))
	}

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws", nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	species := uint8(rng.Intn(int(world.SpeciesCount)))
	class := uint8(rng.Intn(int(world.ClassCount)))
	if err := conn.WriteMessage(websocket.BinaryMessage, packet.WriteJoin(packet.JoinMsg{
		Name:    name,
		Species: species,
		Class:   class,
	})); err != nil {
		return fmt.Errorf("send join: %w", err)
	}
	log.Info("已送出加入請求", zap.String("name", name))

	frames := make(chan []byte, 256)
	readErr := make(chan error, 1)
	go func() {
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			if mt != websocket.BinaryMessage {
				continue
			}
			frames <- data
		}
	}()

	model := client.NewModel()
	predictor := client.NewPredictor(speed, tickInterval.Seconds(), 256)

	var (
		inWorld  bool
		seq      uint32
		move     sim.Vec2
		moveLeft int // ticks until the wander direction is re-rolled
	)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	var deadline <-chan time.Time
	if duration > 0 {
		deadline = time.After(duration)
	}

	for {
		select {
		case err := <-readErr:
			return fmt.Errorf("read: %w", err)

		case data := <-frames:
			r := packet.NewReader(data)
			switch r.Opcode() {
			case packet.S_OPCODE_SNAPSHOT:
				snap := packet.ReadSnapshot(r)
				model.ApplySnapshot(snap)
				if me, ok := model.Player(); ok {
					predictor.Reset(sim.Vec2{X: float64(me.X), Y: float64(me.Y)})
				}
				inWorld = true
				log.Info("收到世界快照",
					zap.String("map", snap.MapName),
					zap.Int("entities", model.EntityCount()),
					zap.Int("chunks", model.ChunkCount()),
				)

			case packet.S_OPCODE_DELTA:
				d := packet.ReadDelta(r)
				if !model.ApplyDelta(d) {
					log.Warn("增量序號不連續，等待下一份快照", zap.Uint32("got", d.Sequence))
					continue
				}
				if me, ok := model.Player(); ok && d.AckSequence > 0 {
					auth := sim.Vec2{X: float64(me.X), Y: float64(me.Y)}
					predictor.Reconcile(auth, d.AckSequence, model)
				}

			case packet.S_OPCODE_CHUNKS_LOADED:
				n := int(r.ReadH())
				chunks := make([]*gamemap.Chunk, 0, n)
				for i := 0; i < n; i++ {
					chunks = append(chunks, packet.ReadChunk(r))
				}
				model.ApplyChunksLoaded(chunks)

			case packet.S_OPCODE_CHUNKS_UNLOADED:
				n := int(r.ReadH())
				coords := make([]gamemap.Coord, 0, n)
				for i := 0; i < n; i++ {
					coords = append(coords, gamemap.Coord{CX: r.ReadD(), CY: r.ReadD()})
				}
				model.ApplyChunksUnloaded(coords)

			case packet.S_OPCODE_JOIN_DENIED:
				return fmt.Errorf("join denied: %s", r.ReadS())
			}

		case <-ticker.C:
			if !inWorld {
				continue
			}
			if moveLeft <= 0 {
				move = wanderDirection(rng)
				moveLeft = 30 + rng.Intn(90)
			}
			moveLeft--

			seq++
			ts := uint64(time.Now().UnixMilli())
			frame := packet.WritePlayerInput(packet.PlayerInputMsg{
				Sequence:  seq,
				Timestamp: ts,
				MoveX:     float32(move.X),
				MoveY:     float32(move.Y),
				Action:    packet.ActionNone,
			})
			if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				return fmt.Errorf("send input: %w", err)
			}
			predictor.Predict(seq, ts, move.X, move.Y, model)

		case <-deadline:
			pos := predictor.Pos()
			log.Info("機器人結束",
				zap.Float64("x", pos.X),
				zap.Float64("y", pos.Y),
				zap.Int("pending_inputs", predictor.PendingInputs()),
			)
			return nil
		}
	}
}

// wanderDirection rolls a fresh movement vector: mostly cardinal/diagonal
// strides, occasionally standing still.
func wanderDirection(rng *rand.Rand) sim.Vec2 {
	if rng.Float64() < 0.2 {
		return sim.Vec2{}
	}
	dirs := [8]sim.Vec2{
		{X: 1}, {X: -1}, {Y: 1}, {Y: -1},
		{X: 1, Y: 1}, {X: 1, Y: -1}, {X: -1, Y: 1}, {X: -1, Y: -1},
	}
	return dirs[rng.Intn(len(dirs))]
}
