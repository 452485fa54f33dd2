package voice

import (
	"context"
	"io"
	"sync"

	"go.uber.org/zap"

	"willybot/pkg/errors"
)

// Player feeds a resource's opus packets into a voice connection. The
// transport paces frames itself, so the send loop blocks on OpusSend the
// way the gateway library expects.
type Player struct {
	conn   Conn
	res    *Resource
	logger *zap.Logger

	playing   chan struct{} // closed when the first packet is sent
	idle      chan struct{} // closed when the stream drains or Stop is called
	stop      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewPlayer creates a player for one resource. Call Start to begin.
func NewPlayer(conn Conn, res *Resource, logger *zap.Logger) *Player {
	return &Player{
		conn:    conn,
		res:     res,
		logger:  logger,
		playing: make(chan struct{}),
		idle:    make(chan struct{}),
		stop:    make(chan struct{}),
	}
}

// Start launches the send loop.
func (p *Player) Start() {
	p.startOnce.Do(func() {
		go p.loop()
	})
}

// Stop aborts playback. Safe to call more than once and from any
// goroutine.
func (p *Player) Stop() {
	p.stopOnce.Do(func() {
		close(p.stop)
	})
}

// WaitPlaying blocks until the first packet has been sent, the player
// went idle without sending anything, or the context deadline expires.
func (p *Player) WaitPlaying(ctx context.Context) error {
	select {
	case <-p.playing:
		return nil
	case <-p.idle:
		// Stream drained before any packet left; nothing to wait for
		return nil
	case <-ctx.Done():
		return errors.NewVoiceTimeout("player playing", 0)
	}
}

// WaitIdle blocks until playback finished (or was stopped), or the
// context deadline expires.
func (p *Player) WaitIdle(ctx context.Context) error {
	select {
	case <-p.idle:
		return nil
	case <-ctx.Done():
		return errors.NewVoiceTimeout("player idle", 0)
	}
}

func (p *Player) loop() {
	defer close(p.idle)

	if err := p.conn.Speaking(true); err != nil {
		p.logger.Warn("failed to set speaking state", zap.Error(err))
	}
	defer func() {
		if err := p.conn.Speaking(false); err != nil {
			p.logger.Debug("failed to clear speaking state", zap.Error(err))
		}
	}()

	frames := 0
	first := true
	for {
		select {
		case <-p.stop:
			return
		default:
		}

		pkt, err := p.res.Next()
		if err == io.EOF {
			p.logger.Debug("playback drained", zap.Int("frames", frames))
			return
		}
		if err != nil {
			p.logger.Warn("audio stream error", zap.Int("frames", frames), zap.Error(err))
			return
		}

		// Block until the transport accepts the frame or we are stopped
		select {
		case p.conn.OpusSend() <- pkt:
			frames++
			if first {
				close(p.playing)
				first = false
			}
		case <-p.stop:
			return
		}
	}
}
