package audio

//go:generate mockgen -source=player.go -destination=../mocks/audio/mock_player.go -package=mock_audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"sync"
)

// ErrNoPlayer is returned when no supported audio command is installed
var ErrNoPlayer = errors.New("no audio player found")

// Player starts playback of a sound URL
type Player interface {
	Play(ctx context.Context, url string) (Playback, error)
}

// Playback is a running playback
type Playback interface {
	// Stop ends the playback; calling it more than once is harmless
	Stop() error
}

// command describes an audio command able to play a URL
type command struct {
	name string
	args []string
}

// linux players in order of preference; all of them stream http URLs
var linuxCommands = []command{
	{name: "mpg123", args: []string{"-q"}},
	{name: "ffplay", args: []string{"-nodisp", "-autoexit", "-loglevel", "quiet"}},
	{name: "mpv", args: []string{"--no-video", "--really-quiet"}},
}

// CommandPlayer plays URLs with a system audio command
type CommandPlayer struct {
	cmd command
}

// NewCommandPlayer picks the first installed audio command for this
// platform. A non-empty name forces that command.
func NewCommandPlayer(name string) (*CommandPlayer, error) {
	if name != "" {
		path, err := exec.LookPath(name)
		if err != nil {
			return nil, fmt.Errorf("%s not found: %w", name, ErrNoPlayer)
		}
		for _, c := range linuxCommands {
			if c.name == name {
				return &CommandPlayer{cmd: command{name: path, args: c.args}}, nil
			}
		}
		return &CommandPlayer{cmd: command{name: path}}, nil
	}

	switch runtime.GOOS {
	case "darwin":
		// afplay cannot stream, ffplay from homebrew can
		if path, err := exec.LookPath("ffplay"); err == nil {
			return &CommandPlayer{cmd: command{name: path, args: linuxCommands[1].args}}, nil
		}
		if path, err := exec.LookPath("mpv"); err == nil {
			return &CommandPlayer{cmd: command{name: path, args: linuxCommands[2].args}}, nil
		}
	case "linux", "freebsd", "openbsd":
		for _, c := range linuxCommands {
			if path, err := exec.LookPath(c.name); err == nil {
				return &CommandPlayer{cmd: command{name: path, args: c.args}}, nil
			}
		}
	}
	return nil, fmt.Errorf("%w on %s: install mpg123, ffplay or mpv", ErrNoPlayer, runtime.GOOS)
}

// Name returns the path of the audio command
func (p *CommandPlayer) Name() string {
	return p.cmd.name
}

// Play starts the command in the background
func (p *CommandPlayer) Play(ctx context.Context, url string) (Playback, error) {
	args := append(append([]string{}, p.cmd.args...), url)
	cmd := exec.Command(p.cmd.name, args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start player: %w", err)
	}

	pb := &process{cmd: cmd, done: make(chan struct{})}
	go func() {
		err := cmd.Wait()
		if err != nil && !pb.stopped() {
			slog.Default().Debug("audio command ended", slog.String("url", url), slog.Any("error", err))
		}
		close(pb.done)
	}()
	return pb, nil
}

type process struct {
	cmd  *exec.Cmd
	done chan struct{}

	mu      sync.Mutex
	stopReq bool
}

func (p *process) stopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopReq
}

func (p *process) Stop() error {
	p.mu.Lock()
	if p.stopReq {
		p.mu.Unlock()
		return nil
	}
	p.stopReq = true
	p.mu.Unlock()

	select {
	case <-p.done:
		return nil
	default:
	}
	if err := p.cmd.Process.Kill(); err != nil {
		select {
		case <-p.done:
			return nil
		default:
		}
		return fmt.Errorf("failed to kill player: %w", err)
	}
	<-p.done
	return nil
}
