// Package feedback lights the Launchpad buttons bound to scenes and turns
// button presses back into scene selections.
package feedback

import (
	"context"
	"fmt"

	"github.com/PixPMusic/launchbridge/internal/config"
	"github.com/PixPMusic/launchbridge/internal/midi"
	"go.uber.org/zap"
)

// DefaultHighlight is the palette color of the selected scene's button (bright green)
const DefaultHighlight uint8 = 21

// Link is the host side of the controller service
type Link interface {
	Send(cmd midi.Command) error
	NextEvent(ctx context.Context) (midi.Event, error)
}

// command returns the color command for a scene, or false if the scene has no
// button or nothing to show
func command(s config.Scene, selected bool, highlight uint8) (midi.Command, bool) {
	if s.LaunchpadButton == nil {
		return nil, false
	}

	var color uint8
	switch {
	case selected:
		color = highlight
	case s.LaunchpadColor != nil:
		color = *s.LaunchpadColor
	default:
		return nil, false
	}

	if s.LaunchpadIsCC {
		return midi.SetButtonColor{Control: *s.LaunchpadButton, Color: color}, true
	}
	return midi.SetPadColor{Pad: *s.LaunchpadButton, Color: color}, true
}

// Commands paints every bound scene from a cleared surface
func Commands(scenes []config.Scene, selectedID string, highlight uint8) []midi.Command {
	cmds := []midi.Command{midi.ClearAll{}}
	for _, s := range scenes {
		if cmd, ok := command(s, s.ID == selectedID, highlight); ok {
			cmds = append(cmds, cmd)
		}
	}
	return cmds
}

// SceneFor returns the scene bound to the pressed pad or button. Note bindings
// only answer NoteOn, CC bindings only ControlChange.
func SceneFor(scenes []config.Scene, ev midi.Event) (*config.Scene, bool) {
	var index uint8
	var isCC bool
	switch e := ev.(type) {
	case midi.NoteOn:
		index = e.Pad
	case midi.ControlChange:
		index, isCC = e.Control, true
	default:
		return nil, false
	}

	for i := range scenes {
		s := &scenes[i]
		if s.LaunchpadButton != nil && *s.LaunchpadButton == index && s.LaunchpadIsCC == isCC {
			return s, true
		}
	}
	return nil, false
}

// Renderer keeps the controller showing the scene bindings
type Renderer struct {
	link      Link
	scenes    []config.Scene
	selected  string
	highlight uint8
	log       *zap.Logger

	// OnSelect is called after a button press selected a scene
	OnSelect func(scene config.Scene)
}

// NewRenderer creates a renderer for the configured scenes
func NewRenderer(link Link, cfg *config.Config, log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{
		link:      link,
		scenes:    cfg.Scenes,
		selected:  cfg.SelectedSceneID,
		highlight: DefaultHighlight,
		log:       log,
	}
}

// Selected returns the ID of the selected scene
func (r *Renderer) Selected() string {
	return r.selected
}

// Run handles controller events until ctx is done
func (r *Renderer) Run(ctx context.Context) error {
	for {
		ev, err := r.link.NextEvent(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to receive controller event: %w", err)
		}
		if err := r.handle(ev); err != nil {
			return err
		}
	}
}

func (r *Renderer) handle(ev midi.Event) error {
	switch ev.(type) {
	case midi.Connected:
		r.log.Info("Launchpad ready, painting scene buttons")
		return r.send(Commands(r.scenes, r.selected, r.highlight)...)
	case midi.Disconnected:
		r.log.Info("Launchpad gone, scene buttons will be repainted on reconnect")
		return nil
	}

	scene, ok := SceneFor(r.scenes, ev)
	if !ok {
		r.log.Debug("unbound control", zap.Any("event", ev))
		return nil
	}
	if scene.ID == r.selected {
		return nil
	}

	var cmds []midi.Command
	if prev, ok := r.find(r.selected); ok {
		if cmd, ok := command(*prev, false, r.highlight); ok {
			cmds = append(cmds, cmd)
		} else if prev.LaunchpadButton != nil {
			cmds = append(cmds, off(*prev))
		}
	}
	r.selected = scene.ID
	if cmd, ok := command(*scene, true, r.highlight); ok {
		cmds = append(cmds, cmd)
	}

	r.log.Info("scene selected", zap.String("scene", scene.Name), zap.String("id", scene.ID))
	if r.OnSelect != nil {
		r.OnSelect(*scene)
	}
	return r.send(cmds...)
}

func (r *Renderer) find(id string) (*config.Scene, bool) {
	for i := range r.scenes {
		if r.scenes[i].ID == id {
			return &r.scenes[i], true
		}
	}
	return nil, false
}

// off turns a bound button dark. Only called for scenes with a button.
func off(s config.Scene) midi.Command {
	if s.LaunchpadIsCC {
		return midi.SetButtonColor{Control: *s.LaunchpadButton}
	}
	return midi.SetPadColor{Pad: *s.LaunchpadButton}
}

func (r *Renderer) send(cmds ...midi.Command) error {
	for _, cmd := range cmds {
		if err := r.link.Send(cmd); err != nil {
			return fmt.Errorf("failed to queue command: %w", err)
		}
	}
	return nil
}
