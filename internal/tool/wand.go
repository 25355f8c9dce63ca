package tool

import (
	"errors"

	"github.com/dshills/voxedit/internal/command"
	"github.com/dshills/voxedit/internal/session"
)

// KindSelectionWand is the kind of SelectionWand.
const KindSelectionWand = "selection_wand"

// WandItem is the item the selection wand is fixed to.
const WandItem = "minecraft:wooden_axe"

// ErrNoBlock is returned when the wand is used without a target block.
var ErrNoBlock = errors.New("no block targeted")

// SelectionWand sets selection points on the blocks it is used on: a break
// action sets the first point and a use action the second.
type SelectionWand struct{}

// Kind implements Tool.
func (SelectionWand) Kind() string { return KindSelectionWand }

// Use implements Tool. It never starts an edit, so done is not called.
func (SelectionWand) Use(s *session.Session, a Action, _ command.Done) error {
	if a.Target == nil {
		return ErrNoBlock
	}
	index := 1
	if a.Primary {
		index = 0
	}
	return s.Selection().Set(index, *a.Target)
}
