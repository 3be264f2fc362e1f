package schedule

import (
	"strings"

	"github.com/korjavin/teamslots/pkg/apperr"
)

// Action is a decision taken by a proposal's creator. It is either Confirm
// or Cancel.
type Action interface {
	ProposalID() string
	// Data encodes the action for an inline button
	Data() string
	isAction()
}

// Confirm promotes a proposal into a confirmed slot
type Confirm struct {
	ID string
}

// Cancel drops a proposal
type Cancel struct {
	ID string
}

const (
	confirmTag = "confirm"
	cancelTag  = "cancel"
)

func (c Confirm) ProposalID() string { return c.ID }
func (c Confirm) Data() string       { return confirmTag + ":" + c.ID }
func (Confirm) isAction()            {}

func (c Cancel) ProposalID() string { return c.ID }
func (c Cancel) Data() string       { return cancelTag + ":" + c.ID }
func (Cancel) isAction()            {}

// ParseAction decodes inline button data produced by Action.Data
func ParseAction(data string) (Action, error) {
	tag, id, ok := strings.Cut(data, ":")
	if !ok || id == "" {
		return nil, apperr.Newf(apperr.KindParse, "unknown action %q", data)
	}

	switch tag {
	case confirmTag:
		return Confirm{ID: id}, nil
	case cancelTag:
		return Cancel{ID: id}, nil
	}
	return nil, apperr.Newf(apperr.KindParse, "unknown action %q", data)
}
