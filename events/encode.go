package events

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/ethereum-optimism/infra/op-testreport/types"
)

// Encoder writes events as JSON lines in the format Decode reads. It lets
// a worker process capture its events to a file instead of a live Store.
type Encoder struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{enc: json.NewEncoder(w)}
}

// Append writes a single event line
func (e *Encoder) Append(ev types.RawEvent) error {
	if err := ev.Validate(); err != nil {
		return fmt.Errorf("invalid event: %w", err)
	}
	msg := fromEvent(ev)
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.enc.Encode(msg); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	return nil
}

func fromEvent(ev types.RawEvent) outMessage {
	msg := outMessage{Event: string(ev.Kind)}
	switch ev.Kind {
	case types.EventCustomMain:
		a := ev.Main
		msg.CID, msg.File, msg.Key, msg.Value = a.CID, a.File, a.Key, &a.Value
	case types.EventCustomTest:
		a := ev.Test
		msg.CID, msg.File, msg.Title, msg.Key, msg.Value = a.CID, a.File, a.Title, a.Key, &a.Value
		msg.Parent = &a.ParentTitle
	case types.EventScreenshot:
		s := ev.Screenshot
		msg.CID, msg.Title, msg.Filename = s.CID, s.Title, s.ImagePath
		msg.Parent = &s.ParentTitle
	case types.EventSuiteEnd:
		s := ev.Suite
		msg.CID, msg.Title, msg.File = s.CID, s.Title, s.File
		if s.HasParent {
			msg.Parent = &s.ParentTitle
		}
	}
	return msg
}

type outMessage struct {
	Event    string  `json:"event"`
	CID      string  `json:"cid,omitempty"`
	File     string  `json:"file,omitempty"`
	Title    string  `json:"title,omitempty"`
	Parent   *string `json:"parent,omitempty"`
	Key      string  `json:"key,omitempty"`
	Value    *string `json:"value,omitempty"`
	Filename string  `json:"filename,omitempty"`
}
