package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// ActionKind identifies a control action on the wire.
type ActionKind int

const (
	// ActionEcho requests the server echo the payload back verbatim.
	ActionEcho ActionKind = 1
	// ActionSetMeta declares the destination path, hash hint and size of
	// the next file transfer.
	ActionSetMeta ActionKind = 2
	// ActionStartSend switches the session into raw file streaming mode.
	ActionStartSend ActionKind = 3
	// ActionClearFileInfo discards a previously declared file descriptor.
	ActionClearFileInfo ActionKind = 4
	// ActionSetFileBlockSize negotiates the per-chunk size for streaming.
	ActionSetFileBlockSize ActionKind = 5
)

// String returns a human-readable name for the action kind.
func (k ActionKind) String() string {
	switch k {
	case ActionEcho:
		return "ECHO"
	case ActionSetMeta:
		return "SET_META"
	case ActionStartSend:
		return "START_SEND"
	case ActionClearFileInfo:
		return "CLEAR_FILE_INFO"
	case ActionSetFileBlockSize:
		return "SET_FILE_BLOCK_SIZE"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(k))
	}
}

// FileInfo describes one pending file transfer as declared by SET_META.
type FileInfo struct {
	// DestPath is the destination path relative to the server root.
	DestPath string `json:"dest_path"`
	// Hash is an optional content hash hint. It travels with the
	// metadata but is never verified by the server.
	Hash string `json:"hash,omitempty"`
	// Size is the exact number of content bytes that will follow
	// START_SEND.
	Size int64 `json:"size"`
}

// Action is a decoded control frame. Exactly the fields relevant to Kind
// are populated; the rest keep their zero values.
type Action struct {
	Kind ActionKind

	// Echo holds the compacted payload for ActionEcho, "null" when the
	// frame carried no data.
	Echo json.RawMessage
	// Meta holds the file descriptor for ActionSetMeta.
	Meta FileInfo
	// BlockSize holds the requested size for ActionSetFileBlockSize.
	BlockSize int
}

// envelope is the raw wire shape of a control frame.
type envelope struct {
	Action int             `json:"action"`
	Data   json.RawMessage `json:"data"`
}

// DecodeAction parses a single frame body (without the trailing delimiter)
// into an Action. Any failure, including invalid UTF-8, malformed JSON, an
// unknown action number or a payload of the wrong shape, is a parse error:
// the frame must be answered out of band and never enqueued.
func DecodeAction(frame []byte) (*Action, error) {
	if !utf8.Valid(frame) {
		return nil, fmt.Errorf("frame is not valid UTF-8")
	}

	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	act := &Action{Kind: ActionKind(env.Action)}
	switch act.Kind {
	case ActionEcho:
		if env.Data == nil {
			act.Echo = json.RawMessage("null")
			return act, nil
		}
		var buf bytes.Buffer
		if err := json.Compact(&buf, env.Data); err != nil {
			return nil, fmt.Errorf("decode echo payload: %w", err)
		}
		act.Echo = json.RawMessage(buf.Bytes())
		return act, nil

	case ActionSetMeta:
		dec := json.NewDecoder(bytes.NewReader(env.Data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&act.Meta); err != nil {
			return nil, fmt.Errorf("decode file info payload: %w", err)
		}
		return act, nil

	case ActionStartSend, ActionClearFileInfo:
		// No payload; anything present is ignored.
		return act, nil

	case ActionSetFileBlockSize:
		if err := json.Unmarshal(env.Data, &act.BlockSize); err != nil {
			return nil, fmt.Errorf("decode block size payload: %w", err)
		}
		return act, nil

	default:
		return nil, fmt.Errorf("unknown action %d", env.Action)
	}
}

// EncodeFrame builds a complete wire frame, delimiter included, for the
// given action kind and payload. A nil payload encodes as JSON null.
func EncodeFrame(kind ActionKind, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	frame, err := json.Marshal(envelope{Action: int(kind), Data: raw})
	if err != nil {
		return nil, fmt.Errorf("encode %s frame: %w", kind, err)
	}
	return append(frame, Delimiter), nil
}
