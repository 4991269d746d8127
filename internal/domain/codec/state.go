package codec

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/AgentOS/kernel/internal/domain/groups"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/domain/session"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/domain/users"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/domain/vfs"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/errs"
)

// TreeDoc is the persisted filesystem: a single "/" entry.
type TreeDoc map[string]*NodeDoc

// State is the full kernel snapshot.
type State struct {
	FS      TreeDoc                  `json:"fs"`
	Users   map[string]users.Record  `json:"users"`
	Groups  map[string]groups.Record `json:"groups"`
	Session *session.Snapshot        `json:"session,omitempty"`
}

// EncodeTree converts a whole tree.
func EncodeTree(t *vfs.Tree) TreeDoc {
	return TreeDoc{vfs.RootPath: EncodeNode(t.Root())}
}

// DecodeTree converts a tree document into a root node. The document
// must hold exactly a "/" directory.
func DecodeTree(doc TreeDoc, fallback time.Time) (*vfs.Node, error) {
	rootDoc, ok := doc[vfs.RootPath]
	if !ok || len(doc) != 1 {
		return nil, errs.Newf(errs.KindInvalidArgument, "decode", vfs.RootPath, "snapshot must contain only the root directory")
	}
	root, err := DecodeNode(rootDoc, vfs.RootPath, fallback)
	if err != nil {
		return nil, err
	}
	if !root.IsDir() {
		return nil, errs.Invariant("decode", vfs.RootPath, "root must be a directory")
	}
	return root, nil
}

// MarshalTree encodes a tree to JSON.
func MarshalTree(t *vfs.Tree) ([]byte, error) {
	return sonic.ConfigStd.Marshal(EncodeTree(t))
}

// UnmarshalTree decodes JSON into a root node without touching any
// live tree.
func UnmarshalTree(data []byte, fallback time.Time) (*vfs.Node, error) {
	var doc TreeDoc
	if err := sonic.ConfigStd.Unmarshal(data, &doc); err != nil {
		return nil, errs.Newf(errs.KindInvalidArgument, "decode", "", "invalid snapshot JSON: %v", err)
	}
	return DecodeTree(doc, fallback)
}

// MarshalState encodes a full snapshot.
func MarshalState(s *State) ([]byte, error) {
	data, err := sonic.ConfigStd.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state: %w", err)
	}
	return data, nil
}

// UnmarshalState decodes a full snapshot document.
func UnmarshalState(data []byte) (*State, error) {
	var s State
	if err := sonic.ConfigStd.Unmarshal(data, &s); err != nil {
		return nil, errs.Newf(errs.KindInvalidArgument, "decode", "", "invalid state JSON: %v", err)
	}
	if s.FS == nil {
		return nil, errs.Newf(errs.KindInvalidArgument, "decode", "", "state has no filesystem")
	}
	return &s, nil
}

// IsStateDocument reports whether data is a full snapshot rather than a
// bare tree document.
func IsStateDocument(data []byte) bool {
	var probe map[string]interface{}
	if err := sonic.ConfigStd.Unmarshal(data, &probe); err != nil {
		return false
	}
	_, ok := probe["fs"]
	return ok
}

// MarshalSession encodes the persisted part of a session.
func MarshalSession(s session.Snapshot) ([]byte, error) {
	data, err := sonic.ConfigStd.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}
	return data, nil
}

// UnmarshalSession decodes a session document. Absent sections stay
// nil so the caller can tell them from empty ones.
func UnmarshalSession(data []byte) (session.Snapshot, error) {
	var s session.Snapshot
	if err := sonic.ConfigStd.Unmarshal(data, &s); err != nil {
		return session.Snapshot{}, errs.Newf(errs.KindInvalidArgument, "decode", "", "invalid session JSON: %v", err)
	}
	return s, nil
}
