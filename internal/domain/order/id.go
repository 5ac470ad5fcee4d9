package order

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalPrefix marks client-generated identifiers. Server identities never
// carry it.
const LocalPrefix = "OFF-"

type IDKind int

const (
	KindUnknown IDKind = iota
	KindLocal
	KindRemote
)

func (k IDKind) String() string {
	switch k {
	case KindLocal:
		return "local"
	case KindRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// ID is either a Local (client temporary) or a Remote (server assigned)
// order identity.
type ID struct {
	kind  IDKind
	value string
}

// NewLocalID returns OFF-<unix millis>-<8 hex>.
func NewLocalID(now time.Time) ID {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return ID{kind: KindLocal, value: fmt.Sprintf("%s%d-%s", LocalPrefix, now.UnixMilli(), suffix)}
}

// LocalID tags value as local, adding the prefix when missing.
func LocalID(value string) ID {
	if !strings.HasPrefix(value, LocalPrefix) {
		value = LocalPrefix + value
	}
	return ID{kind: KindLocal, value: value}
}

// RemoteID tags a server identity. A value carrying the local prefix is
// rejected so it can never be mistaken for one.
func RemoteID(value string) (ID, error) {
	if value == "" {
		return ID{}, fmt.Errorf("remote id is empty")
	}
	if strings.HasPrefix(value, LocalPrefix) {
		return ID{}, fmt.Errorf("%w: %s", ErrNotRemote, value)
	}
	return ID{kind: KindRemote, value: value}, nil
}

// ParseID classifies value by prefix.
func ParseID(value string) ID {
	switch {
	case value == "":
		return ID{}
	case strings.HasPrefix(value, LocalPrefix):
		return ID{kind: KindLocal, value: value}
	default:
		return ID{kind: KindRemote, value: value}
	}
}

func (id ID) Kind() IDKind { return id.kind }
func (id ID) IsLocal() bool { return id.kind == KindLocal }
func (id ID) IsRemote() bool { return id.kind == KindRemote }
func (id ID) IsZero() bool { return id.kind == KindUnknown }
func (id ID) String() string { return id.value }

func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.value)
}

func (id *ID) UnmarshalJSON(data []byte) error {
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	*id = ParseID(value)
	return nil
}
