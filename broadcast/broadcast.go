// broadcast/broadcast.go
package broadcast

import (
	"errors"

	"github.com/wfunc/idlerpg/session"
)

var (
	ErrPlayerOffline = errors.New("player has no live sessions")
)

// 广播接口
type Broadcaster interface {
	PushToPlayer(playerID string, msgID uint16, data []byte) error
	PushToAll(msgID uint16, data []byte) error
}

// SessionBroadcaster pushes state syncs and unlock notices to every live
// session of a player (multi-tab sync).
type SessionBroadcaster struct {
	sessionManager *session.Manager
}

func NewSessionBroadcaster(sessionManager *session.Manager) *SessionBroadcaster {
	return &SessionBroadcaster{sessionManager: sessionManager}
}

func (b *SessionBroadcaster) PushToPlayer(playerID string, msgID uint16, data []byte) error {
	sessions := b.sessionManager.ByPlayer(playerID)
	if len(sessions) == 0 {
		return ErrPlayerOffline
	}
	for _, s := range sessions {
		if err := s.Send(msgID, data); err != nil {
			continue
		}
	}
	return nil
}

func (b *SessionBroadcaster) PushToAll(msgID uint16, data []byte) error {
	for _, s := range b.sessionManager.All() {
		if err := s.Send(msgID, data); err != nil {
			continue
		}
	}
	return nil
}
