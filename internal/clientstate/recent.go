package clientstate

import "github.com/lsnp/lsnp/internal/types"

// AddRecentMessageSent records m in the sent log.
func (s *State) AddRecentMessageSent(m types.RecentMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recentSent = append(s.recentSent, m)
}

// AddRecentMessageReceived records m in the received log, unless m's
// token has been revoked, in which case it is silently dropped
// (spec.md §4.5).
func (s *State) AddRecentMessageReceived(m types.RecentMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tok, ok := m.BearerToken(); ok {
		if _, revoked := s.revoked[tok.String()]; revoked {
			return
		}
	}
	s.recentReceived = append(s.recentReceived, m)
}

// GetRecentMessagesSent returns the sent log.
func (s *State) GetRecentMessagesSent() []types.RecentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.RecentMessage, len(s.recentSent))
	copy(out, s.recentSent)
	return out
}

// GetRecentMessagesReceived returns the received log.
func (s *State) GetRecentMessagesReceived() []types.RecentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.RecentMessage, len(s.recentReceived))
	copy(out, s.recentReceived)
	return out
}

// CleanupExpiredMessages removes, from both the sent and received
// stores, any message whose bearer token has expired, returning the
// removed messages so other components (e.g. filestate) can react.
func (s *State) CleanupExpiredMessages() []types.RecentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []types.RecentMessage

	s.recentSent = filterExpired(s.recentSent, &expired)
	s.recentReceived = filterExpired(s.recentReceived, &expired)

	return expired
}

func filterExpired(in []types.RecentMessage, expired *[]types.RecentMessage) []types.RecentMessage {
	out := in[:0:0]
	for _, m := range in {
		tok, ok := m.BearerToken()
		if ok && tok.IsExpired() {
			*expired = append(*expired, m)
			continue
		}
		out = append(out, m)
	}
	return out
}

// GetPostMessage looks up a recently sent POST by its TIMESTAMP field.
func (s *State) GetPostMessage(ts types.Timestamp) (types.RecentMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.recentSent {
		if m.MessageType() != "POST" {
			continue
		}
		if ts2, ok := m.(types.Timestamped); ok && ts2.MessageTimestamp() == ts {
			return m, true
		}
	}
	return nil, false
}

// GetAckMessage scans both recent stores for an ACK correlating to mid.
func (s *State) GetAckMessage(mid types.MessageID) (types.RecentMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, store := range [][]types.RecentMessage{s.recentSent, s.recentReceived} {
		for _, m := range store {
			if m.MessageType() != "ACK" {
				continue
			}
			if c, ok := m.(types.Correlated); ok && c.CorrelationID() == mid {
				return m, true
			}
		}
	}
	return nil, false
}

// RevokeToken records tok as revoked and removes any recent received
// messages bearing it. Revoking the same token twice is a no-op on the
// second call.
func (s *State) RevokeToken(tok types.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := tok.String()
	s.revoked[key] = struct{}{}

	filtered := s.recentReceived[:0:0]
	for _, m := range s.recentReceived {
		if t, ok := m.BearerToken(); ok && t.String() == key {
			continue
		}
		filtered = append(filtered, m)
	}
	s.recentReceived = filtered
}

// IsRevoked reports whether tok has been revoked.
func (s *State) IsRevoked(tok types.Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.revoked[tok.String()]
	return ok
}
