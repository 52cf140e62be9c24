package flags

import (
	"strings"
	"sync"

	"github.com/oarkflow/smsc-simulator/pkg/smpp"
)

// Wildcard is the identity whose flags apply to every ESME without an
// explicit entry for that feature.
const Wildcard = "*"

// Store is a per-identity feature flag table. Lookups fall back from the
// identity to the wildcard entry, and then to false. Identities and feature
// names are matched case-insensitively, as configuration keys are.
type Store struct {
	mu     sync.RWMutex
	flags  map[string]map[string]bool
	logger smpp.Logger
}

// NewStore creates a flag store seeded from an identity → feature → value
// table, typically the features section of the configuration.
func NewStore(initial map[string]map[string]bool, logger smpp.Logger) *Store {
	s := &Store{
		flags:  make(map[string]map[string]bool, len(initial)),
		logger: logger,
	}
	for identity, features := range initial {
		for feature, on := range features {
			s.set(identity, feature, on)
		}
	}
	return s
}

// Enabled reports whether feature is on for identity.
func (s *Store) Enabled(identity, feature string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	identity, feature = strings.ToLower(identity), strings.ToLower(feature)
	if on, ok := s.flags[identity][feature]; ok {
		return on
	}
	return s.flags[Wildcard][feature]
}

// Set records a flag value for identity.
func (s *Store) Set(identity, feature string, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.set(identity, feature, on)

	if s.logger != nil {
		s.logger.Info("Feature flag updated", "identity", identity, "feature", feature, "enabled", on)
	}
}

func (s *Store) set(identity, feature string, on bool) {
	identity, feature = strings.ToLower(identity), strings.ToLower(feature)
	features, ok := s.flags[identity]
	if !ok {
		features = make(map[string]bool)
		s.flags[identity] = features
	}
	features[feature] = on
}
