package redis

const (
	// KeyLatestCards holds the JSON array of the latest visible cards
	KeyLatestCards = "pulse:cards:latest"
	// KeySummary holds the JSON summary of the latest visible cards
	KeySummary = "pulse:cards:summary"
	// KeyPrefixService is the prefix for per-service latest card keys
	KeyPrefixService = "pulse:service:"
	// KeyAllServices is the set of services present in the last snapshot
	KeyAllServices = "pulse:services:all"
	// ChannelEvents receives one message per snapshot
	ChannelEvents = "pulse:events"
)

// ServiceKey returns the key holding the latest card of a service
// ("env_name").
func ServiceKey(id string) string {
	return KeyPrefixService + id
}
