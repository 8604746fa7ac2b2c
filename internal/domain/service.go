package domain

// ServiceKey identifies a configuration and everything keyed to it.
//
// It is stable for the lifetime of the configuration and never reused
// across unrelated services.
type ServiceKey struct {
	Environment string
	Name        string
}

// String returns "env_name", the form used for visited sets and ordering.
func (k ServiceKey) String() string {
	return k.Environment + "_" + k.Name
}

// ServiceReference is an edge endpoint in a dependency or dependent list.
// It owns nothing: it is only a lookup key into the repository.
type ServiceReference struct {
	Environment string `json:"environment"`
	Service     string `json:"service"`
}

// Key returns the referenced service key.
func (r ServiceReference) Key() ServiceKey {
	return ServiceKey{Environment: r.Environment, Name: r.Service}
}

// ReferenceTo builds a reference pointing at key.
func ReferenceTo(key ServiceKey) ServiceReference {
	return ServiceReference{Environment: key.Environment, Service: key.Name}
}

// ServiceLinks groups the external links shown for a service.
type ServiceLinks struct {
	Home          string `json:"home"`
	Snow          string `json:"snow"`
	Support       string `json:"support"`
	Documentation string `json:"documentation"`
	Github        string `json:"github"`
}

// ServiceConfiguration is the static-ish metadata of one monitored service.
//
// The check action and notification settings are backend-defined and are
// carried through untouched.
type ServiceConfiguration struct {
	// ─────────────────────────────
	// Identity (composite key)
	// ─────────────────────────────

	Name string `json:"name"`
	Env  string `json:"env"`

	// ─────────────────────────────
	// Presentation
	// ─────────────────────────────

	Hidden             bool         `json:"hidden"`
	SnowID             string       `json:"snowID"`
	Description        string       `json:"description"`
	MaintenanceMessage string       `json:"maintenanceMessage"`
	Links              ServiceLinks `json:"links"`

	// ─────────────────────────────
	// Checks & notifications (opaque)
	// ─────────────────────────────

	StatusCheckAction                  map[string]any   `json:"statusCheckAction,omitempty"`
	StatusCheckIntervalSeconds         int              `json:"statusCheckIntervalSeconds"`
	StatusCheckNonGreenIntervalSeconds int              `json:"statusCheckNonGreenIntervalSeconds"`
	NotificationCondition              map[string]any   `json:"notificationCondition,omitempty"`
	NotificationAction                 []map[string]any `json:"notificationAction,omitempty"`
}

// Key returns the configuration's composite key.
func (c ServiceConfiguration) Key() ServiceKey {
	return ServiceKey{Environment: c.Env, Name: c.Name}
}

// RefinedStatus is one historical status record of a service.
//
// Within a service it is uniquely identified by FirstSeen. Timestamps are
// kept in their ISO-8601 wire form: they are map keys and sort keys.
type RefinedStatus struct {
	ServiceName        string    `json:"serviceName"`
	Env                string    `json:"env"`
	Status             RawStatus `json:"status"`
	MaintenanceMessage string    `json:"maintenanceMessage"`
	FirstSeen          string    `json:"firstSeen"`
	LastSeen           string    `json:"lastSeen"`
	NotificationSent   bool      `json:"notificationSent"`
}

// Key returns the key of the service this record belongs to.
func (s RefinedStatus) Key() ServiceKey {
	return ServiceKey{Environment: s.Env, Name: s.ServiceName}
}
