package backend

// FixtureConfig is the top-level structure of a fixture file.
type FixtureConfig struct {
	Configurations []FixtureService `yaml:"configurations"`
	Statuses       []FixtureStatus  `yaml:"statuses"`
}

// FixtureService is one configuration plus its outgoing edges.
type FixtureService struct {
	Name               string            `yaml:"name"`
	Env                string            `yaml:"env"`
	Hidden             bool              `yaml:"hidden,omitempty"`
	SnowID             string            `yaml:"snowID,omitempty"`
	Description        string            `yaml:"description,omitempty"`
	MaintenanceMessage string            `yaml:"maintenanceMessage,omitempty"`
	Links              map[string]string `yaml:"links,omitempty"`
	DependsOn          []FixtureRef      `yaml:"dependsOn,omitempty"`
}

// FixtureRef points at another service. Env defaults to the owner's env.
type FixtureRef struct {
	Env     string `yaml:"env,omitempty"`
	Service string `yaml:"service"`
}

// FixtureStatus is one status record. Status is the raw wire string,
// e.g. "GREEN(ok)" or "AMBER[flapping]".
type FixtureStatus struct {
	Env                string `yaml:"env"`
	Service            string `yaml:"service"`
	Status             string `yaml:"status"`
	MaintenanceMessage string `yaml:"maintenanceMessage,omitempty"`
	FirstSeen          string `yaml:"firstSeen"`
	LastSeen           string `yaml:"lastSeen"`
	NotificationSent   bool   `yaml:"notificationSent,omitempty"`
}
