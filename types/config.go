package types

// Capability describes one browser configuration of the run
type Capability struct {
	BrowserName  string `yaml:"browserName" toml:"browserName"`
	MaxInstances int    `yaml:"maxInstances" toml:"maxInstances"`
}

// ReporterOptions are the options handed to the reporter by the run config
type ReporterOptions struct {
	OutputDir      string `yaml:"outputDir" toml:"outputDir"`
	ReportFilename string `yaml:"reportFilename" toml:"reportFilename"`
}

// RunConfig is the subset of the test run configuration the report uses
type RunConfig struct {
	Host            string          `yaml:"host" toml:"host"`
	Port            int             `yaml:"port" toml:"port"`
	BaseURL         string          `yaml:"baseUrl" toml:"baseUrl"`
	WaitforTimeout  int             `yaml:"waitforTimeout" toml:"waitforTimeout"` // milliseconds
	Capabilities    []Capability    `yaml:"capabilities" toml:"capabilities"`
	ReporterOptions ReporterOptions `yaml:"reporterOptions" toml:"reporterOptions"`
}

// PrimaryCapability returns the first capability, or the zero value
func (c RunConfig) PrimaryCapability() Capability {
	if len(c.Capabilities) == 0 {
		return Capability{}
	}
	return c.Capabilities[0]
}
