package model

// Path represents a file system path.
type Path string

// Program describes a loaded program description.
type Program struct {
	Path  Path   `yaml:"path"`
	Name  string `yaml:"name"`
	Hash  string `yaml:"hash,omitempty"`
	Tests int    `yaml:"tests"`
	Defs  int    `yaml:"defs"`
}
