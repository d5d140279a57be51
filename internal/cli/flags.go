package cli

// Flags holds all command-line flag values. Values that are also
// configuration keys only take effect when set on the command line.
type Flags struct {
	// Global flags
	CfgFile     string
	Sheet       string
	PreviewCell string
	ImageURL    string
	SoundURL    string
	LogLevel    string
	LogFormat   string

	// import
	From   string
	Strict bool

	// images, sounds
	Back bool

	// export
	Format    string
	OutputDir string
	DeckName  string

	// browse
	Player string
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		LogLevel:  "info",
		LogFormat: "text",
		Format:    "csv",
		OutputDir: ".",
		DeckName:  "cardsheet",
	}
}
