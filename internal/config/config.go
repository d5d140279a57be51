package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/xuri/excelize/v2"

	"codeberg.org/snonux/cardsheet/internal/sheet"
)

// Option cells on the options sheet
const (
	OptionImageURL = "LANG_IMG_URL"
	OptionSoundURL = "LANG_SOUND_URL"
)

type Config struct {
	Sheet  SheetConfig  `mapstructure:"sheet"`
	Search SearchConfig `mapstructure:"search"`
	Import ImportConfig `mapstructure:"import"`
	Export ExportConfig `mapstructure:"export"`
	OpenAI OpenAIConfig `mapstructure:"openai"`
	Audio  AudioConfig  `mapstructure:"audio"`
	Log    LogConfig    `mapstructure:"log"`
}

type SheetConfig struct {
	Name        string `mapstructure:"name"`
	Options     string `mapstructure:"options" validate:"required"`
	PreviewCell string `mapstructure:"preview_cell" validate:"omitempty,cell"`
}

type SearchConfig struct {
	ImageURL string        `mapstructure:"image_url" validate:"omitempty,url"`
	SoundURL string        `mapstructure:"sound_url" validate:"omitempty,url"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

type ImportConfig struct {
	Policy string `mapstructure:"policy" validate:"oneof=warn strict"`
}

type ExportConfig struct {
	Format    string `mapstructure:"format" validate:"oneof=csv apkg"`
	OutputDir string `mapstructure:"output_dir"`
	DeckName  string `mapstructure:"deck_name" validate:"required"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`
	From    string `mapstructure:"from"`
	To      string `mapstructure:"to"`
}

type AudioConfig struct {
	Player string `mapstructure:"player"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn warning error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// flagKeys maps command line flags to configuration keys
var flagKeys = map[string]string{
	"sheet":        "sheet.name",
	"preview-cell": "sheet.preview_cell",
	"image-url":    "search.image_url",
	"sound-url":    "search.sound_url",
	"timeout":      "search.timeout",
	"strict":       "import.policy",
	"format":       "export.format",
	"output":       "export.output_dir",
	"deck-name":    "export.deck_name",
	"player":       "audio.player",
	"log-level":    "log.level",
	"log-format":   "log.format",
}

type ConfigLoader struct {
	viper      *viper.Viper
	validator  *validator.Validate
	translator ut.Translator
}

// NewConfigLoader creates a loader reading configFile, or .cardsheet.yaml
// from the home or working directory when configFile is empty
func NewConfigLoader(configFile string) (*ConfigLoader, error) {
	validate, trans, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create new validator: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(".cardsheet")
		v.AddConfigPath("$HOME")
		v.AddConfigPath(".")
	}

	return &ConfigLoader{
		viper:      v,
		validator:  validate,
		translator: trans,
	}, nil
}

// Load merges defaults, the config file, CARDSHEET_* environment variables
// and the changed flags of fs, which may be nil
func (loader *ConfigLoader) Load(fs *pflag.FlagSet) (*Config, error) {
	v := loader.viper

	v.SetDefault("sheet.name", "")
	v.SetDefault("sheet.options", "Opt")
	v.SetDefault("sheet.preview_cell", "")
	v.SetDefault("search.image_url", "")
	v.SetDefault("search.sound_url", "")
	v.SetDefault("search.timeout", 30*time.Second)
	v.SetDefault("import.policy", "warn")
	v.SetDefault("export.format", "csv")
	v.SetDefault("export.output_dir", ".")
	v.SetDefault("export.deck_name", "cardsheet")
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.from", "")
	v.SetDefault("openai.to", "English")
	v.SetDefault("audio.player", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetEnvPrefix("CARDSHEET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The OpenAI key is also taken from the variable every OpenAI tool uses
	if err := v.BindEnv("openai.api_key", "CARDSHEET_OPENAI_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind OPENAI_API_KEY environment variable: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	if fs != nil {
		fs.Visit(func(f *pflag.Flag) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return
			}
			if f.Name == "strict" {
				if f.Value.String() == "true" {
					v.Set(key, "strict")
				}
				return
			}
			v.Set(key, f.Value.String())
		})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}
	if err := loader.Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration and reports every problem at once
func (loader *ConfigLoader) Validate(cfg *Config) error {
	if err := loader.validator.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		var errorMsgs []string
		for _, e := range validationErrors {
			errorMsgs = append(errorMsgs, e.Translate(loader.translator))
		}
		return fmt.Errorf("invalid configuration: %s", strings.Join(errorMsgs, ", "))
	}
	return nil
}

// PreviewAnchor returns the 0-based row and column of the preview cell;
// ok is false when none is configured
func (c *Config) PreviewAnchor() (row, col int, ok bool, err error) {
	if c.Sheet.PreviewCell == "" {
		return 0, 0, false, nil
	}
	col, row, err = excelize.CellNameToCoordinates(strings.ToUpper(c.Sheet.PreviewCell))
	if err != nil {
		return 0, 0, false, fmt.Errorf("preview cell %q: %w", c.Sheet.PreviewCell, err)
	}
	return row - 1, col - 1, true, nil
}

// LoadOptions fills the URL templates the configuration leaves empty from
// the option cells of the workbook. Options listed in required must be
// present in one of the two places.
func (loader *ConfigLoader) LoadOptions(ctx context.Context, grid sheet.Grid, cfg *Config, required ...string) error {
	targets := map[string]*string{
		OptionImageURL: &cfg.Search.ImageURL,
		OptionSoundURL: &cfg.Search.SoundURL,
	}

	for _, name := range []string{OptionImageURL, OptionSoundURL} {
		target := targets[name]
		if *target != "" {
			continue
		}
		value, err := grid.NamedValue(ctx, cfg.Sheet.Options, name)
		switch {
		case errors.Is(err, sheet.ErrOptionNotFound), errors.Is(err, sheet.ErrSheetNotFound):
			if isRequired(name, required) {
				return fmt.Errorf("option %s: %w", name, err)
			}
		case err != nil:
			return fmt.Errorf("failed to read option %s: %w", name, err)
		default:
			*target = value
		}
		if *target == "" && isRequired(name, required) {
			return fmt.Errorf("option %s is empty: %w", name, sheet.ErrOptionNotFound)
		}
	}
	return loader.Validate(cfg)
}

func isRequired(name string, required []string) bool {
	for _, r := range required {
		if r == name {
			return true
		}
	}
	return false
}
