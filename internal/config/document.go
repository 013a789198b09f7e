package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// DocumentConfig holds the rendering defaults read from document.yml.
type DocumentConfig struct {
	Locale          string  `mapstructure:"locale"`
	DefaultCurrency string  `mapstructure:"defaultCurrency"`
	Product         string  `mapstructure:"product"`
	PageWidth       float64 `mapstructure:"pageWidth"`
	PageHeight      float64 `mapstructure:"pageHeight"`
	MarginMM        float64 `mapstructure:"marginMM"`
	// NumberAttempts is how many fresh document numbers an insert tries
	// before giving up on a unique-key clash.
	NumberAttempts int `mapstructure:"numberAttempts"`
}

func DefaultDocumentConfig() DocumentConfig {
	return DocumentConfig{
		Locale:          "en-US",
		DefaultCurrency: "USD",
		Product:         "ByteBills",
		PageWidth:       210,
		PageHeight:      297,
		MarginMM:        20,
		NumberAttempts:  3,
	}
}

type DocumentConfigHolder struct {
	current atomic.Value // holds DocumentConfig
}

// NewStaticDocumentConfigHolder returns a holder that never reloads.
func NewStaticDocumentConfigHolder(cfg DocumentConfig) *DocumentConfigHolder {
	holder := &DocumentConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewDocumentConfigHolder(cfg Config, log *zap.Logger) (*DocumentConfigHolder, error) {
	log = log.Named("document-config")
	v := viper.New()

	v.SetConfigName("document")
	v.SetConfigType("yml")
	if cfg.DocumentConfigDir != "" {
		v.AddConfigPath(cfg.DocumentConfigDir)
	}
	v.AddConfigPath("/etc/bytebills")
	v.AddConfigPath(".")

	v.SetEnvPrefix("BYTEBILLS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultDocumentConfig()
	v.SetDefault("document.locale", defaults.Locale)
	v.SetDefault("document.defaultCurrency", defaults.DefaultCurrency)
	v.SetDefault("document.product", defaults.Product)
	v.SetDefault("document.pageWidth", defaults.PageWidth)
	v.SetDefault("document.pageHeight", defaults.PageHeight)
	v.SetDefault("document.marginMM", defaults.MarginMM)
	v.SetDefault("document.numberAttempts", defaults.NumberAttempts)

	watch := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		watch = false
	}

	doc, err := unmarshalDocumentConfig(v)
	if err != nil {
		return nil, err
	}
	if err := validateDocumentConfig(doc); err != nil {
		return nil, err
	}

	holder := NewStaticDocumentConfigHolder(doc)
	if !watch {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := unmarshalDocumentConfig(v)
		if err != nil {
			log.Warn("reload failed", zap.Error(err))
			return
		}
		if err := validateDocumentConfig(updated); err != nil {
			log.Warn("invalid config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

// unmarshalDocumentConfig goes through AllSettings so defaults fill keys
// the file leaves out.
func unmarshalDocumentConfig(v *viper.Viper) (DocumentConfig, error) {
	var wrapper struct {
		Document DocumentConfig `mapstructure:"document"`
	}
	if err := v.Unmarshal(&wrapper); err != nil {
		return DocumentConfig{}, err
	}
	return wrapper.Document, nil
}

func (h *DocumentConfigHolder) Get() DocumentConfig {
	return h.current.Load().(DocumentConfig)
}

func validateDocumentConfig(cfg DocumentConfig) error {
	if cfg.PageWidth <= 2*cfg.MarginMM || cfg.PageHeight <= 2*cfg.MarginMM {
		return errors.New("document page must be larger than its margins")
	}
	if cfg.MarginMM < 0 {
		return errors.New("document.marginMM cannot be negative")
	}
	if cfg.NumberAttempts < 1 {
		return errors.New("document.numberAttempts must be at least 1")
	}
	return nil
}
