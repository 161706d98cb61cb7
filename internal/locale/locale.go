// Package locale renders response messages in the caller's language. Catalogs are
// embedded TOML files; pt-BR is the default language of the dashboard.
package locale

import (
	"embed"
	"fmt"
	"io/fs"
	"path"

	"github.com/BurntSushi/toml"
	"github.com/gofiber/fiber/v2"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	apperrors "github.com/complexorj/staff-dashboard/pkg/util"
)

const localizerKey = "locale_localizer"

//go:embed messages/*.toml
var catalogs embed.FS

// Translator owns the message bundle.
type Translator struct {
	bundle      *i18n.Bundle
	defaultLang string
}

// New loads every embedded catalog. defaultLang is used when the request does not
// name a supported language.
func New(defaultLang string) (*Translator, error) {
	tag, err := language.Parse(defaultLang)
	if err != nil {
		return nil, fmt.Errorf("parse default language %q: %w", defaultLang, err)
	}

	bundle := i18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	entries, err := fs.ReadDir(catalogs, "messages")
	if err != nil {
		return nil, fmt.Errorf("read catalogs: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, err := bundle.LoadMessageFileFS(catalogs, path.Join("messages", entry.Name())); err != nil {
			return nil, fmt.Errorf("load catalog %s: %w", entry.Name(), err)
		}
	}

	return &Translator{bundle: bundle, defaultLang: tag.String()}, nil
}

// Localizer binds the translator to an Accept-Language value.
func (t *Translator) Localizer(acceptLanguage string) *Localizer {
	return &Localizer{inner: i18n.NewLocalizer(t.bundle, acceptLanguage, t.defaultLang)}
}

// Localizer renders messages for one request.
type Localizer struct {
	inner *i18n.Localizer
}

// T renders messageID. Template values of type MessageRef are rendered first.
// Unknown ids come back unchanged.
func (l *Localizer) T(messageID string, data map[string]any) string {
	if l == nil || l.inner == nil {
		return messageID
	}
	var templateData map[string]any
	if len(data) > 0 {
		templateData = make(map[string]any, len(data))
		for k, v := range data {
			if ref, ok := v.(apperrors.MessageRef); ok {
				templateData[k] = l.T(string(ref), nil)
				continue
			}
			templateData[k] = v
		}
	}
	msg, err := l.inner.Localize(&i18n.LocalizeConfig{MessageID: messageID, TemplateData: templateData})
	if err != nil {
		return messageID
	}
	return msg
}

// Middleware stores a request-scoped localizer built from Accept-Language.
func Middleware(t *Translator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(localizerKey, t.Localizer(c.Get(fiber.HeaderAcceptLanguage)))
		return c.Next()
	}
}

// FromCtx returns the request localizer; a nil localizer echoes message ids.
func FromCtx(c *fiber.Ctx) *Localizer {
	l, _ := c.Locals(localizerKey).(*Localizer)
	return l
}

// T is shorthand for FromCtx(c).T.
func T(c *fiber.Ctx, messageID string, data map[string]any) string {
	return FromCtx(c).T(messageID, data)
}
